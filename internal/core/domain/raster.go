package domain

import "math"

// DataType names the sample encoding of a raster band
type DataType string

const (
	TypeUint8   DataType = "uint8"
	TypeInt16   DataType = "int16"
	TypeUint16  DataType = "uint16"
	TypeInt32   DataType = "int32"
	TypeUint32  DataType = "uint32"
	TypeFloat32 DataType = "float32"
	TypeFloat64 DataType = "float64"
)

// Bounds is the geographic extent of a raster, in CRS units
type Bounds struct {
	Left   float64
	Right  float64
	Bottom float64
	Top    float64
}

// Resolution is the pixel size; both components are positive
type Resolution struct {
	X float64
	Y float64
}

// RasterDataset is a single band grid with its georeferencing.
// Samples are stored row-major, top row first.
type RasterDataset struct {
	Path       string
	Driver     string
	Width      int
	Height     int
	Samples    []float64
	CRS        string
	Bounds     Bounds
	Resolution Resolution
	NoData     *float64
	DataType   DataType
}

// HasCRS reports whether the dataset can be geolocated
func (d *RasterDataset) HasCRS() bool {
	return d.CRS != ""
}

// IsNoData reports whether v equals the declared no-data value.
// A NaN sentinel matches NaN samples.
func (d *RasterDataset) IsNoData(v float64) bool {
	if d.NoData == nil {
		return false
	}
	nd := *d.NoData
	if math.IsNaN(nd) {
		return math.IsNaN(v)
	}
	return v == nd
}

// RemapNoData returns a copy of the samples with every no-data value
// replaced by target. The dataset itself is left untouched.
func (d *RasterDataset) RemapNoData(target float64) []float64 {
	out := make([]float64, len(d.Samples))
	for i, v := range d.Samples {
		if d.IsNoData(v) {
			out[i] = target
			continue
		}
		out[i] = v
	}
	return out
}

// Meta returns the metadata describing the dataset
func (d *RasterDataset) Meta() RasterMeta {
	return RasterMeta{
		Width:      d.Width,
		Height:     d.Height,
		CRS:        d.CRS,
		Bounds:     d.Bounds,
		Resolution: d.Resolution,
		DataType:   d.DataType,
		NoData:     d.NoData,
	}
}

// RasterMeta is the layout and georeferencing of a raster without its samples
type RasterMeta struct {
	Width      int
	Height     int
	CRS        string
	Bounds     Bounds
	Resolution Resolution
	DataType   DataType
	NoData     *float64
}

// ForAsset derives the output metadata for an ASSET layer: same grid and
// georeferencing, int16 samples and the format's no-data sentinel.
func (m RasterMeta) ForAsset(f AssetFormat) RasterMeta {
	nd := float64(f.NoData())
	out := m
	out.DataType = TypeInt16
	out.NoData = &nd
	return out
}
