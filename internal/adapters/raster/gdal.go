//go:build gdal

package raster

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/assetmaps/bil2asset/internal/core/domain"
)

var registerGDAL sync.Once

// gdalCandidates are the GDAL raster drivers offered for input when the
// linked GDAL build provides them
var gdalCandidates = []godal.DriverName{
	"GTiff", "HFA", "ENVI", "EHdr", "AAIGrid", "XYZ", "USGSDEM", "SRTMHGT",
	"DTED", "NITF", "JP2OpenJPEG", "PNG", "JPEG", "GIF", "BMP", "netCDF",
	"GRIB", "HDF5", "VRT", "ERS", "RMF", "SAGA", "GSAG", "GSBG", "GS7BG",
	"BT", "PCIDSK", "ISIS3", "PDS4", "MRF", "KEA", "RST", "ILWIS", "GPKG",
}

// sidecarExts belong to other files' metadata and are never inputs
var sidecarExts = map[string]bool{"hdr": true, "prj": true, "aux": true, "xml": true, "ovr": true}

// GDALDriver reads band 1 of anything the linked GDAL library can open
type GDALDriver struct {
	exts []string
}

// NewGDALDriver registers GDAL's drivers and collects the file extensions
// they declare
func NewGDALDriver() *GDALDriver {
	registerGDAL.Do(godal.RegisterAll)

	seen := make(map[string]bool)
	for _, name := range gdalCandidates {
		drv, ok := godal.RasterDriver(name)
		if !ok {
			continue
		}
		list := drv.Metadata("DMD_EXTENSIONS")
		if list == "" {
			list = drv.Metadata("DMD_EXTENSION")
		}
		for _, ext := range strings.Fields(list) {
			ext = strings.ToLower(strings.TrimPrefix(ext, "."))
			if ext != "" && !sidecarExts[ext] {
				seen[ext] = true
			}
		}
	}

	exts := make([]string, 0, len(seen))
	for ext := range seen {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return &GDALDriver{exts: exts}
}

func (d *GDALDriver) Name() string { return "GDAL" }

func (d *GDALDriver) LongName() string { return "GDAL raster library" }

func (d *GDALDriver) Extensions() []string { return d.exts }

// Open reads band 1. The dataset is closed before returning on every path.
func (d *GDALDriver) Open(path string) (_ *domain.RasterDataset, err error) {
	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		return nil, fmt.Errorf("%w: gdal cannot open %s: %v", domain.ErrInvalidInput, path, err)
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close dataset: %w", cerr)
		}
	}()

	st := ds.Structure()
	if st.NBands < 1 {
		return nil, fmt.Errorf("%w: %s has no raster bands", domain.ErrInvalidInput, path)
	}
	width, height := st.SizeX, st.SizeY

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no geotransform: %v", domain.ErrInvalidInput, path, err)
	}
	if gt[2] != 0 || gt[4] != 0 {
		return nil, fmt.Errorf("%w: rotated grids are not supported", domain.ErrUnsupportedFormat)
	}

	band := ds.Bands()[0]
	dtype, err := gdalDataType(band.Structure().DataType)
	if err != nil {
		return nil, err
	}

	samples := make([]float64, width*height)
	if err := band.Read(0, 0, samples, width, height); err != nil {
		return nil, fmt.Errorf("failed to read band 1: %w", err)
	}

	var nodata *float64
	if v, ok := band.NoData(); ok {
		nodata = &v
	}

	res := domain.Resolution{X: gt[1], Y: -gt[5]}
	left, top := gt[0], gt[3]
	return &domain.RasterDataset{
		Path:     path,
		Driver:   d.Name(),
		Width:    width,
		Height:   height,
		Samples:  samples,
		CRS:      strings.TrimSpace(ds.Projection()),
		NoData:   nodata,
		DataType: dtype,
		Bounds: domain.Bounds{
			Left:   left,
			Right:  left + float64(width)*res.X,
			Bottom: top - float64(height)*res.Y,
			Top:    top,
		},
		Resolution: res,
	}, nil
}

func gdalDataType(dt godal.DataType) (domain.DataType, error) {
	switch dt {
	case godal.Byte:
		return domain.TypeUint8, nil
	case godal.Int16:
		return domain.TypeInt16, nil
	case godal.UInt16:
		return domain.TypeUint16, nil
	case godal.Int32:
		return domain.TypeInt32, nil
	case godal.UInt32:
		return domain.TypeUint32, nil
	case godal.Float32:
		return domain.TypeFloat32, nil
	case godal.Float64:
		return domain.TypeFloat64, nil
	}
	return "", fmt.Errorf("%w: gdal band type %v", domain.ErrUnsupportedFormat, dt)
}

func platformDrivers() []Driver {
	return []Driver{NewGDALDriver()}
}
