package domain

import (
	"math"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestRasterDataset_RemapNoData(t *testing.T) {
	ds := &RasterDataset{
		Width:   3,
		Height:  2,
		Samples: []float64{1, -32768, 3, -32768, 5, 6},
		NoData:  ptr(-32768),
	}

	got := ds.RemapNoData(-9999)
	want := []float64{1, -9999, 3, -9999, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}

	// Source must be untouched
	if ds.Samples[1] != -32768 {
		t.Errorf("RemapNoData mutated the dataset: %v", ds.Samples)
	}
}

func TestRasterDataset_RemapWithoutNoData(t *testing.T) {
	ds := &RasterDataset{Width: 2, Height: 1, Samples: []float64{0, 7}}

	got := ds.RemapNoData(-9999)
	if got[0] != 0 || got[1] != 7 {
		t.Errorf("expected samples unchanged, got %v", got)
	}
}

func TestRasterDataset_NaNNoData(t *testing.T) {
	ds := &RasterDataset{
		Width:   3,
		Height:  1,
		Samples: []float64{math.NaN(), 2, math.NaN()},
		NoData:  ptr(math.NaN()),
	}

	got := ds.RemapNoData(0)
	if got[0] != 0 || got[1] != 2 || got[2] != 0 {
		t.Errorf("expected NaN samples remapped, got %v", got)
	}
}


func TestRasterMeta_ForAsset(t *testing.T) {
	src := RasterMeta{
		Width:      10,
		Height:     5,
		CRS:        "EPSG:32633",
		Bounds:     Bounds{Left: 0, Right: 100, Bottom: 0, Top: 50},
		Resolution: Resolution{X: 10, Y: 10},
		DataType:   TypeFloat32,
		NoData:     ptr(-3.4e38),
	}

	out := src.ForAsset(FormatDTM)

	if out.DataType != TypeInt16 {
		t.Errorf("DataType = %q, want int16", out.DataType)
	}
	if out.NoData == nil || *out.NoData != -9999 {
		t.Errorf("NoData = %v, want -9999", out.NoData)
	}
	if out.Width != 10 || out.Height != 5 || out.CRS != src.CRS || out.Bounds != src.Bounds {
		t.Errorf("grid metadata changed: %+v", out)
	}
	if *src.NoData != -3.4e38 {
		t.Error("ForAsset mutated the source metadata")
	}
}
