package services

import (
	"math"

	"github.com/assetmaps/bil2asset/internal/core/domain"
)

// RasterStats summarises the valid samples of a dataset
type RasterStats struct {
	Valid  int
	NoData int
	Min    float64
	Max    float64
	Mean   float64
}

// HistogramBin counts samples in [Lower, Upper); the last bin is closed
type HistogramBin struct {
	Lower float64
	Upper float64
	Count int
}

// ComputeStats skips no-data and NaN samples
func ComputeStats(ds *domain.RasterDataset) RasterStats {
	st := RasterStats{Min: math.Inf(1), Max: math.Inf(-1)}
	sum := 0.0
	for _, v := range ds.Samples {
		if ds.IsNoData(v) || math.IsNaN(v) {
			st.NoData++
			continue
		}
		st.Valid++
		sum += v
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
	}
	if st.Valid == 0 {
		st.Min, st.Max = 0, 0
		return st
	}
	st.Mean = sum / float64(st.Valid)
	return st
}

// Histogram splits the valid range into bins of equal width
func Histogram(ds *domain.RasterDataset, bins int) []HistogramBin {
	st := ComputeStats(ds)
	if st.Valid == 0 || bins <= 0 {
		return nil
	}
	if st.Max == st.Min {
		return []HistogramBin{{Lower: st.Min, Upper: st.Max, Count: st.Valid}}
	}

	width := (st.Max - st.Min) / float64(bins)
	out := make([]HistogramBin, bins)
	for i := range out {
		out[i].Lower = st.Min + float64(i)*width
		out[i].Upper = st.Min + float64(i+1)*width
	}
	out[bins-1].Upper = st.Max

	for _, v := range ds.Samples {
		if ds.IsNoData(v) || math.IsNaN(v) {
			continue
		}
		i := int((v - st.Min) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}
