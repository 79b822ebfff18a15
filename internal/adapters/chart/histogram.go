// Package chart renders raster statistics as standalone HTML pages.
package chart

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/assetmaps/bil2asset/internal/core/services"
)

// Histogram renders bins as a bar chart titled title
func Histogram(w io.Writer, title string, bins []services.HistogramBin) error {
	labels := make([]string, len(bins))
	items := make([]opts.BarData, len(bins))
	for i, b := range bins {
		labels[i] = binLabel(b)
		items[i] = opts.BarData{Value: b.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: "Valid samples per value range",
		}),
	)
	bar.SetXAxis(labels).AddSeries("samples", items)

	return bar.Render(w)
}

// WriteHistogram renders the chart into the file at path
func WriteHistogram(path, title string, bins []services.HistogramBin) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Histogram(f, title, bins)
}

func binLabel(b services.HistogramBin) string {
	return strconv.FormatFloat(b.Lower, 'g', 6, 64) + ".." + strconv.FormatFloat(b.Upper, 'g', 6, 64)
}
