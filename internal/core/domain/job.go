package domain

import (
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultIndexFilename is written next to every converted layer
const DefaultIndexFilename = "index.txt"

// ConversionJob describes a single raster to ASSET conversion
type ConversionJob struct {
	Input  string
	Output string
	Format AssetFormat
}

// OutputDir returns the directory that receives the layer and its sidecars
func (j ConversionJob) OutputDir() string {
	return filepath.Dir(j.Output)
}

// HeaderPath returns the header written alongside the payload
func (j ConversionJob) HeaderPath() string {
	return j.Output + ".hdr"
}

// IndexRecord is one line of an ASSET index.txt file
type IndexRecord struct {
	Name       string
	Bounds     Bounds
	Resolution float64
}

// NewIndexRecord builds the index entry for an output file
func NewIndexRecord(output string, b Bounds, res Resolution) IndexRecord {
	return IndexRecord{
		Name:       filepath.Base(output),
		Bounds:     b,
		Resolution: res.X,
	}
}

// String renders "<name> <left> <right> <bottom> <top> <res>\n"
func (r IndexRecord) String() string {
	fields := []string{
		r.Name,
		formatCoord(r.Bounds.Left),
		formatCoord(r.Bounds.Right),
		formatCoord(r.Bounds.Bottom),
		formatCoord(r.Bounds.Top),
		formatCoord(r.Resolution),
	}
	return strings.Join(fields, " ") + "\n"
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
