package domain

import (
	"fmt"
	"strings"
)

// AssetFormat identifies one of the ASSET map data layers
type AssetFormat string

const (
	FormatDLU AssetFormat = "dlu" // Land use / clutter
	FormatDTM AssetFormat = "dtm" // Terrain height
)

// formatSpec holds the fixed encoding parameters of an ASSET layer
type formatSpec struct {
	NoData      int16
	Description string
}

var formatTable = map[AssetFormat]formatSpec{
	FormatDLU: {NoData: 0, Description: "Land use (clutter classes)"},
	FormatDTM: {NoData: -9999, Description: "Terrain model (heights in metres)"},
}

// AllFormats returns the supported ASSET formats in display order
func AllFormats() []AssetFormat {
	return []AssetFormat{FormatDLU, FormatDTM}
}

// ParseAssetFormat converts user input such as "DTM" into an AssetFormat
func ParseAssetFormat(s string) (AssetFormat, error) {
	f := AssetFormat(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := formatTable[f]; !ok {
		return "", fmt.Errorf("unknown asset type %q (expected dlu or dtm)", s)
	}
	return f, nil
}

// NoData returns the sentinel written for missing samples
func (f AssetFormat) NoData() int16 {
	return formatTable[f].NoData
}

// Description returns a human readable label
func (f AssetFormat) Description() string {
	return formatTable[f].Description
}

// CopiesMenuFiles reports whether .mnu sidecars travel with the layer
func (f AssetFormat) CopiesMenuFiles() bool {
	return f == FormatDLU
}

func (f AssetFormat) String() string {
	return string(f)
}

// Set implements pflag.Value so the format can be bound directly to a flag
func (f *AssetFormat) Set(s string) error {
	parsed, err := ParseAssetFormat(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Type implements pflag.Value
func (f *AssetFormat) Type() string {
	return "dlu|dtm"
}
