// Package raster implements the RasterIO port with a registry of pure-Go
// format drivers, looked up by file extension.
package raster

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/assetmaps/bil2asset/internal/core/domain"
)

// Driver reads one raster file format
type Driver interface {
	// Name is the short driver name, e.g. "EHdr"
	Name() string
	// LongName is a human readable description
	LongName() string
	// Extensions lists the file extensions the driver claims (no dot)
	Extensions() []string
	// Open reads band 1 of the raster at path
	Open(path string) (*domain.RasterDataset, error)
}

// HeaderCreator writes the header sidecars for a new raster
type HeaderCreator interface {
	CreateHeader(path string, meta domain.RasterMeta) error
}

// Registry dispatches to drivers by extension
type Registry struct {
	drivers []Driver
	byExt   map[string]Driver
	output  HeaderCreator
}

// NewRegistry creates a registry. Output headers are produced by output.
// When two drivers claim an extension the first one registered wins.
func NewRegistry(output HeaderCreator, drivers ...Driver) *Registry {
	r := &Registry{
		byExt:  make(map[string]Driver),
		output: output,
	}
	for _, d := range drivers {
		r.Register(d)
	}
	return r
}

// Default returns the registry with every built-in driver. The pure-Go
// drivers are registered first so they keep their extensions; a GDAL build
// (-tags gdal) adds every other format GDAL declares.
func Default() *Registry {
	ehdr := NewEHdrDriver()
	drivers := append([]Driver{ehdr, NewAAIGridDriver()}, platformDrivers()...)
	return NewRegistry(ehdr, drivers...)
}

// Register adds a driver
func (r *Registry) Register(d Driver) {
	r.drivers = append(r.drivers, d)
	for _, ext := range d.Extensions() {
		ext = strings.ToLower(ext)
		if _, taken := r.byExt[ext]; !taken {
			r.byExt[ext] = d
		}
	}
}

// Drivers returns the registered drivers in registration order
func (r *Registry) Drivers() []Driver {
	return r.drivers
}

// Extensions returns every extension some driver can open, sorted
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// DriverFor picks the driver for path based on its extension
func (r *Registry) DriverFor(path string) (Driver, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	d, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: no driver for extension %q", domain.ErrUnsupportedFormat, ext)
	}
	return d, nil
}

// Lookup finds a driver by name, case-insensitively
func (r *Registry) Lookup(name string) (Driver, bool) {
	for _, d := range r.drivers {
		if strings.EqualFold(d.Name(), name) {
			return d, true
		}
	}
	return nil, false
}

// Open reads the raster at path using the driver registered for its extension
func (r *Registry) Open(path string) (*domain.RasterDataset, error) {
	d, err := r.DriverFor(path)
	if err != nil {
		return nil, err
	}
	return d.Open(path)
}

// CreateHeader delegates to the output driver
func (r *Registry) CreateHeader(path string, meta domain.RasterMeta) error {
	if r.output == nil {
		return fmt.Errorf("%w: registry has no output driver", domain.ErrUnsupportedFormat)
	}
	return r.output.CreateHeader(path, meta)
}
