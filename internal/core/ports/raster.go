package ports

import (
	"github.com/assetmaps/bil2asset/internal/core/domain"
)

// RasterIO defines the port for raster file access
type RasterIO interface {
	// Extensions returns the file extensions (without dot, lower case)
	// that some registered driver can open
	Extensions() []string

	// Open reads band 1 of the raster at path together with its georeferencing
	Open(path string) (*domain.RasterDataset, error)

	// CreateHeader materializes an empty payload at path plus the header and
	// georeferencing sidecars describing meta. No pixel data is written.
	// The payload is created exclusively: an existing path fails with
	// domain.ErrAlreadyExists and is left untouched.
	CreateHeader(path string, meta domain.RasterMeta) error
}
