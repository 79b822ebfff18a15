package mocks

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/assetmaps/bil2asset/internal/core/domain"
)

// MockRasterIO is an in-memory implementation of the RasterIO port.
// Datasets are keyed by path; CreateHeader writes a minimal header to disk so
// the byte order rewrite has something to work on.
type MockRasterIO struct {
	mu       sync.Mutex
	exts     []string
	datasets map[string]*domain.RasterDataset

	// HeaderByteOrder is the value written to the BYTEORDER line
	HeaderByteOrder string
	// OpenErr, when set, is returned by every Open call
	OpenErr error

	Opened  []string
	Created map[string]domain.RasterMeta
}

// NewMockRasterIO creates a mock that accepts the given extensions
func NewMockRasterIO(exts ...string) *MockRasterIO {
	return &MockRasterIO{
		exts:            exts,
		datasets:        make(map[string]*domain.RasterDataset),
		HeaderByteOrder: "I",
		Created:         make(map[string]domain.RasterMeta),
	}
}

// Add registers a dataset to be returned for path
func (m *MockRasterIO) Add(path string, ds *domain.RasterDataset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[path] = ds
}

// Extensions returns the configured extensions
func (m *MockRasterIO) Extensions() []string {
	return m.exts
}

// Open returns the dataset registered for path
func (m *MockRasterIO) Open(path string) (*domain.RasterDataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Opened = append(m.Opened, path)
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	ds, ok := m.datasets[path]
	if !ok {
		return nil, fmt.Errorf("no dataset registered for %s", path)
	}
	return ds, nil
}

// CreateHeader records meta and writes an empty payload plus a small header
func (m *MockRasterIO) CreateHeader(path string, meta domain.RasterMeta) error {
	m.mu.Lock()
	m.Created[path] = meta
	order := m.HeaderByteOrder
	m.mu.Unlock()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, path)
		}
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	hdr := fmt.Sprintf("BYTEORDER      %s\nLAYOUT         BIL\nNROWS          %d\nNCOLS          %d\nNBANDS         1\nNBITS          16\n",
		order, meta.Height, meta.Width)
	return os.WriteFile(path+".hdr", []byte(hdr), 0644)
}
