package raster

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/assetmaps/bil2asset/internal/core/domain"
)

// AAIGridDriver reads ESRI ASCII grids
type AAIGridDriver struct{}

// NewAAIGridDriver creates the driver
func NewAAIGridDriver() *AAIGridDriver {
	return &AAIGridDriver{}
}

func (d *AAIGridDriver) Name() string { return "AAIGrid" }

func (d *AAIGridDriver) LongName() string { return "Arc/Info ASCII Grid" }

func (d *AAIGridDriver) Extensions() []string { return []string{"asc"} }

// asciiHeader mirrors the six (or five) keyword lines at the top of the grid
type asciiHeader struct {
	ncols, nrows int
	xll, yll     float64
	centered     bool
	cellSize     float64
	noData       *float64
	haveX, haveY bool
	haveCell     bool
}

// Open parses the grid. Header keywords come first; the first line that
// starts with a number begins the data block.
func (d *AAIGridDriver) Open(path string) (*domain.RasterDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	scanner.Split(bufio.ScanWords)

	var h asciiHeader
	var pending string
	for scanner.Scan() {
		word := scanner.Text()
		if isNumeric(word) {
			pending = word
			break
		}
		if !scanner.Scan() {
			return nil, fmt.Errorf("%w: keyword %s has no value", domain.ErrInvalidInput, word)
		}
		if err := h.set(word, scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if h.ncols <= 0 || h.nrows <= 0 || !h.haveX || !h.haveY || !h.haveCell {
		return nil, fmt.Errorf("%w: incomplete ASCII grid header", domain.ErrInvalidInput)
	}

	n := h.ncols * h.nrows
	samples := make([]float64, 0, n)
	isFloat := false
	consume := func(word string) error {
		v, err := strconv.ParseFloat(word, 64)
		if err != nil {
			return fmt.Errorf("%w: sample %d: %v", domain.ErrInvalidInput, len(samples), err)
		}
		if strings.ContainsAny(word, ".eE") {
			isFloat = true
		}
		samples = append(samples, v)
		return nil
	}

	if pending != "" {
		if err := consume(pending); err != nil {
			return nil, err
		}
	}
	for len(samples) < n && scanner.Scan() {
		if err := consume(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(samples) != n {
		return nil, fmt.Errorf("%w: expected %d samples, found %d", domain.ErrInvalidInput, n, len(samples))
	}

	crs, err := readCRS(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read projection: %w", err)
	}

	left, bottom := h.xll, h.yll
	if h.centered {
		left -= h.cellSize / 2
		bottom -= h.cellSize / 2
	}

	dtype := domain.TypeInt32
	if isFloat {
		dtype = domain.TypeFloat32
	}

	return &domain.RasterDataset{
		Path:    path,
		Driver:  d.Name(),
		Width:   h.ncols,
		Height:  h.nrows,
		Samples: samples,
		CRS:     crs,
		Bounds: domain.Bounds{
			Left:   left,
			Right:  left + float64(h.ncols)*h.cellSize,
			Bottom: bottom,
			Top:    bottom + float64(h.nrows)*h.cellSize,
		},
		Resolution: domain.Resolution{X: h.cellSize, Y: h.cellSize},
		NoData:     h.noData,
		DataType:   dtype,
	}, nil
}

func (h *asciiHeader) set(key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "ncols":
		h.ncols, err = strconv.Atoi(value)
	case "nrows":
		h.nrows, err = strconv.Atoi(value)
	case "xllcorner":
		h.xll, err = strconv.ParseFloat(value, 64)
		h.haveX = true
	case "xllcenter":
		h.xll, err = strconv.ParseFloat(value, 64)
		h.haveX, h.centered = true, true
	case "yllcorner":
		h.yll, err = strconv.ParseFloat(value, 64)
		h.haveY = true
	case "yllcenter":
		h.yll, err = strconv.ParseFloat(value, 64)
		h.haveY, h.centered = true, true
	case "cellsize":
		h.cellSize, err = strconv.ParseFloat(value, 64)
		h.haveCell = true
	case "nodata_value":
		var nd float64
		nd, err = strconv.ParseFloat(value, 64)
		h.noData = &nd
	default:
		return fmt.Errorf("%w: unknown ASCII grid keyword %q", domain.ErrInvalidInput, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %s=%q: %v", domain.ErrInvalidInput, key, value, err)
	}
	return nil
}

func isNumeric(word string) bool {
	_, err := strconv.ParseFloat(word, 64)
	return err == nil
}
