package raster

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/assetmaps/bil2asset/internal/core/domain"
)

// EHdrDriver handles ESRI .hdr labelled rasters (BIL, BIP, BSQ)
type EHdrDriver struct{}

// NewEHdrDriver creates the driver
func NewEHdrDriver() *EHdrDriver {
	return &EHdrDriver{}
}

func (d *EHdrDriver) Name() string { return "EHdr" }

func (d *EHdrDriver) LongName() string { return "ESRI .hdr Labelled" }

func (d *EHdrDriver) Extensions() []string { return []string{"bil", "bip", "bsq"} }

// EHdrHeader is the parsed content of a .hdr file
type EHdrHeader struct {
	NRows         int
	NCols         int
	NBands        int
	NBits         int
	BigEndian     bool
	Layout        string
	PixelType     string
	SkipBytes     int64
	BandRowBytes  int64
	TotalRowBytes int64
	BandGapBytes  int64
	ULXMap        float64
	ULYMap        float64
	XDim          float64
	YDim          float64
	NoData        *float64
}

// ParseEHdrHeader reads "KEY value" or "KEY=value" lines. Keys are case
// insensitive and unknown keys are ignored.
func ParseEHdrHeader(r io.Reader) (*EHdrHeader, error) {
	h := &EHdrHeader{NBands: 1, NBits: 8, Layout: "BIL", XDim: 1, YDim: 1}
	haveULY := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := splitHeaderLine(line)
		if !ok {
			continue
		}

		var err error
		switch strings.ToUpper(key) {
		case "NROWS":
			h.NRows, err = strconv.Atoi(value)
		case "NCOLS":
			h.NCols, err = strconv.Atoi(value)
		case "NBANDS":
			h.NBands, err = strconv.Atoi(value)
		case "NBITS":
			h.NBits, err = strconv.Atoi(value)
		case "BYTEORDER":
			h.BigEndian = strings.EqualFold(value, "M")
		case "LAYOUT":
			h.Layout = strings.ToUpper(value)
		case "PIXELTYPE":
			h.PixelType = strings.ToUpper(value)
		case "SKIPBYTES":
			h.SkipBytes, err = strconv.ParseInt(value, 10, 64)
		case "BANDROWBYTES":
			h.BandRowBytes, err = strconv.ParseInt(value, 10, 64)
		case "TOTALROWBYTES":
			h.TotalRowBytes, err = strconv.ParseInt(value, 10, 64)
		case "BANDGAPBYTES":
			h.BandGapBytes, err = strconv.ParseInt(value, 10, 64)
		case "ULXMAP":
			h.ULXMap, err = strconv.ParseFloat(value, 64)
		case "ULYMAP":
			h.ULYMap, err = strconv.ParseFloat(value, 64)
			haveULY = true
		case "XDIM":
			h.XDim, err = strconv.ParseFloat(value, 64)
		case "YDIM":
			h.YDim, err = strconv.ParseFloat(value, 64)
		case "NODATA", "NODATA_VALUE":
			var nd float64
			nd, err = strconv.ParseFloat(value, 64)
			h.NoData = &nd
		}
		if err != nil {
			return nil, fmt.Errorf("%w: header field %s=%q: %v", domain.ErrInvalidInput, key, value, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if h.NRows <= 0 || h.NCols <= 0 {
		return nil, fmt.Errorf("%w: header has no valid NROWS/NCOLS", domain.ErrInvalidInput)
	}
	if h.NBands <= 0 {
		return nil, fmt.Errorf("%w: header declares %d bands", domain.ErrInvalidInput, h.NBands)
	}
	if h.NBits <= 0 {
		return nil, fmt.Errorf("%w: header declares NBITS=%d", domain.ErrInvalidInput, h.NBits)
	}
	for key, v := range map[string]int64{
		"SKIPBYTES":     h.SkipBytes,
		"BANDROWBYTES":  h.BandRowBytes,
		"TOTALROWBYTES": h.TotalRowBytes,
		"BANDGAPBYTES":  h.BandGapBytes,
	} {
		if v < 0 {
			return nil, fmt.Errorf("%w: header field %s=%d is negative", domain.ErrInvalidInput, key, v)
		}
	}
	if !haveULY {
		h.ULYMap = float64(h.NRows - 1)
	}

	bps := int64(h.NBits / 8)
	if h.BandRowBytes == 0 {
		h.BandRowBytes = int64(h.NCols) * bps
	}
	if h.TotalRowBytes == 0 {
		h.TotalRowBytes = h.BandRowBytes * int64(h.NBands)
	}
	return h, nil
}

func splitHeaderLine(line string) (string, string, bool) {
	if k, v, ok := strings.Cut(line, "="); ok {
		return strings.TrimSpace(k), strings.TrimSpace(v), true
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

// DataType maps NBITS and PIXELTYPE onto a sample type
func (h *EHdrHeader) DataType() (domain.DataType, error) {
	switch {
	case h.PixelType == "FLOAT" && h.NBits == 32:
		return domain.TypeFloat32, nil
	case h.PixelType == "FLOAT" && h.NBits == 64:
		return domain.TypeFloat64, nil
	case h.PixelType == "FLOAT":
		// no half precision support
		return "", fmt.Errorf("%w: NBITS=%d PIXELTYPE=FLOAT", domain.ErrUnsupportedFormat, h.NBits)
	case h.NBits == 8:
		return domain.TypeUint8, nil
	case h.NBits == 16 && h.PixelType == "SIGNEDINT":
		return domain.TypeInt16, nil
	case h.NBits == 16:
		return domain.TypeUint16, nil
	case h.NBits == 32 && h.PixelType == "SIGNEDINT":
		return domain.TypeInt32, nil
	case h.NBits == 32:
		return domain.TypeUint32, nil
	}
	return "", fmt.Errorf("%w: NBITS=%d PIXELTYPE=%q", domain.ErrUnsupportedFormat, h.NBits, h.PixelType)
}

// Bounds converts the pixel-centre origin into the outer extent
func (h *EHdrHeader) Bounds() domain.Bounds {
	left := h.ULXMap - h.XDim/2
	top := h.ULYMap + h.YDim/2
	return domain.Bounds{
		Left:   left,
		Right:  left + float64(h.NCols)*h.XDim,
		Bottom: top - float64(h.NRows)*h.YDim,
		Top:    top,
	}
}

// offset returns the byte position of band 1 at (c, r)
func (h *EHdrHeader) offset(c, r int) int64 {
	bps := int64(h.NBits / 8)
	switch h.Layout {
	case "BIP":
		return h.SkipBytes + (int64(r)*int64(h.NCols)+int64(c))*int64(h.NBands)*bps
	case "BSQ":
		return h.SkipBytes + int64(r)*h.BandRowBytes + int64(c)*bps
	default: // BIL
		return h.SkipBytes + int64(r)*h.TotalRowBytes + int64(c)*bps
	}
}

// Open reads band 1. The whole payload is loaded and the file closed before
// returning.
func (d *EHdrDriver) Open(path string) (*domain.RasterDataset, error) {
	hdrPath := findSidecar(path, ".hdr")
	if hdrPath == "" {
		return nil, fmt.Errorf("%w: no .hdr file next to %s", domain.ErrInvalidInput, path)
	}

	hf, err := os.Open(hdrPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open header: %w", err)
	}
	h, err := ParseEHdrHeader(hf)
	hf.Close()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", hdrPath, err)
	}

	dtype, err := h.DataType()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read raster: %w", err)
	}

	bps := h.NBits / 8
	last := h.offset(h.NCols-1, h.NRows-1) + int64(bps)
	if int64(len(data)) < last {
		return nil, fmt.Errorf("%w: payload is %d bytes, layout needs %d", domain.ErrInvalidInput, len(data), last)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if h.BigEndian {
		order = binary.BigEndian
	}

	samples := make([]float64, h.NRows*h.NCols)
	for r := 0; r < h.NRows; r++ {
		for c := 0; c < h.NCols; c++ {
			off := h.offset(c, r)
			samples[r*h.NCols+c] = decodeSample(data[off:off+int64(bps)], dtype, order)
		}
	}

	crs, err := readCRS(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read projection: %w", err)
	}

	return &domain.RasterDataset{
		Path:       path,
		Driver:     d.Name(),
		Width:      h.NCols,
		Height:     h.NRows,
		Samples:    samples,
		CRS:        crs,
		Bounds:     h.Bounds(),
		Resolution: domain.Resolution{X: h.XDim, Y: h.YDim},
		NoData:     h.NoData,
		DataType:   dtype,
	}, nil
}

func decodeSample(b []byte, dtype domain.DataType, order binary.ByteOrder) float64 {
	switch dtype {
	case domain.TypeUint8:
		return float64(b[0])
	case domain.TypeInt16:
		return float64(int16(order.Uint16(b)))
	case domain.TypeUint16:
		return float64(order.Uint16(b))
	case domain.TypeInt32:
		return float64(int32(order.Uint32(b)))
	case domain.TypeUint32:
		return float64(order.Uint32(b))
	case domain.TypeFloat32:
		return float64(math.Float32frombits(order.Uint32(b)))
	case domain.TypeFloat64:
		return math.Float64frombits(order.Uint64(b))
	}
	return math.NaN()
}

// CreateHeader creates an empty payload at path, failing with
// ErrAlreadyExists when something is already there. It then writes
// "<path>.hdr" describing a single band little-endian BIL layout, and
// "<path>.prj" when the metadata carries a CRS.
func (d *EHdrDriver) CreateHeader(path string, meta domain.RasterMeta) error {
	nbits, pixelType, err := layoutFor(meta.DataType)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, path)
		}
		return fmt.Errorf("failed to create raster: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	rowBytes := meta.Width * nbits / 8
	var b strings.Builder
	field := func(k, v string) { fmt.Fprintf(&b, "%-14s %s\n", k, v) }

	field("BYTEORDER", "I")
	field("LAYOUT", "BIL")
	field("NROWS", strconv.Itoa(meta.Height))
	field("NCOLS", strconv.Itoa(meta.Width))
	field("NBANDS", "1")
	field("NBITS", strconv.Itoa(nbits))
	field("BANDROWBYTES", strconv.Itoa(rowBytes))
	field("TOTALROWBYTES", strconv.Itoa(rowBytes))
	if pixelType != "" {
		field("PIXELTYPE", pixelType)
	}
	field("ULXMAP", formatFloat(meta.Bounds.Left+meta.Resolution.X/2))
	field("ULYMAP", formatFloat(meta.Bounds.Top-meta.Resolution.Y/2))
	field("XDIM", formatFloat(meta.Resolution.X))
	field("YDIM", formatFloat(meta.Resolution.Y))
	if meta.NoData != nil {
		field("NODATA", formatFloat(*meta.NoData))
	}

	if err := os.WriteFile(path+".hdr", []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writeCRS(path, meta.CRS); err != nil {
		return fmt.Errorf("failed to write projection: %w", err)
	}
	return nil
}

func layoutFor(dtype domain.DataType) (int, string, error) {
	switch dtype {
	case domain.TypeUint8:
		return 8, "", nil
	case domain.TypeInt16:
		return 16, "SIGNEDINT", nil
	case domain.TypeUint16:
		return 16, "", nil
	case domain.TypeInt32:
		return 32, "SIGNEDINT", nil
	case domain.TypeUint32:
		return 32, "", nil
	case domain.TypeFloat32:
		return 32, "FLOAT", nil
	case domain.TypeFloat64:
		return 64, "FLOAT", nil
	}
	return 0, "", fmt.Errorf("%w: cannot write %q samples", domain.ErrUnsupportedFormat, dtype)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
