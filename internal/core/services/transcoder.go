package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/assetmaps/bil2asset/internal/core/domain"
	"github.com/assetmaps/bil2asset/internal/core/ports"
	"github.com/assetmaps/bil2asset/pkg/ctxlog"
)

const menuExt = ".mnu"

// TranscoderOptions tunes the side outputs of a conversion
type TranscoderOptions struct {
	// IndexFilename is the spatial index written next to the output
	IndexFilename string
	// CompatMenuGlob only copies a file literally named ".mnu", as the
	// legacy converter scripts did
	CompatMenuGlob bool
}

// DefaultTranscoderOptions returns the options used when none are configured
func DefaultTranscoderOptions() TranscoderOptions {
	return TranscoderOptions{IndexFilename: domain.DefaultIndexFilename}
}

// TranscoderService converts rasters into ASSET layers
type TranscoderService struct {
	raster ports.RasterIO
	opts   TranscoderOptions
	exts   map[string]struct{}
}

// NewTranscoderService creates a transcoder. The driver extension registry is
// queried once here and reused for every job.
func NewTranscoderService(raster ports.RasterIO, opts TranscoderOptions) *TranscoderService {
	if opts.IndexFilename == "" {
		opts.IndexFilename = domain.DefaultIndexFilename
	}

	exts := make(map[string]struct{})
	for _, ext := range raster.Extensions() {
		exts[normalizeExt(ext)] = struct{}{}
	}

	return &TranscoderService{
		raster: raster,
		opts:   opts,
		exts:   exts,
	}
}

// ConvertResponse describes the files produced by a conversion
type ConvertResponse struct {
	Input      string
	Output     string
	HeaderPath string
	IndexPath  string
	IndexLine  string
	Width      int
	Height     int
	NoData     int16
	Remapped   int      // samples replaced by the no-data sentinel
	MenuFiles  []string // copied .mnu sidecars
}

// SupportsFile reports whether path has an extension some driver can read
func (s *TranscoderService) SupportsFile(path string) bool {
	_, ok := s.exts[normalizeExt(filepath.Ext(path))]
	return ok
}

// Extensions returns the cached registry extensions, sorted
func (s *TranscoderService) Extensions() []string {
	out := make([]string, 0, len(s.exts))
	for ext := range s.exts {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Run validates the job and then converts it
func (s *TranscoderService) Run(ctx context.Context, job domain.ConversionJob) (*ConvertResponse, error) {
	if err := s.Validate(ctx, job); err != nil {
		return nil, err
	}
	return s.Convert(ctx, job)
}

// Validate checks the job before any output is produced. The only side
// effect is creating the output's parent directory.
func (s *TranscoderService) Validate(ctx context.Context, job domain.ConversionJob) error {
	if err := s.validateInput(job.Input); err != nil {
		return err
	}
	if err := validateOutput(job.Output); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("job validated", "input", job.Input, "output", job.Output, "type", job.Format)
	return nil
}

func (s *TranscoderService) validateInput(path string) error {
	const op = "validate input"

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewJobError(op, path, domain.ErrNotFound, "")
		}
		return &domain.JobError{Op: op, Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return domain.NewJobError(op, path, domain.ErrIsDirectory, "not a regular file")
	}
	if !s.SupportsFile(path) {
		return domain.NewJobError(op, path, domain.ErrUnsupportedFormat,
			fmt.Sprintf("extension %q has no raster driver", filepath.Ext(path)))
	}
	return nil
}

func validateOutput(path string) error {
	const op = "validate output"

	if strings.HasSuffix(path, string(filepath.Separator)) {
		return domain.NewJobError(op, path, domain.ErrIsDirectory, "")
	}

	info, err := os.Lstat(path)
	switch {
	case err == nil && info.IsDir():
		return domain.NewJobError(op, path, domain.ErrIsDirectory, "")
	case err == nil:
		return domain.NewJobError(op, path, domain.ErrAlreadyExists, "refusing to overwrite")
	case !errors.Is(err, os.ErrNotExist):
		return &domain.JobError{Op: op, Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &domain.JobError{Op: op, Path: dir, Err: fmt.Errorf("failed to create output directory: %w", err)}
	}
	return nil
}

// Convert performs the conversion. It assumes Validate has passed; a failure
// part way through may leave partial outputs behind.
func (s *TranscoderService) Convert(ctx context.Context, job domain.ConversionJob) (*ConvertResponse, error) {
	log := ctxlog.FromContext(ctx)
	nodata := job.Format.NoData()

	// 1. Read and check georeferencing
	ds, err := s.raster.Open(job.Input)
	if err != nil {
		return nil, &domain.JobError{Op: "read", Path: job.Input, Err: err}
	}
	if !ds.HasCRS() {
		return nil, domain.NewJobError("read", job.Input, domain.ErrInvalidInput, "raster has no coordinate reference system")
	}
	log.Debug("raster opened", "driver", ds.Driver, "width", ds.Width, "height", ds.Height, "dtype", ds.DataType)

	// 2. Remap no-data and cast
	remapped := 0
	for _, v := range ds.Samples {
		if ds.IsNoData(v) {
			remapped++
		}
	}
	samples := CastInt16(ds.RemapNoData(float64(nodata)), nodata)

	// 3. Header phase: let the driver describe the layout
	meta := ds.Meta().ForAsset(job.Format)
	if err := s.raster.CreateHeader(job.Output, meta); err != nil {
		return nil, &domain.JobError{Op: "create header", Path: job.Output, Err: err}
	}

	// 4. Payload phase: big-endian dump over the empty container
	if err := writePayloadFile(job.Output, samples); err != nil {
		return nil, &domain.JobError{Op: "write", Path: job.Output, Err: err}
	}
	if err := RewriteHeaderFile(job.HeaderPath()); err != nil {
		return nil, &domain.JobError{Op: "write", Path: job.HeaderPath(), Err: err}
	}

	// 5. Spatial index
	record := domain.NewIndexRecord(job.Output, ds.Bounds, ds.Resolution)
	indexPath := filepath.Join(job.OutputDir(), s.opts.IndexFilename)
	if err := os.WriteFile(indexPath, []byte(record.String()), 0644); err != nil {
		return nil, &domain.JobError{Op: "write", Path: indexPath, Err: err}
	}

	resp := &ConvertResponse{
		Input:      job.Input,
		Output:     job.Output,
		HeaderPath: job.HeaderPath(),
		IndexPath:  indexPath,
		IndexLine:  strings.TrimSuffix(record.String(), "\n"),
		Width:      ds.Width,
		Height:     ds.Height,
		NoData:     nodata,
		Remapped:   remapped,
	}

	// 6. Land use menus
	if job.Format.CopiesMenuFiles() {
		copied, err := s.copyMenuFiles(filepath.Dir(job.Input), job.OutputDir())
		if err != nil {
			return nil, err
		}
		resp.MenuFiles = copied
	}

	log.Info("converted", "input", job.Input, "output", job.Output, "type", job.Format)
	return resp, nil
}

// copyMenuFiles copies the .mnu files found in srcDir into dstDir
func (s *TranscoderService) copyMenuFiles(srcDir, dstDir string) ([]string, error) {
	if sameDir(srcDir, dstDir) {
		return nil, nil
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, &domain.JobError{Op: "copy menus", Path: srcDir, Err: err}
	}

	var copied []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !s.isMenuFile(entry.Name()) {
			continue
		}
		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(dstDir, entry.Name())
		if err := copyFile(src, dst); err != nil {
			return copied, &domain.JobError{Op: "copy menus", Path: src, Err: err}
		}
		copied = append(copied, dst)
	}
	return copied, nil
}

func (s *TranscoderService) isMenuFile(name string) bool {
	if s.opts.CompatMenuGlob {
		return name == menuExt
	}
	return strings.EqualFold(filepath.Ext(name), menuExt)
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

func sameDir(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
