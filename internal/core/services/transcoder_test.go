package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/assetmaps/bil2asset/internal/core/domain"
	"github.com/assetmaps/bil2asset/internal/core/ports/mocks"
)

func float(v float64) *float64 { return &v }

// fixtureDataset is a 10x10 grid over (0,0)-(100,100) with the diagonal set
// to the source nodata value
func fixtureDataset(crs string) *domain.RasterDataset {
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = float64(i * 3)
	}
	for i := 0; i < 10; i++ {
		samples[i*10+i] = -32768
	}
	return &domain.RasterDataset{
		Driver:     "mock",
		Width:      10,
		Height:     10,
		Samples:    samples,
		CRS:        crs,
		Bounds:     domain.Bounds{Left: 0, Right: 100, Bottom: 0, Top: 100},
		Resolution: domain.Resolution{X: 10, Y: 10},
		NoData:     float(-32768),
		DataType:   domain.TypeInt16,
	}
}

// setupJob creates an input file, registers its dataset and returns the job
func setupJob(t *testing.T, format domain.AssetFormat, ds *domain.RasterDataset) (*mocks.MockRasterIO, domain.ConversionJob) {
	t.Helper()
	dir := t.TempDir()

	input := filepath.Join(dir, "mapdata", "in.bil")
	if err := os.MkdirAll(filepath.Dir(input), 0755); err != nil {
		t.Fatalf("failed to create input dir: %v", err)
	}
	if err := os.WriteFile(input, []byte("raw"), 0644); err != nil {
		t.Fatalf("failed to create input: %v", err)
	}

	rio := mocks.NewMockRasterIO("bil", "ASC")
	rio.Add(input, ds)

	return rio, domain.ConversionJob{
		Input:  input,
		Output: filepath.Join(dir, "output", string(format), "out"),
		Format: format,
	}
}

func TestTranscoder_Validate(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing")
	os.WriteFile(existing, []byte("x"), 0644)
	input := filepath.Join(dir, "in.bil")
	os.WriteFile(input, []byte("x"), 0644)
	tif := filepath.Join(dir, "in.tif")
	os.WriteFile(tif, []byte("x"), 0644)
	upper := filepath.Join(dir, "grid.asc")
	os.WriteFile(upper, []byte("x"), 0644)
	os.Mkdir(filepath.Join(dir, "folder.bil"), 0755)

	svc := NewTranscoderService(mocks.NewMockRasterIO("bil", "ASC"), DefaultTranscoderOptions())

	tests := []struct {
		name    string
		input   string
		output  string
		wantErr error
	}{
		{"valid", input, filepath.Join(dir, "out", "a"), nil},
		{"extension matched case-insensitively", upper, filepath.Join(dir, "out", "b"), nil},
		{"missing input", filepath.Join(dir, "missing.bil"), filepath.Join(dir, "out", "c"), domain.ErrNotFound},
		{"input is directory", filepath.Join(dir, "folder.bil"), filepath.Join(dir, "out", "d"), domain.ErrIsDirectory},
		{"unsupported extension", tif, filepath.Join(dir, "out", "e"), domain.ErrUnsupportedFormat},
		{"output exists", input, existing, domain.ErrAlreadyExists},
		{"output is directory", input, dir, domain.ErrIsDirectory},
		{"output with trailing separator", input, filepath.Join(dir, "new") + string(filepath.Separator), domain.ErrIsDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := domain.ConversionJob{Input: tt.input, Output: tt.output, Format: domain.FormatDTM}
			err := svc.Validate(context.Background(), job)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			var jobErr *domain.JobError
			if !errors.As(err, &jobErr) || jobErr.Path == "" {
				t.Errorf("error should name the failing path: %v", err)
			}
		})
	}
}

func TestTranscoder_ValidateCreatesOutputDir(t *testing.T) {
	rio, job := setupJob(t, domain.FormatDTM, fixtureDataset("EPSG:32633"))
	svc := NewTranscoderService(rio, DefaultTranscoderOptions())

	if err := svc.Validate(context.Background(), job); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	info, err := os.Stat(job.OutputDir())
	if err != nil || !info.IsDir() {
		t.Fatalf("output directory was not created: %v", err)
	}
	if _, err := os.Stat(job.Output); !os.IsNotExist(err) {
		t.Error("Validate must not create the output file")
	}
}

func TestTranscoder_RunDTM(t *testing.T) {
	ds := fixtureDataset("EPSG:32633")
	rio, job := setupJob(t, domain.FormatDTM, ds)
	svc := NewTranscoderService(rio, DefaultTranscoderOptions())

	resp, err := svc.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Payload
	data, err := os.ReadFile(job.Output)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if len(data) != ds.Width*ds.Height*2 {
		t.Fatalf("payload length = %d, want %d", len(data), ds.Width*ds.Height*2)
	}
	decoded, _ := DecodeInt16BE(data)
	for i, v := range ds.Samples {
		want := int16(v)
		if v == -32768 {
			want = -9999
		}
		if decoded[i] != want {
			t.Fatalf("sample %d = %d, want %d", i, decoded[i], want)
		}
	}
	if resp.Remapped != 10 {
		t.Errorf("Remapped = %d, want 10", resp.Remapped)
	}

	// Header
	hdr, _ := os.ReadFile(job.HeaderPath())
	if strings.Count(string(hdr), "BYTEORDER") != 1 || !strings.Contains(string(hdr), "BYTEORDER=M\n") {
		t.Errorf("header should carry one big-endian byte order line:\n%s", hdr)
	}

	// Index
	index, _ := os.ReadFile(filepath.Join(job.OutputDir(), "index.txt"))
	if string(index) != "out 0 100 0 100 10\n" {
		t.Errorf("index.txt = %q", string(index))
	}
	if resp.IndexLine != "out 0 100 0 100 10" {
		t.Errorf("IndexLine = %q", resp.IndexLine)
	}

	// Metadata handed to the header phase
	meta := rio.Created[job.Output]
	if meta.DataType != domain.TypeInt16 || meta.NoData == nil || *meta.NoData != -9999 {
		t.Errorf("unexpected output metadata: %+v", meta)
	}
	if meta.CRS != "EPSG:32633" || meta.Width != 10 || meta.Height != 10 {
		t.Errorf("grid metadata not carried over: %+v", meta)
	}

	// Source dataset untouched
	if ds.Samples[0] != -32768 {
		t.Error("conversion mutated the source dataset")
	}
}

func TestTranscoder_RunDLUSentinel(t *testing.T) {
	rio, job := setupJob(t, domain.FormatDLU, fixtureDataset("EPSG:4326"))
	svc := NewTranscoderService(rio, DefaultTranscoderOptions())

	if _, err := svc.Run(context.Background(), job); err != nil {
		t.Fatalf("Run: %v", err)
	}

	samples, err := ReadPayloadFile(job.Output)
	if err != nil {
		t.Fatalf("ReadPayloadFile: %v", err)
	}
	for i := 0; i < 10; i++ {
		if samples[i*10+i] != 0 {
			t.Errorf("nodata sample %d = %d, want 0", i*10+i, samples[i*10+i])
		}
	}
}

func TestTranscoder_NoCRS(t *testing.T) {
	rio, job := setupJob(t, domain.FormatDTM, fixtureDataset(""))
	svc := NewTranscoderService(rio, DefaultTranscoderOptions())

	_, err := svc.Run(context.Background(), job)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	for _, path := range []string{job.Output, job.HeaderPath(), filepath.Join(job.OutputDir(), "index.txt")} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s should not exist after a failed read", path)
		}
	}
	if len(rio.Created) != 0 {
		t.Error("header phase must not run without a CRS")
	}
}

func TestTranscoder_RefusesOverwrite(t *testing.T) {
	rio, job := setupJob(t, domain.FormatDTM, fixtureDataset("EPSG:32633"))
	svc := NewTranscoderService(rio, DefaultTranscoderOptions())

	if _, err := svc.Run(context.Background(), job); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, _ := os.ReadFile(job.Output)

	_, err := svc.Run(context.Background(), job)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	second, _ := os.ReadFile(job.Output)
	if !bytes.Equal(first, second) {
		t.Error("second run modified the first output")
	}
	if len(rio.Opened) != 1 {
		t.Errorf("input opened %d times, want 1", len(rio.Opened))
	}
}

func TestTranscoder_ConvertOutputAppearedAfterValidate(t *testing.T) {
	rio, job := setupJob(t, domain.FormatDTM, fixtureDataset("EPSG:32633"))
	svc := NewTranscoderService(rio, DefaultTranscoderOptions())

	if err := svc.Validate(context.Background(), job); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	// Another writer claims the path between the check and the write
	if err := os.WriteFile(job.Output, []byte("other"), 0644); err != nil {
		t.Fatalf("failed to seed output: %v", err)
	}

	_, err := svc.Convert(context.Background(), job)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	data, _ := os.ReadFile(job.Output)
	if string(data) != "other" {
		t.Errorf("existing output was overwritten: %q", data)
	}
	if _, err := os.Stat(filepath.Join(job.OutputDir(), "index.txt")); !os.IsNotExist(err) {
		t.Errorf("index.txt should not be written: %v", err)
	}
}

func TestTranscoder_OpenFailure(t *testing.T) {
	rio, job := setupJob(t, domain.FormatDTM, fixtureDataset("EPSG:32633"))
	rio.OpenErr = errors.New("corrupt payload")
	svc := NewTranscoderService(rio, DefaultTranscoderOptions())

	_, err := svc.Run(context.Background(), job)
	var jobErr *domain.JobError
	if !errors.As(err, &jobErr) || jobErr.Path != job.Input {
		t.Fatalf("expected JobError naming the input, got %v", err)
	}
}

func TestTranscoder_MenuFiles(t *testing.T) {
	tests := []struct {
		name     string
		format   domain.AssetFormat
		compat   bool
		expected []string
	}{
		{"dlu copies mnu files", domain.FormatDLU, false, []string{".mnu", "classes.mnu", "legend.MNU"}},
		{"dlu compat copies literal name only", domain.FormatDLU, true, []string{".mnu"}},
		{"dtm copies nothing", domain.FormatDTM, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rio, job := setupJob(t, tt.format, fixtureDataset("EPSG:32633"))
			srcDir := filepath.Dir(job.Input)
			for _, name := range []string{"classes.mnu", "legend.MNU", ".mnu", "notes.txt"} {
				os.WriteFile(filepath.Join(srcDir, name), []byte(name), 0644)
			}

			opts := DefaultTranscoderOptions()
			opts.CompatMenuGlob = tt.compat
			svc := NewTranscoderService(rio, opts)

			resp, err := svc.Run(context.Background(), job)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}

			if len(resp.MenuFiles) != len(tt.expected) {
				t.Fatalf("copied %v, want %v", resp.MenuFiles, tt.expected)
			}
			for _, name := range tt.expected {
				data, err := os.ReadFile(filepath.Join(job.OutputDir(), name))
				if err != nil {
					t.Errorf("%s not copied: %v", name, err)
					continue
				}
				if string(data) != name {
					t.Errorf("%s content = %q", name, string(data))
				}
			}
			if _, err := os.Stat(filepath.Join(job.OutputDir(), "notes.txt")); !os.IsNotExist(err) {
				t.Error("non-menu file was copied")
			}
		})
	}
}

func TestTranscoder_CustomIndexFilename(t *testing.T) {
	rio, job := setupJob(t, domain.FormatDTM, fixtureDataset("EPSG:32633"))
	svc := NewTranscoderService(rio, TranscoderOptions{IndexFilename: "tiles.txt"})

	resp, err := svc.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if filepath.Base(resp.IndexPath) != "tiles.txt" {
		t.Errorf("IndexPath = %q", resp.IndexPath)
	}
}

func TestTranscoder_Extensions(t *testing.T) {
	svc := NewTranscoderService(mocks.NewMockRasterIO("BIL", ".asc", "bil"), DefaultTranscoderOptions())

	got := svc.Extensions()
	if len(got) != 2 || got[0] != "asc" || got[1] != "bil" {
		t.Errorf("Extensions() = %v", got)
	}
	if !svc.SupportsFile("/x/Y.BIL") || svc.SupportsFile("/x/y.tif") {
		t.Error("SupportsFile gave the wrong answer")
	}
}
