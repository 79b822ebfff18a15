package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/assetmaps/bil2asset/internal/core/domain"
	"github.com/assetmaps/bil2asset/pkg/paths"
)

// BatchService converts every supported raster found in a directory
type BatchService struct {
	transcoder *TranscoderService
}

// NewBatchService creates a batch service on top of a transcoder
func NewBatchService(t *TranscoderService) *BatchService {
	return &BatchService{transcoder: t}
}

// BatchRequest represents a request to convert a directory
type BatchRequest struct {
	InputDir   string
	OutputDir  string
	Format     domain.AssetFormat
	MaxWorkers int // Number of concurrent conversions
}

// BatchResult is the outcome for one raster
type BatchResult struct {
	Input    string
	Output   string
	Success  bool
	Response *ConvertResponse
	Error    error
}

// BatchResponse aggregates the results of a directory conversion
type BatchResponse struct {
	Total     int
	Succeeded int
	Failed    int
	Results   []BatchResult
}

// BatchProgress is sent once per finished raster
type BatchProgress struct {
	Current int
	Total   int
	Result  BatchResult
}

// Jobs lists the conversions a request expands to, ordered by input path.
// Inputs sharing a base name map to the same output; only the first of them
// is converted.
func (s *BatchService) Jobs(req BatchRequest) ([]domain.ConversionJob, error) {
	entries, err := os.ReadDir(req.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var jobs []domain.ConversionJob
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		input := filepath.Join(req.InputDir, entry.Name())
		if !s.transcoder.SupportsFile(input) {
			continue
		}
		jobs = append(jobs, domain.ConversionJob{
			Input:  input,
			Output: paths.LayerOutput(req.OutputDir, input),
			Format: req.Format,
		})
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Input < jobs[j].Input })
	return jobs, nil
}

// Execute converts the directory without progress reporting
func (s *BatchService) Execute(ctx context.Context, req BatchRequest) (*BatchResponse, error) {
	return s.ExecuteWithProgress(ctx, req, nil)
}

// ExecuteWithProgress converts the directory and reports every finished
// raster on progressChan, which is closed on return. A nil channel disables
// reporting. Individual failures do not stop the batch.
func (s *BatchService) ExecuteWithProgress(ctx context.Context, req BatchRequest, progressChan chan<- BatchProgress) (*BatchResponse, error) {
	if progressChan != nil {
		defer close(progressChan)
	}

	jobs, err := s.Jobs(req)
	if err != nil {
		return nil, err
	}

	maxWorkers := req.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	results := s.convertConcurrently(ctx, jobs, maxWorkers, progressChan)

	response := &BatchResponse{
		Total:   len(jobs),
		Results: results,
	}
	for _, r := range results {
		if r.Success {
			response.Succeeded++
		} else {
			response.Failed++
		}
	}
	return response, nil
}

// splitConflicts keeps the first job for every output path. Later jobs that
// would write the same layer (dtm.bil and dtm.asc both map to dtm/dtm) are
// returned as failed results instead of being scheduled.
func splitConflicts(jobs []domain.ConversionJob) ([]domain.ConversionJob, []BatchResult) {
	owner := make(map[string]string, len(jobs))
	scheduled := make([]domain.ConversionJob, 0, len(jobs))
	var conflicts []BatchResult

	for _, job := range jobs {
		// Case-insensitive file systems would merge DTM/ and dtm/
		key := strings.ToLower(filepath.Clean(job.Output))
		if first, taken := owner[key]; taken {
			conflicts = append(conflicts, BatchResult{
				Input:  job.Input,
				Output: job.Output,
				Error: domain.NewJobError("validate output", job.Output, domain.ErrAlreadyExists,
					fmt.Sprintf("layer is already produced by %s", first)),
			})
			continue
		}
		owner[key] = job.Input
		scheduled = append(scheduled, job)
	}
	return scheduled, conflicts
}

// convertConcurrently runs the jobs on a worker pool
func (s *BatchService) convertConcurrently(ctx context.Context, jobs []domain.ConversionJob, maxWorkers int, progressChan chan<- BatchProgress) []BatchResult {
	scheduled, conflicts := splitConflicts(jobs)

	collected := make([]BatchResult, 0, len(jobs))
	report := func(result BatchResult) {
		collected = append(collected, result)
		if progressChan != nil {
			progressChan <- BatchProgress{Current: len(collected), Total: len(jobs), Result: result}
		}
	}
	for _, c := range conflicts {
		report(c)
	}

	queue := make(chan domain.ConversionJob, len(scheduled))
	results := make(chan BatchResult, len(scheduled))

	var wg sync.WaitGroup
	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, queue, results)
		}()
	}

	for _, job := range scheduled {
		queue <- job
	}
	close(queue)

	go func() {
		wg.Wait()
		close(results)
	}()

	for result := range results {
		report(result)
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].Input < collected[j].Input })
	return collected
}

func (s *BatchService) worker(ctx context.Context, queue <-chan domain.ConversionJob, results chan<- BatchResult) {
	for job := range queue {
		result := BatchResult{Input: job.Input, Output: job.Output}

		if err := ctx.Err(); err != nil {
			result.Error = err
			results <- result
			continue
		}

		resp, err := s.transcoder.Run(ctx, job)
		result.Response = resp
		result.Error = err
		result.Success = err == nil
		results <- result
	}
}
