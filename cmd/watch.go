package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/assetmaps/bil2asset/internal/core/domain"
	"github.com/assetmaps/bil2asset/internal/core/services"
	"github.com/assetmaps/bil2asset/pkg/ctxlog"
	"github.com/assetmaps/bil2asset/pkg/paths"
	"github.com/assetmaps/bil2asset/pkg/ui"
)

var (
	watchType  domain.AssetFormat
	watchQuiet bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <input_dir> <output_dir>",
	Short: "Convert rasters as they appear in a directory",
	Long: `Watch input_dir and convert every supported raster that is created or
written there. Each raster is converted into <output_dir>/<name>/<name>.

Rasters whose layer already exists are skipped. Events are debounced
(watch_debounce_ms) so a file is converted once its writer has finished.

Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().VarP(&watchType, "type", "t", "Output type: dlu or dtm (default from config, else dlu)")
	watchCmd.Flags().BoolVarP(&watchQuiet, "quiet", "q", false, "Only report failures")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := getContext()
	log := ctxlog.FromContext(ctx)
	inputDir, outputDir := args[0], args[1]
	format := resolveFormat(cmd, watchType)

	info, err := os.Stat(inputDir)
	if err != nil {
		return domain.NewJobError("watch", inputDir, domain.ErrNotFound, "input directory does not exist")
	}
	if !info.IsDir() {
		return domain.NewJobError("watch", inputDir, domain.ErrInvalidInput, "input is not a directory")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(inputDir); err != nil {
		return fmt.Errorf("failed to watch input directory: %w", err)
	}

	if !watchQuiet {
		fmt.Println(ui.FormatLayer("Watching for rasters..."))
		fmt.Println(ui.FormatMuted("Input:  " + inputDir))
		fmt.Println(ui.FormatMuted("Output: " + outputDir))
		fmt.Println(ui.FormatMuted("Press Ctrl+C to stop"))
		fmt.Println()
	}

	debounceDuration := 500 * time.Millisecond
	if appConfig != nil && appConfig.WatchDebounceMS > 0 {
		debounceDuration = time.Duration(appConfig.WatchDebounceMS) * time.Millisecond
	}

	var (
		mu            sync.Mutex
		convertMu     sync.Mutex
		pending       = make(map[string]struct{})
		debounceTimer *time.Timer
	)

	// Conversions run one at a time, in input order
	doConvert := func() {
		convertMu.Lock()
		defer convertMu.Unlock()

		mu.Lock()
		inputs := make([]string, 0, len(pending))
		for p := range pending {
			inputs = append(inputs, p)
		}
		pending = make(map[string]struct{})
		mu.Unlock()
		sort.Strings(inputs)

		for _, input := range inputs {
			job := domain.ConversionJob{
				Input:  input,
				Output: paths.LayerOutput(outputDir, input),
				Format: format,
			}
			outcome, resp, err := convertWatched(ctx, transcoderService, job)
			switch outcome {
			case watchSkipped:
				log.Debug("skipping raster", "input", input, "reason", err)
			case watchFailed:
				fmt.Println(ui.FormatError(err.Error()))
			case watchConverted:
				if !watchQuiet {
					fmt.Println(ui.FormatSuccess(fmt.Sprintf("Converted %s to %s.", resp.Input, resp.Output)))
				}
			}
		}
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !watchCandidate(event, transcoderService.SupportsFile) {
				continue
			}

			mu.Lock()
			pending[event.Name] = struct{}{}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDuration, doConvert)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "err", err)

		case <-ctx.Done():
			mu.Lock()
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			mu.Unlock()
			if !watchQuiet {
				fmt.Println()
				fmt.Println(ui.FormatMuted("Watch stopped"))
			}
			return nil
		}
	}
}

// watchCandidate reports whether event names a raster that should be
// converted: a created or written file, not hidden or an editor backup, with
// an extension some driver reads.
func watchCandidate(event fsnotify.Event, supports func(string) bool) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	baseName := filepath.Base(event.Name)
	if strings.HasPrefix(baseName, ".") || strings.HasPrefix(baseName, "~") {
		return false
	}
	return supports(event.Name)
}

type watchOutcome int

const (
	watchConverted watchOutcome = iota
	watchSkipped
	watchFailed
)

// convertWatched runs one job. A layer that already exists, or an input that
// disappeared before the debounce fired, is skipped rather than reported.
func convertWatched(ctx context.Context, svc *services.TranscoderService, job domain.ConversionJob) (watchOutcome, *services.ConvertResponse, error) {
	resp, err := svc.Run(ctx, job)
	switch {
	case err == nil:
		return watchConverted, resp, nil
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrNotFound):
		return watchSkipped, nil, err
	default:
		return watchFailed, nil, err
	}
}
