package cmd

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/spf13/cobra"

	"github.com/assetmaps/bil2asset/internal/core/domain"
	"github.com/assetmaps/bil2asset/internal/core/services"
	"github.com/assetmaps/bil2asset/pkg/ui"
)

var (
	batchType domain.AssetFormat
	batchJobs int
)

var batchCmd = &cobra.Command{
	Use:   "batch <input_dir> <output_dir>",
	Short: "Convert every supported raster in a directory",
	Long: `Convert every supported raster found in input_dir.

Each raster gets its own layer directory so index files do not collide:
  <output_dir>/<name>/<name>
  <output_dir>/<name>/<name>.hdr
  <output_dir>/<name>/index.txt

Failed rasters are reported at the end; the rest are still converted.

Examples:
  bil2asset batch mapdata/dtm output/dtm --type dtm
  bil2asset batch clutter output/dlu -j 8`,
	Args: cobra.ExactArgs(2),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().VarP(&batchType, "type", "t", "Output type: dlu or dtm (default from config, else dlu)")
	batchCmd.Flags().IntVarP(&batchJobs, "jobs", "j", runtime.NumCPU(), "Number of concurrent conversions")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	req := services.BatchRequest{
		InputDir:   args[0],
		OutputDir:  args[1],
		Format:     resolveFormat(cmd, batchType),
		MaxWorkers: batchJobs,
	}

	jobs, err := batchService.Jobs(req)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println(ui.FormatWarning("No supported rasters found in " + req.InputDir))
		return nil
	}

	fmt.Println(ui.FormatLayer("Converting rasters..."))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Rasters", fmt.Sprintf("%d", len(jobs))))
	fmt.Println(ui.RenderKeyValue("Type", req.Format.String()))
	fmt.Println(ui.RenderKeyValue("Workers", fmt.Sprintf("%d", req.MaxWorkers)))
	fmt.Println()

	progressChan := make(chan services.BatchProgress, len(jobs))
	resultChan := make(chan *services.BatchResponse, 1)
	errorChan := make(chan error, 1)

	go func() {
		resp, err := batchService.ExecuteWithProgress(ctx, req, progressChan)
		if err != nil {
			errorChan <- err
			return
		}
		resultChan <- resp
	}()

	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(30))
	for p := range progressChan {
		status := ui.StyleSuccess.Render("✓")
		if !p.Result.Success {
			status = ui.StyleError.Render("✗")
		}
		fmt.Printf("\r%s [%d/%d] %s %-30s",
			bar.ViewAs(float64(p.Current)/float64(p.Total)),
			p.Current,
			p.Total,
			status,
			truncate(filepath.Base(p.Result.Input), 30),
		)
	}
	fmt.Println()
	fmt.Println()

	var response *services.BatchResponse
	select {
	case err := <-errorChan:
		return err
	case response = <-resultChan:
	}

	fmt.Println(ui.RenderKeyValue("Total", fmt.Sprintf("%d", response.Total)))
	fmt.Println(ui.RenderKeyValue("Succeeded", ui.StyleSuccess.Render(fmt.Sprintf("%d", response.Succeeded))))
	if response.Failed == 0 {
		fmt.Println()
		fmt.Println(ui.FormatSuccess("Batch completed!"))
		return nil
	}

	fmt.Println(ui.RenderKeyValue("Failed", ui.StyleError.Render(fmt.Sprintf("%d", response.Failed))))
	fmt.Println()
	fmt.Println(ui.FormatWarning("Failed rasters:"))
	for _, result := range response.Results {
		if !result.Success && result.Error != nil {
			fmt.Println(ui.FormatMuted("  • " + result.Error.Error()))
		}
	}

	return fmt.Errorf("%d of %d conversions failed", response.Failed, response.Total)
}

// truncate shortens s to max runes, marking the cut with an ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}
