package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/assetmaps/bil2asset/internal/adapters/chart"
	"github.com/assetmaps/bil2asset/internal/core/domain"
	"github.com/assetmaps/bil2asset/internal/core/services"
	"github.com/assetmaps/bil2asset/pkg/ui"
)

var (
	inspectChart string
	inspectBins  int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show raster metadata and value statistics",
	Long: `Show the metadata and value statistics of a raster.

Works on any supported input and on ASSET output written by convert
(an extensionless payload with a .hdr next to it).

Examples:
  bil2asset inspect mapdata/dtm/dtm.bil
  bil2asset inspect output/dtm/dtm --chart dtm.html`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectChart, "chart", "", "Write a value histogram to this HTML file")
	inspectCmd.Flags().IntVar(&inspectBins, "bins", 20, "Number of histogram bins")
}

// openForInspect opens path with the registry, falling back to the EHdr
// driver for ASSET output that carries only a .hdr sidecar.
func openForInspect(path string) (*domain.RasterDataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.NewJobError("inspect", path, domain.ErrNotFound, "file does not exist")
	}
	if !info.Mode().IsRegular() {
		return nil, domain.NewJobError("inspect", path, domain.ErrIsDirectory, "not a regular file")
	}

	ds, err := rasterRegistry.Open(path)
	if err == nil || !errors.Is(err, domain.ErrUnsupportedFormat) {
		return ds, err
	}
	if _, statErr := os.Stat(path + ".hdr"); statErr != nil {
		return nil, err
	}
	ehdr, ok := rasterRegistry.Lookup("EHdr")
	if !ok {
		return nil, err
	}
	return ehdr.Open(path)
}

func runInspect(cmd *cobra.Command, args []string) error {
	ds, err := openForInspect(args[0])
	if err != nil {
		return err
	}

	st := services.ComputeStats(ds)

	fmt.Println(ui.FormatTitle(filepath.Base(ds.Path)))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Driver", ds.Driver))
	fmt.Println(ui.RenderKeyValue("Size", fmt.Sprintf("%d x %d", ds.Width, ds.Height)))
	fmt.Println(ui.RenderKeyValue("Data type", string(ds.DataType)))
	fmt.Println(ui.RenderKeyValue("Bounds", fmt.Sprintf("%s %s %s %s",
		fmtNum(ds.Bounds.Left), fmtNum(ds.Bounds.Right), fmtNum(ds.Bounds.Bottom), fmtNum(ds.Bounds.Top))))
	fmt.Println(ui.RenderKeyValue("Resolution", fmt.Sprintf("%s x %s", fmtNum(ds.Resolution.X), fmtNum(ds.Resolution.Y))))
	if ds.NoData != nil {
		fmt.Println(ui.RenderKeyValue("NoData", fmtNum(*ds.NoData)))
	} else {
		fmt.Println(ui.RenderKeyValue("NoData", ui.FormatMuted("none")))
	}
	if ds.HasCRS() {
		fmt.Println(ui.RenderKeyValue("CRS", truncate(ds.CRS, 60)))
	} else {
		fmt.Println(ui.RenderKeyValue("CRS", ui.StyleWarning.Render("missing (convert will refuse this file)")))
	}

	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Valid", fmt.Sprintf("%d", st.Valid)))
	fmt.Println(ui.RenderKeyValue("NoData cells", fmt.Sprintf("%d", st.NoData)))
	if st.Valid > 0 {
		fmt.Println(ui.RenderKeyValue("Min", fmtNum(st.Min)))
		fmt.Println(ui.RenderKeyValue("Max", fmtNum(st.Max)))
		fmt.Println(ui.RenderKeyValue("Mean", fmtNum(st.Mean)))
	}

	if inspectChart == "" {
		return nil
	}
	bins := services.Histogram(ds, inspectBins)
	if len(bins) == 0 {
		fmt.Println(ui.FormatWarning("No valid samples, chart not written"))
		return nil
	}
	if err := chart.WriteHistogram(inspectChart, filepath.Base(ds.Path), bins); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(ui.FormatSuccess("Histogram written to " + inspectChart))
	return nil
}

func fmtNum(v float64) string {
	return fmt.Sprintf("%g", v)
}
