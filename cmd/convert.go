package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/assetmaps/bil2asset/internal/core/domain"
	"github.com/assetmaps/bil2asset/pkg/ui"
)

var (
	convertType      domain.AssetFormat
	convertCopyIndex bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <input_file> <output_file>",
	Short: "Convert a raster into an ASSET layer",
	Long: `Convert a single band raster into ASSET map data.

Produces:
  <output_file>      raw big-endian int16 samples, row-major
  <output_file>.hdr  layout and georeferencing header (BYTEORDER=M)
  index.txt          "<name> <left> <right> <bottom> <top> <resolution>"

For dlu layers, .mnu files next to the input are copied alongside.
The output file must not exist; it is never overwritten.

Examples:
  bil2asset convert mapdata/dtm/dtm.bil output/dtm/dtm --type dtm
  bil2asset convert clutter.asc output/dlu/dlu`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().VarP(&convertType, "type", "t", "Output type: dlu or dtm (default from config, else dlu)")
	convertCmd.Flags().BoolVar(&convertCopyIndex, "copy-index", false, "Copy the index line to the clipboard")
}

// resolveFormat prefers the flag, then the configured default
func resolveFormat(cmd *cobra.Command, flagValue domain.AssetFormat) domain.AssetFormat {
	if cmd.Flags().Changed("type") && flagValue != "" {
		return flagValue
	}
	if appConfig != nil {
		return appConfig.Format()
	}
	return domain.FormatDLU
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	job := domain.ConversionJob{
		Input:  args[0],
		Output: args[1],
		Format: resolveFormat(cmd, convertType),
	}

	resp, err := transcoderService.Run(ctx, job)
	if err != nil {
		return err
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Converted %s to %s.", resp.Input, resp.Output)))
	fmt.Println(ui.RenderKeyValue("Type", fmt.Sprintf("%s (nodata %d)", job.Format, resp.NoData)))
	fmt.Println(ui.RenderKeyValue("Size", fmt.Sprintf("%d x %d", resp.Width, resp.Height)))
	fmt.Println(ui.RenderKeyValue("Index", resp.IndexLine))
	if len(resp.MenuFiles) > 0 {
		fmt.Println(ui.FormatInfo("Copied menu files:"))
		fmt.Print(ui.RenderList(resp.MenuFiles))
	}

	if convertCopyIndex {
		if err := clipboard.WriteAll(resp.IndexLine); err != nil {
			fmt.Println(ui.FormatMuted("(Clipboard access failed, please copy manually)"))
		}
	}

	return nil
}
