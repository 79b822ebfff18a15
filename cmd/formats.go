package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/assetmaps/bil2asset/internal/adapters/raster"
	"github.com/assetmaps/bil2asset/internal/core/domain"
	"github.com/assetmaps/bil2asset/pkg/ui"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the raster formats that can be converted",
	Args:  cobra.NoArgs,
	RunE:  runFormats,
}

func runFormats(cmd *cobra.Command, args []string) error {
	fmt.Println(ui.FormatTitle("Input formats"))
	fmt.Println()
	fmt.Println(ui.RenderTable(
		[]string{"Driver", "Description", "Extensions", "Header"},
		driverRows(rasterRegistry),
	))
	fmt.Println()
	fmt.Println(ui.FormatTitle("Output types"))
	fmt.Println()
	fmt.Println(ui.RenderTable([]string{"Type", "NoData", "Description"}, assetTypeRows()))
	return nil
}

func driverRows(reg *raster.Registry) [][]string {
	var rows [][]string
	for _, d := range reg.Drivers() {
		header := "read"
		if _, ok := d.(raster.HeaderCreator); ok {
			header = "read, create"
		}
		rows = append(rows, []string{
			d.Name(),
			d.LongName(),
			"." + strings.Join(d.Extensions(), " ."),
			header,
		})
	}
	return rows
}

func assetTypeRows() [][]string {
	var rows [][]string
	for _, f := range domain.AllFormats() {
		rows = append(rows, []string{f.String(), fmt.Sprintf("%d", f.NoData()), f.Description()})
	}
	return rows
}
