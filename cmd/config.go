package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/assetmaps/bil2asset/pkg/config"
	"github.com/assetmaps/bil2asset/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default values",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	status := ui.FormatMuted("(not present, using defaults)")
	if _, err := os.Stat(appConfigPath); err == nil {
		status = ""
	}

	fmt.Println(ui.RenderKeyValue("Config file", appConfigPath+" "+status))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("default_type", appConfig.DefaultType))
	fmt.Println(ui.RenderKeyValue("index_filename", appConfig.IndexFilename))
	fmt.Println(ui.RenderKeyValue("compat_mnu_glob", fmt.Sprintf("%t", appConfig.CompatMnuGlob)))
	fmt.Println(ui.RenderKeyValue("watch_debounce_ms", fmt.Sprintf("%d", appConfig.WatchDebounceMS)))
	fmt.Println(ui.RenderKeyValue("color_theme", appConfig.ColorTheme))
	fmt.Println(ui.RenderKeyValue("verbose", fmt.Sprintf("%t", appConfig.Verbose)))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(appConfigPath); err == nil && !configInitForce {
		fmt.Println(ui.FormatWarning("Config already exists: " + appConfigPath))
		fmt.Println(ui.FormatInfo("Use --force to overwrite it"))
		return nil
	}

	if err := config.DefaultConfig().Save(appConfigPath); err != nil {
		return err
	}
	fmt.Println(ui.FormatSuccess("Wrote " + appConfigPath))
	return nil
}
