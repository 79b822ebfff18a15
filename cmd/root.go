package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/assetmaps/bil2asset/internal/adapters/raster"
	"github.com/assetmaps/bil2asset/internal/core/services"
	"github.com/assetmaps/bil2asset/pkg/config"
	"github.com/assetmaps/bil2asset/pkg/ctxlog"
	"github.com/assetmaps/bil2asset/pkg/paths"
	"github.com/assetmaps/bil2asset/pkg/ui"
)

var (
	// Global configuration
	appConfig     *config.Config
	appConfigPath string

	// Driver registry, queried once per process
	rasterRegistry *raster.Registry

	// Services
	transcoderService *services.TranscoderService
	batchService      *services.BatchService

	// Context carrying the logger
	appCtx context.Context

	// Flags
	flagConfigPath string
	flagVerbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bil2asset",
	Short: "Convert geospatial rasters into ASSET map data",
	Long: ui.StyleTitle.Render("bil2asset") + " - ASSET map data converter\n\n" +
		"Converts single band elevation and land use rasters into the ASSET\n" +
		"interchange format: a big-endian 16-bit payload, a .hdr header and an\n" +
		"index.txt spatial index.",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.FormatError(err.Error()))
		os.Exit(ExitCode(err))
	}
}

func init() {
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to config.yaml (default: XDG config dir)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log conversion steps")
}

// initializeApp loads configuration and wires the services
func initializeApp(cmd *cobra.Command, args []string) error {
	path := flagConfigPath
	if path == "" {
		p, err := paths.ConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
		path = p
	}
	appConfigPath = path

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	appConfig = cfg

	ui.SetTheme(cfg.ColorTheme)

	logger := ctxlog.New(os.Stderr, flagVerbose || cfg.Verbose)
	appCtx = ctxlog.WithLogger(cmd.Context(), logger)

	rasterRegistry = raster.Default()
	transcoderService = services.NewTranscoderService(rasterRegistry, services.TranscoderOptions{
		IndexFilename:  cfg.IndexFilename,
		CompatMenuGlob: cfg.CompatMnuGlob,
	})
	batchService = services.NewBatchService(transcoderService)

	return nil
}

// getContext returns a context for operations
func getContext() context.Context {
	if appCtx == nil {
		return context.Background()
	}
	return appCtx
}
