package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/petems/voicevault/internal/config"
	"github.com/petems/voicevault/internal/logging"
	"github.com/petems/voicevault/internal/speaker"
)

var (
	configFile string
	logLevel   string

	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "voicevault",
	Short:         "Identify who is speaking from a short microphone clip",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Loader{Path: configFile}.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		log = logging.New(cfg.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is the platform config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(historyCmd)
}

// Execute runs the root command.
func Execute(version, commit string) error {
	rootCmd.Version = fmt.Sprintf("%s (%s)", version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func modelLoader() speaker.Loader {
	return speaker.Loader{CacheDir: cfg.ModelsCache, Logger: log}
}
