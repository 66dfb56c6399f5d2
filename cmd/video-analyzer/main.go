package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sipsyai/video-automation-analyzer/pkg/config"
	"github.com/sipsyai/video-automation-analyzer/pkg/logger"
	"github.com/sipsyai/video-automation-analyzer/pkg/presenter"
)

// errSilent marks failures that have already been reported to the user
var errSilent = errors.New("command failed")

var rootCmd = &cobra.Command{
	Use:   "video-analyzer",
	Short: "Turn screen recordings into automation scripts",
	Long: `video-analyzer samples the frames of a screen recording, asks a vision model
what the user did in each one, and renders the resulting action list as
Playwright, Selenium, Windows-MCP or manual steps.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupRoot,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default $HOME/.video-analyzer/config.yaml or ./config.yaml)")
	flags.String("provider", "", "Vision provider (anthropic, openai or google)")
	flags.String("model", "", "Vision model or alias (overrides config)")
	flags.Int("max-tokens", 0, "Maximum tokens per model reply (overrides config)")
	flags.String("profile", "", "Named configuration profile to apply")
	flags.String("log-level", "", "Log level (panic, fatal, error, warn, info, debug, trace)")
	flags.String("log-format", "", "Log format (fmt or json)")

	bindFlag(flags.Lookup("provider"), "provider")
	bindFlag(flags.Lookup("model"), "model")
	bindFlag(flags.Lookup("max-tokens"), "max_tokens")
	bindFlag(flags.Lookup("profile"), "profile")
	bindFlag(flags.Lookup("log-level"), "log_level")
	bindFlag(flags.Lookup("log-format"), "log_format")

	rootCmd.AddCommand(
		withTracing(analyzeCmd),
		withTracing(screenshotCmd),
		withTracing(extractFramesCmd),
		withTracing(validateCmd),
		withTracing(doctorCmd),
		mcpCmd,
		serveCmd,
		watchCmd,
		skillCmd,
		schemaCmd,
		versionCmd,
	)
}

func setupRoot(cmd *cobra.Command, _ []string) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		viper.SetConfigFile(path)
	}
	if err := config.Init(); err != nil {
		return err
	}
	if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
		return err
	}
	logger.SetLogFormat(viper.GetString("log_format"))
	return nil
}

// loadConfig reads the merged configuration after flags are bound
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := initTracing(ctx)
	if err != nil {
		presenter.Error(err, "Failed to initialize tracing")
	}

	err = rootCmd.ExecuteContext(ctx)
	if shutdown != nil {
		if serr := shutdown(context.Background()); serr != nil {
			logger.G(ctx).WithError(serr).Warn("failed to flush traces")
		}
	}
	if err != nil {
		if !errors.Is(err, errSilent) {
			presenter.Error(err, "")
		}
		stop()
		os.Exit(1)
	}
}
