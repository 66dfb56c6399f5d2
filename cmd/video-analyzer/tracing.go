package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sipsyai/video-automation-analyzer/pkg/config"
	"github.com/sipsyai/video-automation-analyzer/pkg/telemetry"
	"github.com/sipsyai/video-automation-analyzer/pkg/version"
)

// initTracing installs the tracer provider described by the tracing.*
// settings from the config file and environment, overlaid with any
// --tracing-* flags on the command line.
func initTracing(ctx context.Context) (telemetry.ShutdownFunc, error) {
	if err := config.Init(); err != nil {
		return nil, err
	}
	cfg := telemetry.Config{
		Enabled:        viper.GetBool("tracing.enabled"),
		ServiceName:    viper.GetString("tracing.service_name"),
		ServiceVersion: version.Version,
		Sampler:        viper.GetString("tracing.sampler"),
		SamplerRatio:   viper.GetFloat64("tracing.ratio"),
	}
	applyTracingFlags(&cfg, osArgs())
	return telemetry.InitTracer(ctx, cfg)
}

// applyTracingFlags overlays --tracing-* flags found in args. Cobra has not
// parsed flags yet when the tracer is built, so they are read here directly.
func applyTracingFlags(cfg *telemetry.Config, args []string) {
	fs := pflag.NewFlagSet("tracing", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	enabled := fs.Bool("tracing-enabled", false, "")
	sampler := fs.String("tracing-sampler", "", "")
	ratio := fs.Float64("tracing-ratio", 0, "")
	if err := fs.Parse(args); err != nil {
		return
	}
	if fs.Changed("tracing-enabled") {
		cfg.Enabled = *enabled
	}
	if fs.Changed("tracing-sampler") {
		cfg.Sampler = *sampler
	}
	if fs.Changed("tracing-ratio") {
		cfg.SamplerRatio = *ratio
	}
}

// withTracing wraps a command's RunE in a cli.command span
func withTracing(cmd *cobra.Command) *cobra.Command {
	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		attrs := []attribute.KeyValue{
			attribute.String("command.name", cmd.Name()),
			attribute.String("command.path", cmd.CommandPath()),
			attribute.Int("args.count", len(args)),
		}
		cmd.Flags().Visit(func(flag *pflag.Flag) {
			attrs = append(attrs, attribute.String("flag."+flag.Name, flag.Value.String()))
		})

		ctx, span := telemetry.Tracer().Start(cmd.Context(), "cli.command", trace.WithAttributes(attrs...))
		defer span.End()
		cmd.SetContext(ctx)

		if err := run(cmd, args); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		span.SetStatus(codes.Ok, "")
		return nil
	}
	return cmd
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Bool("tracing-enabled", false, "Enable OpenTelemetry tracing (OTLP/HTTP exporter)")
	flags.String("tracing-sampler", "always", "Tracing sampler (always, never, ratio)")
	flags.Float64("tracing-ratio", 1, "Sampling ratio when using the ratio sampler")

	bindFlag(flags.Lookup("tracing-enabled"), "tracing.enabled")
	bindFlag(flags.Lookup("tracing-sampler"), "tracing.sampler")
	bindFlag(flags.Lookup("tracing-ratio"), "tracing.ratio")
}
