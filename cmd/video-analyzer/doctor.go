package main

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/spf13/cobra"

	"github.com/sipsyai/video-automation-analyzer/pkg/binaries"
	"github.com/sipsyai/video-automation-analyzer/pkg/config"
	"github.com/sipsyai/video-automation-analyzer/pkg/presenter"
	"github.com/sipsyai/video-automation-analyzer/pkg/vision"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check external tools and provider credentials",
	Long: `Checks that ffmpeg and ffprobe are installed and that the configured vision
provider has credentials. node and python3 are only needed for syntax
validation, so their absence is reported as a warning.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d := &doctor{
			resolver: binaries.NewResolver(cfg.BinaryOverrides()),
			version:  binaries.Version,
			system:   systemSummary,
			newClient: func(ctx context.Context, cfg config.Config) error {
				_, err := vision.NewClient(ctx, cfg)
				return err
			},
		}
		if err := d.run(cmd.Context(), cfg); err != nil {
			var merr *multierror.Error
			if errors.As(err, &merr) {
				presenter.Error(errors.Errorf("%d check(s) failed", merr.Len()), "")
			}
			return errSilent
		}
		presenter.Success("All checks passed")
		return nil
	},
}

type binaryResolver interface {
	Resolve(ctx context.Context, spec binaries.Spec) (string, error)
}

// doctor runs the health checks; its dependencies are swappable in tests
type doctor struct {
	resolver  binaryResolver
	version   func(ctx context.Context, path string, spec binaries.Spec) (string, error)
	newClient func(ctx context.Context, cfg config.Config) error
	// system is informational only and may be nil
	system func(ctx context.Context) (string, string, error)
}

type binaryCheck struct {
	spec     binaries.Spec
	required bool
	purpose  string
}

var doctorBinaries = []binaryCheck{
	{spec: binaries.FFmpeg, required: true, purpose: "frame decoding"},
	{spec: binaries.FFprobe, required: true, purpose: "stream probing"},
	{spec: binaries.Node, purpose: "Playwright syntax validation"},
	{spec: binaries.Python, purpose: "Selenium syntax validation"},
}

func (d *doctor) run(ctx context.Context, cfg config.Config) error {
	var result *multierror.Error

	if d.system != nil {
		presenter.Section("System")
		if platform, memory, err := d.system(ctx); err != nil {
			presenter.Warning(fmt.Sprintf("could not read system information: %s", err))
		} else {
			presenter.Field("Platform", platform)
			presenter.Field("Memory", memory)
		}
	}

	presenter.Section("Binaries")
	for _, check := range doctorBinaries {
		if err := d.checkBinary(ctx, check); err != nil {
			if check.required {
				result = multierror.Append(result, err)
				presenter.Error(err, check.spec.Name)
			} else {
				presenter.Warning(fmt.Sprintf("%s: %s (needed for %s)", check.spec.Name, err, check.purpose))
			}
		}
	}

	presenter.Section("Provider")
	presenter.Field("Provider", cfg.Provider)
	presenter.Field("Model", cfg.Model)
	if err := d.newClient(ctx, cfg); err != nil {
		err = errors.Wrapf(err, "%s credentials", cfg.Provider)
		result = multierror.Append(result, err)
		presenter.Error(err, "")
	} else {
		presenter.Success("Credentials found")
	}

	return result.ErrorOrNil()
}

func (d *doctor) checkBinary(ctx context.Context, check binaryCheck) error {
	path, err := d.resolver.Resolve(ctx, check.spec)
	if err != nil {
		return err
	}
	v, err := d.version(ctx, path, check.spec)
	if err != nil {
		return errors.Wrapf(err, "%s is not runnable", path)
	}
	presenter.Field(check.spec.Name, fmt.Sprintf("%s (%s)", path, v))
	return nil
}

// systemSummary reports the platform and available memory
func systemSummary(ctx context.Context) (string, string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", "", errors.Wrap(err, "host info")
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return "", "", errors.Wrap(err, "memory info")
	}
	platform := fmt.Sprintf("%s %s (%s)", info.Platform, info.PlatformVersion, info.KernelArch)
	memory := fmt.Sprintf("%.1f GiB available of %.1f GiB", gib(vm.Available), gib(vm.Total))
	return platform, memory, nil
}

func gib(b uint64) float64 {
	return float64(b) / (1 << 30)
}
