// Package config loads analyzer settings from flags, VIDEO_ANALYZER_* environment
// variables and an optional config.yaml, with named profiles layered on top.
package config

import (
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/sipsyai/video-automation-analyzer/pkg/telemetry"
)

const (
	EnvPrefix = "VIDEO_ANALYZER"
	DirName   = ".video-analyzer"

	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
)

// Config is the fully resolved configuration
type Config struct {
	Provider  string `mapstructure:"provider"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`

	Aliases  map[string]string  `mapstructure:"aliases"`
	Profile  string             `mapstructure:"profile"`
	Profiles map[string]Profile `mapstructure:"profiles"`

	Sampling  SamplingConfig  `mapstructure:"sampling"`
	Vision    VisionConfig    `mapstructure:"vision"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Generator GeneratorConfig `mapstructure:"generator"`

	FFmpeg  BinaryConfig `mapstructure:"ffmpeg"`
	FFprobe BinaryConfig `mapstructure:"ffprobe"`
	Node    BinaryConfig `mapstructure:"node"`
	Python  BinaryConfig `mapstructure:"python"`

	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Google    GoogleConfig    `mapstructure:"google"`

	Tracing telemetry.Config `mapstructure:"tracing"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Profile is a partial Config keyed the same way as the top level
type Profile map[string]any

// SamplingConfig tunes the frame sampler
type SamplingConfig struct {
	// Rate is the number of frames per second of video to inspect
	Rate float64 `mapstructure:"rate"`
	// Threshold is the fraction of pixels that must change for a frame to be kept
	Threshold float64 `mapstructure:"threshold"`
}

type VisionConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	// Concurrency bounds parallel screenshot analysis; video frames are always sequential
	Concurrency int `mapstructure:"concurrency"`
}

// RetryConfig is applied by the vision retry decorator. Attempts <= 1 disables it.
type RetryConfig struct {
	Attempts     int           `mapstructure:"attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	BackoffType  string        `mapstructure:"backoff_type"`
}

type GeneratorConfig struct {
	WebOnly        bool `mapstructure:"web_only"`
	ValidateSyntax bool `mapstructure:"validate_syntax"`
}

type BinaryConfig struct {
	Path string `mapstructure:"path"`
}

type AnthropicConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// APIKeyEnvVar names the variable holding the key, OPENAI_API_KEY by default
	APIKeyEnvVar string `mapstructure:"api_key_env_var"`
}

type GoogleConfig struct {
	// Backend is "gemini", "vertexai" or empty for auto detection
	Backend  string `mapstructure:"backend"`
	Project  string `mapstructure:"project"`
	Location string `mapstructure:"location"`
}

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

var defaultModels = map[string]string{
	ProviderAnthropic: "sonnet",
	ProviderOpenAI:    "gpt-4.1",
	ProviderGoogle:    "gemini-2.5-flash",
}

var defaultAliases = map[string]string{
	"sonnet": "claude-sonnet-4-5-20250929",
	"haiku":  "claude-haiku-4-5-20251001",
	"opus":   "claude-opus-4-1-20250805",
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderAnthropic)
	v.SetDefault("max_tokens", 4096)
	v.SetDefault("sampling.rate", 1.0)
	v.SetDefault("sampling.threshold", 0.15)
	v.SetDefault("vision.timeout", 120*time.Second)
	v.SetDefault("vision.concurrency", 4)
	v.SetDefault("retry.attempts", 1)
	v.SetDefault("retry.initial_delay", time.Second)
	v.SetDefault("retry.max_delay", 10*time.Second)
	v.SetDefault("retry.backoff_type", "exponential")
	v.SetDefault("generator.web_only", false)
	v.SetDefault("generator.validate_syntax", true)
	v.SetDefault("openai.api_key_env_var", "OPENAI_API_KEY")
	v.SetDefault("google.location", "us-central1")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.sampler", "always")
	v.SetDefault("tracing.ratio", 1.0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "fmt")
}

// Init prepares the global viper instance: defaults, environment binding and
// the optional config file. A missing config file is not an error.
func Init() error {
	SetDefaults(viper.GetViper())

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/" + DirName)
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "failed to read config file")
	}
	return nil
}

// Load reads the global viper instance
func Load() (Config, error) {
	return FromViper(viper.GetViper())
}

// FromViper decodes v, applies the active profile and resolves model aliases
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to unmarshal configuration")
	}

	if name := activeProfile(cfg.Profile); name != "" {
		profile, ok := cfg.Profiles[name]
		if !ok {
			return cfg, errors.Errorf("profile %q is not defined", name)
		}
		if err := applyProfile(&cfg, profile); err != nil {
			return cfg, err
		}
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Model == "" {
		cfg.Model = defaultModels[cfg.Provider]
	}
	cfg.Model = resolveModelAlias(cfg.Model, cfg.Aliases)

	return cfg, cfg.Validate()
}

func activeProfile(name string) string {
	if name == "default" {
		return ""
	}
	return name
}

func applyProfile(cfg *Config, profile Profile) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ZeroFields:       false,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create profile decoder")
	}
	if err := decoder.Decode(map[string]any(profile)); err != nil {
		return errors.Wrap(err, "failed to apply profile configuration")
	}
	return nil
}

func resolveModelAlias(model string, aliases map[string]string) string {
	if resolved, ok := aliases[model]; ok {
		return resolved
	}
	if resolved, ok := defaultAliases[model]; ok {
		return resolved
	}
	return model
}

// Validate checks value ranges
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderGoogle:
	default:
		return errors.Errorf("unsupported provider %q (want anthropic, openai or google)", c.Provider)
	}
	if c.Sampling.Rate <= 0 {
		return errors.Errorf("sampling.rate must be positive, got %v", c.Sampling.Rate)
	}
	if c.Sampling.Threshold < 0 || c.Sampling.Threshold > 1 {
		return errors.Errorf("sampling.threshold must be within [0, 1], got %v", c.Sampling.Threshold)
	}
	if c.MaxTokens <= 0 {
		return errors.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	return nil
}

// BinaryOverrides maps binary names to configured paths
func (c Config) BinaryOverrides() map[string]string {
	return map[string]string{
		"ffmpeg":  c.FFmpeg.Path,
		"ffprobe": c.FFprobe.Path,
		"node":    c.Node.Path,
		"python3": c.Python.Path,
	}
}
