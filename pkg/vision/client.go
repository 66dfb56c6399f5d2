// Package vision interprets screenshots with a hosted vision-language model.
//
// A Client sends one prompt plus images and returns the reply text. The Analyzer
// builds prompts for single frames (with a rolling window of earlier actions)
// and for the whole-workflow summary, and turns replies into workflow.Actions.
package vision

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sipsyai/video-automation-analyzer/pkg/config"
)

// Image is a base64 encoded image attached to a request
type Image struct {
	MediaType string
	Base64    string
}

// Request is a single model call
type Request struct {
	System string
	Prompt string
	Images []Image
}

// Client is the hosted model capability
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to Client
type ClientFunc func(ctx context.Context, req Request) (string, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// NewClient builds the provider client named by cfg.Provider, wrapped with the
// configured retry policy.
func NewClient(ctx context.Context, cfg config.Config) (Client, error) {
	var (
		client Client
		err    error
	)
	switch cfg.Provider {
	case config.ProviderAnthropic:
		client, err = NewAnthropicClient(cfg)
	case config.ProviderOpenAI:
		client, err = NewOpenAIClient(cfg)
	case config.ProviderGoogle:
		client, err = NewGoogleClient(ctx, cfg)
	default:
		return nil, errors.Errorf("unsupported provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s client", cfg.Provider)
	}
	return WithRetry(client, cfg.Retry), nil
}
