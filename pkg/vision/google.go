package vision

import (
	"context"
	"encoding/base64"
	"os"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/sipsyai/video-automation-analyzer/pkg/config"
)

const (
	backendGemini   = "gemini"
	backendVertexAI = "vertexai"
)

// GoogleClient calls Gemini through the Gemini API or Vertex AI
type GoogleClient struct {
	client    *genai.Client
	model     string
	maxTokens int
	backend   string
}

func NewGoogleClient(ctx context.Context, cfg config.Config) (*GoogleClient, error) {
	backend := detectBackend(cfg.Google)

	clientConfig := &genai.ClientConfig{}
	switch backend {
	case backendVertexAI:
		clientConfig.Backend = genai.BackendVertexAI
		clientConfig.Project = cfg.Google.Project
		clientConfig.Location = cfg.Google.Location
	default:
		clientConfig.Backend = genai.BackendGeminiAPI
		clientConfig.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create google genai client")
	}
	return &GoogleClient{client: client, model: cfg.Model, maxTokens: cfg.MaxTokens, backend: backend}, nil
}

// detectBackend picks Vertex AI or the Gemini API from configuration first and
// the environment second, defaulting to the Gemini API.
func detectBackend(cfg config.GoogleConfig) string {
	if cfg.Backend != "" {
		return strings.ToLower(cfg.Backend)
	}
	if v := os.Getenv("GOOGLE_GENAI_USE_VERTEXAI"); v != "" {
		if strings.EqualFold(v, "true") || v == "1" {
			return backendVertexAI
		}
		return backendGemini
	}
	if cfg.Project != "" {
		return backendVertexAI
	}
	if firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY") != "" {
		return backendGemini
	}
	if firstEnv("GOOGLE_CLOUD_PROJECT", "GCLOUD_PROJECT", "GOOGLE_APPLICATION_CREDENTIALS") != "" {
		return backendVertexAI
	}
	return backendGemini
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func (c *GoogleClient) Complete(ctx context.Context, req Request) (string, error) {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		data, err := base64.StdEncoding.DecodeString(img.Base64)
		if err != nil {
			return "", errors.Wrap(err, "invalid base64 image")
		}
		parts = append(parts, genai.NewPartFromBytes(data, img.MediaType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	genConfig := &genai.GenerateContentConfig{MaxOutputTokens: int32(c.maxTokens)}
	if req.System != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, genConfig)
	if err != nil {
		return "", errors.Wrapf(err, "gemini generate content failed (%s backend)", c.backend)
	}
	return replyText(resp), nil
}

func replyText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
