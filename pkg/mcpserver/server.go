// Package mcpserver exposes the analyzer as Model Context Protocol tools over
// stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"

	"github.com/sipsyai/video-automation-analyzer/pkg/generator"
	"github.com/sipsyai/video-automation-analyzer/pkg/logger"
	"github.com/sipsyai/video-automation-analyzer/pkg/skill"
	"github.com/sipsyai/video-automation-analyzer/pkg/version"
)

const (
	ServerName         = "video-automation-analyzer"
	VideoToolName      = "analyze_video_workflow"
	ScreenshotToolName = "analyze_single_screenshot"
)

// Service is the work behind the tools
type Service interface {
	AnalyzeVideo(ctx context.Context, args skill.VideoArgs) skill.Result
	AnalyzeImage(ctx context.Context, args skill.ImageArgs) skill.Result
}

// New returns an MCP server with both tools registered
func New(svc Service) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.AddTool(videoTool(), videoHandler(svc))
	s.AddTool(screenshotTool(), screenshotHandler(svc))
	return s
}

// ServeStdio runs the server on the given streams until ctx is done or
// stdin closes
func ServeStdio(ctx context.Context, svc Service, stdin io.Reader, stdout io.Writer) error {
	logger.G(ctx).WithField("server", ServerName).Info("starting MCP stdio server")
	stdio := server.NewStdioServer(New(svc))
	if err := stdio.Listen(ctx, stdin, stdout); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "mcp server failed")
	}
	return nil
}

func formatNames() []string {
	names := make([]string, 0, len(generator.AllFormats()))
	for _, f := range generator.AllFormats() {
		names = append(names, string(f))
	}
	return names
}

func videoTool() mcp.Tool {
	return mcp.NewTool(VideoToolName,
		mcp.WithDescription("Analyze video recording to extract automation workflow. "+
			"Detects actions (clicks, typing, navigation) and generates "+
			"automation scripts (Playwright, Selenium, Windows-MCP). "+
			"Use when analyzing screen recordings, creating test automation, "+
			"or documenting workflows."),
		mcp.WithString("video_path",
			mcp.Required(),
			mcp.Description("Path to video file (.mp4, .avi, .mov, .mkv)"),
		),
		mcp.WithArray("output_formats",
			mcp.Description("Script formats to generate (default: playwright, manual)"),
			mcp.Items(map[string]any{
				"type": "string",
				"enum": formatNames(),
			}),
		),
		mcp.WithNumber("fps_sample",
			mcp.Description("Frames per second to sample"),
			mcp.DefaultNumber(skill.DefaultFPSSample),
		),
	)
}

func screenshotTool() mcp.Tool {
	return mcp.NewTool(ScreenshotToolName,
		mcp.WithDescription("Analyze single screenshot to identify UI elements and actions."),
		mcp.WithString("image_path",
			mcp.Required(),
			mcp.Description("Path to screenshot image"),
		),
	)
}

// bindArguments decodes the raw tool arguments into target
func bindArguments(request mcp.CallToolRequest, target any) error {
	data, err := json.Marshal(request.Params.Arguments)
	if err != nil {
		return errors.Wrap(err, "failed to read tool arguments")
	}
	if err := json.Unmarshal(data, target); err != nil {
		return errors.Wrap(err, "invalid tool arguments")
	}
	return nil
}

func toolResult(res skill.Result) *mcp.CallToolResult {
	if res.IsError {
		return mcp.NewToolResultError(res.Text)
	}
	return mcp.NewToolResultText(res.Text)
}

func videoHandler(svc Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args skill.VideoArgs
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError("Error: " + err.Error()), nil
		}
		logger.G(ctx).WithField("tool", VideoToolName).WithField("video", args.VideoPath).Info("tool called")
		return toolResult(svc.AnalyzeVideo(ctx, args)), nil
	}
}

func screenshotHandler(svc Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args skill.ImageArgs
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError("Error: " + err.Error()), nil
		}
		logger.G(ctx).WithField("tool", ScreenshotToolName).WithField("image", args.ImagePath).Info("tool called")
		return toolResult(svc.AnalyzeImage(ctx, args)), nil
	}
}
