// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes narration tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/narrate/internal/narrator"
	"github.com/starford/narrate/internal/storage"
)

const postFormatURI = "narrate://post-format"

// Server wraps the MCP server with narration tools.
type Server struct {
	mcp      *server.MCPServer
	svc      *narrator.Service
	store    storage.Provider
	postsDir string
	glob     string
}

// New creates a new MCP server with all narration tools registered. postsDir
// and glob select the posts list_posts reports.
func New(svc *narrator.Service, store storage.Provider, postsDir, glob string) *Server {
	s := &Server{svc: svc, store: store, postsDir: postsDir, glob: glob}

	s.mcp = server.NewMCPServer(
		"narrate",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List the blog posts that can be narrated."),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("preview_narration",
		mcp.WithDescription("Show the plain text that would be read aloud for a post, with its word count. "+
			"Nothing is synthesized and the post is not modified."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Post path relative to the site root (e.g. _posts/2024-01-01-title.md)")),
	), s.previewNarration)

	s.mcp.AddTool(mcp.NewTool("narrate_post",
		mcp.WithDescription("Generate the MP3 narration of a post and record its URL in the post's "+
			"frontmatter audio field. Posts must follow the format in the get_post_contract tool "+
			"or the "+postFormatURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Post path relative to the site root")),
		mcp.WithString("voice", mcp.Description("Voice identifier; defaults to the configured voice")),
		mcp.WithNumber("speed", mcp.Description("Speaking-rate multiplier; defaults to the configured speed")),
		mcp.WithBoolean("dry_run", mcp.Description("Only compute the narration text")),
		mcp.WithBoolean("skip_frontmatter_update", mcp.Description("Leave the post file untouched")),
		mcp.WithBoolean("force", mcp.Description("Re-render even if the audio is current")),
	), s.narratePost)

	s.mcp.AddTool(mcp.NewTool("list_narrations",
		mcp.WithDescription("List generated narrations, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries (default 50)")),
	), s.listNarrations)

	s.mcp.AddTool(mcp.NewTool("get_post_contract",
		mcp.WithDescription("Returns the post format the narrator understands. "+
			"Call this before writing a post meant to be narrated."),
	), s.getPostContract)

	s.mcp.AddResource(
		mcp.NewResource(postFormatURI, "Post Format Contract",
			mcp.WithResourceDescription("Markdown post format accepted by the narrator."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas, err := s.store.List(s.postsDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var paths []string
	for _, m := range metas {
		if narrator.MatchPost(s.postsDir, s.glob, m.Path) {
			paths = append(paths, m.Path)
		}
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no posts found"), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) previewNarration(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.Preview(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n---\n%d chars, %d words", p.Text, p.Chars, p.Words)), nil
}

func (s *Server) narratePost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := s.svc.Defaults()
	opts.Voice = req.GetString("voice", opts.Voice)
	opts.Speed = req.GetFloat("speed", opts.Speed)
	opts.DryRun = req.GetBool("dry_run", false)
	opts.SkipFrontmatterUpdate = req.GetBool("skip_frontmatter_update", false)
	opts.Force = req.GetBool("force", false)
	if err := opts.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.svc.Narrate(ctx, path, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listNarrations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, _, err := s.svc.List(ctx, req.GetInt("limit", 50), 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no narrations yet"), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getPostContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormatContract), nil
}

func (s *Server) readPostFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      postFormatURI,
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}
