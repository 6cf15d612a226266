// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the content catalog to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/eduhub/internal/apperr"
	"github.com/starford/eduhub/internal/contentservice"
	"github.com/starford/eduhub/internal/links"
)

const contentFormatURI = "eduhub://content-format"

// Server wraps the MCP server with the content tools.
type Server struct {
	mcp *server.MCPServer
	svc *contentservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *contentservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"EduHub",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_content",
		mcp.WithDescription("Full-text search through titles, descriptions, bodies and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchContent)

	s.mcp.AddTool(mcp.NewTool("filter_content",
		mcp.WithDescription("List content items, newest first. The search term matches title or "+
			"description case-insensitively; an item matches the tags if it carries any of them."),
		mcp.WithString("category", mcp.Description("tools, videos or lessons (empty for all)")),
		mcp.WithString("search", mcp.Description("Substring of title or description")),
		mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Tags to match (any of)")),
	), s.filterContent)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List the distinct tags, optionally with item counts ordered by popularity."),
		mcp.WithString("category", mcp.Description("tools, videos or lessons (empty for all)")),
		mcp.WithBoolean("with_counts", mcp.Description("Return tag counts ordered by count")),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("get_item",
		mcp.WithDescription("Read one content item, including its rendered HTML."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
	), s.getItem)

	s.mcp.AddTool(mcp.NewTool("youtube_id",
		mcp.WithDescription("Extract the 11-character YouTube video id from a link."),
		mcp.WithString("url", mcp.Required(), mcp.Description("YouTube link")),
	), s.youtubeID)

	s.mcp.AddTool(mcp.NewTool("get_content_format",
		mcp.WithDescription("Returns the content file format. Call this before drafting new content."),
	), s.getContentFormat)

	s.mcp.AddResource(
		mcp.NewResource(contentFormatURI, "Content Format",
			mcp.WithResourceDescription("Frontmatter and placement rules for content files."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContentFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) filterContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat, err := contentservice.ParseCategory(req.GetString("category", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.svc.List(ctx, contentservice.Query{
		Category: cat,
		Search:   req.GetString("search", ""),
		Tags:     req.GetStringSlice("tags", nil),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat, err := contentservice.ParseCategory(req.GetString("category", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.GetBool("with_counts", false) {
		counts, err := s.svc.TagCounts(ctx, cat)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(counts)
	}
	tags, err := s.svc.Tags(ctx, cat)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tags)
}

func (s *Server) getItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, err := s.svc.Get(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found: " + id), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(item)
}

func (s *Server) youtubeID(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	u, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := links.YouTubeID(u)
	if id == "" {
		return mcp.NewToolResultError("no video id in link"), nil
	}
	return jsonResult(map[string]string{
		"id":        id,
		"embed_url": links.EmbedURL(id),
		"watch_url": links.WatchURL(id),
	})
}

func (s *Server) getContentFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ContentFormatContract), nil
}

func (s *Server) readContentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contentFormatURI,
			MIMEType: "text/markdown",
			Text:     ContentFormatContract,
		},
	}, nil
}
