package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/chainguard-dev/clog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/prreview/internal/archive"
	"github.com/joescharf/prreview/internal/git"
)

// Tool names exposed to the agent runtime.
const (
	ToolGetPullRequest    = "get_pull_request"
	ToolArchiveToDatabase = "archive_to_database"
)

// Archiver stores a titled review payload.
type Archiver interface {
	Archive(ctx context.Context, title string, data map[string]any) archive.Result
}

// Server exposes pull request retrieval and review archiving as MCP tools.
type Server struct {
	gh       git.GitHubClient
	archiver Archiver
	version  string
}

// NewServer creates the MCP server wrapper with all required dependencies.
func NewServer(gh git.GitHubClient, a Archiver, version string) *Server {
	return &Server{
		gh:       gh,
		archiver: a,
		version:  version,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("pull_request_inspection", s.version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	srv.AddTool(s.getPullRequestTool())
	srv.AddTool(s.archiveToDatabaseTool())

	return srv
}

// ServeStdio serves on in/out until ctx is cancelled or the stream closes.
// Tool calls are handled one at a time. Transport errors go to errLog.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer, errLog *log.Logger) error {
	stdio := server.NewStdioServer(s.MCPServer())
	if errLog != nil {
		stdio.SetErrorLogger(errLog)
	}
	// A single worker drains the tool call queue in arrival order.
	server.WithWorkerPoolSize(1)(stdio)

	return stdio.Listen(ctx, in, out)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// get_pull_request
func (s *Server) getPullRequestTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool(ToolGetPullRequest,
		mcp.WithDescription("Obtain details from a GitHub pull request: title, description, author, timestamps, state and per-file diffs. Returns an empty object if the pull request could not be retrieved."),
		mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner (user or organization)")),
		mcp.WithString("repository", mcp.Required(), mcp.Description("Repository name")),
		mcp.WithNumber("number", mcp.Required(), mcp.Description("Pull request number"), mcp.Min(1)),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
	return tool, s.handleGetPullRequest
}

// emptyRecord is returned whenever retrieval fails.
const emptyRecord = "{}"

func (s *Server) handleGetPullRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := clog.FromContext(ctx)

	owner, err := request.RequireString("owner")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: owner"), nil
	}
	repo, err := request.RequireString("repository")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: repository"), nil
	}
	number, err := request.RequireInt("number")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: number"), nil
	}
	// RequireInt truncates 42.7 to 42.
	if f, ok := request.GetArguments()["number"].(float64); ok && f != math.Trunc(f) {
		return mcp.NewToolResultError(fmt.Sprintf("number must be a whole number, got %v", f)), nil
	}
	if number < 1 {
		return mcp.NewToolResultError(fmt.Sprintf("number must be positive, got %d", number)), nil
	}

	log.Infof("Retrieving PR #%d from %s/%s", number, owner, repo)
	rec, err := s.gh.PullRequest(ctx, owner, repo, number)
	if err != nil {
		log.Errorf("Failed to retrieve PR: %v", err)
		log.Debugf("Retrieval of %s/%s#%d failed: %+v", owner, repo, number, err)
		return mcp.NewToolResultText(emptyRecord), nil
	}
	if rec == nil {
		log.Warnf("No data received for %s/%s#%d", owner, repo, number)
		return mcp.NewToolResultText(emptyRecord), nil
	}

	data, err := json.Marshal(rec)
	if err != nil {
		log.Errorf("Failed to encode PR: %v", err)
		return mcp.NewToolResultText(emptyRecord), nil
	}
	log.Infof("Pull request data successfully retrieved")
	return mcp.NewToolResultText(string(data)), nil
}

// archive_to_database
func (s *Server) archiveToDatabaseTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool(ToolArchiveToDatabase,
		mcp.WithDescription("Store a pull request review in the database. pr_data is typically the object returned by get_pull_request, optionally enriched with review fields; pr_title is injected into it. Each call inserts a new document."),
		mcp.WithString("pr_title", mcp.Required(), mcp.Description("Title to store the review under")),
		mcp.WithObject("pr_data", mcp.Required(), mcp.Description("Pull request data and review payload")),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
	)
	return tool, s.handleArchiveToDatabase
}

func (s *Server) handleArchiveToDatabase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("pr_title")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: pr_title"), nil
	}

	data, err := objectArg(request, "pr_data")
	if err != nil {
		return mcp.NewToolResultError(archive.ErrorPrefix + err.Error()), nil
	}

	res := s.archiver.Archive(ctx, title, data)
	if !res.OK() {
		return mcp.NewToolResultError(res.Message), nil
	}
	return mcp.NewToolResultText(res.Message), nil
}

// objectArg extracts a JSON object argument. Clients that send the object
// as an encoded string are accepted too.
func objectArg(request mcp.CallToolRequest, key string) (map[string]any, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("missing required parameter: %s", key)
	}
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(t), &m); err != nil {
			return nil, fmt.Errorf("%s is not a JSON object: %w", key, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%s must be an object, got %T", key, v)
	}
}
