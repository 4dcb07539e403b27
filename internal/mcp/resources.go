package mcp

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/shotmcp/internal/logging"
)

// RecentLogURI names the resource holding the tail of the action log.
const RecentLogURI = "shotmcp://logs/recent"

// RecentLogLines is the number of log lines served by RecentLogURI.
const RecentLogLines = 200

// ResourceContent contains the content of a resource.
type ResourceContent struct {
	URI      string
	Content  string
	MIMEType string
}

func (s *Server) registerResources() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "recent-actions",
			URI:         RecentLogURI,
			Description: "Most recent lines of the MCP action log",
			MIMEType:    "text/plain",
		},
		func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			content, err := s.ReadResource(ctx, RecentLogURI)
			if err != nil {
				return nil, MapError(err)
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{
						URI:      content.URI,
						MIMEType: content.MIMEType,
						Text:     content.Content,
					},
				},
			}, nil
		},
	)
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (*ResourceContent, error) {
	if uri != RecentLogURI {
		return nil, NewResourceNotFoundError(uri)
	}
	if err := ctx.Err(); err != nil {
		return nil, MapError(err)
	}

	viewer := logging.NewViewer(logging.ViewerConfig{NoColor: true}, nil)
	entries, err := viewer.Tail(s.logs.FilePath(), RecentLogLines)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ResourceContent{URI: uri, MIMEType: "text/plain"}, nil
		}
		return nil, MapError(err)
	}

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Raw)
		b.WriteByte('\n')
	}

	return &ResourceContent{
		URI:      uri,
		Content:  b.String(),
		MIMEType: "text/plain",
	}, nil
}
