package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const maxLogOutput = 16384

// GetLogsParams defines parameters for the get_logs tool.
type GetLogsParams struct{}

// GetLogsResult contains recent engine log output.
type GetLogsResult struct {
	Message   string `json:"message"`
	Logs      string `json:"logs"`
	LineCount int    `json:"lineCount"`
}

// handleGetLogs handles the get_logs tool call.
func (s *Server) handleGetLogs(
	_ context.Context,
	_ *mcp.ServerSession,
	_ *mcp.CallToolParamsFor[GetLogsParams],
) (*mcp.CallToolResultFor[GetLogsResult], error) {
	entries := s.logs.Entries()

	var sb strings.Builder
	for _, entry := range entries {
		sb.Write(entry)
	}

	result := GetLogsResult{
		Logs:      truncateString(sb.String(), maxLogOutput),
		LineCount: len(entries),
	}

	msg := fmt.Sprintf("Returning %d recent log entries.", result.LineCount)
	result.Message = msg

	return &mcp.CallToolResultFor[GetLogsResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: msg,
			},
		},
		StructuredContent: result,
	}, nil
}
