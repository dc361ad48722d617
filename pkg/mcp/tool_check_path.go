package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nudgedev/nudge/pkg/event"
)

// CheckPathParams defines parameters for the check_path tool.
type CheckPathParams struct {
	Path string `json:"path" jsonschema:"description=the file or directory path, relative to the project root"`
	Kind string `json:"kind,omitempty" jsonschema:"description=the event kind, defaults to file_create"`
}

// Match describes one rule that would fire for the checked event.
type Match struct {
	Rule     string   `json:"rule"`
	Messages []string `json:"messages"`
}

// CheckPathResult contains the result of checking a path.
type CheckPathResult struct {
	Error      string  `json:"error,omitempty"`
	Message    string  `json:"message"`
	Matches    []Match `json:"matches"`
	MatchCount int     `json:"matchCount"`
}

// handleCheckPath handles the check_path tool call. It evaluates the rules
// against a hypothetical event without dispatching any notifications.
func (s *Server) handleCheckPath(
	_ context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[CheckPathParams],
) (*mcp.CallToolResultFor[CheckPathResult], error) {
	kind := event.Kind(params.Arguments.Kind)
	if kind == "" {
		kind = event.FileCreate
	}

	result := CheckPathResult{Matches: []Match{}}

	if !event.ValidKind(kind) {
		result.Error = fmt.Sprintf("unknown event kind %q", kind)

		return createCheckPathResult(result), nil
	}

	evt := event.New(params.Arguments.Path, kind)

	for _, r := range s.source.RuleSet().Rules() {
		if !r.Matches(evt) {
			continue
		}

		match := Match{
			Rule:     r.Name,
			Messages: make([]string, 0, len(r.Actions)),
		}
		for _, a := range r.Actions {
			match.Messages = append(match.Messages, a.Message)
		}

		result.Matches = append(result.Matches, match)
	}

	result.MatchCount = len(result.Matches)

	return createCheckPathResult(result), nil
}

// createCheckPathResult creates the MCP tool result from CheckPathResult.
func createCheckPathResult(result CheckPathResult) *mcp.CallToolResultFor[CheckPathResult] {
	msg := fmt.Sprintf("%d rules would fire.", result.MatchCount)
	if result.Error != "" {
		msg = result.Error
	}

	result.Message = msg

	return &mcp.CallToolResultFor[CheckPathResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: msg,
			},
		},
		StructuredContent: result,
	}
}
