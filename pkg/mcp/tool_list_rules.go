package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nudgedev/nudge/pkg/rule"
)

// ListRulesParams defines parameters for the list_rules tool.
type ListRulesParams struct{}

// RuleSummary describes one loaded rule.
type RuleSummary struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Filters     []FilterSummary `json:"filters"`
	Actions     []ActionSummary `json:"actions"`
	Tags        []string        `json:"tags,omitempty"`
}

// FilterSummary describes one rule filter.
type FilterSummary struct {
	Type    string `json:"type"`
	Pattern string `json:"pattern"`
}

// ActionSummary describes one rule action.
type ActionSummary struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ListRulesResult contains the result of listing rules.
type ListRulesResult struct {
	Message   string        `json:"message"`
	Rules     []RuleSummary `json:"rules"`
	RuleCount int           `json:"ruleCount"`
}

// handleListRules handles the list_rules tool call.
func (s *Server) handleListRules(
	_ context.Context,
	_ *mcp.ServerSession,
	_ *mcp.CallToolParamsFor[ListRulesParams],
) (*mcp.CallToolResultFor[ListRulesResult], error) {
	rules := s.source.RuleSet().Rules()

	result := ListRulesResult{
		Rules:     make([]RuleSummary, 0, len(rules)),
		RuleCount: len(rules),
	}
	for _, r := range rules {
		result.Rules = append(result.Rules, summarizeRule(r))
	}

	return createListRulesResult(result), nil
}

func summarizeRule(r *rule.Rule) RuleSummary {
	summary := RuleSummary{
		Name:        r.Name,
		Description: r.Description,
		Filters:     make([]FilterSummary, 0, len(r.Filters)),
		Actions:     make([]ActionSummary, 0, len(r.Actions)),
		Tags:        r.Tags,
	}
	for _, f := range r.Filters {
		summary.Filters = append(summary.Filters, FilterSummary{
			Type:    string(f.Type),
			Pattern: f.Pattern,
		})
	}

	for _, a := range r.Actions {
		summary.Actions = append(summary.Actions, ActionSummary{
			Type:    string(a.Type),
			Message: a.Message,
		})
	}

	return summary
}

// createListRulesResult creates the MCP tool result from ListRulesResult.
func createListRulesResult(result ListRulesResult) *mcp.CallToolResultFor[ListRulesResult] {
	msg := fmt.Sprintf("Found %d trigger rules.", result.RuleCount)
	result.Message = msg

	return &mcp.CallToolResultFor[ListRulesResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: msg,
			},
		},
		StructuredContent: result,
	}
}
