// Package mcp exposes the rule engine to agents over the Model Context
// Protocol.
package mcp

const (
	name         = "nudge"
	instructions = `MCP Server 'nudge' exposes the trigger rules configured for this project.

When to use these tools:
- Discovering which conventions and suggestions are configured for the project
- Predicting which rules would fire for a hypothetical file change before making it
- Inspecting recent engine activity when a rule did not fire as expected

REQUIRED workflow:
1. Use 'list_rules' first to see every loaded rule with its filters and actions.
2. Use 'check_path' with a path and event kind to see which rules would match.
3. Use 'get_logs' only when diagnosing unexpected matching behavior.
`
)

// truncateString truncates a string to maxLen characters with ellipsis if needed.
func truncateString(str string, maxLen int) string {
	if str == "" {
		return ""
	}
	if len(str) > maxLen {
		return str[:maxLen] + "\n[OUTPUT TRUNCATED]"
	}

	return str
}
