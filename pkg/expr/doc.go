// Package expr provides CEL (Common Expression Language) functionality
// for evaluating expressions against filesystem events.
//
// It creates CEL environments with custom functions for file path
// operations (pathBase, pathDir, pathExt).
//
// CEL expressions have access to variables:
//   - `path` (string): The event's file or directory path
//   - `kind` (string): The event's kind token
package expr
