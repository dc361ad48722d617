// Package config loads trigger-rule documents from YAML files, validates
// them against the embedded JSON schema, and compiles them into rules.
//
// Loading is isolating: one invalid document excludes only itself, never the
// other documents in the same file or directory.
package config
