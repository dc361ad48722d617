package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nudgedev/nudge/pkg/config"
	"github.com/nudgedev/nudge/pkg/event"
)

const validRules = `apiVersion: nudge.dev/v1beta1
kind: Rule
name: symfony-controller
description: New controllers need routes
filters:
  - type: file_extension
    pattern: '\.php$'
  - type: directory
    pattern: 'src/Controller/'
  - type: event
    pattern: 'file_create|file_update'
actions:
  - type: suggest
    message: Register the route
tags: [symfony, routing]
---
name: twig-template
filters:
  - type: file_extension
    pattern: '\.(twig|html\.twig)$'
actions:
  - type: suggest
    message: Clear the template cache
`

func TestLoad(t *testing.T) {
	t.Parallel()

	loader := config.NewLoaderFromBytes([]byte(validRules))

	rules, issues := loader.Load()
	require.Empty(t, issues)
	require.Len(t, rules, 2)

	assert.Equal(t, "symfony-controller", rules[0].Name)
	assert.Equal(t, []string{"symfony", "routing"}, rules[0].Tags)
	assert.Len(t, rules[0].Filters, 3)

	// Metadata defaults are optional; the bare document still loads.
	assert.Equal(t, "twig-template", rules[1].Name)

	// Loaded rules are compiled and ready to match.
	assert.True(t, rules[0].Matches(
		event.New("src/Controller/UserController.php", event.FileCreate)))
	assert.False(t, rules[0].Matches(
		event.New("tests/UserTest.php", event.FileCreate)))
}

func TestLoadIsolatesInvalidDocuments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		data      string
		wantRules []string
		wantIssue string
	}{
		{
			name: "invalid pattern excludes one document",
			data: `name: broken
filters:
  - type: directory
    pattern: '['
actions:
  - type: suggest
    message: msg
---
name: fine
actions:
  - type: suggest
    message: msg
`,
			wantRules: []string{"fine"},
			wantIssue: "broken",
		},
		{
			name: "unknown filter type fails schema validation",
			data: `name: globby
filters:
  - type: glob
    pattern: '*.php'
actions:
  - type: suggest
    message: msg
---
name: fine
actions:
  - type: suggest
    message: msg
`,
			wantRules: []string{"fine"},
			wantIssue: "globby",
		},
		{
			name: "missing actions fails schema validation",
			data: `name: actionless
filters:
  - type: event
    pattern: file_create
---
name: fine
actions:
  - type: suggest
    message: msg
`,
			wantRules: []string{"fine"},
			wantIssue: "actionless",
		},
		{
			name: "duplicate names keep first occurrence",
			data: `name: twice
actions:
  - type: suggest
    message: first
---
name: twice
actions:
  - type: suggest
    message: second
`,
			wantRules: []string{"twice"},
			wantIssue: "twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			loader := config.NewLoaderFromBytes([]byte(tt.data))

			rules, issues := loader.Load()

			names := make([]string, 0, len(rules))
			for _, r := range rules {
				names = append(names, r.Name)
			}

			assert.Equal(t, tt.wantRules, names)
			require.Len(t, issues, 1)
			assert.Contains(t, issues[0].Error(), tt.wantIssue)
		})
	}
}

func TestLoadSyntaxErrorAbortsStream(t *testing.T) {
	t.Parallel()

	data := `name: fine
actions:
  - type: suggest
    message: msg
---
	name: not-yaml
	  tabs: everywhere
`

	loader := config.NewLoaderFromBytes([]byte(data))

	rules, issues := loader.Load()
	assert.Len(t, rules, 1)
	require.NotEmpty(t, issues)
}

func TestLoadSkipsEmptyDocuments(t *testing.T) {
	t.Parallel()

	data := `---
name: only
actions:
  - type: suggest
    message: msg
---
`

	loader := config.NewLoaderFromBytes([]byte(data))

	rules, issues := loader.Load()
	require.Empty(t, issues)
	require.Len(t, rules, 1)
	assert.Equal(t, "only", rules[0].Name)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid stream", func(t *testing.T) {
		t.Parallel()

		loader := config.NewLoaderFromBytes([]byte(validRules))
		require.NoError(t, loader.Validate())
	})

	t.Run("wrong apiVersion", func(t *testing.T) {
		t.Parallel()

		data := `apiVersion: nudge.dev/v1
kind: Rule
name: future
actions:
  - type: suggest
    message: msg
`

		loader := config.NewLoaderFromBytes([]byte(data))
		require.Error(t, loader.Validate())
	})
}

func TestLoadPath(t *testing.T) {
	t.Parallel()

	t.Run("single file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte(validRules), 0o600))

		rules, issues, err := config.LoadPath(path)
		require.NoError(t, err)
		assert.Empty(t, issues)
		assert.Len(t, rules, 2)
	})

	t.Run("directory sorted by filename", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "20-second.yaml"), []byte(
			"name: second\nactions:\n  - type: suggest\n    message: b\n"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "10-first.yml"), []byte(
			"name: first\nactions:\n  - type: suggest\n    message: a\n"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte(
			"not rules"), 0o600))

		rules, issues, err := config.LoadPath(dir)
		require.NoError(t, err)
		assert.Empty(t, issues)
		require.Len(t, rules, 2)
		assert.Equal(t, "first", rules[0].Name)
		assert.Equal(t, "second", rules[1].Name)
	})

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()

		_, _, err := config.LoadPath(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestDefaultRules(t *testing.T) {
	t.Parallel()

	rules := config.DefaultRules()
	require.NotEmpty(t, rules)

	for _, r := range rules {
		require.NoError(t, r.Compile())
		assert.NotEmpty(t, r.Actions)
	}
}

func TestLoaderWithValidator(t *testing.T) {
	t.Parallel()

	rejectAll := validatorFunc(func(any) error {
		return assert.AnError
	})

	loader := config.NewLoaderFromBytes([]byte(validRules), config.WithValidator(rejectAll))

	rules, issues := loader.Load()
	assert.Empty(t, rules)
	assert.Len(t, issues, 2)
}

type validatorFunc func(data any) error

func (f validatorFunc) Validate(data any) error {
	return f(data)
}
