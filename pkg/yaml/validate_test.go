package yaml_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goccyyaml "github.com/goccy/go-yaml"

	"github.com/nudgedev/nudge/pkg/yaml"
)

const testSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "actions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "type": {"type": "string", "enum": ["suggest"]},
          "message": {"type": "string"}
        },
        "required": ["type", "message"],
        "additionalProperties": false
      }
    }
  },
  "required": ["name"],
  "additionalProperties": false
}`

func TestNewValidator(t *testing.T) {
	t.Parallel()

	t.Run("valid schema", func(t *testing.T) {
		t.Parallel()

		v, err := yaml.NewValidator("/test.json", []byte(testSchema))
		require.NoError(t, err)
		require.NotNil(t, v)
	})

	t.Run("invalid schema json", func(t *testing.T) {
		t.Parallel()

		_, err := yaml.NewValidator("/test.json", []byte(`{not json`))
		require.Error(t, err)
	})

	t.Run("must panics on invalid schema", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			yaml.MustNewValidator("/test.json", []byte(`{not json`))
		})
	})
}

func TestValidatorValidate(t *testing.T) {
	t.Parallel()

	v := yaml.MustNewValidator("/test.json", []byte(testSchema))

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{
			name: "valid document",
			doc: `name: thing
actions:
  - type: suggest
    message: hello
`,
		},
		{
			name:    "missing required field",
			doc:     `actions: []`,
			wantErr: true,
		},
		{
			name: "enum violation",
			doc: `name: thing
actions:
  - type: shell
    message: hello
`,
			wantErr: true,
		},
		{
			name: "unknown property",
			doc: `name: thing
color: green
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var data any

			require.NoError(t, goccyyaml.Unmarshal([]byte(tt.doc), &data))

			err := v.Validate(data)
			if tt.wantErr {
				require.Error(t, err)

				var yamlErr *yaml.Error
				require.ErrorAs(t, err, &yamlErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	t.Parallel()

	t.Run("with path but no source", func(t *testing.T) {
		t.Parallel()

		path, err := goccyyaml.PathString("$.actions[0].message")
		require.NoError(t, err)

		e := yaml.NewError(errors.New("expected string"), yaml.WithPath(path))
		assert.Contains(t, e.Error(), "$.actions[0].message")
		assert.Contains(t, e.Error(), "expected string")
	})

	t.Run("with source annotation", func(t *testing.T) {
		t.Parallel()

		source := []byte("name: thing\nactions:\n  - type: 42\n")
		path, err := goccyyaml.PathString("$.actions[0].type")
		require.NoError(t, err)

		e := yaml.NewError(errors.New("expected string"),
			yaml.WithPath(path),
			yaml.WithSource(source),
		)
		assert.Contains(t, e.Error(), "expected string")
	})

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()

		e := yaml.Error{}
		assert.Empty(t, e.Error())
	})
}

func TestErrorWrapper(t *testing.T) {
	t.Parallel()

	source := []byte("name: thing\n")
	ew := yaml.NewErrorWrapper(yaml.WithSource(source))

	t.Run("wraps yaml errors", func(t *testing.T) {
		t.Parallel()

		inner := yaml.NewError(errors.New("bad value"))

		err := ew.Wrap(inner)

		var yamlErr *yaml.Error
		require.ErrorAs(t, err, &yamlErr)
		assert.Equal(t, source, yamlErr.Source)
	})

	t.Run("passes through other errors", func(t *testing.T) {
		t.Parallel()

		plain := errors.New("plain")
		assert.Equal(t, plain, ew.Wrap(plain))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, ew.Wrap(nil))
	})
}
