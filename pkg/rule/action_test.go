package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nudgedev/nudge/pkg/rule"
)

func TestNewAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		at      rule.ActionType
		message string
		wantErr error
	}{
		{
			name:    "valid suggest",
			at:      rule.TypeSuggest,
			message: "Update the service container",
		},
		{
			name:    "message with structured payload",
			at:      rule.TypeSuggest,
			message: "Run:\n```\nbin/console make:migration\n```",
		},
		{
			name:    "missing message",
			at:      rule.TypeSuggest,
			message: "",
			wantErr: rule.ErrNoMessage,
		},
		{
			name:    "unknown type",
			at:      "shell",
			message: "ls",
			wantErr: rule.ErrUnknownActionType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a, err := rule.NewAction(tt.at, tt.message)

			if tt.wantErr != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, a)
			} else {
				require.NoError(t, err)
				require.NotNil(t, a)
				// The message must pass through unmodified.
				assert.Equal(t, tt.message, a.Message)
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	a := rule.Suggest("hello")
	assert.Equal(t, rule.TypeSuggest, a.Type)
	assert.Equal(t, "hello", a.Message)

	assert.Panics(t, func() {
		rule.Suggest("")
	})
}
