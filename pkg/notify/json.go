package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// JSON writes one JSON object per suggestion, suitable for piping into other
// tooling.
type JSON struct {
	enc *json.Encoder
	now func() time.Time
	mu  sync.Mutex
}

// NewJSON creates a [JSON] notifier writing to the given writer.
func NewJSON(out io.Writer, opts ...JSONOpt) *JSON {
	j := &JSON{
		enc: json.NewEncoder(out),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}

	return j
}

// JSONOpt is a functional option for configuring a [JSON] notifier.
type JSONOpt func(*JSON)

// WithJSONClock overrides the clock used for timestamps.
func WithJSONClock(now func() time.Time) JSONOpt {
	return func(j *JSON) {
		j.now = now
	}
}

type suggestion struct {
	Time    time.Time `json:"time"`
	Rule    string    `json:"rule"`
	Message string    `json:"message"`
}

// Notify implements [engine.Notifier].
func (j *JSON) Notify(_ context.Context, ruleName, message string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.enc.Encode(suggestion{
		Time:    j.now().UTC(),
		Rule:    ruleName,
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("encode suggestion: %w", err)
	}

	return nil
}
