package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentOptionsTimeout(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		want     *float64
	}{
		{name: "no deadline"},
		{name: "seconds left", deadline: now.Add(3 * time.Second), want: ptr(3000)},
		{name: "under a millisecond", deadline: now.Add(300 * time.Microsecond), want: ptr(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if !tt.deadline.IsZero() {
				ctx = deadlineCtx{Context: ctx, deadline: tt.deadline}
			}

			opts, err := contentOptions(ctx, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, opts.Timeout)
		})
	}
}

func TestContentOptionsDoneContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()

	_, err := contentOptions(ctx, time.Now())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// deadlineCtx reports a fixed deadline while staying live.
type deadlineCtx struct {
	context.Context
	deadline time.Time
}

func (c deadlineCtx) Deadline() (time.Time, bool) { return c.deadline, true }

func ptr(v float64) *float64 { return &v }
