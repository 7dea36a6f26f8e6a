package core_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/Swind/go-parseq/core"
)

func TestMakeReason_Message(t *testing.T) {
	tests := []struct {
		name string
		opts core.ReasonOptions
		want string
	}{
		{"name only", core.ReasonOptions{Name: "sequence"}, "parseq.sequence"},
		{"with excuse", core.ReasonOptions{Name: "race", Excuse: "Loser"}, "parseq.race: Loser"},
		{"empty name", core.ReasonOptions{}, "parseq."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.MakeReason(tt.opts).Error())
		})
	}
}

// TestMakeReason_Evidence verifies evidence presence tracking
// Given: Reasons made with and without evidence
// When: HasEvidence is queried
// Then: Only a non-nil evidence counts, and a zero value is still evidence
func TestMakeReason_Evidence(t *testing.T) {
	none := core.MakeReason(core.ReasonOptions{Name: "x"})
	zero := core.MakeReason(core.ReasonOptions{Name: "x", Evidence: 0})

	assert.False(t, none.HasEvidence())
	assert.Nil(t, none.Evidence)
	assert.True(t, zero.HasEvidence())
	assert.Equal(t, 0, zero.Evidence)
}

func TestMakeReason_Metadata(t *testing.T) {
	before := time.Now().UTC()
	r := core.MakeReason(core.ReasonOptions{Name: "x"})

	assert.False(t, r.CreatedAt().Before(before.Add(-time.Second)))
	assert.Equal(t, time.UTC, r.CreatedAt().Location())
	assert.NotEmpty(t, r.Stack())
}

// TestReason_Unwrap verifies errors.Is and errors.As see through a Reason
func TestReason_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	r := core.MakeReason(core.ReasonOptions{Name: "parallel", Cause: cause})
	wrapped := fmt.Errorf("request failed: %w", r)

	assert.ErrorIs(t, wrapped, cause)
	got, ok := core.AsReason(wrapped)
	require.True(t, ok)
	assert.Same(t, r, got)

	_, ok = core.AsReason(cause)
	assert.False(t, ok)
}

func TestReason_Format(t *testing.T) {
	r := core.MakeReason(core.ReasonOptions{
		Name:     "race",
		Excuse:   "Timeout occurred!",
		Evidence: 30 * time.Millisecond,
		Cause:    errors.New("slow"),
	})

	assert.Equal(t, "parseq.race: Timeout occurred!", fmt.Sprintf("%v", r))
	assert.Equal(t, "parseq.race: Timeout occurred!", fmt.Sprintf("%s", r))
	assert.Equal(t, `"parseq.race: Timeout occurred!"`, fmt.Sprintf("%q", r))
	assert.Equal(t, "parseq.race: Timeout occurred! (evidence: 30ms) (cause: slow)", fmt.Sprintf("%+v", r))
}
