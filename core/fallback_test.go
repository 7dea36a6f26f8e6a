package core_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/Swind/go-parseq/core"
)

// TestFallback_TriesInOrder verifies one-at-a-time attempts
// Given: Three fallbacks
// When: The first fails and the second succeeds
// Then: The fallback succeeds with the second value and the third never starts
func TestFallback_TriesInOrder(t *testing.T) {
	// Arrange
	pool := NewManualThreadPool()
	ms, rs := newManualRequestors(3)
	f, err := core.Fallback(rs, core.FallbackSpec{Config: manualConfig(pool)})
	require.NoError(t, err)
	rec := &resultRecorder{}

	// Act
	f(rec.Receive, "key")
	pool.RunUntilIdle()
	assert.False(t, ms[1].Started())
	ms[0].Fail(errors.New("primary down"))
	pool.RunUntilIdle()

	// Assert - every attempt sees the original message
	require.True(t, ms[1].Started())
	assert.Equal(t, "key", ms[1].Message())

	// Act
	ms[1].Succeed("from replica")
	pool.RunUntilIdle()

	// Assert
	require.Equal(t, 1, rec.Count())
	assert.Equal(t, "from replica", rec.Last().Value())
	assert.False(t, ms[2].Started())
}

// TestFallback_AllFail verifies the fallback fails with the last reason
func TestFallback_AllFail(t *testing.T) {
	pool := NewManualThreadPool()
	ms, rs := newManualRequestors(2)
	f, err := core.Fallback(rs, core.FallbackSpec{Config: manualConfig(pool)})
	require.NoError(t, err)
	rec := &resultRecorder{}
	last := errors.New("cache down")

	f(rec.Receive, nil)
	pool.RunUntilIdle()
	ms[0].Fail(errors.New("db down"))
	pool.RunUntilIdle()
	ms[1].Fail(last)
	pool.RunUntilIdle()

	require.Equal(t, 1, rec.Count())
	assert.ErrorIs(t, rec.Last().Reason(), last)
}

// TestFallback_TimeLimitSpansAllAttempts verifies one deadline for the whole fallback
// Given: A 40ms fallback whose first attempt fails after 30ms
// When: The second attempt has not reported by 40ms
// Then: The fallback fails with a timeout reason and the second attempt is cancelled
func TestFallback_TimeLimitSpansAllAttempts(t *testing.T) {
	// Arrange
	pool := NewManualThreadPool()
	ms, rs := newManualRequestors(2)
	f, err := core.Fallback(rs, core.FallbackSpec{
		TimeLimit: 40 * time.Millisecond,
		Config:    manualConfig(pool),
	})
	require.NoError(t, err)
	rec := &resultRecorder{}

	// Act
	f(rec.Receive, nil)
	pool.Advance(30 * time.Millisecond)
	ms[0].Fail(errors.New("slow failure"))
	pool.Advance(10 * time.Millisecond)

	// Assert
	require.Equal(t, 1, rec.Count())
	requireReason(t, rec.Last().Reason(), "fallback", "Timeout occurred!")
	assert.Equal(t, 1, ms[1].CancelCount())
}

// TestFallback_EmptyIsUsageError verifies an empty fallback is rejected by the factory
func TestFallback_EmptyIsUsageError(t *testing.T) {
	f, err := core.Fallback([]core.Requestor{}, core.FallbackSpec{})

	assert.Nil(t, f)
	requireReason(t, err, "fallback", "No requestors provided")
}
