package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_StartsClosed(t *testing.T) {
	b := New()
	assert.False(t, b.IsOpen())
	assert.Equal(t, State{}, b.Snapshot())
}

func TestBreaker_TripOpens(t *testing.T) {
	b := New()
	b.Trip("quota exhausted")

	require.True(t, b.IsOpen())
	st := b.Snapshot()
	assert.Equal(t, "quota exhausted", st.Reason)
	assert.False(t, st.TrippedAt.IsZero())
}

func TestBreaker_TripIsIdempotent(t *testing.T) {
	b := New()
	fixed := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	b.Trip("first")
	first := b.Snapshot()

	b.now = func() time.Time { return fixed.Add(time.Hour) }
	b.Trip("second")
	b.Trip("third")

	assert.Equal(t, first, b.Snapshot(), "repeated trips must not change state")
}

func TestBreaker_ResetCloses(t *testing.T) {
	b := New()
	b.Trip("quota exhausted")
	b.Reset()

	assert.False(t, b.IsOpen())
	assert.Equal(t, State{}, b.Snapshot())
}

func TestBreaker_TripAfterReset(t *testing.T) {
	b := New()
	b.Trip("first period")
	b.Reset()
	b.Trip("second period")

	require.True(t, b.IsOpen())
	assert.Equal(t, "second period", b.Snapshot().Reason)
}
