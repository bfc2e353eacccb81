package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"MedMemory/backend/go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_Lifecycle(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := newBreaker(2, 2, 30*time.Second, func() time.Time { return now })
	boom := errors.New("boom")
	fail := func() error { return boom }
	ok := func() error { return nil }

	assert.ErrorIs(t, b.Execute(fail), boom)
	assert.Equal(t, Closed, b.State())
	assert.ErrorIs(t, b.Execute(fail), boom)
	assert.Equal(t, Open, b.State())

	called := false
	err := b.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(30 * time.Second)
	assert.Equal(t, HalfOpen, b.State())
	require.NoError(t, b.Execute(ok))
	assert.Equal(t, HalfOpen, b.State())
	require.NoError(t, b.Execute(ok))
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := newBreaker(1, 1, time.Minute, func() time.Time { return now })

	_ = b.Execute(func() error { return errors.New("down") })
	now = now.Add(time.Minute)
	_ = b.Execute(func() error { return errors.New("still down") })
	assert.Equal(t, Open, b.State())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New(2, 1, time.Minute)
	_ = b.Execute(func() error { return errors.New("once") })
	require.NoError(t, b.Execute(func() error { return nil }))
	_ = b.Execute(func() error { return errors.New("twice") })
	assert.Equal(t, Closed, b.State())
}

func TestFromConfig(t *testing.T) {
	b, err := FromConfig(config.CircuitBreakerConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = FromConfig(config.CircuitBreakerConfig{Enabled: true, FailureThreshold: 3, SuccessThreshold: 1, Timeout: "5s"})
	require.NoError(t, err)
	assert.Equal(t, Closed, b.State())

	_, err = FromConfig(config.CircuitBreakerConfig{Enabled: true, Timeout: "never"})
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Half-Open", HalfOpen.String())
	assert.Equal(t, "Unknown", State(9).String())
}
