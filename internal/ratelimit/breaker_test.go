package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type scriptedLimiter struct {
	calls int
	err   error
}

func (s *scriptedLimiter) Allow(_ context.Context, _ string, window time.Duration, max int) (bool, int, time.Time, error) {
	s.calls++
	return true, max - 1, time.Now().Add(window), s.err
}

func TestBreakerOpensAndRecovers(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	backend := &scriptedLimiter{err: errors.New("redis down")}
	var transitions []string
	b := &Breaker{
		Limiter:      backend,
		MinRequests:  2,
		FailureRatio: 0.5,
		OpenFor:      10 * time.Second,
		Now:          func() time.Time { return now },
		OnStateChange: func(from, to BreakerState) {
			transitions = append(transitions, from.String()+">"+to.String())
		},
	}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _, _, err := b.Allow(ctx, "k", time.Minute, 10)
		require.Error(t, err)
	}
	require.Equal(t, StateOpen, b.State())

	allowed, remaining, _, err := b.Allow(ctx, "k", time.Minute, 10)
	require.ErrorIs(t, err, ErrBackendUnavailable)
	require.True(t, allowed)
	require.Equal(t, 10, remaining)
	require.Equal(t, 2, backend.calls)

	now = now.Add(11 * time.Second)
	backend.err = nil
	_, _, _, err = b.Allow(ctx, "k", time.Minute, 10)
	require.NoError(t, err)
	require.Equal(t, StateClosed, b.State())
	require.Equal(t, 3, backend.calls)
	require.Equal(t, []string{"closed>open", "open>half_open", "half_open>closed"}, transitions)
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	now := time.Now()
	backend := &scriptedLimiter{err: errors.New("timeout")}
	b := &Breaker{Limiter: backend, MinRequests: 1, OpenFor: time.Second, Now: func() time.Time { return now }}
	ctx := context.Background()

	_, _, _, _ = b.Allow(ctx, "k", time.Minute, 1)
	require.Equal(t, StateOpen, b.State())

	now = now.Add(2 * time.Second)
	_, _, _, err := b.Allow(ctx, "k", time.Minute, 1)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrBackendUnavailable)
	require.Equal(t, StateOpen, b.State())
}

func TestBreakerStaysClosedBelowRatio(t *testing.T) {
	backend := &scriptedLimiter{}
	b := &Breaker{Limiter: backend, MinRequests: 4, FailureRatio: 0.75}
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		_, _, _, err := b.Allow(ctx, "k", time.Minute, 5)
		require.NoError(t, err)
	}
	backend.err = errors.New("blip")
	_, _, _, _ = b.Allow(ctx, "k", time.Minute, 5)
	require.Equal(t, StateClosed, b.State())
}
