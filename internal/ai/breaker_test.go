package ai

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"travelatlas/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	calls atomic.Int32
	reply string
	err   error
	delay time.Duration
}

func (f *fakeClient) Complete(ctx context.Context, _ Request) (string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func TestBreakerPassesThrough(t *testing.T) {
	fc := &fakeClient{reply: "hello"}
	b := NewBreaker("test-ok", fc, time.Second)

	out, err := b.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	fc := &fakeClient{err: errors.New("502 from provider")}
	b := newBreaker("test-trip", fc, time.Second, time.Hour)

	for i := 0; i < breakerFailureThreshold; i++ {
		_, err := b.Complete(context.Background(), Request{})
		require.Error(t, err)
		assert.True(t, domain.IsUnavailable(err))
	}
	assert.Equal(t, "open", b.State())

	_, err := b.Complete(context.Background(), Request{})
	assert.True(t, domain.IsUnavailable(err))
	assert.Equal(t, int32(breakerFailureThreshold), fc.calls.Load(), "open breaker must not call the provider")
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	fc := &fakeClient{err: errors.New("boom")}
	b := newBreaker("test-recover", fc, time.Second, 20*time.Millisecond)
	for i := 0; i < breakerFailureThreshold; i++ {
		_, _ = b.Complete(context.Background(), Request{})
	}
	require.Equal(t, "open", b.State())

	time.Sleep(40 * time.Millisecond)
	fc.err = nil
	fc.reply = "back"
	out, err := b.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "back", out)
	assert.Equal(t, "closed", b.State())
}

func TestBreakerAppliesTimeout(t *testing.T) {
	fc := &fakeClient{reply: "late", delay: time.Second}
	b := NewBreaker("test-timeout", fc, 10*time.Millisecond)

	_, err := b.Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewWithoutKeyIsUnavailable(t *testing.T) {
	c, err := New(Options{Provider: "anthropic"})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), Request{})
	assert.True(t, domain.IsUnavailable(err))

	_, err = New(Options{Provider: "bard"})
	assert.Error(t, err)
}
