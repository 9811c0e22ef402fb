package ipc

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelay(t *testing.T) {
	b := Backoff{Base: time.Second, Max: 5 * time.Second}
	assert.Equal(t, time.Second, b.Delay(0))
	assert.Equal(t, time.Second, b.Delay(1))
	assert.Equal(t, 2*time.Second, b.Delay(2))
	assert.Equal(t, 4*time.Second, b.Delay(3))
	assert.Equal(t, 5*time.Second, b.Delay(4))
	assert.Equal(t, 5*time.Second, b.Delay(30))
}

func TestRetryDialerRetriesUntilSuccess(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()

	calls := 0
	var slept []time.Duration
	r := RetryDialer{
		Dialer: DialerFunc(func(ctx context.Context) (io.ReadWriteCloser, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("no such device")
			}
			return a, nil
		}),
		Backoff: Backoff{Base: 10 * time.Millisecond, Max: time.Second},
		sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}

	rw, err := r.Dial(context.Background())
	require.NoError(t, err)
	assert.Same(t, a, rw)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, slept)
	rw.Close()
}

func TestRetryDialerGivesUp(t *testing.T) {
	dialErr := errors.New("no such device")
	calls := 0
	r := RetryDialer{
		Dialer: DialerFunc(func(ctx context.Context) (io.ReadWriteCloser, error) {
			calls++
			return nil, dialErr
		}),
		Backoff: Backoff{MaxAttempts: 4, Base: time.Millisecond},
		sleep:   func(context.Context, time.Duration) error { return nil },
	}

	_, err := r.Dial(context.Background())
	assert.ErrorIs(t, err, dialErr)
	assert.Equal(t, 4, calls)
}

func TestRetryDialerStopsOnCancel(t *testing.T) {
	dialErr := errors.New("no such device")
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	r := RetryDialer{
		Dialer: DialerFunc(func(ctx context.Context) (io.ReadWriteCloser, error) {
			calls++
			return nil, dialErr
		}),
		Backoff: Backoff{Base: time.Hour},
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := r.Dial(ctx)
	assert.ErrorIs(t, err, dialErr)
	assert.Equal(t, 1, calls)
}
