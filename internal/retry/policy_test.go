package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func always(error) bool { return true }

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, BackoffExponential, p.Backoff)
	assert.Equal(t, time.Second, p.Initial)
	assert.Equal(t, 30*time.Second, p.Max)
	assert.Equal(t, 2, p.MaxRetries)
}

func TestNewPolicy(t *testing.T) {
	p := NewPolicy(BackoffFixed, 5*time.Second, 2*time.Second, 5)
	assert.Equal(t, Policy{Backoff: BackoffFixed, Initial: 2 * time.Second, Max: 2 * time.Second, MaxRetries: 5}, p)

	assert.Equal(t, DefaultPolicy(), NewPolicy("bogus", 0, 0, -1))
	assert.Equal(t, 0, NewPolicy("", 0, 0, 0).MaxRetries)
}

func TestDelay(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name    string
		backoff Backoff
		want    []time.Duration
	}{
		{"fixed", BackoffFixed, []time.Duration{100 * ms, 100 * ms, 100 * ms, 100 * ms}},
		{"linear", BackoffLinear, []time.Duration{100 * ms, 200 * ms, 300 * ms, 350 * ms}},
		{"exponential", BackoffExponential, []time.Duration{100 * ms, 200 * ms, 350 * ms, 350 * ms}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPolicy(tt.backoff, 100*ms, 350*ms, 3)
			assert.Zero(t, p.Delay(0))
			for i, want := range tt.want {
				assert.Equal(t, want, p.Delay(i+1), "retry %d", i+1)
			}
		})
	}
	assert.Equal(t, 350*ms, NewPolicy(BackoffExponential, 100*ms, 350*ms, 3).Delay(200))
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	var retries []int
	err := p.Do(context.Background(), always, func(n int, _ time.Duration, _ error) { retries = append(retries, n) }, func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 3)
	permanent := errors.New("permanent")
	calls := 0
	err := p.Do(context.Background(), func(err error) bool { return !errors.Is(err, permanent) }, nil, func(context.Context) error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 2)
	calls := 0
	err := p.Do(context.Background(), always, nil, func(context.Context) error {
		calls++
		return errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
}

func TestDo_CanceledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPolicy(BackoffFixed, time.Hour, time.Hour, 1)
	err := p.Do(ctx, always, func(int, time.Duration, error) { cancel() }, func(context.Context) error {
		return errTransient
	})
	assert.ErrorIs(t, err, context.Canceled)
}
