package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestDo(t *testing.T) {
	unavailable := &HTTPError{StatusCode: 503, Message: "overloaded"}
	rejected := &HTTPError{StatusCode: 400, Message: "content policy"}

	tests := []struct {
		name      string
		attempts  int
		failures  []error
		wantCalls int
		wantErr   error
	}{
		{name: "first call succeeds", attempts: 3, wantCalls: 1},
		{name: "succeeds on third", attempts: 3, failures: []error{unavailable, unavailable}, wantCalls: 3},
		{name: "exhausted", attempts: 3, failures: []error{unavailable, unavailable, unavailable}, wantCalls: 3, wantErr: unavailable},
		{name: "non-retryable stops", attempts: 3, failures: []error{rejected}, wantCalls: 1, wantErr: rejected},
		{name: "single attempt", attempts: 1, failures: []error{unavailable}, wantCalls: 1, wantErr: unavailable},
		{name: "zero attempts means one", attempts: 0, failures: []error{unavailable}, wantCalls: 1, wantErr: unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), fastConfig(tt.attempts), func(context.Context) error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDo_CustomPredicateAndHook(t *testing.T) {
	transient := errors.New("provider unavailable")
	var delays []time.Duration

	cfg := fastConfig(4)
	cfg.Retryable = func(err error) bool { return errors.Is(err, transient) }
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		assert.ErrorIs(t, err, transient)
		assert.Equal(t, len(delays)+1, attempt)
		delays = append(delays, delay)
	}

	calls := 0
	err := Do(context.Background(), cfg, func(context.Context) error {
		calls++
		return fmt.Errorf("unit aries: %w", transient)
	})

	assert.ErrorIs(t, err, transient)
	assert.ErrorContains(t, err, "gave up after 4 attempts")
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 2 * time.Millisecond}, delays)
}

func TestDo_CanceledKeepsLastError(t *testing.T) {
	cause := &HTTPError{StatusCode: 503, Message: "Service Unavailable"}
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Minute, MaxDelay: time.Minute}

	err := Do(ctx, cfg, func(context.Context) error {
		cancel()
		return cause
	})

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 503, httpErr.StatusCode)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig_Delay(t *testing.T) {
	cfg := GenerationConfig(5)

	assert.Equal(t, 2*time.Second, cfg.Delay(1))
	assert.Equal(t, 4*time.Second, cfg.Delay(2))
	assert.Equal(t, 8*time.Second, cfg.Delay(3))
	assert.Equal(t, 10*time.Second, cfg.Delay(4))
	assert.Equal(t, 10*time.Second, cfg.Delay(9))

	constant := Config{InitialDelay: time.Second, Multiplier: 0.5}
	assert.Equal(t, time.Second, constant.Delay(3))
}

func TestConfig_Jitter(t *testing.T) {
	cfg := Config{Jitter: 0.1}
	base := 100 * time.Millisecond

	for range 100 {
		d := cfg.jittered(base)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, 110*time.Millisecond)
	}
	assert.Equal(t, base, Config{}.jittered(base))
}

func TestGenerationConfig(t *testing.T) {
	assert.Equal(t, 3, GenerationConfig(3).MaxAttempts)
	assert.Equal(t, 1, GenerationConfig(0).MaxAttempts)
	assert.Nil(t, GenerationConfig(3).Retryable)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
		{"network timeout", timeoutErr{}, true},
		{"503", &HTTPError{StatusCode: 503}, true},
		{"429", &HTTPError{StatusCode: 429}, true},
		{"408", &HTTPError{StatusCode: 408}, true},
		{"401", &HTTPError{StatusCode: 401}, false},
		{"wrapped 502", fmt.Errorf("runware: %w", &HTTPError{StatusCode: 502}), true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestHTTPError_Error(t *testing.T) {
	err := &HTTPError{StatusCode: 502, Message: "bad gateway"}
	assert.Equal(t, "HTTP 502: bad gateway", err.Error())
}
