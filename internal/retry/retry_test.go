package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errTransient = errors.New("transient")

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetry_Success(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_AllAttemptsFail(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		attempts++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, 3, attempts)
}

func TestRetry_SingleAttemptReturnsErrorAsIs(t *testing.T) {
	err := Do(context.Background(), fastConfig(1), func() error { return errTransient })
	assert.Equal(t, errTransient, err)
}

func TestRetry_OnRetry(t *testing.T) {
	var failed []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error) {
		assert.ErrorIs(t, err, errTransient)
		failed = append(failed, attempt)
	}

	err := Do(context.Background(), cfg, func() error { return errTransient })
	assert.Error(t, err)
	assert.Equal(t, []int{1, 2}, failed, "no hook after the last attempt")
}

func TestConfigNext(t *testing.T) {
	cfg := Config{InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 3}
	assert.Equal(t, 3*time.Millisecond, cfg.next(time.Millisecond))
	assert.Equal(t, 5*time.Millisecond, cfg.next(3*time.Millisecond))
}

func TestRetry_Classifier(t *testing.T) {
	other := errors.New("other")
	cfg := fastConfig(5)
	cfg.Retryable = func(err error) bool { return errors.Is(err, errTransient) }

	attempts := 0
	err := Do(context.Background(), cfg, func() error {
		attempts++
		if attempts == 1 {
			return errTransient
		}
		return other
	})

	assert.Equal(t, other, err)
	assert.Equal(t, 2, attempts)
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 5, InitialDelay: 50 * time.Millisecond, MaxDelay: time.Second}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	attempts := 0
	err := Do(ctx, cfg, func() error {
		attempts++
		return errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errTransient)
	assert.Less(t, attempts, 5)
}

func TestRetry_WithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(context.Background(), fastConfig(3), func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errTransient
		}
		return "ok", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestRetry_InvalidConfig(t *testing.T) {
	err := Do(context.Background(), Config{InitialDelay: -1}, func() error { return nil })
	assert.Error(t, err)

	err = Do(context.Background(), Config{InitialDelay: time.Second, MaxDelay: time.Millisecond}, func() error { return nil })
	assert.Error(t, err)
}

func TestRetry_ZeroAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Config{}, func() error {
		attempts++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}
