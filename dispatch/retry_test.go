package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errLocked = fmt.Errorf("%w: database is locked", storage.ErrPersistence)

// failFor returns an operation that fails with err for the first n calls.
func failFor(n int, err error, calls *int) func() error {
	return func() error {
		*calls++
		if *calls <= n {
			return err
		}
		return nil
	}
}

func TestRetryWithBackoff(t *testing.T) {
	tests := []struct {
		name        string
		failures    int
		err         error
		maxAttempts int
		wantErr     error
		wantCalls   int
	}{
		{"first try", 0, errLocked, 3, nil, 1},
		{"eventual success", 2, errLocked, 5, nil, 3},
		{"all attempts fail", 10, errLocked, 3, errLocked, 3},
		{"validation is not retried", 10, core.ErrValidation, 5, core.ErrValidation, 1},
		{"not found is not retried", 10, storage.ErrNotFound, 5, storage.ErrNotFound, 1},
		{"unsupported is not retried", 10, fmt.Errorf("%w: %w", storage.ErrPersistence, storage.ErrUnsupported), 5, storage.ErrUnsupported, 1},
		{"closed store is not retried", 10, storage.ErrStorageClosed, 5, storage.ErrStorageClosed, 1},
		{"zero attempts", 0, errLocked, 0, ErrInvalidMaxAttempts, 0},
		{"negative attempts", 0, errLocked, -1, ErrInvalidMaxAttempts, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(context.Background(), failFor(tt.failures, tt.err, &calls), tt.maxAttempts, time.Millisecond, IsRetryable)
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestRetryWithBackoff_NilPredicateRetriesEverything(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), failFor(2, errors.New("boom"), &calls), 3, time.Millisecond, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	operation := func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errLocked
	}

	err := RetryWithBackoff(ctx, operation, 10, 10*time.Millisecond, IsRetryable)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, calls, 2, "should stop when context is canceled")
}

func TestRetryWithBackoff_DelaysGrow(t *testing.T) {
	var (
		calls  int
		delays []time.Duration
		last   = time.Now()
	)
	operation := func() error {
		calls++
		if calls > 1 {
			delays = append(delays, time.Since(last))
		}
		last = time.Now()
		if calls < 4 {
			return errLocked
		}
		return nil
	}

	err := RetryWithBackoff(context.Background(), operation, 5, 10*time.Millisecond, IsRetryable)
	require.NoError(t, err)
	require.Len(t, delays, 3)
	assert.GreaterOrEqual(t, delays[0], 10*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 20*time.Millisecond)
	assert.GreaterOrEqual(t, delays[2], 40*time.Millisecond)
}
