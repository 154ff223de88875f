// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/todoey/storage"
	"github.com/poiesic/todoey/todo"
)

// Result carries the outcome of one dispatched operation.
type Result[T any] struct {
	Value T
	Err   error
}

// Dispatcher executes Repository operations on a single background worker.
type Dispatcher struct {
	repo      *todo.Repository
	pool      *ants.Pool
	attempts  int
	baseDelay time.Duration
	logger    *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// WithRetry retries operations failing with storage.ErrPersistence up to
// attempts times, doubling baseDelay between attempts.
// Default is a single attempt.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(d *Dispatcher) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		d.attempts = attempts
		d.baseDelay = baseDelay
		return nil
	}
}

// New creates a Dispatcher for repo. Call Release when done.
func New(repo *todo.Repository, opts ...Option) (*Dispatcher, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		repo:     repo,
		pool:     pool,
		attempts: 1,
		logger:   slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(d); optErr != nil {
			d.Release()
			return nil, optErr
		}
	}
	d.logger = d.logger.With("component", "dispatcher")

	return d, nil
}

// Repository returns the repository operations run against.
func (d *Dispatcher) Repository() *todo.Repository {
	return d.repo
}

// Release stops the worker after the operation in progress.
// The dispatcher should not be used after calling Release.
func (d *Dispatcher) Release() {
	if d.pool != nil {
		d.pool.Release()
	}
}

// Do submits fn and returns a channel that receives its result.
// Submissions from one goroutine run in the order they were made.
func Do[T any](ctx context.Context, d *Dispatcher, fn func(ctx context.Context, repo *todo.Repository) (T, error)) <-chan Result[T] {
	results := make(chan Result[T], 1)

	err := d.pool.Submit(func() {
		// The pool swallows panics, so the caller is told here or never
		defer func() {
			if p := recover(); p != nil {
				d.logger.Error("operation panicked", "panic", p)
				results <- Result[T]{Err: fmt.Errorf("%w: %v", ErrOperationPanicked, p)}
			}
		}()

		var value T
		err := RetryWithBackoff(ctx, func() error {
			var opErr error
			value, opErr = fn(ctx, d.repo)
			return opErr
		}, d.attempts, d.baseDelay, IsRetryable)
		if err != nil {
			d.logger.Debug("operation failed", "err", err)
		}
		results <- Result[T]{Value: value, Err: err}
	})
	if err != nil {
		d.logger.Error("error submitting operation", "err", err)
		results <- Result[T]{Err: err}
	}

	return results
}

// Run submits an operation without a value and waits for it to finish.
func Run(ctx context.Context, d *Dispatcher, fn func(ctx context.Context, repo *todo.Repository) error) error {
	result := <-Do(ctx, d, func(ctx context.Context, repo *todo.Repository) (struct{}, error) {
		return struct{}{}, fn(ctx, repo)
	})
	return result.Err
}

// Await submits fn and waits for its result.
func Await[T any](ctx context.Context, d *Dispatcher, fn func(ctx context.Context, repo *todo.Repository) (T, error)) (T, error) {
	result := <-Do(ctx, d, fn)
	return result.Value, result.Err
}

// IsRetryable reports whether err is a persistence failure worth another attempt.
// Unsupported operations and closed stores fail the same way every time.
func IsRetryable(err error) bool {
	if errors.Is(err, storage.ErrUnsupported) || errors.Is(err, storage.ErrStorageClosed) {
		return false
	}
	return errors.Is(err, storage.ErrPersistence)
}
