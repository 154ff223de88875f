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
	"log/slog"
	"time"
)

// RetryWithBackoff runs op until it succeeds, fails with an error retryable
// rejects, or maxAttempts runs are used up. The pause after the n-th failure
// is baseDelay<<(n-1). A nil retryable treats every failure as transient.
// The last failure is returned, or the context error if ctx ends first.
func RetryWithBackoff(ctx context.Context, op func() error, maxAttempts int, baseDelay time.Duration, retryable func(error) bool) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op()
		switch {
		case err == nil:
			if attempt > 1 {
				slog.Debug("store write recovered", "attempts", attempt)
			}
			return nil
		case retryable != nil && !retryable(err):
			return err
		case attempt == maxAttempts:
			slog.Debug("store write gave up", "attempts", attempt, "error", err)
			return err
		}

		pause := baseDelay << (attempt - 1)
		slog.Debug("store write failed, backing off", "attempt", attempt, "of", maxAttempts, "pause", pause, "error", err)

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
