package todo

import (
	"log/slog"
	"math/rand/v2"
	"time"
)

// Option configures a Repository.
type Option func(*Repository) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithClock replaces the source of creation timestamps.
// Default is core.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) error {
		if now != nil {
			r.now = now
		}
		return nil
	}
}

// WithColors turns display color assignment for new categories on or off.
// Default is on.
func WithColors(enabled bool) Option {
	return func(r *Repository) error {
		r.colors = enabled
		return nil
	}
}

// WithRand sets the random source used to pick category colors.
func WithRand(rng *rand.Rand) Option {
	return func(r *Repository) error {
		if rng != nil {
			r.rng = rng
		}
		return nil
	}
}

// WithObserver registers an observer for the lifetime of the Repository.
func WithObserver(observer Observer) Option {
	return func(r *Repository) error {
		if observer != nil {
			r.subscribe(observer)
		}
		return nil
	}
}
