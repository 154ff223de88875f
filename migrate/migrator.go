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

package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/dispatch"
	"github.com/poiesic/todoey/storage"
)

// Config holds configuration for a migration.
type Config struct {
	// BatchSize is the number of entities written per Persist call
	BatchSize int

	// ReportInterval is how often to report progress (number of entities)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Checkpoints, when set, records finished categories so an interrupted
	// run resumes where it stopped
	Checkpoints storage.CheckpointStore

	// CheckpointKey names this source and target pair in Checkpoints
	CheckpointKey string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: DefaultBatchSize,
		MaxRetries:     3,
		RetryDelay:     100 * time.Millisecond,
	}
}

func (c *Config) normalize() {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.ReportInterval <= 0 {
		c.ReportInterval = c.BatchSize
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 1
	}
	if c.CheckpointKey == "" {
		c.CheckpointKey = "default"
	}
}

// Summary describes a finished migration.
type Summary struct {
	Categories int
	Items      int
	// Skipped counts categories the target already held.
	Skipped int
	// Resumed counts categories whose items an earlier run already copied.
	Resumed int
	Elapsed time.Duration
}

// Migrator copies the contents of one store into another.
type Migrator struct {
	source   storage.Store
	target   storage.Store
	config   Config
	progress io.Writer
	logger   *slog.Logger
	iterator *EntityIterator
}

// NewMigrator creates a migrator. A nil config uses DefaultConfig and a nil
// progress writer discards progress output.
func NewMigrator(source, target storage.Store, config *Config, progress io.Writer) (*Migrator, error) {
	if source == nil || target == nil {
		return nil, ErrStoreRequired
	}
	if source == target {
		return nil, ErrSameStore
	}
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	cfg.normalize()
	if progress == nil {
		progress = io.Discard
	}

	return &Migrator{
		source:   source,
		target:   target,
		config:   cfg,
		progress: progress,
		logger:   slog.Default().With("component", "migrator"),
		iterator: NewEntityIterator(source, cfg.BatchSize),
	}, nil
}

// Run copies every category and item. Batches that were persisted before a
// failure stay in the target; running again upserts the same entities, and
// with checkpoints enabled skips the items of categories already finished.
func (m *Migrator) Run(ctx context.Context) (*Summary, error) {
	skip, err := m.existingCategories(ctx)
	if err != nil {
		return nil, err
	}
	checkpoint, err := m.loadCheckpoint(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[core.ID]bool)
	if checkpoint != nil {
		for _, id := range checkpoint.Done {
			done[id] = true
		}
	}

	batches, err := m.iterator.Batches(ctx, skip, done)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}

	summary := &Summary{Skipped: len(skip), Resumed: len(done)}
	total := 0
	for _, batch := range batches {
		total += batch.size()
	}
	if len(done) > 0 {
		fmt.Fprintf(m.progress, "Resuming: %d categories already copied\n", len(done))
	}
	if total == 0 {
		fmt.Fprintf(m.progress, "Nothing to migrate (0 entities)\n")
		return summary, m.clearCheckpoint(ctx)
	}

	fmt.Fprintf(m.progress, "Migrating %d entities (batch size: %d)\n", total, m.config.BatchSize)
	tracker := NewProgressTracker(m.progress, "Progress", total, m.config.ReportInterval)
	tracker.Start()

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			tracker.Finish()
			return summary, err
		}
		if !batch.IsEmpty() {
			err := dispatch.RetryWithBackoff(ctx, func() error {
				return m.target.Persist(ctx, batch.Changeset)
			}, m.config.MaxRetries, m.config.RetryDelay, dispatch.IsRetryable)
			if err != nil {
				tracker.Finish()
				m.logger.Error("batch failed", "batch", i, "error", err)
				return summary, fmt.Errorf("failed to write batch %d: %w", i, err)
			}
		}
		summary.Categories += len(batch.PutCategories)
		summary.Items += len(batch.PutItems)
		tracker.Add(batch.size())

		if checkpoint != nil && len(batch.Completes) > 0 {
			checkpoint.Done = append(checkpoint.Done, batch.Completes...)
			if err := m.config.Checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
				tracker.Finish()
				return summary, fmt.Errorf("failed to save checkpoint: %w", err)
			}
		}
	}

	summary.Elapsed = tracker.Elapsed()
	tracker.Finish()
	if err := m.clearCheckpoint(ctx); err != nil {
		return summary, err
	}
	fmt.Fprintf(m.progress, "Migration complete. Copied %d categories and %d items in %v\n",
		summary.Categories, summary.Items, summary.Elapsed.Round(time.Millisecond))
	m.logger.Info("migration complete", "categories", summary.Categories, "items", summary.Items,
		"skipped", summary.Skipped, "resumed", summary.Resumed)

	return summary, nil
}

// loadCheckpoint returns the checkpoint to extend, or nil when checkpoints are off.
func (m *Migrator) loadCheckpoint(ctx context.Context) (*core.Checkpoint, error) {
	if m.config.Checkpoints == nil {
		return nil, nil
	}
	checkpoint, err := m.config.Checkpoints.LoadCheckpoint(ctx, m.config.CheckpointKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if checkpoint == nil {
		checkpoint = &core.Checkpoint{Key: m.config.CheckpointKey}
	}
	return checkpoint, nil
}

// clearCheckpoint drops the checkpoint once everything is copied.
func (m *Migrator) clearCheckpoint(ctx context.Context) error {
	if m.config.Checkpoints == nil {
		return nil
	}
	if err := m.config.Checkpoints.DeleteCheckpoint(ctx, m.config.CheckpointKey); err != nil {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}
	return nil
}

// existingCategories returns the ids of source categories already present in the target.
func (m *Migrator) existingCategories(ctx context.Context) (map[core.ID]bool, error) {
	categories, err := m.source.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}

	skip := make(map[core.ID]bool)
	for _, category := range categories {
		_, err := m.target.GetCategory(ctx, category.ID)
		switch {
		case err == nil:
			skip[category.ID] = true
		case errors.Is(err, storage.ErrNotFound):
		default:
			return nil, fmt.Errorf("failed to read target: %w", err)
		}
	}
	return skip, nil
}
