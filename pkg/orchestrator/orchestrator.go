// Package orchestrator drives one install run end to end: resolve the
// install order, initialize or resume the checkpoint session, ensure a
// rollback snapshot exists, then apply components one by one, persisting
// progress after every step.
//
// How a single component is applied is opaque to this package; the
// caller supplies an ApplyFunc and the orchestrator only consumes its
// success or failure.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/modsync/pkg/checkpoint"
	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/graph"
	"github.com/arthur-debert/modsync/pkg/logging"
	"github.com/arthur-debert/modsync/pkg/types"
)

// ApplyFunc applies a single component to the destination. Implementations
// should honor ctx cancellation.
type ApplyFunc func(ctx context.Context, c *types.Component) error

// Options tunes the run loop.
type Options struct {
	// PromoteSnapshotAfterEach moves the rollback point forward after
	// every successfully applied component.
	PromoteSnapshotAfterEach bool

	// KeepSessionOnSuccess leaves the session file and backup archive in
	// place after a fully successful run instead of clearing them.
	KeepSessionOnSuccess bool
}

// RunResult reports what one Run attempt did.
type RunResult struct {
	Order     []uuid.UUID
	Installed []uuid.UUID
	Skipped   []uuid.UUID
	FailedID  *uuid.UUID
}

// Orchestrator runs installs against one destination directory.
type Orchestrator struct {
	cp     *checkpoint.Manager
	apply  ApplyFunc
	opts   Options
	logger zerolog.Logger
}

// New creates an orchestrator using cp for durable state and apply for
// the per-component install step.
func New(cp *checkpoint.Manager, apply ApplyFunc, opts Options) *Orchestrator {
	return &Orchestrator{
		cp:     cp,
		apply:  apply,
		opts:   opts,
		logger: logging.GetLogger("orchestrator"),
	}
}

// Run resolves an install order for the component list and applies each
// selected component in sequence, persisting session state after every
// step so an interrupted run can resume. Components already completed in
// a resumed session are skipped.
//
// Resolution errors (*graph.CyclicGraphError, *graph.MutualExclusionError)
// are returned as-is for the caller to present. A resumed session whose
// captured order no longer matches the freshly resolved one fails with a
// SESSION_MISMATCH error rather than being silently recomputed.
func (o *Orchestrator) Run(ctx context.Context, components []*types.Component) (*RunResult, error) {
	order, err := graph.Resolve(components)
	if err != nil {
		return nil, err
	}

	if err := o.cp.Initialize(components, order); err != nil {
		return nil, err
	}

	if o.cp.Resumed() {
		stored := o.cp.Order()
		if !sameOrder(stored, order) {
			return nil, errors.New(errors.ErrSessionMismatch,
				"existing session order no longer matches the component list; reset the session or restore the snapshot").
				WithDetail("stored_count", len(stored)).
				WithDetail("resolved_count", len(order))
		}
		order = stored
	}

	if err := o.cp.EnsureSnapshot(ctx); err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*types.Component, len(components))
	for _, c := range components {
		byID[c.ID] = c
	}

	result := &RunResult{Order: order}
	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		c, ok := byID[id]
		if !ok {
			return result, errors.Newf(errors.ErrInternal,
				"resolved order references unknown component %s", id)
		}

		if entry, ok := o.cp.Entry(id); ok && entry.State == types.StateCompleted {
			o.logger.Debug().Str("component", c.Name).Msg("already completed, skipping")
			result.Skipped = append(result.Skipped, id)
			continue
		}

		c.MarkStarted(time.Now().UTC())
		o.cp.UpdateComponentState(c)
		if err := o.cp.Save(); err != nil {
			return result, err
		}

		o.logger.Info().Str("component", c.Name).Str("id", id.String()).Msg("applying component")
		if err := o.apply(ctx, c); err != nil {
			c.MarkFailed()
			o.cp.UpdateComponentState(c)
			if saveErr := o.cp.Save(); saveErr != nil {
				o.logger.Error().Err(saveErr).Msg("failed to persist failure state")
			}
			result.FailedID = &id
			return result, errors.Wrapf(err, errors.ErrInternal,
				"component %q failed to apply", c.Name).
				WithDetail("component_id", id.String())
		}

		c.MarkCompleted(time.Now().UTC())
		o.cp.UpdateComponentState(c)
		if err := o.cp.Save(); err != nil {
			return result, err
		}
		result.Installed = append(result.Installed, id)

		if o.opts.PromoteSnapshotAfterEach {
			if err := o.cp.PromoteSnapshot(ctx); err != nil {
				return result, err
			}
		}
	}

	if !o.opts.KeepSessionOnSuccess {
		if err := o.cp.Reset(); err != nil {
			return result, err
		}
	}
	o.logger.Info().
		Int("installed", len(result.Installed)).
		Int("skipped", len(result.Skipped)).
		Msg("install run completed")
	return result, nil
}

// Rollback restores the destination directory from the last snapshot.
func (o *Orchestrator) Rollback(ctx context.Context) error {
	return o.cp.RestoreSnapshot(ctx)
}

func sameOrder(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
