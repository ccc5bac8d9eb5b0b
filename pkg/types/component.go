package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InstallState tracks a component's progress through an install run.
type InstallState string

const (
	StateNotStarted InstallState = "not_started"
	StateStarted    InstallState = "started"
	StateCompleted  InstallState = "completed"
	StateFailed     InstallState = "failed"
)

// IsValid reports whether s is one of the known install states.
func (s InstallState) IsValid() bool {
	switch s {
	case StateNotStarted, StateStarted, StateCompleted, StateFailed:
		return true
	}
	return false
}

// Option is a sub-choice within a component. Options carry their own
// identifiers and may declare dependencies or restrictions on other
// options of the same component, but they do not participate in the
// top-level component graph.
type Option struct {
	ID           uuid.UUID
	Name         string
	Dependencies []uuid.UUID
	Restrictions []uuid.UUID
}

// Component represents a single installable modification package.
//
// The ID is assigned once and never changes; every ordering or restriction
// edge refers to a component by ID, so display fields (Name, Author) can be
// edited without invalidating the graph.
type Component struct {
	// ID is the stable unique identifier and the primary key for all
	// graph edges.
	ID uuid.UUID

	// Name and Author are display strings. They are not unique and are
	// consulted only by the identity reconciler during list merges.
	Name   string
	Author string

	// Dependencies lists components that must be installed, selected,
	// and completed before this one.
	Dependencies []uuid.UUID

	// Restrictions lists components that must not be selected together
	// with this one. Restrictions are mutual-exclusion constraints, not
	// ordering edges.
	Restrictions []uuid.UUID

	// InstallBefore and InstallAfter express relative ordering without a
	// hard dependency requirement.
	InstallBefore []uuid.UUID
	InstallAfter  []uuid.UUID

	// Options are this component's sub-choices, in declaration order.
	Options []Option

	// IsSelected marks whether the component participates in the
	// current run.
	IsSelected bool

	// InstallState and the timestamps below are mutated only by the
	// checkpoint manager during a run.
	InstallState    InstallState
	LastStartedAt   *time.Time
	LastCompletedAt *time.Time
}

// HasIntricateIDUsage reports whether substituting this component's
// identifier is unsafe without review: the component declares edges that
// reference other identifiers, or owns sub-identifiers of its own.
func (c *Component) HasIntricateIDUsage() bool {
	return len(c.Dependencies) > 0 ||
		len(c.Restrictions) > 0 ||
		len(c.InstallAfter) > 0 ||
		len(c.Options) > 0
}

// Validate checks the record's structural invariants. A component must
// not list itself in any of its edge sets.
func (c *Component) Validate() error {
	if c.ID == uuid.Nil {
		return fmt.Errorf("component %q has a nil identifier", c.Name)
	}
	if !c.InstallState.IsValid() && c.InstallState != "" {
		return fmt.Errorf("component %q has unknown install state %q", c.Name, c.InstallState)
	}
	for _, set := range [][]uuid.UUID{c.Dependencies, c.Restrictions, c.InstallBefore, c.InstallAfter} {
		for _, id := range set {
			if id == c.ID {
				return fmt.Errorf("component %q (%s) references itself", c.Name, c.ID)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the component.
func (c *Component) Clone() *Component {
	out := *c
	out.Dependencies = append([]uuid.UUID(nil), c.Dependencies...)
	out.Restrictions = append([]uuid.UUID(nil), c.Restrictions...)
	out.InstallBefore = append([]uuid.UUID(nil), c.InstallBefore...)
	out.InstallAfter = append([]uuid.UUID(nil), c.InstallAfter...)
	out.Options = make([]Option, len(c.Options))
	for i, opt := range c.Options {
		o := opt
		o.Dependencies = append([]uuid.UUID(nil), opt.Dependencies...)
		o.Restrictions = append([]uuid.UUID(nil), opt.Restrictions...)
		out.Options[i] = o
	}
	if c.LastStartedAt != nil {
		t := *c.LastStartedAt
		out.LastStartedAt = &t
	}
	if c.LastCompletedAt != nil {
		t := *c.LastCompletedAt
		out.LastCompletedAt = &t
	}
	return &out
}

// MarkStarted records the beginning of this component's apply step.
func (c *Component) MarkStarted(now time.Time) {
	c.InstallState = StateStarted
	c.LastStartedAt = &now
}

// MarkCompleted records a successful apply step.
func (c *Component) MarkCompleted(now time.Time) {
	c.InstallState = StateCompleted
	c.LastCompletedAt = &now
}

// MarkFailed records a failed apply step.
func (c *Component) MarkFailed() {
	c.InstallState = StateFailed
}
