package types

import (
	"time"

	"github.com/google/uuid"
)

// SessionVersion is written into every session file so future layouts can
// be migrated or rejected explicitly.
const SessionVersion = 1

// SessionEntry is the persisted per-component slice of an install run.
type SessionEntry struct {
	State           InstallState `json:"state"`
	LastStartedAt   *time.Time   `json:"last_started_at,omitempty"`
	LastCompletedAt *time.Time   `json:"last_completed_at,omitempty"`
}

// SessionState is the durable record of one installation run. It is owned
// exclusively by the checkpoint manager; callers read it through copies.
type SessionState struct {
	SessionID      string    `json:"session_id"`
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	DestinationDir string    `json:"destination_dir"`

	// ComponentOrder is the identifier sequence resolved when the run
	// began. It is captured once and re-validated on resume, never
	// silently recomputed.
	ComponentOrder []uuid.UUID `json:"component_order"`

	// Components maps component identifiers to their per-run entries.
	// Every identifier in ComponentOrder has exactly one entry.
	Components map[uuid.UUID]*SessionEntry `json:"components"`

	// BackupPath is the location of the last full snapshot, if any.
	BackupPath string `json:"backup_path,omitempty"`
}

// NewSessionState creates a fresh session for the given resolved order,
// with every tracked component starting at StateNotStarted.
func NewSessionState(destDir string, order []uuid.UUID) *SessionState {
	s := &SessionState{
		SessionID:      uuid.NewString(),
		Version:        SessionVersion,
		CreatedAt:      time.Now().UTC(),
		DestinationDir: destDir,
		ComponentOrder: append([]uuid.UUID(nil), order...),
		Components:     make(map[uuid.UUID]*SessionEntry, len(order)),
	}
	for _, id := range order {
		s.Components[id] = &SessionEntry{State: StateNotStarted}
	}
	return s
}

// StructurallyValid reports whether a deserialized session is usable: it
// must carry an identifier, a component order, and a component map. A
// session failing this check is discarded, never repaired by guessing.
func (s *SessionState) StructurallyValid() bool {
	return s != nil && s.SessionID != "" && s.ComponentOrder != nil && s.Components != nil
}

// EnsureEntry returns the session entry for id, synthesizing a default
// NotStarted entry if the component is not yet tracked.
func (s *SessionState) EnsureEntry(id uuid.UUID) *SessionEntry {
	if e, ok := s.Components[id]; ok {
		return e
	}
	e := &SessionEntry{State: StateNotStarted}
	s.Components[id] = e
	return e
}

// Clone returns a deep copy of the session state.
func (s *SessionState) Clone() *SessionState {
	out := *s
	out.ComponentOrder = append([]uuid.UUID(nil), s.ComponentOrder...)
	out.Components = make(map[uuid.UUID]*SessionEntry, len(s.Components))
	for id, e := range s.Components {
		c := *e
		if e.LastStartedAt != nil {
			t := *e.LastStartedAt
			c.LastStartedAt = &t
		}
		if e.LastCompletedAt != nil {
			t := *e.LastCompletedAt
			c.LastCompletedAt = &t
		}
		out.Components[id] = &c
	}
	return &out
}
