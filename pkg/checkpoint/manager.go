package checkpoint

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/logging"
	"github.com/arthur-debert/modsync/pkg/paths"
	"github.com/arthur-debert/modsync/pkg/types"
)

// Manager owns the durable session state for one destination directory.
type Manager struct {
	layout      paths.Checkpoints
	logger      zerolog.Logger
	compression int

	// mu guards session; saveMu is the single-slot gate serializing
	// Save calls so concurrent saves cannot interleave their writes.
	mu     sync.Mutex
	saveMu sync.Mutex

	session *types.SessionState
	resumed bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithCompressionLevel sets the deflate level for backup archives, -2
// through 9 as accepted by flate.
func WithCompressionLevel(level int) Option {
	return func(m *Manager) {
		m.compression = level
	}
}

// NewManager creates a manager for destDir. No I/O happens until
// Initialize is called.
func NewManager(destDir string, opts ...Option) *Manager {
	m := &Manager{
		layout:      paths.ForDestination(destDir),
		logger:      logging.GetLogger("checkpoint"),
		compression: -1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize loads the destination's existing session if one exists and
// is structurally valid, reconciling it against the supplied component
// list; otherwise it creates a fresh session for the resolved order and
// persists it immediately.
//
// Reconciliation synthesizes a default NotStarted entry for every
// identifier not yet tracked, both from the session's own component
// order and from the current list. Entries for identifiers no longer in
// the list are left in place, unreferenced.
func (m *Manager) Initialize(components []*types.Component, order []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.layout.SessionsDir(), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create session directory %s", m.layout.SessionsDir())
	}

	loaded, err := m.loadExisting()
	if err != nil {
		return err
	}

	if loaded != nil {
		m.session = loaded
		m.resumed = true
		for _, id := range loaded.ComponentOrder {
			loaded.EnsureEntry(id)
		}
		for _, c := range components {
			loaded.EnsureEntry(c.ID)
		}
		m.logger.Info().
			Str("session", loaded.SessionID).
			Int("components", len(loaded.ComponentOrder)).
			Msg("resumed existing session")
		return nil
	}

	m.session = types.NewSessionState(m.layout.DestDir(), order)
	m.resumed = false
	m.logger.Info().
		Str("session", m.session.SessionID).
		Int("components", len(order)).
		Msg("created new session")
	return m.saveLocked()
}

// loadExisting reads the session file if present. A structurally invalid
// or unparseable file is discarded (never repaired by guessing) and nil
// is returned so the caller starts fresh. I/O failures other than
// not-exist propagate.
func (m *Manager) loadExisting() (*types.SessionState, error) {
	data, err := os.ReadFile(m.layout.SessionFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrSessionIO, "failed to read session file %s", m.layout.SessionFile())
	}

	var s types.SessionState
	if err := json.Unmarshal(data, &s); err != nil {
		m.logger.Warn().Err(err).
			Str("path", m.layout.SessionFile()).
			Msg("session file is not valid JSON, starting fresh")
		return nil, nil
	}
	if !s.StructurallyValid() {
		m.logger.Warn().
			Str("path", m.layout.SessionFile()).
			Msg("session file failed structural validation, starting fresh")
		return nil, nil
	}
	return &s, nil
}

// Load reads the destination's session without creating one. It returns
// nil when no structurally valid session exists.
func (m *Manager) Load() (*types.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadExisting()
}

// Resumed reports whether Initialize loaded a pre-existing session.
func (m *Manager) Resumed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resumed
}

// Session returns a deep copy of the current session state.
func (m *Manager) Session() *types.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	return m.session.Clone()
}

// Order returns the component order captured when the session began.
func (m *Manager) Order() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	return append([]uuid.UUID(nil), m.session.ComponentOrder...)
}

// Entry returns a copy of the session entry for id, and whether one exists.
func (m *Manager) Entry(id uuid.UUID) (types.SessionEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return types.SessionEntry{}, false
	}
	e, ok := m.session.Components[id]
	if !ok {
		return types.SessionEntry{}, false
	}
	return *e, true
}

// UpdateComponentState copies the component's current install state and
// timestamps into its session entry. It does not persist; the caller
// decides save cadence.
func (m *Manager) UpdateComponentState(c *types.Component) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return
	}
	entry := m.session.EnsureEntry(c.ID)
	entry.State = c.InstallState
	entry.LastStartedAt = c.LastStartedAt
	entry.LastCompletedAt = c.LastCompletedAt
}

// Save serializes the session to a temporary file and atomically replaces
// the session file, so a kill mid-write never leaves a half-written
// document. Concurrent calls serialize on the save gate.
func (m *Manager) Save() error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.mu.Lock()
	err := m.saveLocked()
	m.mu.Unlock()
	return err
}

// saveLocked writes the session file. Callers must hold m.mu.
func (m *Manager) saveLocked() error {
	if m.session == nil {
		return errors.New(errors.ErrInternal, "save called before initialize")
	}

	data, err := json.MarshalIndent(m.session, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrSessionIO, "failed to serialize session")
	}

	tmp, err := os.CreateTemp(m.layout.SessionsDir(), "install_session-*.tmp")
	if err != nil {
		return errors.Wrap(err, errors.ErrSessionIO, "failed to create temporary session file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrSessionIO, "failed to write session data")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrSessionIO, "failed to flush session data")
	}
	if err := os.Rename(tmpName, m.layout.SessionFile()); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrSessionIO, "failed to replace session file")
	}

	m.logger.Trace().Str("path", m.layout.SessionFile()).Msg("session saved")
	return nil
}

// Reset deletes the session file and the backup archive. Used after a
// successful run completes or on an explicit operator reset.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(m.layout.SessionFile()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrSessionIO, "failed to remove session file")
	}
	if err := os.Remove(m.layout.BackupArchive()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrSessionIO, "failed to remove backup archive")
	}
	m.session = nil
	m.resumed = false
	m.logger.Info().Str("dest", m.layout.DestDir()).Msg("session state cleared")
	return nil
}

// Layout exposes the path layout for this manager's destination.
func (m *Manager) Layout() paths.Checkpoints {
	return m.layout
}
