package checkpoint_test

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/modsync/pkg/checkpoint"
	"github.com/arthur-debert/modsync/pkg/paths"
	"github.com/arthur-debert/modsync/pkg/testutil"
	"github.com/arthur-debert/modsync/pkg/types"
)

func componentsAndOrder(names ...string) ([]*types.Component, []uuid.UUID) {
	list := make([]*types.Component, len(names))
	order := make([]uuid.UUID, len(names))
	for i, n := range names {
		list[i] = testutil.NewComponent(n).Build()
		order[i] = list[i].ID
	}
	return list, order
}

func TestInitializeCreatesSession(t *testing.T) {
	dest := t.TempDir()
	list, order := componentsAndOrder("a", "b")

	cp := checkpoint.NewManager(dest)
	require.NoError(t, cp.Initialize(list, order))

	assert.False(t, cp.Resumed())

	session := cp.Session()
	require.NotNil(t, session)
	assert.Equal(t, order, session.ComponentOrder)
	assert.Len(t, session.Components, 2)

	// The session file is persisted immediately.
	layout := paths.ForDestination(dest)
	data, err := os.ReadFile(layout.SessionFile())
	require.NoError(t, err)

	var onDisk types.SessionState
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, session.SessionID, onDisk.SessionID)
}

func TestInitializeResumesExistingSession(t *testing.T) {
	dest := t.TempDir()
	list, order := componentsAndOrder("a", "b")

	first := checkpoint.NewManager(dest)
	require.NoError(t, first.Initialize(list, order))
	firstID := first.Session().SessionID

	list[0].MarkCompleted(time.Now())
	first.UpdateComponentState(list[0])
	require.NoError(t, first.Save())

	second := checkpoint.NewManager(dest)
	require.NoError(t, second.Initialize(list, order))

	assert.True(t, second.Resumed())
	assert.Equal(t, firstID, second.Session().SessionID)

	entry, ok := second.Entry(list[0].ID)
	require.True(t, ok)
	assert.Equal(t, types.StateCompleted, entry.State)
}

func TestInitializeSynthesizesMissingEntries(t *testing.T) {
	dest := t.TempDir()
	list, order := componentsAndOrder("x", "y")

	// Hand-write a session whose order lists both components but whose
	// map only tracks the first.
	layout := paths.ForDestination(dest)
	require.NoError(t, os.MkdirAll(layout.SessionsDir(), 0755))
	session := types.SessionState{
		SessionID:      "handmade",
		Version:        types.SessionVersion,
		CreatedAt:      time.Now().UTC(),
		DestinationDir: dest,
		ComponentOrder: order,
		Components: map[uuid.UUID]*types.SessionEntry{
			order[0]: {State: types.StateCompleted},
		},
	}
	data, err := json.Marshal(session)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(layout.SessionFile(), data, 0644))

	cp := checkpoint.NewManager(dest)
	require.NoError(t, cp.Initialize(list, order))
	require.True(t, cp.Resumed())

	entry, ok := cp.Entry(order[1])
	require.True(t, ok, "untracked ordered component gets a synthesized entry")
	assert.Equal(t, types.StateNotStarted, entry.State)

	kept, ok := cp.Entry(order[0])
	require.True(t, ok)
	assert.Equal(t, types.StateCompleted, kept.State)
}

func TestInitializeDiscardsCorruptSession(t *testing.T) {
	dest := t.TempDir()
	list, order := componentsAndOrder("a")

	layout := paths.ForDestination(dest)
	require.NoError(t, os.MkdirAll(layout.SessionsDir(), 0755))

	tests := []struct {
		name    string
		content string
	}{
		{name: "not_json", content: "{{{{"},
		{name: "missing_order", content: `{"session_id":"s","components":{}}`},
		{name: "missing_map", content: `{"session_id":"s","component_order":[]}`},
		{name: "missing_id", content: `{"component_order":[],"components":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(layout.SessionFile(), []byte(tt.content), 0644))

			cp := checkpoint.NewManager(dest)
			require.NoError(t, cp.Initialize(list, order))

			assert.False(t, cp.Resumed(), "corrupt session is discarded, not repaired")
			assert.NotEmpty(t, cp.Session().SessionID)
		})
	}
}

func TestSaveIsAtomicReplace(t *testing.T) {
	dest := t.TempDir()
	list, order := componentsAndOrder("a")

	cp := checkpoint.NewManager(dest)
	require.NoError(t, cp.Initialize(list, order))

	list[0].MarkStarted(time.Now())
	cp.UpdateComponentState(list[0])
	require.NoError(t, cp.Save())

	layout := paths.ForDestination(dest)

	// No temp files are left behind.
	entries, err := os.ReadDir(layout.SessionsDir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "install_session.json", entries[0].Name())

	// The written document is valid JSON carrying the update.
	data, err := os.ReadFile(layout.SessionFile())
	require.NoError(t, err)
	var onDisk types.SessionState
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, types.StateStarted, onDisk.Components[list[0].ID].State)
}

func TestConcurrentSaves(t *testing.T) {
	dest := t.TempDir()
	list, order := componentsAndOrder("a", "b", "c")

	cp := checkpoint.NewManager(dest)
	require.NoError(t, cp.Initialize(list, order))

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- cp.Save() }()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}

	layout := paths.ForDestination(dest)
	data, err := os.ReadFile(layout.SessionFile())
	require.NoError(t, err)
	var onDisk types.SessionState
	assert.NoError(t, json.Unmarshal(data, &onDisk), "serialized saves never corrupt the file")
}

func TestUpdateComponentState(t *testing.T) {
	dest := t.TempDir()
	list, order := componentsAndOrder("a")

	cp := checkpoint.NewManager(dest)
	require.NoError(t, cp.Initialize(list, order))

	started := time.Now().UTC()
	list[0].MarkStarted(started)
	cp.UpdateComponentState(list[0])

	entry, ok := cp.Entry(list[0].ID)
	require.True(t, ok)
	assert.Equal(t, types.StateStarted, entry.State)
	require.NotNil(t, entry.LastStartedAt)
	assert.True(t, entry.LastStartedAt.Equal(started))
}

func TestResetClearsState(t *testing.T) {
	dest := t.TempDir()
	list, order := componentsAndOrder("a")

	cp := checkpoint.NewManager(dest)
	require.NoError(t, cp.Initialize(list, order))
	require.NoError(t, cp.Reset())

	layout := paths.ForDestination(dest)
	_, err := os.Stat(layout.SessionFile())
	assert.True(t, os.IsNotExist(err))

	loaded, err := cp.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadWithoutSession(t *testing.T) {
	cp := checkpoint.NewManager(t.TempDir())
	loaded, err := cp.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
