// Package testutil provides fixtures shared across modsync tests:
// deterministic component builders and temporary directory trees.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/arthur-debert/modsync/pkg/types"
)

// StableID returns a deterministic UUID derived from name, so tests can
// reference components without hardcoding identifier literals.
func StableID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}

// ComponentBuilder assembles component records for tests.
type ComponentBuilder struct {
	c *types.Component
}

// NewComponent starts a selected component whose identifier derives from
// its name.
func NewComponent(name string) *ComponentBuilder {
	return &ComponentBuilder{c: &types.Component{
		ID:           StableID(name),
		Name:         name,
		IsSelected:   true,
		InstallState: types.StateNotStarted,
	}}
}

// WithID overrides the derived identifier.
func (b *ComponentBuilder) WithID(id uuid.UUID) *ComponentBuilder {
	b.c.ID = id
	return b
}

// WithAuthor sets the author display string.
func (b *ComponentBuilder) WithAuthor(author string) *ComponentBuilder {
	b.c.Author = author
	return b
}

// DependsOn adds dependency edges by component name.
func (b *ComponentBuilder) DependsOn(names ...string) *ComponentBuilder {
	for _, n := range names {
		b.c.Dependencies = append(b.c.Dependencies, StableID(n))
	}
	return b
}

// Restricts adds mutual-exclusion edges by component name.
func (b *ComponentBuilder) Restricts(names ...string) *ComponentBuilder {
	for _, n := range names {
		b.c.Restrictions = append(b.c.Restrictions, StableID(n))
	}
	return b
}

// InstallBefore adds soft ordering edges by component name.
func (b *ComponentBuilder) InstallBefore(names ...string) *ComponentBuilder {
	for _, n := range names {
		b.c.InstallBefore = append(b.c.InstallBefore, StableID(n))
	}
	return b
}

// InstallAfter adds soft ordering edges by component name.
func (b *ComponentBuilder) InstallAfter(names ...string) *ComponentBuilder {
	for _, n := range names {
		b.c.InstallAfter = append(b.c.InstallAfter, StableID(n))
	}
	return b
}

// WithOption appends an option whose identifier derives from its name.
func (b *ComponentBuilder) WithOption(name string) *ComponentBuilder {
	b.c.Options = append(b.c.Options, types.Option{
		ID:   StableID(name),
		Name: name,
	})
	return b
}

// Deselected marks the component as not participating in the run.
func (b *ComponentBuilder) Deselected() *ComponentBuilder {
	b.c.IsSelected = false
	return b
}

// Build returns the assembled component.
func (b *ComponentBuilder) Build() *types.Component {
	return b.c
}

// WriteTree creates the given relative-path -> content files under root,
// creating parent directories as needed.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
}

// ReadTree returns every file under root (excluding directories named in
// skip) as a relative-path -> content map.
func ReadTree(t *testing.T, root string, skip ...string) map[string]string {
	t.Helper()
	skipSet := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipSet[s] = true
	}

	out := make(map[string]string)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if skipSet[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to read tree at %s: %v", root, err)
	}
	return out
}
