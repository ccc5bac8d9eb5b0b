// Package manifest reads and writes component lists as TOML documents,
// the import format of the surrounding application. The resolver itself
// only ever sees the in-memory list; this package is the boundary where
// identifiers are parsed and structural invariants enforced.
package manifest

import (
	"os"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/types"
)

type optionDoc struct {
	ID           string   `toml:"id"`
	Name         string   `toml:"name"`
	Dependencies []string `toml:"dependencies,omitempty"`
	Restrictions []string `toml:"restrictions,omitempty"`
}

type componentDoc struct {
	ID            string      `toml:"id"`
	Name          string      `toml:"name"`
	Author        string      `toml:"author,omitempty"`
	Selected      bool        `toml:"selected"`
	Dependencies  []string    `toml:"dependencies,omitempty"`
	Restrictions  []string    `toml:"restrictions,omitempty"`
	InstallBefore []string    `toml:"install_before,omitempty"`
	InstallAfter  []string    `toml:"install_after,omitempty"`
	Options       []optionDoc `toml:"option,omitempty"`
}

type manifestDoc struct {
	Components []componentDoc `toml:"component"`
}

// Load reads a component list from the TOML file at path and validates
// it: identifiers must parse, be unique, and no component may reference
// itself.
func Load(path string) ([]*types.Component, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrManifestNotFound, "manifest not found at %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read manifest %s", path)
	}

	var doc manifestDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestParse, "failed to parse manifest %s", path)
	}

	list := make([]*types.Component, 0, len(doc.Components))
	seen := make(map[uuid.UUID]string, len(doc.Components))
	for _, cd := range doc.Components {
		c, err := cd.toComponent()
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[c.ID]; dup {
			return nil, errors.Newf(errors.ErrManifestInvalid,
				"components %q and %q share identifier %s", prev, c.Name, c.ID)
		}
		seen[c.ID] = c.Name
		if err := c.Validate(); err != nil {
			return nil, errors.Wrap(err, errors.ErrManifestInvalid, "invalid component record")
		}
		list = append(list, c)
	}
	return list, nil
}

// Save writes a component list to the TOML file at path.
func Save(path string, list []*types.Component) error {
	doc := manifestDoc{Components: make([]componentDoc, len(list))}
	for i, c := range list {
		doc.Components[i] = fromComponent(c)
	}

	data, err := toml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to serialize manifest")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write manifest %s", path)
	}
	return nil
}

func (cd componentDoc) toComponent() (*types.Component, error) {
	id, err := uuid.Parse(cd.ID)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestInvalid,
			"component %q has malformed identifier %q", cd.Name, cd.ID)
	}

	c := &types.Component{
		ID:           id,
		Name:         cd.Name,
		Author:       cd.Author,
		IsSelected:   cd.Selected,
		InstallState: types.StateNotStarted,
	}
	if c.Dependencies, err = parseIDs(cd.Name, "dependencies", cd.Dependencies); err != nil {
		return nil, err
	}
	if c.Restrictions, err = parseIDs(cd.Name, "restrictions", cd.Restrictions); err != nil {
		return nil, err
	}
	if c.InstallBefore, err = parseIDs(cd.Name, "install_before", cd.InstallBefore); err != nil {
		return nil, err
	}
	if c.InstallAfter, err = parseIDs(cd.Name, "install_after", cd.InstallAfter); err != nil {
		return nil, err
	}

	for _, od := range cd.Options {
		oid, err := uuid.Parse(od.ID)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrManifestInvalid,
				"option %q of component %q has malformed identifier %q", od.Name, cd.Name, od.ID)
		}
		opt := types.Option{ID: oid, Name: od.Name}
		if opt.Dependencies, err = parseIDs(od.Name, "option dependencies", od.Dependencies); err != nil {
			return nil, err
		}
		if opt.Restrictions, err = parseIDs(od.Name, "option restrictions", od.Restrictions); err != nil {
			return nil, err
		}
		c.Options = append(c.Options, opt)
	}
	return c, nil
}

func fromComponent(c *types.Component) componentDoc {
	cd := componentDoc{
		ID:            c.ID.String(),
		Name:          c.Name,
		Author:        c.Author,
		Selected:      c.IsSelected,
		Dependencies:  formatIDs(c.Dependencies),
		Restrictions:  formatIDs(c.Restrictions),
		InstallBefore: formatIDs(c.InstallBefore),
		InstallAfter:  formatIDs(c.InstallAfter),
	}
	for _, opt := range c.Options {
		cd.Options = append(cd.Options, optionDoc{
			ID:           opt.ID.String(),
			Name:         opt.Name,
			Dependencies: formatIDs(opt.Dependencies),
			Restrictions: formatIDs(opt.Restrictions),
		})
	}
	return cd
}

func parseIDs(owner, field string, raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrManifestInvalid,
				"%s of %q contains malformed identifier %q", field, owner, s)
		}
		out[i] = id
	}
	return out, nil
}

func formatIDs(ids []uuid.UUID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
