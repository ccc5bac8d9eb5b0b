package checkpoint

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/logging"
	"github.com/arthur-debert/modsync/pkg/paths"
)

// EnsureSnapshot creates the backup archive only if none exists yet at
// the session's backup path. The second and later calls for the same run
// are no-ops, giving create-once semantics for the rollback point.
func (m *Manager) EnsureSnapshot(ctx context.Context) error {
	if _, err := os.Stat(m.layout.BackupArchive()); err == nil {
		m.logger.Debug().Str("archive", m.layout.BackupArchive()).Msg("snapshot already exists, skipping")
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrSnapshotCreate, "failed to stat backup archive")
	}
	return m.createSnapshot(ctx)
}

// PromoteSnapshot unconditionally replaces the backup archive with a
// fresh snapshot, deliberately moving the rollback point forward.
func (m *Manager) PromoteSnapshot(ctx context.Context) error {
	return m.createSnapshot(ctx)
}

// createSnapshot copies the destination tree (excluding the metadata
// folder) into a temporary staging directory, compresses it into a
// temporary archive, then moves the archive into place. A partially
// written archive never overwrites a known-good one.
func (m *Manager) createSnapshot(ctx context.Context) error {
	done := logging.LogOperationStart(m.logger, "create snapshot")
	defer done()

	staging, err := os.MkdirTemp("", "modsync-snapshot-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrSnapshotCreate, "failed to create staging directory")
	}
	defer os.RemoveAll(staging)

	skipMeta := func(rel string) bool {
		return rel == paths.MetadataDirName ||
			strings.HasPrefix(rel, paths.MetadataDirName+string(filepath.Separator))
	}
	if err := copyTree(ctx, m.layout.DestDir(), staging, skipMeta); err != nil {
		return errors.Wrap(err, errors.ErrSnapshotCreate, "failed to stage destination tree")
	}

	if err := os.MkdirAll(m.layout.CheckpointsDir(), 0755); err != nil {
		return errors.Wrap(err, errors.ErrDirCreate, "failed to create checkpoints directory")
	}

	tmpArchive, err := os.CreateTemp(m.layout.CheckpointsDir(), "backup-*.zip.tmp")
	if err != nil {
		return errors.Wrap(err, errors.ErrSnapshotCreate, "failed to create temporary archive")
	}
	tmpName := tmpArchive.Name()

	if err := zipTree(ctx, staging, tmpArchive, m.compression); err != nil {
		tmpArchive.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrSnapshotCreate, "failed to compress snapshot")
	}
	if err := tmpArchive.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrSnapshotCreate, "failed to finalize archive")
	}
	if err := os.Rename(tmpName, m.layout.BackupArchive()); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrSnapshotCreate, "failed to move archive into place")
	}

	m.mu.Lock()
	if m.session != nil {
		m.session.BackupPath = m.layout.BackupArchive()
	}
	m.mu.Unlock()

	m.logger.Info().Str("archive", m.layout.BackupArchive()).Msg("snapshot created")
	return nil
}

// RestoreSnapshot extracts the backup archive into a temporary directory,
// clears the destination except for the metadata folder, then copies the
// extracted tree back. It fails fast when no archive exists; restore
// never silently no-ops.
//
// Cancellation mid-restore leaves the destination partially restored and
// inconsistent. No second-level rollback is attempted.
func (m *Manager) RestoreSnapshot(ctx context.Context) error {
	archive := m.layout.BackupArchive()
	if _, err := os.Stat(archive); err != nil {
		if os.IsNotExist(err) {
			return errors.Newf(errors.ErrSnapshotMissing, "no backup archive at %s", archive)
		}
		return errors.Wrap(err, errors.ErrSnapshotRestore, "failed to stat backup archive")
	}

	done := logging.LogOperationStart(m.logger, "restore snapshot")
	defer done()

	extracted, err := os.MkdirTemp("", "modsync-restore-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrSnapshotRestore, "failed to create extraction directory")
	}
	defer os.RemoveAll(extracted)

	if err := unzipTree(ctx, archive, extracted); err != nil {
		return errors.Wrap(err, errors.ErrSnapshotRestore, "failed to extract backup archive")
	}

	if err := clearDirExcept(m.layout.DestDir(), paths.MetadataDirName); err != nil {
		return errors.Wrap(err, errors.ErrSnapshotRestore, "failed to clear destination directory")
	}

	if err := copyTree(ctx, extracted, m.layout.DestDir(), nil); err != nil {
		return errors.Wrap(err, errors.ErrSnapshotRestore, "failed to copy restored tree")
	}

	m.logger.Info().Str("dest", m.layout.DestDir()).Msg("snapshot restored")
	return nil
}

// copyTree recursively copies src into dst, skipping entries whose
// src-relative path matches skip. Cancellation is checked before every
// entry so an abort does not wait for the whole tree.
func copyTree(ctx context.Context, src, dst string, skip func(rel string) bool) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if skip != nil && skip(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			return copyFile(path, target, info.Mode().Perm())
		}
	})
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// zipTree compresses the contents of root into w using deflate at the
// given level. Empty directories are preserved as explicit entries.
func zipTree(ctx context.Context, root string, w io.Writer, level int) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		if d.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = name
		header.Method = zip.Deflate

		entry, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(entry, in)
		in.Close()
		return err
	})
	if err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// unzipTree extracts archive into dst, rejecting entries that would
// escape it.
func unzipTree(ctx context.Context, archive, dst string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := filepath.Clean(filepath.FromSlash(f.Name))
		if filepath.IsAbs(name) || name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
			return errors.Newf(errors.ErrSnapshotRestore, "archive entry %q escapes extraction directory", f.Name)
		}
		target := filepath.Join(dst, name)

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, f.Mode().Perm()|0700); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		in, err := f.Open()
		if err != nil {
			return err
		}
		perm := f.Mode().Perm()
		if perm == 0 {
			perm = 0644
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
		if err != nil {
			in.Close()
			return err
		}
		_, err = io.Copy(out, in)
		in.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// clearDirExcept removes every entry under dir except keep.
func clearDirExcept(dir, keep string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name() == keep {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
