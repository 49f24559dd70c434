package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rundb/RunDB/ps"
)

// Options configure snapshot and restore locations.
type Options struct {
	// AccessKey and SecretKey authenticate s3:// locations. Empty
	// values fall back to the ambient AWS credential chain.
	AccessKey string
	SecretKey string
	// Region selects the AWS region.
	Region string
	// Endpoint points at an S3-compatible service.
	Endpoint string
	// Overwrite lets Restore replace an existing database file.
	Overwrite bool
}

// Snapshot writes a consistent copy of the store's database to dest: a
// local path, file:// URL or s3:// object. The copy is produced with
// VACUUM INTO, so it is compacted and carries no WAL sidecars.
//
// Snapshot runs on the store's own connection; with an engine in
// CommitOnRequest mode, commit or roll back pending work first.
func Snapshot(ctx context.Context, store *ps.Store, dest string, opts *Options) error {
	if store.Driver() != ps.DriverSQLite {
		return fmt.Errorf("snapshot supports only the %s driver", ps.DriverSQLite)
	}
	if dest == "" {
		return errors.New("snapshot destination is required")
	}

	// Local destinations are vacuumed into directly.
	if local, ok := localPath(dest); ok {
		return snapshotToFile(ctx, store, local)
	}

	// Remote destinations stage through a temp file, then stream.
	staging, err := os.CreateTemp("", "rundb-snapshot-*.db")
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	stagingPath := staging.Name()
	staging.Close()
	defer os.Remove(stagingPath)

	if err := snapshotToFile(ctx, store, stagingPath); err != nil {
		return err
	}

	src, err := os.Open(stagingPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := openWriter(ctx, dest, opts)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("upload snapshot: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}
	return nil
}

// snapshotToFile vacuums the database into path. VACUUM INTO refuses
// to write over an existing file, so a previous snapshot at path is
// removed first.
func snapshotToFile(ctx context.Context, store *ps.Store, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	if _, err := store.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("vacuum into %s: %w", path, err)
	}
	return nil
}

// Restore copies a snapshot from src (local path, file://, http(s)://
// or s3:// URL) to a database file at path. An existing file at path
// is only replaced when opts.Overwrite is set. Open the store after
// the restore completes.
func Restore(ctx context.Context, src, path string, opts *Options) error {
	if src == "" || path == "" {
		return errors.New("restore needs a source and a target path")
	}

	overwrite := opts != nil && opts.Overwrite
	if _, err := os.Stat(path); err == nil {
		if !overwrite {
			return fmt.Errorf("target %s already exists", path)
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	reader, err := openReader(ctx, src, opts)
	if err != nil {
		return fmt.Errorf("open snapshot %s: %w", src, err)
	}
	defer reader.Close()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}

	target, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(target, reader); err != nil {
		target.Close()
		os.Remove(path) // no torn files
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := target.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	// Stale WAL sidecars must not survive a replaced database file.
	os.Remove(path + "-wal")
	os.Remove(path + "-shm")
	return nil
}
