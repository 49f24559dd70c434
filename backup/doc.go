// Package backup snapshots SQLite stores and restores them.
//
// A snapshot is produced with VACUUM INTO: a compacted, consistent,
// single-file copy taken without blocking the source database. It can
// be written to a local path, a file:// URL or an s3:// object, and
// restored from any of those plus http(s):// URLs:
//
//	err := backup.Snapshot(ctx, store, "backups/monday.db", nil)
//
//	err = backup.Snapshot(ctx, store, "s3://rundb-backups/monday.db", &backup.Options{
//		Region:    "eu-west-1",
//		AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
//		SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
//	})
//
//	err = backup.Restore(ctx, "backups/monday.db", "data/app.db", nil)
//
// DuckDB stores are not snapshotted: the engine has no VACUUM INTO
// equivalent producing a single-file copy.
package backup
