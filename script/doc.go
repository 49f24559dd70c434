// Package script loads SQL scripts from local directories and git
// repositories.
//
// A Source is a read-only view over a filesystem holding .sql files.
// Scripts are listed in name order, so a numbered naming scheme
// (001_schema.sql, 002_seed.sql) controls execution order. Loading a
// script splits it into statements ready for db.Engine.Run:
//
//	src := script.DirSource("./migrations")
//	names, err := src.List()
//	for _, name := range names {
//		s, err := src.Load(name)
//		if err != nil {
//			return err
//		}
//		if _, err := engine.Run(ctx, s); err != nil {
//			return fmt.Errorf("%s: %w", name, err)
//		}
//	}
//
// # Git Sources
//
// GitSource clones a repository into memory and reads scripts from the
// checked-out worktree, leaving the local disk untouched:
//
//	src, err := script.GitSource("https://github.com/acme/schemas", nil)
//
//	// A branch and an access token for private remotes
//	src, err = script.GitSource(url, &script.GitOptions{
//		Branch: "release",
//		Token:  os.Getenv("GIT_TOKEN"),
//	})
package script
