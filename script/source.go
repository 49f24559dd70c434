package script

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
	"github.com/go-git/go-git/v6/storage/memory"

	"github.com/rundb/RunDB/core"
)

// Source reads SQL scripts from a filesystem: a local directory, or
// the checked-out worktree of a cloned repository.
type Source struct {
	fs billy.Filesystem
}

// NewSource wraps an existing filesystem.
func NewSource(fs billy.Filesystem) *Source {
	return &Source{fs: fs}
}

// DirSource reads scripts from a local directory.
func DirSource(dir string) *Source {
	return &Source{fs: osfs.New(dir)}
}

// GitOptions configure how a script repository is cloned.
type GitOptions struct {
	// Branch checks out the named branch instead of the remote default.
	Branch string
	// Token authenticates HTTPS remotes, sent as a basic-auth password.
	Token string
}

// GitSource clones the repository at url into memory and reads scripts
// from its worktree. Nothing is written to local disk.
func GitSource(url string, opts *GitOptions) (*Source, error) {
	if opts == nil {
		opts = &GitOptions{}
	}

	cloneOpts := &git.CloneOptions{URL: url}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.ReferenceName(fmt.Sprintf("refs/heads/%s", opts.Branch))
		cloneOpts.SingleBranch = true
	}
	if opts.Token != "" {
		cloneOpts.Auth = &http.BasicAuth{
			Username: "git",
			Password: opts.Token,
		}
	}

	wt := memfs.New()
	if _, err := git.Clone(memory.NewStorage(), wt, cloneOpts); err != nil {
		return nil, fmt.Errorf("clone %s: %w", url, err)
	}

	return &Source{fs: wt}, nil
}

// List returns the names of the .sql scripts at the source root,
// sorted by name so numbered scripts run in order.
func (s *Source) List() ([]string, error) {
	entries, err := s.fs.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	slices.Sort(names)
	return names, nil
}

// Load reads the named script and splits it into statements.
func (s *Source) Load(name string) (*core.Script, error) {
	f, err := s.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open script %s: %w", name, err)
	}
	defer f.Close()

	text, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", name, err)
	}
	return core.Parse(string(text)), nil
}

// LoadAll loads every listed script into one combined script, in list
// order.
func (s *Source) LoadAll() (*core.Script, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}

	combined := core.NewScript()
	for _, name := range names {
		script, err := s.Load(name)
		if err != nil {
			return nil, err
		}
		combined.Statements = append(combined.Statements, script.Statements...)
	}
	return combined, nil
}
