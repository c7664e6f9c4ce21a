// Package gitguard reports whether a credentials file could end up committed
// to a git repository.
package gitguard

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/format/index"
)

// Result describes where a file sits relative to git
type Result struct {
	InRepo   bool   // the file is inside a git work tree
	Ignored  bool   // a .gitignore pattern matches the file
	Tracked  bool   // the file is already in the index
	RepoRoot string // work tree root, empty when not in a repo
}

// Exposed reports whether the file is in a work tree and not protected
// from being committed.
func (r Result) Exposed() bool {
	return r.InRepo && (r.Tracked || !r.Ignored)
}

// Check inspects the git work tree enclosing path, if any.
// The file itself does not need to exist, but its directory does.
func Check(path string) (Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	dir := filepath.Dir(abs)
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	abs = filepath.Join(dir, filepath.Base(abs))

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to open git repository for %s: %w", dir, err)
	}

	wt, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to open work tree: %w", err)
	}

	root := wt.Filesystem.Root()
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Result{}, nil
	}
	rel = filepath.ToSlash(rel)

	result := Result{InRepo: true, RepoRoot: root}

	patterns, err := gitignore.ReadPatterns(wt.Filesystem, nil)
	if err != nil {
		return result, fmt.Errorf("failed to read .gitignore patterns: %w", err)
	}
	result.Ignored = gitignore.NewMatcher(patterns).Match(strings.Split(rel, "/"), false)

	idx, err := repo.Storer.Index()
	if err != nil {
		return result, fmt.Errorf("failed to read git index: %w", err)
	}
	if _, err := idx.Entry(rel); err == nil {
		result.Tracked = true
	} else if !errors.Is(err, index.ErrEntryNotFound) {
		return result, fmt.Errorf("failed to look up %s in git index: %w", rel, err)
	}

	return result, nil
}
