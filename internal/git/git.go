// Package git clones dependency sources declared by "git" strategies, using
// go-git so no git binary is required on the host.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Common Git errors
var (
	ErrInvalidRepo    = errors.New("invalid git repository")
	ErrOriginMismatch = errors.New("existing checkout has a different origin")
	ErrDestNotEmpty   = errors.New("destination exists and is not a git checkout")
	ErrRefNotFound    = errors.New("ref not found on remote")
)

// Client operates on a single checkout.
type Client struct {
	repoPath string
}

// NewClient creates a new Git client for the given checkout path.
func NewClient(repoPath string) *Client {
	return &Client{repoPath: repoPath}
}

// IsGitRepo reports whether the path is a git checkout.
// Returns (true, nil) if valid, (false, nil) if not exists, (false, err) if corrupted.
func (c *Client) IsGitRepo(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context cancelled: %w", err)
	}

	_, err := gogit.PlainOpen(c.repoPath)
	if err == gogit.ErrRepositoryNotExists {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidRepo, err.Error())
	}
	return true, nil
}

// HeadCommit returns the commit hash of HEAD.
func (c *Client) HeadCommit(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context cancelled: %w", err)
	}

	repo, err := gogit.PlainOpen(c.repoPath)
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// OriginURL returns the first URL of the "origin" remote.
func (c *Client) OriginURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context cancelled: %w", err)
	}

	repo, err := gogit.PlainOpen(c.repoPath)
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}
	remote, err := repo.Remote(gogit.DefaultRemoteName)
	if err != nil {
		return "", fmt.Errorf("get origin: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("origin has no URL")
	}
	return urls[0], nil
}

// CloneOptions configures Clone.
type CloneOptions struct {
	URL   string
	Ref   string // Branch or tag; empty means the remote's default branch
	Depth int    // Zero means full history
}

// Clone clones opts.URL into the client's path. The clone lands in a temporary
// sibling directory first and is renamed into place, so an interrupted clone
// never leaves a half-populated checkout.
func (c *Client) Clone(ctx context.Context, opts CloneOptions) error {
	if opts.URL == "" {
		return fmt.Errorf("clone url is required")
	}
	parent := filepath.Dir(c.repoPath)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(c.repoPath)+".clone-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := cloneRef(ctx, tmp, opts); err != nil {
		return err
	}

	if err := os.Rename(tmp, c.repoPath); err != nil {
		return fmt.Errorf("move checkout into place: %w", err)
	}
	return nil
}

// cloneRef tries opts.Ref as a branch, then as a tag.
func cloneRef(ctx context.Context, dir string, opts CloneOptions) error {
	base := gogit.CloneOptions{
		URL:          opts.URL,
		Depth:        opts.Depth,
		SingleBranch: true,
	}
	if opts.Ref == "" {
		if _, err := gogit.PlainCloneContext(ctx, dir, false, &base); err != nil {
			return fmt.Errorf("clone %s: %w", opts.URL, err)
		}
		return nil
	}

	var lastErr error
	for _, name := range []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(opts.Ref),
		plumbing.NewTagReferenceName(opts.Ref),
	} {
		o := base
		o.ReferenceName = name
		_, err := gogit.PlainCloneContext(ctx, dir, false, &o)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// A failed attempt may leave partial state behind.
		if rerr := resetDir(dir); rerr != nil {
			return rerr
		}
	}
	return fmt.Errorf("clone %s at %s: %w: %v", opts.URL, opts.Ref, ErrRefNotFound, lastErr)
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("reset clone dir: %w", err)
	}
	return os.MkdirAll(dir, 0755)
}
