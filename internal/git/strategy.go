package git

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// CloneStrategy makes Dest a shallow checkout of URL. It satisfies deps.Strategy.
//
// An existing checkout of the same origin is left alone, so applying the
// strategy twice is a no-op. Anything else already at Dest is an error; the
// strategy never deletes user files.
type CloneStrategy struct {
	Label string
	URL   string
	Ref   string
	Dest  string // Absolute path
	Depth int    // Zero means 1
}

func (s *CloneStrategy) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return "git clone " + s.URL
}

func (s *CloneStrategy) Apply(ctx context.Context) error {
	client := NewClient(s.Dest)

	isRepo, err := client.IsGitRepo(ctx)
	if err != nil {
		return err
	}
	if isRepo {
		origin, err := client.OriginURL(ctx)
		if err != nil {
			return err
		}
		if !sameRemote(origin, s.URL) {
			return fmt.Errorf("%s: %w (%s)", s.Dest, ErrOriginMismatch, origin)
		}
		return nil
	}

	if entries, err := os.ReadDir(s.Dest); err == nil && len(entries) > 0 {
		return fmt.Errorf("%s: %w", s.Dest, ErrDestNotEmpty)
	}
	// An empty directory would make the final rename fail on some platforms.
	_ = os.Remove(s.Dest)

	depth := s.Depth
	if depth == 0 {
		depth = 1
	}
	return client.Clone(ctx, CloneOptions{URL: s.URL, Ref: s.Ref, Depth: depth})
}

func sameRemote(a, b string) bool {
	norm := func(s string) string {
		return strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")
	}
	return norm(a) == norm(b)
}
