package binary

import "context"

// ReleaseStrategy installs a verified release. It satisfies deps.Strategy.
type ReleaseStrategy struct {
	Label     string
	Release   Release
	Installer *Installer
}

func (s *ReleaseStrategy) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return "download " + s.Release.URL
}

func (s *ReleaseStrategy) Apply(ctx context.Context) error {
	_, err := s.Installer.Install(ctx, s.Release)
	return err
}
