package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pricepertoken/ai-coding-tracker/internal/apperr"
	"github.com/pricepertoken/ai-coding-tracker/internal/config"
	"github.com/pricepertoken/ai-coding-tracker/internal/interpreter"
	"github.com/pricepertoken/ai-coding-tracker/internal/journal"
	"github.com/pricepertoken/ai-coding-tracker/internal/report"
	"github.com/pricepertoken/ai-coding-tracker/internal/target"
)

// DoctorService reports on an installation without launching anything.
type DoctorService struct {
	env     *Environment
	loadErr error
	locator InterpreterLocator
	clock   Clock
}

// NewDoctorService creates a doctor service. env may be partially loaded; loadErr
// is the error Load returned for it, if any.
func NewDoctorService(env *Environment, loadErr error, locator InterpreterLocator, clock Clock) *DoctorService {
	return &DoctorService{env: env, loadErr: loadErr, locator: locator, clock: clock}
}

// Execute runs every check. It never fails: problems become failed checks.
func (s *DoctorService) Execute(ctx context.Context) *report.Doctor {
	d := &report.Doctor{}
	env := s.env

	if env.Platform != nil {
		d.Add("platform", report.CheckInfo, env.Platform.String(), "")
	} else {
		d.Add("platform", report.CheckFail, errDetail(s.loadErr, "not detected"), "")
	}

	if env.Root == "" {
		d.Add("root", report.CheckFail, errDetail(s.loadErr, "unknown"),
			"pass --root or set "+config.EnvHome)
		s.settingsChecks(d)
		return d
	}
	if info, err := os.Stat(env.Root); err != nil || !info.IsDir() {
		d.Add("root", report.CheckFail, env.Root+" does not exist",
			"pass --root or set "+config.EnvHome)
	} else {
		d.Add("root", report.CheckOK, env.Root, "")
	}

	switch {
	case env.Manifest == nil && s.loadErr != nil && env.Platform != nil:
		d.Add("manifest", report.CheckFail, config.FormatError(s.loadErr, false),
			"fix "+filepath.Join(env.Root, config.ManifestFile))
	case env.Manifest != nil && env.ManifestPath == "":
		d.Add("manifest", report.CheckInfo,
			fmt.Sprintf("no %s, using built-in %s defaults", config.ManifestFile, env.Manifest.Variant),
			"ai-coding-tracker-setup init")
	case env.Manifest != nil:
		d.Add("manifest", report.CheckOK, fmt.Sprintf("%s (%s)", env.ManifestPath, env.Manifest.Variant), "")
	}

	if env.Manifest != nil {
		s.targetChecks(ctx, d)
		d.Add("policy", report.CheckInfo, env.Policy.String(), "")
	}

	s.settingsChecks(d)
	s.lastRunCheck(d)
	return d
}

func (s *DoctorService) targetChecks(ctx context.Context, d *report.Doctor) {
	t, err := s.env.Target()
	if err != nil {
		d.Add("executable", report.CheckFail, err.Error(), apperr.Remediation(err))
		return
	}
	if err := target.Check(t); err != nil {
		d.Add("executable", report.CheckFail, err.Error(), apperr.Remediation(err))
	} else {
		d.Add("executable", report.CheckOK, t.Path, "")
	}

	if t.Kind != target.KindInterpreterScript {
		return
	}
	found, err := s.locator.Locate(ctx)
	if err != nil {
		fix := apperr.Remediation(err)
		if fix == "" {
			fix = "install Python 3 from " + interpreter.DownloadURL
		}
		d.Add("interpreter", report.CheckFail, err.Error(), fix)
		return
	}
	d.Add("interpreter", report.CheckOK, found.Command+" "+found.Version, "")
}

func (s *DoctorService) settingsChecks(d *report.Doctor) {
	st := s.env.Settings
	if st == nil {
		st = &config.Settings{}
	}

	switch {
	case st.Source == "":
		d.Add("settings", report.CheckInfo, "no settings file", "")
	case filepath.Base(st.Source) == config.LegacySettingsFile:
		d.Add("settings", report.CheckWarn, st.Source+" (legacy format)",
			"ai-coding-tracker-setup configure <token> rewrites it as "+config.SettingsFile)
	default:
		d.Add("settings", report.CheckOK, st.Source, "")
	}
	if st.Source != "" {
		if err := config.CheckSettingsPermissions(st.Source); err != nil {
			d.Add("permissions", report.CheckWarn, err.Error(), "chmod 600 "+st.Source)
		}
	}

	if st.Token == "" {
		d.Add("token", report.CheckWarn, "not configured", "ai-coding-tracker-setup configure <token>")
	} else {
		d.Add("token", report.CheckOK, fmt.Sprintf("%s (from %s)", st.MaskedToken(), st.TokenSource), "")
	}

	if st.APIURL != "" {
		d.Add("dashboard", report.CheckInfo, st.APIURL, "")
	} else {
		d.Add("dashboard", report.CheckInfo, "engine default", "")
	}
}

func (s *DoctorService) lastRunCheck(d *report.Doctor) {
	if s.env.Root == "" {
		return
	}
	run, err := journal.Latest(s.env.LogsDir())
	if errors.Is(err, journal.ErrNoRuns) {
		d.Add("last setup", report.CheckInfo, "no setup runs recorded", "ai-coding-tracker-setup install")
		return
	}
	if err != nil {
		d.Add("last setup", report.CheckWarn, err.Error(), "")
		return
	}

	age := s.clock.Now().Sub(run.Started).Round(time.Second)
	detail := fmt.Sprintf("%s %s, %s ago", run.Command, run.State, age)
	if run.State == journal.StateFailed {
		d.Add("last setup", report.CheckWarn, detail+": "+run.LastError, "ai-coding-tracker-setup install")
		return
	}
	d.Add("last setup", report.CheckOK, detail, "")
}

func errDetail(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
