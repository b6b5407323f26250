package deps

import (
	"context"
	"fmt"

	"github.com/pricepertoken/ai-coding-tracker/internal/apperr"
	"github.com/pricepertoken/ai-coding-tracker/internal/logging"
	"github.com/pricepertoken/ai-coding-tracker/internal/severity"
	"github.com/pricepertoken/ai-coding-tracker/internal/version"
)

// Verifier runs presence checks and install strategies for a list of specs.
type Verifier struct {
	Policy severity.Policy
	Logger logging.Logger

	// OnAttempt, when set, is called after every strategy run. Used for progress output.
	OnAttempt func(Attempt)
}

// Verify processes specs strictly in order. The outcome is never nil. The error is
// a *apperr.DependencyError when a dependency is missing under the Strict policy,
// or the context error when ctx is done between steps.
func (v *Verifier) Verify(ctx context.Context, specs []Spec) (*Outcome, error) {
	logger := logging.OrNop(v.Logger)
	b := &builder{}

	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return b.build(), err
		}

		found, err := v.present(ctx, spec)
		if err == nil {
			logger.Debug("dependency present", "name", spec.Name, "version", found)
			b.finish(spec.Name, StatusVerified, found)
			continue
		}
		logger.Info("dependency missing", "name", spec.Name, "reason", err.Error())

		var (
			installed bool
			failures  []string
		)
		for _, strategy := range spec.Strategies {
			if err := ctx.Err(); err != nil {
				return b.build(), err
			}

			attempt := Attempt{Dependency: spec.Name, Strategy: strategy.Name()}
			logger.Debug("trying strategy", "name", spec.Name, "strategy", attempt.Strategy)

			if err := strategy.Apply(ctx); err != nil {
				attempt.Result = AttemptFailed
				attempt.Detail = err.Error()
			} else if found, err = v.present(ctx, spec); err != nil {
				attempt.Result = AttemptFailed
				attempt.Detail = "completed but dependency still missing: " + err.Error()
			} else {
				attempt.Result = AttemptSucceeded
				installed = true
			}

			b.attempt(attempt)
			if v.OnAttempt != nil {
				v.OnAttempt(attempt)
			}
			if installed {
				break
			}
			failures = append(failures, attempt.Strategy+": "+attempt.Detail)
		}

		if installed {
			logger.Info("dependency installed", "name", spec.Name, "version", found)
			b.finish(spec.Name, StatusVerified, found)
			continue
		}

		if v.Policy.IsStrict() {
			b.finish(spec.Name, StatusMissingFatal, "")
			logger.Error("required dependency missing", "name", spec.Name, "attempts", len(failures))
			return b.build(), &apperr.DependencyError{
				Name:        spec.Name,
				Attempts:    failures,
				Err:         apperr.ErrDependencyMissing,
				Remediation: remediation(spec),
			}
		}

		b.finish(spec.Name, StatusMissingOptional, "")
		logger.Warn("dependency missing, continuing", "name", spec.Name, "attempts", len(failures))
	}

	return b.build(), nil
}

// present runs the presence check and applies the version floor. A floor with
// no discoverable version counts as missing.
func (v *Verifier) present(ctx context.Context, spec Spec) (string, error) {
	if spec.Check == nil {
		return "", fmt.Errorf("no presence check declared")
	}
	found, err := spec.Check.Check(ctx)
	if err != nil {
		return "", err
	}
	if spec.MinimumVersion == "" {
		return found, nil
	}
	if found == "" {
		return "", fmt.Errorf("version unknown, need >= %s", spec.MinimumVersion)
	}
	ok, err := version.AtLeast(found, spec.MinimumVersion)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("version %s is older than %s", found, spec.MinimumVersion)
	}
	return found, nil
}

func remediation(spec Spec) string {
	if spec.Remediation != "" {
		return spec.Remediation
	}
	return fmt.Sprintf("install %s manually, then run: ai-coding-tracker-setup verify", spec.Name)
}
