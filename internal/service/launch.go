package service

import (
	"context"

	"github.com/pricepertoken/ai-coding-tracker/internal/target"
)

// PrepareLaunch resolves and checks the target for this host and, for script
// targets, locates the interpreter. Nothing is installed or repaired: a target
// that is not ready is an error carrying remediation.
func PrepareLaunch(ctx context.Context, env *Environment, locator InterpreterLocator) (target.Target, error) {
	t, err := env.Target()
	if err != nil {
		return target.Target{}, err
	}
	if err := target.Check(t); err != nil {
		return target.Target{}, err
	}
	if t.Kind == target.KindInterpreterScript {
		found, err := locator.Locate(ctx)
		if err != nil {
			return target.Target{}, err
		}
		t.Interpreter = found.Command
	}
	return t, nil
}

// LaunchEnv is the child environment: base with the resolved token and dashboard
// URL exported.
func LaunchEnv(env *Environment, base []string) []string {
	if env.Settings == nil {
		return base
	}
	return env.Settings.ChildEnv(base)
}
