// Package severity holds the single policy value that decides how verification
// shortfalls are treated. The same value is threaded through the dependency
// verifier and the binary health checker; no check keeps its own flag.
package severity

import (
	"fmt"
	"strings"
)

// Policy is either Strict (fail fast on any shortfall) or Lenient (warn and proceed).
type Policy int

const (
	// Lenient records shortfalls as warnings and lets the caller continue.
	Lenient Policy = iota
	// Strict aborts on the first shortfall.
	Strict
)

// Default is the policy used when neither settings nor flags choose one.
const Default = Lenient

// String returns the lowercase policy name.
func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	default:
		return "unknown"
	}
}

// IsStrict reports whether p is Strict.
func (p Policy) IsStrict() bool {
	return p == Strict
}

// Parse converts a policy name (case-insensitive) into a Policy.
func Parse(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return Default, fmt.Errorf("unknown severity policy %q (want strict or lenient)", s)
	}
}

// Set implements pflag.Value so the policy can be bound directly to a flag.
func (p *Policy) Set(s string) error {
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Type implements pflag.Value.
func (p *Policy) Type() string {
	return "policy"
}

// MarshalText encodes the policy by name (used by TOML, JSON and YAML encoders).
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a policy name.
func (p *Policy) UnmarshalText(text []byte) error {
	return p.Set(string(text))
}
