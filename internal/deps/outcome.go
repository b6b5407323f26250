package deps

// Status is the verdict for one dependency, or for a whole run.
type Status string

const (
	StatusVerified        Status = "verified"
	StatusMissingOptional Status = "missing-optional"
	StatusMissingFatal    Status = "missing-fatal"
)

// AttemptResult is the result of running one strategy.
type AttemptResult string

const (
	AttemptSucceeded AttemptResult = "succeeded"
	AttemptFailed    AttemptResult = "failed"
)

// Attempt records one strategy run for one dependency.
type Attempt struct {
	Dependency string        `json:"dependency" yaml:"dependency"`
	Strategy   string        `json:"strategy" yaml:"strategy"`
	Result     AttemptResult `json:"result" yaml:"result"`
	Detail     string        `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// DependencyResult is the final status of one dependency.
type DependencyResult struct {
	Name    string `json:"name" yaml:"name"`
	Status  Status `json:"status" yaml:"status"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Outcome is the immutable result of one verification run. Accessors return copies.
type Outcome struct {
	status       Status
	attempts     []Attempt
	dependencies []DependencyResult
}

// Status returns the aggregate verdict: MissingFatal if any dependency was fatal,
// otherwise MissingOptional if any was skipped, otherwise Verified.
func (o *Outcome) Status() Status {
	return o.status
}

// Attempts returns every strategy run in execution order.
func (o *Outcome) Attempts() []Attempt {
	return append([]Attempt(nil), o.attempts...)
}

// AttemptsFor returns the attempts made for one dependency.
func (o *Outcome) AttemptsFor(name string) []Attempt {
	var out []Attempt
	for _, a := range o.attempts {
		if a.Dependency == name {
			out = append(out, a)
		}
	}
	return out
}

// Dependencies returns per-dependency results in verification order.
func (o *Outcome) Dependencies() []DependencyResult {
	return append([]DependencyResult(nil), o.dependencies...)
}

// Summary is the serializable form of an Outcome.
type Summary struct {
	Status       Status             `json:"status" yaml:"status"`
	Dependencies []DependencyResult `json:"dependencies" yaml:"dependencies"`
	Attempts     []Attempt          `json:"attempts" yaml:"attempts"`
}

// Summary returns a copy of the outcome suitable for json or yaml encoding.
func (o *Outcome) Summary() Summary {
	return Summary{
		Status:       o.status,
		Dependencies: o.Dependencies(),
		Attempts:     o.Attempts(),
	}
}

// builder accumulates an Outcome during a run. Only the verifier mutates it.
type builder struct {
	attempts     []Attempt
	dependencies []DependencyResult
}

func (b *builder) attempt(a Attempt) {
	b.attempts = append(b.attempts, a)
}

func (b *builder) finish(name string, status Status, version string) {
	b.dependencies = append(b.dependencies, DependencyResult{Name: name, Status: status, Version: version})
}

func (b *builder) build() *Outcome {
	status := StatusVerified
	for _, d := range b.dependencies {
		switch d.Status {
		case StatusMissingFatal:
			status = StatusMissingFatal
		case StatusMissingOptional:
			if status != StatusMissingFatal {
				status = StatusMissingOptional
			}
		}
	}
	return &Outcome{
		status:       status,
		attempts:     append([]Attempt(nil), b.attempts...),
		dependencies: append([]DependencyResult(nil), b.dependencies...),
	}
}
