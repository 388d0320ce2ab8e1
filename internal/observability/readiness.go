package observability

import (
	"context"
	"errors"
	"fmt"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// NamedCheck labels a readiness checker for error reporting.
type NamedCheck struct {
	Name    string
	Checker sharedobs.ReadinessChecker
}

// Readiness reports ready only when every registered check passes.
type Readiness struct {
	checks []NamedCheck
}

// NewReadiness combines checks. With no checks the service is always ready.
func NewReadiness(checks ...NamedCheck) *Readiness {
	return &Readiness{checks: checks}
}

// Add registers another check.
func (r *Readiness) Add(name string, c sharedobs.ReadinessChecker) {
	r.checks = append(r.checks, NamedCheck{Name: name, Checker: c})
}

func (r *Readiness) CheckReadiness(ctx context.Context) error {
	var errs []error
	for _, c := range r.checks {
		if err := c.Checker.CheckReadiness(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
		}
	}
	return errors.Join(errs...)
}
