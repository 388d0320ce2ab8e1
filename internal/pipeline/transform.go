package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/hydro-assess-service/internal/domain"
)

// Assessor produces an assessment for a site request.
type Assessor interface {
	Assess(ctx context.Context, in domain.SiteInput) (domain.Assessment, error)
}

// ErrUndecodable marks messages whose payload is not a site request.
var ErrUndecodable = errors.New("undecodable site request")

// AssessmentTransformer implements Transformer by decoding the site request,
// assessing it and serializing the result.
type AssessmentTransformer struct {
	assessor Assessor
}

// NewTransformer creates an AssessmentTransformer.
func NewTransformer(a Assessor) *AssessmentTransformer {
	return &AssessmentTransformer{assessor: a}
}

func (t *AssessmentTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	in, err := domain.ParseSiteInput(raw)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}

	a, err := t.assessor.Assess(ctx, in)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	out, err := domain.SerializeAssessment(a)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	if id := raw.Headers["request_id"]; id != "" {
		out.Headers["request_id"] = id
	}
	return out, nil
}
