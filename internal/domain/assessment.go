package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// assessmentNamespace scopes deterministic assessment IDs.
var assessmentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:hydro-assess:assessment"))

// Assessment is the full result for one site: inputs, groundwater context,
// recommendation, design and cost, and the savings projection.
type Assessment struct {
	ID             string          `json:"id"`
	Site           SiteParameters  `json:"site"`
	Groundwater    GroundwaterData `json:"groundwater"`
	Recommendation Recommendation  `json:"recommendation"`
	Design         DesignAndCost   `json:"design"`
	Projection     Projection      `json:"projection"`
	AssessedAt     time.Time       `json:"assessed_at"`
}

// NewAssessment runs the recommendation and design engines for p. The
// groundwater depth in p must already be resolved; gw is recorded as context.
func NewAssessment(p SiteParameters, gw GroundwaterData, r Rates) Assessment {
	rec := GenerateRecommendation(p, r)
	design := CalculateDesignAndCost(rec, p, r)
	return Assessment{
		ID:             NewAssessmentID(p),
		Site:           p,
		Groundwater:    gw,
		Recommendation: rec,
		Design:         design,
		Projection:     ProjectSavings(design, r),
		AssessedAt:     clock.Now().UTC(),
	}
}

// NewAssessmentID derives a UUIDv5 from the canonical site parameters so
// replays of the same request produce the same ID.
func NewAssessmentID(p SiteParameters) string {
	canonical := fmt.Sprintf("%g|%s|%g|%g|%d|%s|%g|%g",
		p.AreaM2, p.SurfaceType, p.RunoffCoefficient, p.AnnualRainfallMM,
		p.HouseholdSize, p.CityType, p.WaterCostPerM3, p.PostMonsoonDepthM)
	return uuid.NewSHA1(assessmentNamespace, []byte(canonical)).String()
}
