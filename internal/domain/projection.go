package domain

// ProjectionYear is one year of the savings projection.
type ProjectionYear struct {
	Year                 int     `json:"year"`
	NetSavings           float64 `json:"net_savings"`
	CumulativeNetSavings float64 `json:"cumulative_net_savings"`
}

// Projection tracks cumulative net savings against the upfront investment.
type Projection struct {
	Years      []ProjectionYear `json:"years"`
	Investment float64          `json:"investment"`
	// PaybackYear is the first year whose cumulative savings reach the
	// investment, or nil when that does not happen within the horizon.
	PaybackYear *int `json:"payback_year,omitempty"`
}

// ProjectSavings builds the year-by-year projection over the rates horizon.
// Each year contributes annual savings less maintenance.
func ProjectSavings(d DesignAndCost, r Rates) Projection {
	years := r.ProjectionYears
	if years < 1 {
		years = 1
	}
	net := d.AnnualSavings - d.MaintenanceCostAnnual

	p := Projection{
		Years:      make([]ProjectionYear, 0, years),
		Investment: d.TotalCost,
	}
	cumulative := 0.0
	for y := 1; y <= years; y++ {
		cumulative += net
		p.Years = append(p.Years, ProjectionYear{Year: y, NetSavings: net, CumulativeNetSavings: cumulative})
		if p.PaybackYear == nil && cumulative >= d.TotalCost {
			year := y
			p.PaybackYear = &year
		}
	}
	return p
}
