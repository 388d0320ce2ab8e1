// Package domain implements the rainwater-harvesting assessment engine.
//
// # Inputs
//
// A site is described by its catchment area (m²), surface type, annual
// rainfall (mm), household size, city density tier, municipal water cost
// (per m³) and post-monsoon groundwater depth (m below ground). Surface types
// carry fixed runoff coefficients:
//
//	Concrete Roof 0.90 | Metal Sheet 0.90 | Tile Roof 0.85
//	Asphalt 0.85 | Concrete Surface 0.75 | Paved Area 0.70
//
// When the groundwater depth is not supplied it is resolved from the nearest
// monitoring station, or from [EstimateGroundwater] when no station data exists.
//
// # Recommendation
//
// Annual potential is area × rainfall × coefficient, in liters. Rules are
// evaluated in order and the first match wins:
//
//	rainfall < 500 mm               storage only
//	groundwater depth < 8 m         storage only
//	Tier 1 metro                    hybrid if potential > 2 × 20-day demand, else storage only
//	otherwise                       hybrid
//
// Household demand is 135 liters per person per day. Hybrid systems store
// min(20-day demand, 60% of potential) and recharge the rest.
//
// # Design and cost
//
// Tanks are cylinders sized from the stored volume; above 5000 L they are
// priced as concrete, otherwise HDPE. Recharge pits are 2 m in diameter and at
// most 4 m deep; deeper requirements are split across several pits. Fixed
// components and a labour share are added, and savings, payback and 10-year
// ROI are derived from the municipal water cost. Every constant lives in
// [Rates].
//
// # IDs
//
// Assessment IDs are UUIDv5 values over the resolved site parameters so the
// same request always produces the same ID. See [NewAssessmentID].
package domain
