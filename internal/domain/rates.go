package domain

import (
	"errors"
	"fmt"
)

// Rates holds every tunable constant used by the recommendation and design
// engines. DefaultRates reproduces the published rule set; operators may load
// an override table from YAML.
type Rates struct {
	// Demand.
	PerCapitaDemandLPD float64 `json:"per_capita_demand_lpd" yaml:"per_capita_demand_lpd"`
	BufferDays         float64 `json:"buffer_days" yaml:"buffer_days"`

	// Decision rules.
	MinRechargeRainfallMM float64 `json:"min_recharge_rainfall_mm" yaml:"min_recharge_rainfall_mm"`
	MinRechargeDepthM     float64 `json:"min_recharge_depth_m" yaml:"min_recharge_depth_m"`
	MetroSurplusFactor    float64 `json:"metro_surplus_factor" yaml:"metro_surplus_factor"`
	HybridStorageShareCap float64 `json:"hybrid_storage_share_cap" yaml:"hybrid_storage_share_cap"`

	// Efficiency thresholds, as percent of annual household demand covered.
	ExcellentCoveragePct float64 `json:"excellent_coverage_pct" yaml:"excellent_coverage_pct"`
	GoodCoveragePct      float64 `json:"good_coverage_pct" yaml:"good_coverage_pct"`
	FairCoveragePct      float64 `json:"fair_coverage_pct" yaml:"fair_coverage_pct"`

	// Storage tank.
	TankHeightToDiameter   float64 `json:"tank_height_to_diameter" yaml:"tank_height_to_diameter"`
	ConcreteTankThresholdL float64 `json:"concrete_tank_threshold_l" yaml:"concrete_tank_threshold_l"`
	ConcreteTankCostPerL   float64 `json:"concrete_tank_cost_per_l" yaml:"concrete_tank_cost_per_l"`
	HDPETankCostPerL       float64 `json:"hdpe_tank_cost_per_l" yaml:"hdpe_tank_cost_per_l"`

	// Recharge pits.
	PitDiameterM      float64 `json:"pit_diameter_m" yaml:"pit_diameter_m"`
	MaxPitDepthM      float64 `json:"max_pit_depth_m" yaml:"max_pit_depth_m"`
	RechargeCostPerM3 float64 `json:"recharge_cost_per_m3" yaml:"recharge_cost_per_m3"`

	// Fixed components.
	FirstFlushDiverterCost float64 `json:"first_flush_diverter_cost" yaml:"first_flush_diverter_cost"`
	FiltrationSystemCost   float64 `json:"filtration_system_cost" yaml:"filtration_system_cost"`
	GutteringCostPerM2     float64 `json:"guttering_cost_per_m2" yaml:"guttering_cost_per_m2"`
	InstallationLaborRate  float64 `json:"installation_labor_rate" yaml:"installation_labor_rate"`

	// Financials.
	RechargeBenefitPerM3 float64 `json:"recharge_benefit_per_m3" yaml:"recharge_benefit_per_m3"`
	MaintenanceRate      float64 `json:"maintenance_rate" yaml:"maintenance_rate"`
	ProjectionYears      int     `json:"projection_years" yaml:"projection_years"`
}

// DefaultRates returns the standard rate table (costs in INR).
func DefaultRates() Rates {
	return Rates{
		PerCapitaDemandLPD: 135, // CPHEEO urban standard
		BufferDays:         20,

		MinRechargeRainfallMM: 500,
		MinRechargeDepthM:     8.0,
		MetroSurplusFactor:    2,
		HybridStorageShareCap: 0.6,

		ExcellentCoveragePct: 80,
		GoodCoveragePct:      60,
		FairCoveragePct:      40,

		TankHeightToDiameter:   1.2,
		ConcreteTankThresholdL: 5000,
		ConcreteTankCostPerL:   6,
		HDPETankCostPerL:       4,

		PitDiameterM:      2.0,
		MaxPitDepthM:      4.0,
		RechargeCostPerM3: 2500,

		FirstFlushDiverterCost: 3500,
		FiltrationSystemCost:   4500,
		GutteringCostPerM2:     15,
		InstallationLaborRate:  0.15,

		RechargeBenefitPerM3: 5,
		MaintenanceRate:      0.02,
		ProjectionYears:      10,
	}
}

// HouseholdDemand returns the buffered storage demand in liters for a household.
func (r Rates) HouseholdDemand(householdSize int) float64 {
	return float64(householdSize) * r.PerCapitaDemandLPD * r.BufferDays
}

// AnnualHouseholdDemand returns a full year of household demand in liters.
func (r Rates) AnnualHouseholdDemand(householdSize int) float64 {
	return float64(householdSize) * r.PerCapitaDemandLPD * 365
}

// Validate rejects tables that would make the engine divide by zero or
// produce negative sizes.
func (r Rates) Validate() error {
	var errs []error
	type field struct {
		name string
		v    float64
	}
	for _, f := range []field{
		{"per_capita_demand_lpd", r.PerCapitaDemandLPD},
		{"buffer_days", r.BufferDays},
		{"tank_height_to_diameter", r.TankHeightToDiameter},
		{"pit_diameter_m", r.PitDiameterM},
		{"max_pit_depth_m", r.MaxPitDepthM},
	} {
		if !(f.v > 0) {
			errs = append(errs, fmt.Errorf("%s must be greater than 0", f.name))
		}
	}
	for _, f := range []field{
		{"min_recharge_rainfall_mm", r.MinRechargeRainfallMM},
		{"metro_surplus_factor", r.MetroSurplusFactor},
		{"concrete_tank_threshold_l", r.ConcreteTankThresholdL},
		{"concrete_tank_cost_per_l", r.ConcreteTankCostPerL},
		{"hdpe_tank_cost_per_l", r.HDPETankCostPerL},
		{"recharge_cost_per_m3", r.RechargeCostPerM3},
		{"first_flush_diverter_cost", r.FirstFlushDiverterCost},
		{"filtration_system_cost", r.FiltrationSystemCost},
		{"guttering_cost_per_m2", r.GutteringCostPerM2},
		{"installation_labor_rate", r.InstallationLaborRate},
		{"recharge_benefit_per_m3", r.RechargeBenefitPerM3},
		{"maintenance_rate", r.MaintenanceRate},
	} {
		if !(f.v >= 0) {
			errs = append(errs, fmt.Errorf("%s must be 0 or greater", f.name))
		}
	}
	// Every design carries these, so one of them keeps total cost above zero.
	if !(r.FirstFlushDiverterCost > 0 || r.FiltrationSystemCost > 0 || r.GutteringCostPerM2 > 0) {
		errs = append(errs, errors.New("one of first_flush_diverter_cost, filtration_system_cost or guttering_cost_per_m2 must be greater than 0"))
	}
	if !(r.HybridStorageShareCap >= 0 && r.HybridStorageShareCap <= 1) {
		errs = append(errs, errors.New("hybrid_storage_share_cap must be within [0, 1]"))
	}
	if !(r.ExcellentCoveragePct >= r.GoodCoveragePct && r.GoodCoveragePct >= r.FairCoveragePct && r.FairCoveragePct >= 0) {
		errs = append(errs, errors.New("coverage thresholds must satisfy excellent >= good >= fair >= 0"))
	}
	if r.ProjectionYears < 1 {
		errs = append(errs, errors.New("projection_years must be at least 1"))
	}
	return errors.Join(errs...)
}
