package domain

// Strategy is the recommended use of harvested rainwater.
type Strategy string

const (
	StrategyStorageOnly  Strategy = "Storage Only"
	StrategyRechargeOnly Strategy = "Recharge Only"
	StrategyHybrid       Strategy = "Hybrid System"
)

// EfficiencyRating grades how much of a household's annual demand the site can cover.
type EfficiencyRating string

const (
	EfficiencyExcellent EfficiencyRating = "Excellent"
	EfficiencyGood      EfficiencyRating = "Good"
	EfficiencyFair      EfficiencyRating = "Fair"
	EfficiencyLimited   EfficiencyRating = "Limited"
)

// Reasons reported with each rule.
const (
	ReasonLowRainfall     = "Annual rainfall is too low for effective groundwater recharge."
	ReasonShallowGW       = "Groundwater level is too high (<8m), making recharge unsafe and ineffective."
	ReasonMetroSurplus    = "High-density urban area with sufficient rainfall potential for both storage and groundwater recharge to mitigate flooding."
	ReasonMetroLimited    = "High-density urban area with limited rainfall potential - prioritizing direct water storage for household use."
	ReasonBalancedDefault = "Optimal balance of direct use and groundwater recharge."
)

// Recommendation is the engine's strategy decision and volume split.
type Recommendation struct {
	Strategy                    Strategy         `json:"strategy"`
	Reason                      string           `json:"reason"`
	AnnualPotentialLiters       float64          `json:"annual_potential_liters"`
	VolumeToStoreLiters         float64          `json:"volume_to_store_liters"`
	VolumeToRechargeLiters      float64          `json:"volume_to_recharge_liters"`
	HouseholdDemand20DaysLiters float64          `json:"household_demand_20_days_liters"`
	EfficiencyRating            EfficiencyRating `json:"efficiency_rating"`
	CoveragePct                 float64          `json:"coverage_pct"`
}

// AnnualPotential returns the harvestable volume in liters:
// area (m²) × rainfall (mm) × runoff coefficient. One millimetre over one
// square metre is one liter.
func AnnualPotential(p SiteParameters) float64 {
	return p.AreaM2 * p.AnnualRainfallMM * p.RunoffCoefficient
}

// GenerateRecommendation applies the decision rules in priority order; the
// first rule that matches decides the strategy.
//
//  1. rainfall below the recharge minimum  -> storage only
//  2. groundwater shallower than the safe depth -> storage only
//  3. Tier 1 metro: hybrid when potential exceeds the surplus multiple of
//     buffered household demand, otherwise storage only
//  4. everything else -> hybrid
func GenerateRecommendation(p SiteParameters, r Rates) Recommendation {
	potential := AnnualPotential(p)
	demand := r.HouseholdDemand(p.HouseholdSize)

	var strategy Strategy
	var reason string
	switch {
	case p.AnnualRainfallMM < r.MinRechargeRainfallMM:
		strategy, reason = StrategyStorageOnly, ReasonLowRainfall
	case p.PostMonsoonDepthM < r.MinRechargeDepthM:
		strategy, reason = StrategyStorageOnly, ReasonShallowGW
	case p.CityType == CityTier1Metro:
		if potential > demand*r.MetroSurplusFactor {
			strategy, reason = StrategyHybrid, ReasonMetroSurplus
		} else {
			strategy, reason = StrategyStorageOnly, ReasonMetroLimited
		}
	default:
		strategy, reason = StrategyHybrid, ReasonBalancedDefault
	}

	store, recharge := SplitVolume(strategy, potential, demand, r)
	coverage := Coverage(potential, p.HouseholdSize, r)

	return Recommendation{
		Strategy:                    strategy,
		Reason:                      reason,
		AnnualPotentialLiters:       potential,
		VolumeToStoreLiters:         store,
		VolumeToRechargeLiters:      recharge,
		HouseholdDemand20DaysLiters: demand,
		EfficiencyRating:            RateCoverage(coverage, r),
		CoveragePct:                 coverage,
	}
}

// SplitVolume divides the annual potential between storage and recharge.
// store + recharge always equals potential.
func SplitVolume(s Strategy, potential, demand float64, r Rates) (store, recharge float64) {
	switch s {
	case StrategyStorageOnly:
		return potential, 0
	case StrategyRechargeOnly:
		return 0, potential
	default:
		store = min(demand, potential*r.HybridStorageShareCap)
		return store, potential - store
	}
}

// Coverage is the annual potential as a percentage of annual household demand.
func Coverage(potential float64, householdSize int, r Rates) float64 {
	return potential / r.AnnualHouseholdDemand(householdSize) * 100
}

// EfficiencyRatingFor grades the site's annual potential against household demand.
func EfficiencyRatingFor(potential float64, p SiteParameters, r Rates) EfficiencyRating {
	return RateCoverage(Coverage(potential, p.HouseholdSize, r), r)
}

// RateCoverage maps a coverage percentage onto the rating bands.
func RateCoverage(coveragePct float64, r Rates) EfficiencyRating {
	switch {
	case coveragePct >= r.ExcellentCoveragePct:
		return EfficiencyExcellent
	case coveragePct >= r.GoodCoveragePct:
		return EfficiencyGood
	case coveragePct >= r.FairCoveragePct:
		return EfficiencyFair
	default:
		return EfficiencyLimited
	}
}
