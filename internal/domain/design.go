package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// CostComponent names one line of the cost breakdown.
type CostComponent string

const (
	CostStorageTank        CostComponent = "storage_tank"
	CostRechargeSystem     CostComponent = "recharge_system"
	CostFirstFlushDiverter CostComponent = "first_flush_diverter"
	CostFiltrationSystem   CostComponent = "filtration_system"
	CostGutteringAndPipes  CostComponent = "guttering_and_pipes"
	CostInstallationLabor  CostComponent = "installation_labor"
)

// costOrder is the canonical order for summing and rendering the breakdown.
var costOrder = []CostComponent{
	CostStorageTank,
	CostRechargeSystem,
	CostFirstFlushDiverter,
	CostFiltrationSystem,
	CostGutteringAndPipes,
	CostInstallationLabor,
}

// CostBreakdown maps each present component to its cost.
type CostBreakdown map[CostComponent]float64

// CostItem is one ordered breakdown line.
type CostItem struct {
	Component CostComponent `json:"component"`
	Amount    float64       `json:"amount"`
}

// Items returns the present components in canonical order.
func (b CostBreakdown) Items() []CostItem {
	out := make([]CostItem, 0, len(b))
	for _, c := range costOrder {
		if v, ok := b[c]; ok {
			out = append(out, CostItem{Component: c, Amount: v})
		}
	}
	return out
}

// Sum adds every component in canonical order so repeated calls agree bit for bit.
func (b CostBreakdown) Sum() float64 {
	total := 0.0
	for _, item := range b.Items() {
		total += item.Amount
	}
	return total
}

// Years is a duration in years that may be infinite. Infinity encodes as JSON null.
type Years float64

// IsInf reports whether the period never ends.
func (y Years) IsInf() bool { return math.IsInf(float64(y), 1) }

func (y Years) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(y), 0) || math.IsNaN(float64(y)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(y))
}

func (y *Years) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*y = Years(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode years: %w", err)
	}
	*y = Years(f)
	return nil
}

// TankMaterial is the construction material chosen for a storage tank.
type TankMaterial string

const (
	TankHDPE     TankMaterial = "HDPE"
	TankConcrete TankMaterial = "Concrete"
)

// StorageTank sizes a cylindrical tank.
type StorageTank struct {
	VolumeLiters float64      `json:"volume_liters"`
	VolumeM3     float64      `json:"volume_m3"`
	DiameterM    float64      `json:"diameter_m"`
	HeightM      float64      `json:"height_m"`
	Material     TankMaterial `json:"material"`
	Type         string       `json:"type"`
	Dimensions   string       `json:"dimensions"`
}

// RechargeSystem sizes one or more cylindrical recharge pits.
type RechargeSystem struct {
	VolumeM3      float64 `json:"volume_m3"`
	PitCount      int     `json:"pit_count"`
	PitDiameterM  float64 `json:"pit_diameter_m"`
	PitDepthM     float64 `json:"pit_depth_m"`
	TotalAreaM2   float64 `json:"total_area_m2"`
	Configuration string  `json:"configuration"`
	Dimensions    string  `json:"dimensions"`
}

// DesignAndCost is the engineering design and financial outcome for a recommendation.
type DesignAndCost struct {
	StorageTank    *StorageTank    `json:"storage_tank,omitempty"`
	RechargeSystem *RechargeSystem `json:"recharge_system,omitempty"`

	CostBreakdown CostBreakdown `json:"cost_breakdown"`
	TotalCost     float64       `json:"total_cost"`

	AnnualSavings         float64 `json:"annual_savings"`
	DirectWaterSavings    float64 `json:"direct_water_savings"`
	RechargeBenefits      float64 `json:"recharge_benefits"`
	MaintenanceCostAnnual float64 `json:"maintenance_cost_annual"`
	PaybackPeriodYears    Years   `json:"payback_period_years"`
	ROI10YearPercent      float64 `json:"roi_10_year_percent"`

	FloodMitigationBenefit      bool    `json:"flood_mitigation_benefit"`
	GroundwaterRechargeM3Annual float64 `json:"groundwater_recharge_m3_annual"`
}

// CalculateDesignAndCost sizes the storage tank and recharge pits for rec,
// rolls up component costs and projects annual savings and returns.
func CalculateDesignAndCost(rec Recommendation, p SiteParameters, r Rates) DesignAndCost {
	out := DesignAndCost{CostBreakdown: CostBreakdown{}}

	if rec.VolumeToStoreLiters > 0 {
		tank, cost := designTank(rec.VolumeToStoreLiters, r)
		out.StorageTank = &tank
		out.CostBreakdown[CostStorageTank] = cost
	}

	if rec.VolumeToRechargeLiters > 0 {
		pits, cost := designRecharge(rec.VolumeToRechargeLiters, r)
		out.RechargeSystem = &pits
		out.CostBreakdown[CostRechargeSystem] = cost
	}

	out.CostBreakdown[CostFirstFlushDiverter] = r.FirstFlushDiverterCost
	out.CostBreakdown[CostFiltrationSystem] = r.FiltrationSystemCost
	out.CostBreakdown[CostGutteringAndPipes] = p.AreaM2 * r.GutteringCostPerM2
	// Labour is a share of everything else, so it must be added last.
	out.CostBreakdown[CostInstallationLabor] = out.CostBreakdown.Sum() * r.InstallationLaborRate

	out.TotalCost = out.CostBreakdown.Sum()

	storedM3 := rec.VolumeToStoreLiters / 1000
	rechargedM3 := rec.VolumeToRechargeLiters / 1000

	out.DirectWaterSavings = storedM3 * p.WaterCostPerM3
	if rechargedM3 > 0 {
		out.RechargeBenefits = rechargedM3 * r.RechargeBenefitPerM3
	}
	out.AnnualSavings = out.DirectWaterSavings + out.RechargeBenefits
	out.MaintenanceCostAnnual = out.TotalCost * r.MaintenanceRate
	out.FloodMitigationBenefit = rec.VolumeToRechargeLiters > 0
	out.GroundwaterRechargeM3Annual = rechargedM3

	if out.AnnualSavings > 0 {
		out.PaybackPeriodYears = Years(out.TotalCost / out.AnnualSavings)
	} else {
		out.PaybackPeriodYears = Years(math.Inf(1))
	}

	switch {
	case out.PaybackPeriodYears.IsInf():
		out.ROI10YearPercent = -100
	case out.TotalCost > 0:
		const horizon = 10
		net := out.AnnualSavings*horizon - out.MaintenanceCostAnnual*horizon - out.TotalCost
		out.ROI10YearPercent = net / out.TotalCost * 100
	default:
		// Nothing was spent, so there is no return to express as a ratio.
		out.ROI10YearPercent = 0
	}

	return out
}

// designTank sizes a cylinder with r = (V/(π·ratio))^(1/3) and h = V/(π r²).
func designTank(volumeLiters float64, r Rates) (StorageTank, float64) {
	volumeM3 := volumeLiters / 1000
	radius := math.Cbrt(volumeM3 / (math.Pi * r.TankHeightToDiameter))
	diameter := radius * 2
	height := volumeM3 / (math.Pi * radius * radius)

	material := TankHDPE
	rate := r.HDPETankCostPerL
	if volumeLiters > r.ConcreteTankThresholdL {
		material = TankConcrete
		rate = r.ConcreteTankCostPerL
	}

	return StorageTank{
		VolumeLiters: volumeLiters,
		VolumeM3:     volumeM3,
		DiameterM:    diameter,
		HeightM:      height,
		Material:     material,
		Type:         "Cylindrical HDPE/Concrete Tank",
		Dimensions:   fmt.Sprintf("%.1fm Diameter × %.1fm Height", diameter, height),
	}, volumeLiters * rate
}

// designRecharge fits the recharge volume into fixed-diameter pits no deeper
// than the maximum depth, adding pits when one would be too deep.
func designRecharge(volumeLiters float64, r Rates) (RechargeSystem, float64) {
	volumeM3 := volumeLiters / 1000
	pitRadius := r.PitDiameterM / 2
	pitArea := math.Pi * pitRadius * pitRadius
	requiredDepth := volumeM3 / pitArea

	sys := RechargeSystem{
		VolumeM3:     volumeM3,
		PitDiameterM: r.PitDiameterM,
	}
	if requiredDepth > r.MaxPitDepthM {
		sys.PitCount = int(math.Ceil(volumeM3 / (pitArea * r.MaxPitDepthM)))
		sys.PitDepthM = r.MaxPitDepthM
		sys.Configuration = fmt.Sprintf("%d Recharge Pits", sys.PitCount)
		sys.Dimensions = fmt.Sprintf("Each: %.1fm Diameter × %.1fm Depth", sys.PitDiameterM, sys.PitDepthM)
	} else {
		sys.PitCount = 1
		sys.PitDepthM = requiredDepth
		sys.Configuration = "Single Recharge Pit"
		sys.Dimensions = fmt.Sprintf("%.1fm Diameter × %.1fm Depth", sys.PitDiameterM, sys.PitDepthM)
	}
	sys.TotalAreaM2 = float64(sys.PitCount) * pitArea

	return sys, volumeM3 * r.RechargeCostPerM3
}
