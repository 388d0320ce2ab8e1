package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/couchcryptid/hydro-assess-service/internal/domain"
)

var costLabels = map[domain.CostComponent]string{
	domain.CostStorageTank:        "Storage tank",
	domain.CostRechargeSystem:     "Recharge system",
	domain.CostFirstFlushDiverter: "First-flush diverter",
	domain.CostFiltrationSystem:   "Filtration system",
	domain.CostGutteringAndPipes:  "Guttering and pipes",
	domain.CostInstallationLabor:  "Installation labour",
}

func writeReport(w io.Writer, a domain.Assessment) {
	rec := a.Recommendation
	d := a.Design

	fmt.Fprintln(w, "Rainwater Harvesting Assessment")
	fmt.Fprintln(w, "===============================")
	fmt.Fprintf(w, "  ID:                   %s\n", a.ID)
	fmt.Fprintf(w, "  Site:                 %.0f m² %s, %.0f mm/yr, %d residents\n",
		a.Site.AreaM2, a.Site.SurfaceType, a.Site.AnnualRainfallMM, a.Site.HouseholdSize)
	fmt.Fprintf(w, "  City:                 %s\n", a.Site.CityType)
	fmt.Fprintf(w, "  Groundwater:          %.1f m post-monsoon (%s", a.Groundwater.PostMonsoonDepthM, a.Groundwater.Source)
	if a.Groundwater.StationID != "" {
		fmt.Fprintf(w, " %s", a.Groundwater.StationID)
	}
	fmt.Fprintf(w, ", %s aquifer)\n", a.Groundwater.PrincipalAquiferType)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Recommendation")
	fmt.Fprintln(w, "--------------")
	fmt.Fprintf(w, "  Strategy:             %s\n", rec.Strategy)
	fmt.Fprintf(w, "  Reason:               %s\n", rec.Reason)
	fmt.Fprintf(w, "  Annual potential:     %s L\n", groupThousands(rec.AnnualPotentialLiters))
	fmt.Fprintf(w, "  To storage:           %s L\n", groupThousands(rec.VolumeToStoreLiters))
	fmt.Fprintf(w, "  To recharge:          %s L\n", groupThousands(rec.VolumeToRechargeLiters))
	fmt.Fprintf(w, "  Efficiency:           %s (%.0f%% of annual demand)\n", rec.EfficiencyRating, rec.CoveragePct)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Design")
	fmt.Fprintln(w, "------")
	if t := d.StorageTank; t != nil {
		fmt.Fprintf(w, "  Tank:                 %s L %s, %s\n", groupThousands(t.VolumeLiters), t.Material, t.Dimensions)
	}
	if p := d.RechargeSystem; p != nil {
		fmt.Fprintf(w, "  Recharge:             %s, %s\n", p.Configuration, p.Dimensions)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Cost")
	fmt.Fprintln(w, "----")
	for _, item := range d.CostBreakdown.Items() {
		fmt.Fprintf(w, "  %-22s %14s\n", costLabels[item.Component], groupThousands(item.Amount))
	}
	fmt.Fprintf(w, "  %-22s %14s\n", "TOTAL", groupThousands(d.TotalCost))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Returns")
	fmt.Fprintln(w, "-------")
	fmt.Fprintf(w, "  Annual savings:       %s\n", groupThousands(d.AnnualSavings))
	fmt.Fprintf(w, "  Annual maintenance:   %s\n", groupThousands(d.MaintenanceCostAnnual))
	fmt.Fprintf(w, "  Payback:              %s\n", formatPayback(d.PaybackPeriodYears))
	fmt.Fprintf(w, "  10-year ROI:          %.1f%%\n", d.ROI10YearPercent)
	if d.FloodMitigationBenefit {
		fmt.Fprintf(w, "  Groundwater recharge: %.1f m³/yr\n", d.GroundwaterRechargeM3Annual)
	}
}

func formatPayback(y domain.Years) string {
	if y.IsInf() {
		return "never"
	}
	return fmt.Sprintf("%.1f years", float64(y))
}

// groupThousands rounds v to a whole number and inserts comma separators.
func groupThousands(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := fmt.Sprintf("%d", n)

	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}
