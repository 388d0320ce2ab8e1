package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// SurfaceType names a catchment surface with a fixed runoff coefficient.
type SurfaceType string

const (
	SurfaceConcreteRoof    SurfaceType = "Concrete Roof"
	SurfaceTileRoof        SurfaceType = "Tile Roof"
	SurfaceMetalSheet      SurfaceType = "Metal Sheet"
	SurfaceAsphalt         SurfaceType = "Asphalt"
	SurfaceConcreteSurface SurfaceType = "Concrete Surface"
	SurfacePavedArea       SurfaceType = "Paved Area"
)

// runoffCoefficients is the fraction of rainfall each surface sheds as runoff.
var runoffCoefficients = map[SurfaceType]float64{
	SurfaceConcreteRoof:    0.90,
	SurfaceTileRoof:        0.85,
	SurfaceMetalSheet:      0.90,
	SurfaceAsphalt:         0.85,
	SurfaceConcreteSurface: 0.75,
	SurfacePavedArea:       0.70,
}

// RunoffCoefficient returns the coefficient for s and whether s is a known surface.
func (s SurfaceType) RunoffCoefficient() (float64, bool) {
	c, ok := runoffCoefficients[s]
	return c, ok
}

// Surface pairs a surface type with its runoff coefficient for listing.
type Surface struct {
	Type              SurfaceType `json:"type" yaml:"type"`
	RunoffCoefficient float64     `json:"runoff_coefficient" yaml:"runoff_coefficient"`
}

// Surfaces lists every supported surface, highest coefficient first.
func Surfaces() []Surface {
	out := make([]Surface, 0, len(runoffCoefficients))
	for t, c := range runoffCoefficients {
		out = append(out, Surface{Type: t, RunoffCoefficient: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RunoffCoefficient != out[j].RunoffCoefficient {
			return out[i].RunoffCoefficient > out[j].RunoffCoefficient
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// CityType distinguishes high-density metros from lower-density cities.
type CityType string

const (
	CityTier1Metro CityType = "Tier 1 (Metro - High Density)"
	CityTier2Tier3 CityType = "Tier 2 & 3 (Lower Density)"
)

// ParseCityType accepts the display labels and the short codes "tier1"/"tier2".
func ParseCityType(s string) (CityType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case strings.ToLower(string(CityTier1Metro)), "tier1", "tier 1", "metro":
		return CityTier1Metro, true
	case strings.ToLower(string(CityTier2Tier3)), "tier2", "tier3", "tier 2", "tier 3", "tier2/3":
		return CityTier2Tier3, true
	default:
		return "", false
	}
}

// SiteParameters is the validated input to one engine computation.
type SiteParameters struct {
	AreaM2            float64     `json:"area_m2"`
	SurfaceType       SurfaceType `json:"surface_type"`
	RunoffCoefficient float64     `json:"runoff_coefficient"`
	AnnualRainfallMM  float64     `json:"annual_rainfall_mm"`
	HouseholdSize     int         `json:"household_size"`
	CityType          CityType    `json:"city_type"`
	WaterCostPerM3    float64     `json:"water_cost_per_m3"`
	PostMonsoonDepthM float64     `json:"post_monsoon_depth_m"`
}

// Upper bounds keep every derived volume and cost finite.
const (
	MaxAreaM2            = 1e7    // 10 km²
	MaxAnnualRainfallMM  = 30000  // above any recorded annual total
	MaxHouseholdSize     = 10000  // residents served by one system
	MaxWaterCostPerM3    = 1e6    // per m³
	MaxGroundwaterDepthM = 2000.0 // below ground
)

// SiteInput is the wire form of an assessment request. Groundwater depth is
// optional; when it is absent the coordinates are used to resolve it.
type SiteInput struct {
	AreaM2            float64  `json:"area_m2"`
	SurfaceType       string   `json:"surface_type"`
	AnnualRainfallMM  float64  `json:"annual_rainfall_mm"`
	HouseholdSize     int      `json:"household_size"`
	CityType          string   `json:"city_type"`
	WaterCostPerM3    float64  `json:"water_cost_per_m3"`
	PostMonsoonDepthM *float64 `json:"post_monsoon_depth_m,omitempty"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude were supplied.
func (in SiteInput) HasCoordinates() bool {
	return in.Latitude != nil && in.Longitude != nil
}

// Validate checks every field and returns a *ValidationError listing all
// problems, or nil.
func (in SiteInput) Validate() error {
	var errs []error
	if !(in.AreaM2 > 0 && in.AreaM2 <= MaxAreaM2) {
		errs = append(errs, fieldError("area_m2", fmt.Sprintf("must be greater than 0 and at most %g", MaxAreaM2)))
	}
	if _, ok := SurfaceType(in.SurfaceType).RunoffCoefficient(); !ok {
		errs = append(errs, fieldError("surface_type", fmt.Sprintf("unknown surface %q", in.SurfaceType)))
	}
	if !(in.AnnualRainfallMM >= 0 && in.AnnualRainfallMM <= MaxAnnualRainfallMM) {
		errs = append(errs, fieldError("annual_rainfall_mm", fmt.Sprintf("must be within [0, %g]", float64(MaxAnnualRainfallMM))))
	}
	if in.HouseholdSize < 1 || in.HouseholdSize > MaxHouseholdSize {
		errs = append(errs, fieldError("household_size", fmt.Sprintf("must be within [1, %d]", MaxHouseholdSize)))
	}
	if _, ok := ParseCityType(in.CityType); !ok {
		errs = append(errs, fieldError("city_type", fmt.Sprintf("unknown city type %q", in.CityType)))
	}
	if !(in.WaterCostPerM3 >= 0 && in.WaterCostPerM3 <= MaxWaterCostPerM3) {
		errs = append(errs, fieldError("water_cost_per_m3", fmt.Sprintf("must be within [0, %g]", float64(MaxWaterCostPerM3))))
	}
	if d := in.PostMonsoonDepthM; d != nil && !(math.Abs(*d) <= MaxGroundwaterDepthM) {
		errs = append(errs, fieldError("post_monsoon_depth_m", fmt.Sprintf("must be a finite number within ±%g", MaxGroundwaterDepthM)))
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		errs = append(errs, fieldError("latitude/longitude", "must be supplied together"))
	}
	if in.HasCoordinates() {
		var ve *ValidationError
		if errors.As(ValidateCoordinates(*in.Latitude, *in.Longitude), &ve) {
			errs = append(errs, ve.Problems...)
		}
	}
	if in.PostMonsoonDepthM == nil && !in.HasCoordinates() {
		errs = append(errs, fieldError("post_monsoon_depth_m", "required when latitude/longitude are not supplied"))
	}
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Problems: errs}
}

// ValidateCoordinates checks a WGS-84 latitude/longitude pair.
func ValidateCoordinates(lat, lon float64) error {
	var errs []error
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		errs = append(errs, fieldError("latitude", "must be within [-90, 90]"))
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		errs = append(errs, fieldError("longitude", "must be within [-180, 180]"))
	}
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Problems: errs}
}

// Parameters converts a validated input into engine parameters using the
// resolved groundwater depth.
func (in SiteInput) Parameters(postMonsoonDepthM float64) (SiteParameters, error) {
	if err := in.Validate(); err != nil {
		return SiteParameters{}, err
	}
	surface := SurfaceType(in.SurfaceType)
	coeff, _ := surface.RunoffCoefficient()
	city, _ := ParseCityType(in.CityType)
	return SiteParameters{
		AreaM2:            in.AreaM2,
		SurfaceType:       surface,
		RunoffCoefficient: coeff,
		AnnualRainfallMM:  in.AnnualRainfallMM,
		HouseholdSize:     in.HouseholdSize,
		CityType:          city,
		WaterCostPerM3:    in.WaterCostPerM3,
		PostMonsoonDepthM: postMonsoonDepthM,
	}, nil
}
