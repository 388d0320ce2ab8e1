package domain

import (
	"context"
	"math"
)

// GroundwaterSource records where a depth reading came from.
type GroundwaterSource string

const (
	GroundwaterProvided  GroundwaterSource = "provided"
	GroundwaterStation   GroundwaterSource = "station"
	GroundwaterEstimated GroundwaterSource = "estimated"
)

// Aquifer labels produced by the location estimate.
const (
	AquiferAlluvial = "Alluvial Plains"
	AquiferHardRock = "Hard Rock (Crystalline)"
	AquiferMixed    = "Mixed Aquifer System"
	YieldModerate   = "Moderate"
	YieldLow        = "Low"
)

// GroundwaterData describes the water table at a site.
type GroundwaterData struct {
	PostMonsoonDepthM    float64           `json:"post_monsoon_depth_m"`
	PreMonsoonDepthM     float64           `json:"pre_monsoon_depth_m"`
	PrincipalAquiferType string            `json:"principal_aquifer_type"`
	AquiferYield         string            `json:"aquifer_yield"`
	Source               GroundwaterSource `json:"source"`
	StationID            string            `json:"station_id,omitempty"`
}

// Station is a monitoring well in the groundwater dataset.
type Station struct {
	ID                   string  `json:"id"`
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	PostMonsoonDepthM    float64 `json:"post_monsoon_depth_m"`
	PreMonsoonDepthM     float64 `json:"pre_monsoon_depth_m"`
	PrincipalAquiferType string  `json:"principal_aquifer_type"`
	AquiferYield         string  `json:"aquifer_yield"`
}

// Groundwater converts a station reading into site groundwater data.
func (s Station) Groundwater() GroundwaterData {
	return GroundwaterData{
		PostMonsoonDepthM:    s.PostMonsoonDepthM,
		PreMonsoonDepthM:     s.PreMonsoonDepthM,
		PrincipalAquiferType: s.PrincipalAquiferType,
		AquiferYield:         s.AquiferYield,
		Source:               GroundwaterStation,
		StationID:            s.ID,
	}
}

// GroundwaterProvider resolves groundwater data for a coordinate.
// Implementations return ErrStationNotFound when they hold no data.
type GroundwaterProvider interface {
	Lookup(ctx context.Context, lat, lon float64) (GroundwaterData, error)
}

// ProvidedGroundwater wraps a caller-supplied depth. The pre-monsoon depth
// follows the same 2 m offset the estimate uses.
func ProvidedGroundwater(postMonsoonDepthM float64) GroundwaterData {
	return GroundwaterData{
		PostMonsoonDepthM: postMonsoonDepthM,
		PreMonsoonDepthM:  postMonsoonDepthM + 2,
		AquiferYield:      yieldFor(postMonsoonDepthM),
		Source:            GroundwaterProvided,
	}
}

// EstimateGroundwater produces a deterministic location-based reading used
// when no station data is available. Depth never falls below 3 m.
func EstimateGroundwater(lat, lon float64) GroundwaterData {
	base := 10 + floorMod(lat+lon, 15)
	seasonal := 2 * math.Sin(floorMod(lat*lon, 6.28))
	post := math.Max(3, base+seasonal)

	aquifer := AquiferMixed
	switch {
	case lat > 25:
		aquifer = AquiferAlluvial
	case lat < 20:
		aquifer = AquiferHardRock
	}

	return GroundwaterData{
		PostMonsoonDepthM:    post,
		PreMonsoonDepthM:     post + 2,
		PrincipalAquiferType: aquifer,
		AquiferYield:         yieldFor(post),
		Source:               GroundwaterEstimated,
	}
}

func yieldFor(depth float64) string {
	if depth < 15 {
		return YieldModerate
	}
	return YieldLow
}

// floorMod is a modulo whose result takes the sign of m.
func floorMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r != 0 && (r < 0) != (m < 0) {
		r += m
	}
	return r
}
