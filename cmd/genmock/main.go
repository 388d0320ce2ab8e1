// Command genmock writes the site request fixture used by the pipeline and
// integration test suites. Expected strategies are computed with the domain
// package so the fixture always matches engine behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/site_requests.json [-rates rates.yaml]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/couchcryptid/hydro-assess-service/internal/config"
	"github.com/couchcryptid/hydro-assess-service/internal/domain"
)

type mockSite struct {
	Name             string           `json:"name"`
	Input            domain.SiteInput `json:"input"`
	ExpectedStrategy domain.Strategy  `json:"expected_strategy"`
}

func f(v float64) *float64 { return &v }

// sites covers every decision rule, the metro surplus split and the
// coordinate fallback.
var sites = []struct {
	name string
	in   domain.SiteInput
}{
	{"tier2-hybrid", domain.SiteInput{AreaM2: 150, SurfaceType: "Concrete Roof", AnnualRainfallMM: 900, HouseholdSize: 4, CityType: "Tier 2 & 3 (Lower Density)", WaterCostPerM3: 25, PostMonsoonDepthM: f(10)}},
	{"low-rainfall", domain.SiteInput{AreaM2: 100, SurfaceType: "Tile Roof", AnnualRainfallMM: 400, HouseholdSize: 3, CityType: "Tier 2 & 3 (Lower Density)", WaterCostPerM3: 30, PostMonsoonDepthM: f(15)}},
	{"shallow-groundwater", domain.SiteInput{AreaM2: 200, SurfaceType: "Metal Sheet", AnnualRainfallMM: 1200, HouseholdSize: 5, CityType: "Tier 2 & 3 (Lower Density)", WaterCostPerM3: 20, PostMonsoonDepthM: f(5)}},
	{"metro-surplus", domain.SiteInput{AreaM2: 300, SurfaceType: "Concrete Roof", AnnualRainfallMM: 1500, HouseholdSize: 4, CityType: "Tier 1 (Metro - High Density)", WaterCostPerM3: 40, PostMonsoonDepthM: f(12)}},
	{"metro-limited", domain.SiteInput{AreaM2: 20, SurfaceType: "Paved Area", AnnualRainfallMM: 600, HouseholdSize: 6, CityType: "metro", WaterCostPerM3: 35, PostMonsoonDepthM: f(12)}},
	{"estimated-delhi", domain.SiteInput{AreaM2: 120, SurfaceType: "Asphalt", AnnualRainfallMM: 800, HouseholdSize: 4, CityType: "tier2", WaterCostPerM3: 22, Latitude: f(28.6), Longitude: f(77.2)}},
	{"threshold-boundary", domain.SiteInput{AreaM2: 80, SurfaceType: "Concrete Surface", AnnualRainfallMM: 500, HouseholdSize: 2, CityType: "tier3", WaterCostPerM3: 18, PostMonsoonDepthM: f(8)}},
	{"zero-rainfall", domain.SiteInput{AreaM2: 100, SurfaceType: "Concrete Roof", AnnualRainfallMM: 0, HouseholdSize: 3, CityType: "tier1", WaterCostPerM3: 25, PostMonsoonDepthM: f(20)}},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock/site_requests.json", "output path for the site request fixture")
	ratesFile := flag.String("rates", "", "optional YAML rate table")
	flag.Parse()

	rates, err := config.LoadRates(*ratesFile)
	if err != nil {
		return err
	}

	fixture := make([]mockSite, 0, len(sites))
	for _, s := range sites {
		depth, err := resolveDepth(s.in)
		if err != nil {
			return fmt.Errorf("site %s: %w", s.name, err)
		}
		p, err := s.in.Parameters(depth)
		if err != nil {
			return fmt.Errorf("site %s: %w", s.name, err)
		}
		rec := domain.GenerateRecommendation(p, rates)
		fixture = append(fixture, mockSite{Name: s.name, Input: s.in, ExpectedStrategy: rec.Strategy})
		log.Printf("%s: %s", s.name, rec.Strategy)
	}

	fh, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer fh.Close()

	enc := json.NewEncoder(fh)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fixture); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	log.Printf("wrote %d sites to %s", len(fixture), *out)
	return nil
}

// resolveDepth uses the provided depth or the location estimate, matching
// an assessor with no station store.
func resolveDepth(in domain.SiteInput) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	if in.PostMonsoonDepthM != nil {
		return *in.PostMonsoonDepthM, nil
	}
	return domain.EstimateGroundwater(*in.Latitude, *in.Longitude).PostMonsoonDepthM, nil
}
