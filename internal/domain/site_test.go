package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func validInput() SiteInput {
	return SiteInput{
		AreaM2:            150,
		SurfaceType:       string(SurfaceConcreteRoof),
		AnnualRainfallMM:  900,
		HouseholdSize:     4,
		CityType:          string(CityTier2Tier3),
		WaterCostPerM3:    25,
		PostMonsoonDepthM: ptr(10),
	}
}

func TestSiteInput_Validate(t *testing.T) {
	t.Run("valid with depth", func(t *testing.T) {
		assert.NoError(t, validInput().Validate())
	})

	t.Run("valid with coordinates only", func(t *testing.T) {
		in := validInput()
		in.PostMonsoonDepthM = nil
		in.Latitude, in.Longitude = ptr(28.6), ptr(77.2)
		assert.NoError(t, in.Validate())
	})

	t.Run("collects every problem", func(t *testing.T) {
		in := SiteInput{
			AreaM2:         0,
			SurfaceType:    "Thatch",
			HouseholdSize:  0,
			CityType:       "village",
			WaterCostPerM3: -1,
		}
		err := in.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInput))

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		fields := make([]string, 0, len(ve.Problems))
		for _, p := range ve.Problems {
			var fe *FieldError
			require.ErrorAs(t, p, &fe)
			fields = append(fields, fe.Field)
		}
		assert.Equal(t, []string{"area_m2", "surface_type", "household_size", "city_type", "water_cost_per_m3", "post_monsoon_depth_m"}, fields)
		assert.Contains(t, err.Error(), "surface_type: unknown surface \"Thatch\"")
	})

	t.Run("negative rainfall", func(t *testing.T) {
		in := validInput()
		in.AnnualRainfallMM = -5
		assert.ErrorIs(t, in.Validate(), ErrInvalidInput)
	})

	t.Run("values beyond the upper bounds", func(t *testing.T) {
		in := validInput()
		in.AreaM2 = 1e200
		in.AnnualRainfallMM = 1e200
		in.HouseholdSize = MaxHouseholdSize + 1
		in.WaterCostPerM3 = math.Inf(1)
		in.PostMonsoonDepthM = ptr(math.NaN())

		var ve *ValidationError
		require.ErrorAs(t, in.Validate(), &ve)
		fields := make([]string, 0, len(ve.Problems))
		for _, p := range ve.Problems {
			var fe *FieldError
			require.ErrorAs(t, p, &fe)
			fields = append(fields, fe.Field)
		}
		assert.Equal(t, []string{"area_m2", "annual_rainfall_mm", "household_size", "water_cost_per_m3", "post_monsoon_depth_m"}, fields)
	})

	t.Run("upper bounds are inclusive", func(t *testing.T) {
		in := validInput()
		in.AreaM2 = MaxAreaM2
		in.AnnualRainfallMM = MaxAnnualRainfallMM
		in.HouseholdSize = MaxHouseholdSize
		in.WaterCostPerM3 = MaxWaterCostPerM3
		in.PostMonsoonDepthM = ptr(MaxGroundwaterDepthM)
		assert.NoError(t, in.Validate())
	})

	t.Run("latitude without longitude", func(t *testing.T) {
		in := validInput()
		in.Latitude = ptr(12)
		err := in.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be supplied together")
	})

	t.Run("coordinates out of range", func(t *testing.T) {
		in := validInput()
		in.Latitude, in.Longitude = ptr(95), ptr(-200)
		var ve *ValidationError
		require.ErrorAs(t, in.Validate(), &ve)
		assert.Len(t, ve.Problems, 2)
	})
}

func TestSiteInput_Parameters(t *testing.T) {
	in := validInput()
	in.SurfaceType = string(SurfacePavedArea)
	in.CityType = "tier1"

	p, err := in.Parameters(12.5)
	require.NoError(t, err)
	assert.Equal(t, SurfacePavedArea, p.SurfaceType)
	assert.Equal(t, 0.70, p.RunoffCoefficient)
	assert.Equal(t, CityTier1Metro, p.CityType)
	assert.Equal(t, 12.5, p.PostMonsoonDepthM)

	in.HouseholdSize = 0
	_, err = in.Parameters(12.5)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseCityType(t *testing.T) {
	tests := []struct {
		in   string
		want CityType
		ok   bool
	}{
		{"Tier 1 (Metro - High Density)", CityTier1Metro, true},
		{" TIER1 ", CityTier1Metro, true},
		{"Tier 2 & 3 (Lower Density)", CityTier2Tier3, true},
		{"tier3", CityTier2Tier3, true},
		{"rural", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseCityType(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSurfaces(t *testing.T) {
	surfaces := Surfaces()
	require.Len(t, surfaces, 6)
	assert.Equal(t, Surface{Type: SurfaceConcreteRoof, RunoffCoefficient: 0.90}, surfaces[0])
	assert.Equal(t, Surface{Type: SurfaceMetalSheet, RunoffCoefficient: 0.90}, surfaces[1])
	assert.Equal(t, Surface{Type: SurfacePavedArea, RunoffCoefficient: 0.70}, surfaces[5])

	_, ok := SurfaceType("Grass").RunoffCoefficient()
	assert.False(t, ok)
}
