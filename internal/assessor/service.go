// Package assessor resolves groundwater context for a site and runs the
// recommendation and design engines. HTTP, Kafka and the CLI all assess
// through a Service.
package assessor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/hydro-assess-service/internal/domain"
	"github.com/couchcryptid/hydro-assess-service/internal/observability"
)

// Service assesses sites against a fixed rate table.
type Service struct {
	rates    domain.Rates
	provider domain.GroundwaterProvider
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates a Service. Pass a nil provider to resolve missing depths from
// the location estimate only.
func New(rates domain.Rates, provider domain.GroundwaterProvider, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		rates:    rates,
		provider: provider,
		metrics:  metrics,
		logger:   logger,
	}
}

// Rates returns the active rate table.
func (s *Service) Rates() domain.Rates {
	return s.rates
}

// Assess validates in, resolves its groundwater depth and returns the full
// assessment. Invalid input yields an error matching domain.ErrInvalidInput.
func (s *Service) Assess(ctx context.Context, in domain.SiteInput) (domain.Assessment, error) {
	start := time.Now()

	params, gw, err := s.prepare(ctx, in)
	if err != nil {
		return domain.Assessment{}, err
	}
	a := domain.NewAssessment(params, gw, s.rates)

	s.metrics.Assessments.WithLabelValues(string(a.Recommendation.Strategy)).Inc()
	s.metrics.AssessmentDuration.Observe(time.Since(start).Seconds())
	s.logger.Debug("site assessed",
		"id", a.ID,
		"strategy", a.Recommendation.Strategy,
		"groundwater_source", gw.Source,
		"total_cost", a.Design.TotalCost,
	)
	return a, nil
}

// Recommend runs only the recommendation engine.
func (s *Service) Recommend(ctx context.Context, in domain.SiteInput) (domain.Recommendation, error) {
	params, _, err := s.prepare(ctx, in)
	if err != nil {
		return domain.Recommendation{}, err
	}
	return domain.GenerateRecommendation(params, s.rates), nil
}

func (s *Service) prepare(ctx context.Context, in domain.SiteInput) (domain.SiteParameters, domain.GroundwaterData, error) {
	if err := in.Validate(); err != nil {
		s.metrics.AssessmentErrors.WithLabelValues("invalid_input").Inc()
		return domain.SiteParameters{}, domain.GroundwaterData{}, err
	}

	var gw domain.GroundwaterData
	if in.PostMonsoonDepthM != nil {
		gw = domain.ProvidedGroundwater(*in.PostMonsoonDepthM)
		s.metrics.GroundwaterLookups.WithLabelValues(string(domain.GroundwaterProvided), "success").Inc()
	} else {
		gw = s.resolve(ctx, *in.Latitude, *in.Longitude)
	}

	params, err := in.Parameters(gw.PostMonsoonDepthM)
	if err != nil {
		return domain.SiteParameters{}, domain.GroundwaterData{}, err
	}
	return params, gw, nil
}

// Groundwater resolves groundwater data for a coordinate pair.
func (s *Service) Groundwater(ctx context.Context, lat, lon float64) (domain.GroundwaterData, error) {
	if err := domain.ValidateCoordinates(lat, lon); err != nil {
		return domain.GroundwaterData{}, err
	}
	return s.resolve(ctx, lat, lon), nil
}

// resolve asks the station provider and falls back to the location estimate
// when there is no provider or the lookup fails.
func (s *Service) resolve(ctx context.Context, lat, lon float64) domain.GroundwaterData {
	if s.provider == nil {
		s.metrics.GroundwaterLookups.WithLabelValues(string(domain.GroundwaterEstimated), "success").Inc()
		return domain.EstimateGroundwater(lat, lon)
	}

	gw, err := s.provider.Lookup(ctx, lat, lon)
	if err == nil {
		s.metrics.GroundwaterLookups.WithLabelValues(string(gw.Source), "success").Inc()
		return gw
	}

	if errors.Is(err, domain.ErrStationNotFound) {
		s.logger.Debug("no groundwater station, using estimate", "lat", lat, "lon", lon)
	} else {
		s.logger.Warn("groundwater lookup failed, using estimate", "error", err, "lat", lat, "lon", lon)
	}
	s.metrics.GroundwaterLookups.WithLabelValues(string(domain.GroundwaterEstimated), "fallback").Inc()
	return domain.EstimateGroundwater(lat, lon)
}
