// Package heatmap builds the district heatmap response: per-district
// indicator values joined to geographic points on standardized district
// names, serialized as a GeoJSON FeatureCollection with match diagnostics.
//
// The pipeline is stateless and re-reads its sources on every call. Missing
// or unreadable data never fails a request; it degrades to an empty
// collection whose metadata explains which stage had no data.
package heatmap

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/medcamp/medcamp/internal/platform/metrics"
)

type Service struct {
	indicators *IndicatorLoader
	geography  *GeoLoader
	logger     zerolog.Logger
}

func NewService(indicators *IndicatorLoader, geography *GeoLoader, logger zerolog.Logger) *Service {
	return &Service{indicators: indicators, geography: geography, logger: logger}
}

// HeatmapData assembles the GeoJSON response for one (state, indicator id)
// query. Geography is only loaded when indicator data exists; the result is
// always a well-formed collection.
func (s *Service) HeatmapData(ctx context.Context, state, indicatorID string) *FeatureCollection {
	start := time.Now()
	standardized := Standardize(state)

	ind, label := s.indicators.Load(ctx, PathKey(standardized), indicatorID)
	var geo *GeoResult
	var districtCol string
	if ind != nil {
		geo, districtCol = s.geography.Load(ctx, standardized)
	}
	fc := Assemble(state, indicatorID, label, geo, ind)

	result := metrics.ResultEmpty
	if len(fc.Features) > 0 {
		result = metrics.ResultSuccess
	}
	metrics.ObserveHeatmap(s.indicators.SourceKind(), result, time.Since(start))
	s.logger.Debug().
		Str("state", state).
		Str("indicator_id", indicatorID).
		Str("district_column", districtCol).
		Int("features", len(fc.Features)).
		Msg("assembled heatmap response")
	return fc
}
