package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mercurios-ai/inventory-insights/internal/cache"
	"github.com/mercurios-ai/inventory-insights/internal/domain"
	"github.com/mercurios-ai/inventory-insights/internal/repository"
)

type ForecastService struct {
	repo  repository.ForecastRepository
	cache cache.ForecastCache
}

func NewForecastService(repo repository.ForecastRepository, cacheImpl cache.ForecastCache) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	return &ForecastService{repo: repo, cache: cacheImpl}
}

func (s *ForecastService) GetRecommendations(ctx context.Context, filter domain.ForecastFilter) ([]domain.Recommendation, int, error) {
	if recs, total, ok, err := s.cache.GetRecommendations(ctx, filter); err == nil && ok {
		return recs, total, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: cache get recommendations failed")
	}

	recs, total, err := s.repo.GetRecommendations(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	if err := s.cache.SetRecommendations(ctx, filter, recs, total); err != nil {
		log.Warn().Err(err).Msg("forecast: cache set recommendations failed")
	}

	return recs, total, nil
}

func (s *ForecastService) GetReorderRecommendations(ctx context.Context, filter domain.ForecastFilter) ([]domain.Recommendation, error) {
	return s.repo.GetReorderRecommendations(ctx, filter)
}

func (s *ForecastService) GetForecastByArticle(ctx context.Context, articleID, runDate string) (*domain.ArticleForecast, error) {
	return s.repo.GetForecastByArticle(ctx, articleID, runDate)
}

func (s *ForecastService) GetSummary(ctx context.Context, runDate string) (*domain.InsightsSummary, error) {
	if summary, ok, err := s.cache.GetSummary(ctx, runDate); err == nil && ok {
		return summary, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: cache get summary failed")
	}

	summary, err := s.repo.GetSummary(ctx, runDate)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetSummary(ctx, runDate, summary); err != nil {
		log.Warn().Err(err).Msg("forecast: cache set summary failed")
	}

	return summary, nil
}

func (s *ForecastService) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	return s.repo.GetAvailableDates(ctx, limit)
}

// InvalidateCache drops all cached forecast views. Called after a pipeline run
// replaces the rows for a date.
func (s *ForecastService) InvalidateCache(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("forecast: cache invalidation failed")
	}
}
