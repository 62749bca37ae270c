package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercurios-ai/inventory-insights/internal/domain"
)

type stubRepository struct {
	recommendations []domain.Recommendation
	total           int
	summary         *domain.InsightsSummary
	dates           []time.Time
	err             error

	recommendationCalls int
	summaryCalls        int
}

func (s *stubRepository) GetRecommendations(ctx context.Context, filter domain.ForecastFilter) ([]domain.Recommendation, int, error) {
	s.recommendationCalls++
	return s.recommendations, s.total, s.err
}

func (s *stubRepository) GetReorderRecommendations(ctx context.Context, filter domain.ForecastFilter) ([]domain.Recommendation, error) {
	return s.recommendations, s.err
}

func (s *stubRepository) GetForecastByArticle(ctx context.Context, articleID, runDate string) (*domain.ArticleForecast, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ArticleForecast{ArticleID: articleID}, nil
}

func (s *stubRepository) GetSummary(ctx context.Context, runDate string) (*domain.InsightsSummary, error) {
	s.summaryCalls++
	return s.summary, s.err
}

func (s *stubRepository) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	return s.dates, s.err
}

type stubCache struct {
	recommendations []domain.Recommendation
	total           int
	summary         *domain.InsightsSummary
	hit             bool
	getErr          error

	setRecommendationCalls int
	setSummaryCalls        int
	invalidations          int
}

func (c *stubCache) GetSummary(ctx context.Context, runDate string) (*domain.InsightsSummary, bool, error) {
	return c.summary, c.hit, c.getErr
}

func (c *stubCache) SetSummary(ctx context.Context, runDate string, summary *domain.InsightsSummary) error {
	c.setSummaryCalls++
	return nil
}

func (c *stubCache) GetRecommendations(ctx context.Context, filter domain.ForecastFilter) ([]domain.Recommendation, int, bool, error) {
	return c.recommendations, c.total, c.hit, c.getErr
}

func (c *stubCache) SetRecommendations(ctx context.Context, filter domain.ForecastFilter, recs []domain.Recommendation, total int) error {
	c.setRecommendationCalls++
	return nil
}

func (c *stubCache) InvalidateAll(ctx context.Context) error {
	c.invalidations++
	return nil
}

func TestGetRecommendationsCacheMiss(t *testing.T) {
	repo := &stubRepository{
		recommendations: []domain.Recommendation{{ArticleID: "SKU-1"}},
		total:           1,
	}
	cacheStub := &stubCache{}
	svc := NewForecastService(repo, cacheStub)

	recs, total, err := svc.GetRecommendations(context.Background(), domain.ForecastFilter{})

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, repo.recommendationCalls)
	assert.Equal(t, 1, cacheStub.setRecommendationCalls)
}

func TestGetRecommendationsCacheHitSkipsRepository(t *testing.T) {
	repo := &stubRepository{}
	cacheStub := &stubCache{
		recommendations: []domain.Recommendation{{ArticleID: "SKU-1"}},
		total:           1,
		hit:             true,
	}
	svc := NewForecastService(repo, cacheStub)

	recs, total, err := svc.GetRecommendations(context.Background(), domain.ForecastFilter{})

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, recs, 1)
	assert.Equal(t, 0, repo.recommendationCalls)
}

func TestGetRecommendationsCacheErrorFallsThrough(t *testing.T) {
	repo := &stubRepository{
		recommendations: []domain.Recommendation{{ArticleID: "SKU-1"}},
		total:           1,
	}
	cacheStub := &stubCache{getErr: errors.New("redis down")}
	svc := NewForecastService(repo, cacheStub)

	_, total, err := svc.GetRecommendations(context.Background(), domain.ForecastFilter{})

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, repo.recommendationCalls)
}

func TestGetSummaryCacheAside(t *testing.T) {
	repo := &stubRepository{summary: &domain.InsightsSummary{RunDate: "2024-01-15"}}
	cacheStub := &stubCache{}
	svc := NewForecastService(repo, cacheStub)

	summary, err := svc.GetSummary(context.Background(), "2024-01-15")

	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", summary.RunDate)
	assert.Equal(t, 1, cacheStub.setSummaryCalls)

	cacheStub.summary = summary
	cacheStub.hit = true
	_, err = svc.GetSummary(context.Background(), "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.summaryCalls)
}

func TestRepositoryErrorPropagates(t *testing.T) {
	repo := &stubRepository{err: errors.New("db unavailable")}
	svc := NewForecastService(repo, nil)

	_, _, err := svc.GetRecommendations(context.Background(), domain.ForecastFilter{})
	assert.Error(t, err)

	_, err = svc.GetSummary(context.Background(), "")
	assert.Error(t, err)
}

func TestNilCacheDefaultsToNoop(t *testing.T) {
	repo := &stubRepository{total: 2}
	svc := NewForecastService(repo, nil)

	_, total, err := svc.GetRecommendations(context.Background(), domain.ForecastFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	// Must not panic on a nil cache.
	svc.InvalidateCache(context.Background())
}

func TestInvalidateCache(t *testing.T) {
	cacheStub := &stubCache{}
	svc := NewForecastService(&stubRepository{}, cacheStub)

	svc.InvalidateCache(context.Background())
	assert.Equal(t, 1, cacheStub.invalidations)
}
