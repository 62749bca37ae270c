package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercurios-ai/inventory-insights/internal/domain"
	"github.com/mercurios-ai/inventory-insights/internal/service"
)

type stubRepository struct {
	lastFilter domain.ForecastFilter
	err        error
}

func (s *stubRepository) GetRecommendations(ctx context.Context, filter domain.ForecastFilter) ([]domain.Recommendation, int, error) {
	s.lastFilter = filter
	if s.err != nil {
		return nil, 0, s.err
	}
	return []domain.Recommendation{{ArticleID: "SKU-1", RecommendationType: domain.RecommendationRestock}}, 1, nil
}

func (s *stubRepository) GetReorderRecommendations(ctx context.Context, filter domain.ForecastFilter) ([]domain.Recommendation, error) {
	s.lastFilter = filter
	return []domain.Recommendation{{ArticleID: "SKU-1"}, {ArticleID: "SKU-2"}}, s.err
}

func (s *stubRepository) GetForecastByArticle(ctx context.Context, articleID, runDate string) (*domain.ArticleForecast, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ArticleForecast{ArticleID: articleID}, nil
}

func (s *stubRepository) GetSummary(ctx context.Context, runDate string) (*domain.InsightsSummary, error) {
	return &domain.InsightsSummary{RunDate: runDate}, s.err
}

func (s *stubRepository) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	return []time.Time{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}, s.err
}

func newTestRouter(repo *stubRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := NewInsightsHandler(service.NewForecastService(repo, nil))

	router := gin.New()
	insights := router.Group("/api/v1/insights")
	{
		insights.GET("/recommendations", handler.GetRecommendations)
		insights.GET("/recommendations/reorder", handler.GetReorderRecommendations)
		insights.GET("/forecast/:article_id", handler.GetForecast)
		insights.GET("/summary", handler.GetSummary)
		insights.GET("/available_dates", handler.GetAvailableDates)
	}
	return router
}

func doRequest(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestGetRecommendations(t *testing.T) {
	repo := &stubRepository{}
	router := newTestRouter(repo)

	w, body := doRequest(t, router, "/api/v1/insights/recommendations?page=2&page_size=10")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, float64(2), body["page"])
	assert.Equal(t, float64(10), body["page_size"])
	assert.Equal(t, 2, repo.lastFilter.Page)
	assert.Equal(t, 10, repo.lastFilter.PageSize)
}

func TestGetRecommendationsFilterParsing(t *testing.T) {
	repo := &stubRepository{}
	router := newTestRouter(repo)

	w, _ := doRequest(t, router,
		"/api/v1/insights/recommendations?run_date=2024-01-15&action=Restock+Soon&recommendation_type=restock&brands=Acme,+Zenith&article_ids=SKU-1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-01-15", repo.lastFilter.RunDate)
	assert.Equal(t, "Restock Soon", repo.lastFilter.Action)
	assert.Equal(t, "RESTOCK", repo.lastFilter.RecommendationType)
	assert.Equal(t, []string{"Acme", "Zenith"}, repo.lastFilter.Brands)
	assert.Equal(t, []string{"SKU-1"}, repo.lastFilter.ArticleIDs)
}

func TestGetRecommendationsRejectsInvalidFilters(t *testing.T) {
	router := newTestRouter(&stubRepository{})

	w, _ := doRequest(t, router, "/api/v1/insights/recommendations?action=Explode")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, router, "/api/v1/insights/recommendations?recommendation_type=SELL")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetReorderRecommendations(t *testing.T) {
	router := newTestRouter(&stubRepository{})

	w, body := doRequest(t, router, "/api/v1/insights/recommendations/reorder")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["total"])
}

func TestGetForecast(t *testing.T) {
	router := newTestRouter(&stubRepository{})

	w, body := doRequest(t, router, "/api/v1/insights/forecast/SKU-1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SKU-1", body["article_id"])
}

func TestGetForecastNotFound(t *testing.T) {
	router := newTestRouter(&stubRepository{err: sql.ErrNoRows})

	w, _ := doRequest(t, router, "/api/v1/insights/forecast/SKU-404")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSummary(t *testing.T) {
	router := newTestRouter(&stubRepository{})

	w, body := doRequest(t, router, "/api/v1/insights/summary?run_date=2024-01-15")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-01-15", body["run_date"])
}

func TestGetAvailableDates(t *testing.T) {
	router := newTestRouter(&stubRepository{})

	w, body := doRequest(t, router, "/api/v1/insights/available_dates")

	assert.Equal(t, http.StatusOK, w.Code)
	dates, ok := body["dates"].([]interface{})
	require.True(t, ok)
	assert.Len(t, dates, 1)
}
