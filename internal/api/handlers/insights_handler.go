package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mercurios-ai/inventory-insights/internal/domain"
	"github.com/mercurios-ai/inventory-insights/internal/service"
)

type InsightsHandler struct {
	service *service.ForecastService
}

func NewInsightsHandler(service *service.ForecastService) *InsightsHandler {
	return &InsightsHandler{service: service}
}

func (h *InsightsHandler) parseFilter(c *gin.Context) domain.ForecastFilter {
	filter := domain.ForecastFilter{
		Page:     1,
		PageSize: 50,
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}

	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil && size > 0 {
		filter.PageSize = size
	}

	if runDate := strings.TrimSpace(c.Query("run_date")); runDate != "" {
		filter.RunDate = runDate
	}

	if action := strings.TrimSpace(c.Query("action")); action != "" {
		filter.Action = action
	}

	if recType := strings.TrimSpace(c.Query("recommendation_type")); recType != "" {
		filter.RecommendationType = strings.ToUpper(recType)
	}

	if confidence := strings.TrimSpace(c.Query("confidence")); confidence != "" {
		filter.Confidence = confidence
	}

	parseStringList := func(param string) []string {
		value := strings.TrimSpace(c.Query(param))
		if value == "" {
			return nil
		}

		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}

	filter.ArticleIDs = parseStringList("article_ids")
	filter.Brands = parseStringList("brands")
	filter.Categories = parseStringList("categories")

	return filter
}

func (h *InsightsHandler) GetRecommendations(c *gin.Context) {
	filter := h.parseFilter(c)

	if filter.Action != "" && !domain.IsValidAction(filter.Action) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action filter", "action": filter.Action})
		return
	}
	if filter.RecommendationType != "" && !domain.IsValidRecommendationType(filter.RecommendationType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recommendation type filter", "recommendation_type": filter.RecommendationType})
		return
	}

	recs, total, err := h.service.GetRecommendations(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recommendations", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recommendations": recs,
		"total":           total,
		"page":            filter.Page,
		"page_size":       filter.PageSize,
	})
}

func (h *InsightsHandler) GetReorderRecommendations(c *gin.Context) {
	filter := h.parseFilter(c)

	recs, err := h.service.GetReorderRecommendations(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reorder recommendations", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recommendations": recs,
		"total":           len(recs),
	})
}

func (h *InsightsHandler) GetForecast(c *gin.Context) {
	articleID := strings.TrimSpace(c.Param("article_id"))
	if articleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article_id is required"})
		return
	}

	runDate := strings.TrimSpace(c.Query("run_date"))

	forecast, err := h.service.GetForecastByArticle(c.Request.Context(), articleID, runDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no forecast found", "article_id": articleID})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch forecast", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, forecast)
}

func (h *InsightsHandler) GetSummary(c *gin.Context) {
	runDate := strings.TrimSpace(c.Query("run_date"))

	summary, err := h.service.GetSummary(c.Request.Context(), runDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch summary", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *InsightsHandler) GetAvailableDates(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if limit <= 0 {
		limit = 30
	}

	dates, err := h.service.GetAvailableDates(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch available dates", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"dates": dates})
}
