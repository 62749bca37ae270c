package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercurios-ai/inventory-insights/internal/domain"
)

func TestForecastFilterHashDeterministic(t *testing.T) {
	a := domain.ForecastFilter{
		RunDate:    "2024-01-15",
		Action:     "Restock Soon",
		Brands:     []string{"Acme", "Zenith"},
		ArticleIDs: []string{"SKU-2", "SKU-1"},
		Page:       2,
		PageSize:   50,
	}
	b := domain.ForecastFilter{
		RunDate:    "2024-01-15",
		Action:     "restock soon",
		Brands:     []string{"zenith", "acme"},
		ArticleIDs: []string{"sku-1", "SKU-2"},
		Page:       2,
		PageSize:   50,
	}

	// Equivalent filters must map to the same cache key regardless of
	// case and slice order.
	assert.Equal(t, forecastFilterHash(a), forecastFilterHash(b))

	c := b
	c.Page = 3
	assert.NotEqual(t, forecastFilterHash(b), forecastFilterHash(c))

	d := b
	d.Confidence = "High"
	assert.NotEqual(t, forecastFilterHash(b), forecastFilterHash(d))
}

func TestForecastFilterHashEmpty(t *testing.T) {
	assert.Equal(t, "default", forecastFilterHash(domain.ForecastFilter{}))
}

func TestBuildSummaryKey(t *testing.T) {
	assert.Equal(t, "forecast:summary:2024-01-15", buildSummaryKey("2024-01-15"))
	assert.Equal(t, "forecast:summary:latest", buildSummaryKey(""))
}

func TestNoopForecastCache(t *testing.T) {
	ctx := context.Background()
	c := NewNoopForecastCache()

	summary, found, err := c.GetSummary(ctx, "2024-01-15")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, summary)

	require.NoError(t, c.SetSummary(ctx, "2024-01-15", &domain.InsightsSummary{}))

	recs, total, found, err := c.GetRecommendations(ctx, domain.ForecastFilter{})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, recs)
	assert.Equal(t, 0, total)

	require.NoError(t, c.InvalidateAll(ctx))
}
