package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAggregateDailySalesSumsPerDay(t *testing.T) {
	agg := NewAggregator(day(2024, 3, 15), 0)

	lines := []SaleLine{
		{ArticleID: "A", SaleDate: day(2024, 3, 10), Quantity: 2},
		{ArticleID: "A", SaleDate: day(2024, 3, 10), Quantity: 3},
		{ArticleID: "A", SaleDate: day(2024, 3, 12), Quantity: 1},
		{ArticleID: "B", SaleDate: day(2024, 3, 11), Quantity: 7},
		{ArticleID: "", SaleDate: day(2024, 3, 11), Quantity: 99},
	}

	series := agg.AggregateDailySales(lines)

	require.Len(t, series, 2)
	require.Len(t, series["A"], 2)
	assert.Equal(t, 5.0, series["A"][0].Quantity)
	assert.Equal(t, day(2024, 3, 10), series["A"][0].Day)
	assert.Equal(t, 1.0, series["A"][1].Quantity)
	assert.Equal(t, 7.0, series["B"][0].Quantity)
}

func TestAggregateDailySalesWindowCutoff(t *testing.T) {
	agg := NewAggregator(day(2024, 3, 15), 7)

	lines := []SaleLine{
		{ArticleID: "A", SaleDate: day(2024, 3, 1), Quantity: 10},
		{ArticleID: "A", SaleDate: day(2024, 3, 12), Quantity: 4},
		{ArticleID: "A", SaleDate: day(2024, 3, 20), Quantity: 6},
	}

	series := agg.AggregateDailySales(lines)

	// Only the sale inside the trailing window and at or before the
	// snapshot date survives.
	require.Len(t, series["A"], 1)
	assert.Equal(t, 4.0, series["A"][0].Quantity)
}

func TestComputeVelocityStatsActiveDaysOnly(t *testing.T) {
	agg := NewAggregator(day(2024, 3, 15), 0)

	series := []DailySales{
		{ArticleID: "A", Day: day(2024, 3, 1), Quantity: 2},
		{ArticleID: "A", Day: day(2024, 3, 5), Quantity: 4},
		{ArticleID: "A", Day: day(2024, 3, 9), Quantity: 6},
	}

	stats := agg.ComputeVelocityStats(series)

	assert.Equal(t, 3, stats.DaysWithSales)
	// Mean over the three selling days, not over the nine calendar days.
	require.True(t, stats.AvgDailySales.Valid)
	assert.InDelta(t, 4.0, stats.AvgDailySales.Float64, 1e-9)
	require.True(t, stats.MedianDailySales.Valid)
	assert.InDelta(t, 4.0, stats.MedianDailySales.Float64, 1e-9)
	require.True(t, stats.StddevDailySales.Valid)
	assert.InDelta(t, 2.0, stats.StddevDailySales.Float64, 1e-9)
	assert.Equal(t, day(2024, 3, 1), stats.FirstSaleDate.Time)
	assert.Equal(t, day(2024, 3, 9), stats.LastSaleDate.Time)
}

func TestComputeVelocityStatsInterpolatedPercentile(t *testing.T) {
	agg := NewAggregator(day(2024, 3, 15), 0)

	series := []DailySales{
		{Day: day(2024, 3, 1), Quantity: 1},
		{Day: day(2024, 3, 2), Quantity: 2},
		{Day: day(2024, 3, 3), Quantity: 3},
		{Day: day(2024, 3, 4), Quantity: 4},
	}

	stats := agg.ComputeVelocityStats(series)

	// percentile_cont semantics: p90 of {1,2,3,4} interpolates at rank 2.7.
	assert.InDelta(t, 3.7, stats.P90DailySales.Float64, 1e-9)
	assert.InDelta(t, 2.5, stats.MedianDailySales.Float64, 1e-9)
}

func TestComputeVelocityStatsSingleObservation(t *testing.T) {
	agg := NewAggregator(day(2024, 3, 15), 0)

	stats := agg.ComputeVelocityStats([]DailySales{
		{Day: day(2024, 3, 1), Quantity: 5},
	})

	assert.Equal(t, 1, stats.DaysWithSales)
	assert.InDelta(t, 5.0, stats.AvgDailySales.Float64, 1e-9)
	// Sample standard deviation is undefined for one observation.
	assert.False(t, stats.StddevDailySales.Valid)
}

func TestComputeVelocityStatsEmptySeries(t *testing.T) {
	agg := NewAggregator(day(2024, 3, 15), 0)

	stats := agg.ComputeVelocityStats(nil)

	assert.Equal(t, 0, stats.DaysWithSales)
	assert.False(t, stats.AvgDailySales.Valid)
	assert.False(t, stats.MedianDailySales.Valid)
	assert.False(t, stats.StddevDailySales.Valid)
	assert.False(t, stats.FirstSaleDate.Valid)
}

func TestVelocityStatsByArticle(t *testing.T) {
	agg := NewAggregator(day(2024, 3, 15), 0)

	lines := []SaleLine{
		{ArticleID: "A", SaleDate: day(2024, 3, 1), Quantity: 2},
		{ArticleID: "A", SaleDate: day(2024, 3, 2), Quantity: 4},
		{ArticleID: "B", SaleDate: day(2024, 3, 2), Quantity: 1},
	}

	stats := agg.VelocityStatsByArticle(lines)

	require.Len(t, stats, 2)
	assert.Equal(t, 2, stats["A"].DaysWithSales)
	assert.InDelta(t, 3.0, stats["A"].AvgDailySales.Float64, 1e-9)
	assert.Equal(t, 1, stats["B"].DaysWithSales)
}
