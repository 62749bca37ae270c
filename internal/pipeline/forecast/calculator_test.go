package forecast

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercurios-ai/inventory-insights/internal/domain"
)

func validFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func positionWithHistory(inventory, avgDaily float64, daysWithSales int) *Position {
	return &Position{
		ArticleID:        "A-1",
		CurrentInventory: inventory,
		CostPrice:        20,
		Stats: VelocityStats{
			AvgDailySales: validFloat(avgDaily),
			DaysWithSales: daysWithSales,
		},
	}
}

func TestCalculateNewProductWithInterest(t *testing.T) {
	calc := NewCalculator(DefaultPolicyParams())

	p := &Position{
		ArticleID:        "NEW-1",
		CurrentInventory: 0,
		Signal: InterestSignal{
			PageViews: validFloat(25),
		},
	}

	m := calc.Calculate(p)

	assert.Equal(t, 0.5, m.AdjustedDailySalesForecast)
	assert.Equal(t, 5.0, m.ReorderPoint)
	assert.Equal(t, 10.0, m.EconomicOrderQuantity)
	assert.Equal(t, 15.0, m.Forecast30Days)
	assert.Equal(t, domain.ActionRestockImmediately, m.InventoryAction)
}

func TestCalculateNoSignalFloors(t *testing.T) {
	calc := NewCalculator(DefaultPolicyParams())

	p := &Position{
		ArticleID:        "DEAD-1",
		CurrentInventory: 5,
	}

	m := calc.Calculate(p)

	assert.Equal(t, 0.1, m.AdjustedDailySalesForecast)
	assert.Equal(t, 1.0, m.SafetyStock)
	assert.Equal(t, 2.0, m.ReorderPoint)
	assert.Equal(t, 5.0, m.EconomicOrderQuantity)
	assert.Equal(t, domain.ConfidenceVeryLow, m.ForecastConfidence)
	assert.Equal(t, domain.ActionMonitor, m.InventoryAction)
}

func TestCalculateDepletedWithDemand(t *testing.T) {
	calc := NewCalculator(DefaultPolicyParams())

	p := positionWithHistory(0, 5, 40)
	m := calc.Calculate(p)

	assert.Equal(t, domain.ActionRestockImmediately, m.InventoryAction)
	assert.Equal(t, 5.0, m.AdjustedDailySalesForecast)
}

func TestCalculateHotInterestUplift(t *testing.T) {
	calc := NewCalculator(DefaultPolicyParams())

	p := positionWithHistory(500, 10, 45)
	p.Signal = InterestSignal{
		PageViews:            validFloat(150),
		OnlineConversionRate: validFloat(0.04),
	}

	m := calc.Calculate(p)

	assert.InDelta(t, 12.0, m.AdjustedDailySalesForecast, 1e-9)
	assert.InDelta(t, 360.0, m.Forecast30Days, 1e-9)
}

func TestCalculateWarmAndColdInterest(t *testing.T) {
	calc := NewCalculator(DefaultPolicyParams())

	warm := positionWithHistory(500, 10, 45)
	warm.Signal = InterestSignal{
		PageViews:            validFloat(60),
		OnlineConversionRate: validFloat(0.025),
	}
	assert.InDelta(t, 11.0, calc.Calculate(warm).AdjustedDailySalesForecast, 1e-9)

	cold := positionWithHistory(500, 10, 45)
	cold.Signal = InterestSignal{
		PageViews: validFloat(4),
	}
	assert.InDelta(t, 9.0, calc.Calculate(cold).AdjustedDailySalesForecast, 1e-9)
}

func TestCalculateNullSignalIsNotZero(t *testing.T) {
	calc := NewCalculator(DefaultPolicyParams())

	// A null page-view count is unknown interest. It must not fire the
	// low-interest discount the way an actual measured zero would.
	withNull := positionWithHistory(500, 10, 45)
	assert.InDelta(t, 10.0, calc.Calculate(withNull).AdjustedDailySalesForecast, 1e-9)

	withZero := positionWithHistory(500, 10, 45)
	withZero.Signal = InterestSignal{PageViews: validFloat(0)}
	assert.InDelta(t, 9.0, calc.Calculate(withZero).AdjustedDailySalesForecast, 1e-9)
}

func TestCalculateOverstocked(t *testing.T) {
	calc := NewCalculator(DefaultPolicyParams())

	p := positionWithHistory(2000, 10, 45)
	m := calc.Calculate(p)

	// 2000 on hand against a 90-day demand of 900 with a 1.5x allowance.
	assert.Equal(t, domain.ActionOverstocked, m.InventoryAction)
}

func TestCalculateOverstockedWithoutHistory(t *testing.T) {
	calc := NewCalculator(DefaultPolicyParams())

	p := &Position{ArticleID: "SLOW-1", CurrentInventory: 50}
	m := calc.Calculate(p)

	assert.Equal(t, domain.ActionOverstocked, m.InventoryAction)
}

func TestCalculateMaintainFollowsUpstreamLabel(t *testing.T) {
	calc := NewCalculator(DefaultPolicyParams())

	p := positionWithHistory(200, 2, 45)
	p.InventoryStatus = "Healthy Stock"
	m := calc.Calculate(p)

	assert.Equal(t, domain.ActionMaintain, m.InventoryAction)
}

func TestCalculateSafetyStockFromVariability(t *testing.T) {
	params := DefaultPolicyParams()
	calc := NewCalculator(params)

	p := positionWithHistory(100, 20, 90)
	p.Stats.StddevDailySales = validFloat(5)

	m := calc.Calculate(p)

	// stddev * sqrt(lead time) * z
	assert.InDelta(t, 5*2.6457513110645907*1.65, m.SafetyStock, 1e-6)
	assert.InDelta(t, 20*7+m.SafetyStock, m.ReorderPoint, 1e-6)
}

func TestCalculateConfidenceLevels(t *testing.T) {
	calc := NewCalculator(DefaultPolicyParams())

	high := positionWithHistory(100, 20, 90)
	high.Stats.StddevDailySales = validFloat(5)
	assert.Equal(t, domain.ConfidenceHigh, calc.Calculate(high).ForecastConfidence)

	// Same history length but erratic demand drops out of High.
	erratic := positionWithHistory(100, 20, 90)
	erratic.Stats.StddevDailySales = validFloat(15)
	assert.Equal(t, domain.ConfidenceMedium, calc.Calculate(erratic).ForecastConfidence)

	medium := positionWithHistory(100, 5, 40)
	assert.Equal(t, domain.ConfidenceMedium, calc.Calculate(medium).ForecastConfidence)

	low := positionWithHistory(100, 5, 10)
	assert.Equal(t, domain.ConfidenceLow, calc.Calculate(low).ForecastConfidence)

	engaged := &Position{
		ArticleID: "ENG-1",
		Signal: InterestSignal{
			PageViews:            validFloat(80),
			OnlineConversionRate: validFloat(0.001),
		},
	}
	assert.Equal(t, domain.ConfidenceMedium, calc.Calculate(engaged).ForecastConfidence)
}

func TestCalculateHorizonsScaleFromDailyRate(t *testing.T) {
	calc := NewCalculator(DefaultPolicyParams())

	cases := []*Position{
		positionWithHistory(100, 7.3, 45),
		positionWithHistory(0, 0.4, 3),
		{ArticleID: "N-1", Signal: InterestSignal{PageViews: validFloat(30)}},
		{ArticleID: "N-2"},
	}

	for _, p := range cases {
		m := calc.Calculate(p)
		assert.InDelta(t, m.AdjustedDailySalesForecast*30, m.Forecast30Days, 1e-9)
		assert.InDelta(t, m.Forecast30Days*2, m.Forecast60Days, 1e-9)
		assert.InDelta(t, m.Forecast30Days*3, m.Forecast90Days, 1e-9)
	}
}

func TestCalculateTotality(t *testing.T) {
	calc := NewCalculator(DefaultPolicyParams())

	histories := []VelocityStats{
		{},
		{AvgDailySales: validFloat(6), StddevDailySales: validFloat(2), DaysWithSales: 70},
	}
	signals := []InterestSignal{
		{},
		{PageViews: validFloat(120), OnlineConversionRate: validFloat(0.05)},
	}
	inventories := []float64{0, 40}

	for _, stats := range histories {
		for _, signal := range signals {
			for _, inv := range inventories {
				p := &Position{
					ArticleID:        "GRID",
					CurrentInventory: inv,
					CostPrice:        15,
					Stats:            stats,
					Signal:           signal,
				}

				m := calc.Calculate(p)

				require.Greater(t, m.AdjustedDailySalesForecast, 0.0)
				require.Greater(t, m.SafetyStock, 0.0)
				require.Greater(t, m.ReorderPoint, 0.0)
				require.Greater(t, m.EconomicOrderQuantity, 0.0)
				require.True(t, domain.IsValidAction(m.InventoryAction))
				require.Contains(t, []string{
					domain.ConfidenceHigh,
					domain.ConfidenceMedium,
					domain.ConfidenceLow,
					domain.ConfidenceVeryLow,
				}, m.ForecastConfidence)
			}
		}
	}
}
