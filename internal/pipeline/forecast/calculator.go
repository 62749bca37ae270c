package forecast

import (
	"math"

	"github.com/mercurios-ai/inventory-insights/internal/domain"
)

// PolicyParams holds the tunable replenishment-policy constants. The ordering
// cost and holding-cost rate feed the EOQ formula; lead time and service
// level feed safety stock and reorder point.
type PolicyParams struct {
	LeadTimeDays    float64
	ServiceLevelZ   float64
	OrderingCost    float64
	HoldingCostRate float64
}

// DefaultPolicyParams returns the standard policy: 7-day replenishment lead
// time, 95% service level (z ~ 1.65), fixed ordering cost of 10 and an annual
// holding cost of 20% of unit cost.
func DefaultPolicyParams() PolicyParams {
	return PolicyParams{
		LeadTimeDays:    7,
		ServiceLevelZ:   1.65,
		OrderingCost:    10,
		HoldingCostRate: 0.2,
	}
}

// Fixed policy thresholds. Online engagement is a leading indicator used to
// correct the lagging sales-velocity estimate; the thresholds and correction
// factors are rule constants, not learned parameters.
const (
	hotPageViews      = 100
	warmPageViews     = 50
	coldPageViews     = 10
	interestPageViews = 20

	hotConversionRate  = 0.03
	warmConversionRate = 0.02

	hotUplift    = 1.2
	warmUplift   = 1.1
	coldDiscount = 0.9

	// Conservative daily-rate constants for articles without sales history.
	newProductForecast = 0.5
	minimumForecast    = 0.1

	interestOnlyReorderPoint = 5
	defaultReorderPoint      = 2
	interestOnlyOrderQty     = 10
	defaultOrderQty          = 5

	salesDaysPerYear = 365

	overstockHorizonDays  = 90
	overstockFactor       = 1.5
	noHistoryOverstockQty = 10

	// Upstream label from the inventory snapshot feed.
	healthyStockStatus = "Healthy Stock"

	stableCVThreshold       = 0.5
	highConfidenceMinDays   = 60
	mediumConfidenceMinDays = 30
)

// dailyForecastRules blends the sales-velocity baseline with the online
// interest signal. First match wins; the cascade ends in a minimal floor so
// the forecast is never null.
var dailyForecastRules = ruleTable[float64]{
	name: "adjusted_daily_forecast",
	rules: []rule[float64]{
		{
			name: "hot_interest_uplift",
			when: func(in ruleInput) bool {
				return gtVal(in.Position.Signal.PageViews, hotPageViews) &&
					gtVal(in.Position.Signal.OnlineConversionRate, hotConversionRate) &&
					gtVal(in.Position.Stats.AvgDailySales, 0)
			},
			then: func(in ruleInput) float64 { return in.Position.Stats.AvgDailySales.Float64 * hotUplift },
		},
		{
			name: "warm_interest_uplift",
			when: func(in ruleInput) bool {
				return gtVal(in.Position.Signal.PageViews, warmPageViews) &&
					gtVal(in.Position.Signal.OnlineConversionRate, warmConversionRate) &&
					gtVal(in.Position.Stats.AvgDailySales, 0)
			},
			then: func(in ruleInput) float64 { return in.Position.Stats.AvgDailySales.Float64 * warmUplift },
		},
		{
			name: "cold_interest_discount",
			when: func(in ruleInput) bool {
				return ltVal(in.Position.Signal.PageViews, coldPageViews) &&
					gtVal(in.Position.Stats.AvgDailySales, 0)
			},
			then: func(in ruleInput) float64 { return in.Position.Stats.AvgDailySales.Float64 * coldDiscount },
		},
		{
			name: "velocity_baseline",
			when: func(in ruleInput) bool { return gtVal(in.Position.Stats.AvgDailySales, 0) },
			then: func(in ruleInput) float64 { return in.Position.Stats.AvgDailySales.Float64 },
		},
		{
			name: "new_product_with_interest",
			when: func(in ruleInput) bool { return gtVal(in.Position.Signal.PageViews, interestPageViews) },
			then: func(in ruleInput) float64 { return newProductForecast },
		},
	},
	defName: "minimum_floor",
	def:     func(in ruleInput) float64 { return minimumForecast },
}

var safetyStockRules = ruleTable[float64]{
	name: "safety_stock",
	rules: []rule[float64]{
		{
			name: "demand_variability",
			when: func(in ruleInput) bool { return gtVal(in.Position.Stats.StddevDailySales, 0) },
			then: func(in ruleInput) float64 {
				return in.Position.Stats.StddevDailySales.Float64 *
					math.Sqrt(in.Params.LeadTimeDays) * in.Params.ServiceLevelZ
			},
		},
		{
			// Variance unknown but a meaningful mean exists: hold half the
			// lead-time demand rate as buffer.
			name: "mean_fallback",
			when: func(in ruleInput) bool { return gtVal(in.Position.Stats.AvgDailySales, 1) },
			then: func(in ruleInput) float64 {
				return in.Position.Stats.AvgDailySales.Float64 * 0.5 * math.Sqrt(in.Params.LeadTimeDays)
			},
		},
	},
	defName: "unknown_demand_floor",
	def:     func(in ruleInput) float64 { return 1 },
}

var reorderPointRules = ruleTable[float64]{
	name: "reorder_point",
	rules: []rule[float64]{
		{
			name: "lead_time_demand",
			when: func(in ruleInput) bool { return gtVal(in.Position.Stats.AvgDailySales, 0) },
			then: func(in ruleInput) float64 {
				return in.Position.Stats.AvgDailySales.Float64*in.Params.LeadTimeDays +
					orZero(in.Position.Stats.StddevDailySales)*
						math.Sqrt(in.Params.LeadTimeDays)*in.Params.ServiceLevelZ
			},
		},
		{
			name: "interest_only",
			when: func(in ruleInput) bool { return gtVal(in.Position.Signal.PageViews, interestPageViews) },
			then: func(in ruleInput) float64 { return interestOnlyReorderPoint },
		},
	},
	defName: "no_signal_floor",
	def:     func(in ruleInput) float64 { return defaultReorderPoint },
}

var orderQuantityRules = ruleTable[float64]{
	name: "economic_order_quantity",
	rules: []rule[float64]{
		{
			// Annualized EOQ. A zero or missing unit cost would divide by
			// zero, so it routes to the conservative branches below.
			name: "eoq_formula",
			when: func(in ruleInput) bool {
				return gtVal(in.Position.Stats.AvgDailySales, 0) && in.Position.CostPrice > 0
			},
			then: func(in ruleInput) float64 {
				annualDemand := salesDaysPerYear * in.Position.Stats.AvgDailySales.Float64
				return math.Sqrt(2 * annualDemand * in.Params.OrderingCost /
					(in.Params.HoldingCostRate * in.Position.CostPrice))
			},
		},
		{
			name: "interest_only",
			when: func(in ruleInput) bool { return gtVal(in.Position.Signal.PageViews, interestPageViews) },
			then: func(in ruleInput) float64 { return interestOnlyOrderQty },
		},
	},
	defName: "no_signal_floor",
	def:     func(in ruleInput) float64 { return defaultOrderQty },
}

var inventoryActionRules = ruleTable[string]{
	name: "inventory_action",
	rules: []rule[string]{
		{
			name: "depleted_with_demand",
			when: func(in ruleInput) bool {
				return in.Position.CurrentInventory <= 0 &&
					(gtVal(in.Position.Stats.AvgDailySales, 0) ||
						gtVal(in.Position.Signal.PageViews, interestPageViews))
			},
			then: func(in ruleInput) string { return domain.ActionRestockImmediately },
		},
		{
			name: "below_reorder_point",
			when: func(in ruleInput) bool { return in.Position.CurrentInventory < in.Metrics.ReorderPoint },
			then: func(in ruleInput) string { return domain.ActionRestockSoon },
		},
		{
			name: "overstocked",
			when: func(in ruleInput) bool {
				if gtVal(in.Position.Stats.AvgDailySales, 0) {
					threshold := in.Position.Stats.AvgDailySales.Float64 * overstockHorizonDays * overstockFactor
					return in.Position.CurrentInventory > threshold
				}
				return in.Position.CurrentInventory > noHistoryOverstockQty
			},
			then: func(in ruleInput) string { return domain.ActionOverstocked },
		},
		{
			name: "healthy_upstream_label",
			when: func(in ruleInput) bool { return in.Position.InventoryStatus == healthyStockStatus },
			then: func(in ruleInput) string { return domain.ActionMaintain },
		},
	},
	defName: "monitor",
	def:     func(in ruleInput) string { return domain.ActionMonitor },
}

var confidenceRules = ruleTable[string]{
	name: "forecast_confidence",
	rules: []rule[string]{
		{
			// Long, stable history. The coefficient-of-variation check is
			// guarded: a null or zero mean can never reach the division.
			name: "long_stable_history",
			when: func(in ruleInput) bool {
				if in.Position.Stats.DaysWithSales <= highConfidenceMinDays {
					return false
				}
				if !gtVal(in.Position.Stats.AvgDailySales, 0) || !in.Position.Stats.StddevDailySales.Valid {
					return false
				}
				cv := in.Position.Stats.StddevDailySales.Float64 / in.Position.Stats.AvgDailySales.Float64
				return cv < stableCVThreshold
			},
			then: func(in ruleInput) string { return domain.ConfidenceHigh },
		},
		{
			name: "moderate_history_or_engaged",
			when: func(in ruleInput) bool {
				return in.Position.Stats.DaysWithSales > mediumConfidenceMinDays ||
					(gtVal(in.Position.Signal.PageViews, warmPageViews) &&
						gtVal(in.Position.Signal.OnlineConversionRate, 0))
			},
			then: func(in ruleInput) string { return domain.ConfidenceMedium },
		},
		{
			name: "any_signal",
			when: func(in ruleInput) bool {
				return in.Position.Stats.DaysWithSales > 0 || gtVal(in.Position.Signal.PageViews, 0)
			},
			then: func(in ruleInput) string { return domain.ConfidenceLow },
		},
	},
	defName: "no_signal",
	def:     func(in ruleInput) string { return domain.ConfidenceVeryLow },
}

// Calculator computes forecast and replenishment metrics for assembled
// article positions. It is stateless; Calculate is a pure function of its
// input and the policy parameters.
type Calculator struct {
	params PolicyParams
}

// NewCalculator creates a new forecast calculator.
func NewCalculator(params PolicyParams) *Calculator {
	return &Calculator{params: params}
}

// Calculate computes all forecast metrics for one article position.
func (c *Calculator) Calculate(p *Position) Metrics {
	m := Metrics{}
	in := ruleInput{Position: p, Params: c.params, Metrics: &m}

	// 1. Adjusted daily demand forecast (interest-corrected velocity)
	m.AdjustedDailySalesForecast, _ = dailyForecastRules.eval(in)

	// 2. Safety stock for the lead-time window
	m.SafetyStock, _ = safetyStockRules.eval(in)

	// 3. Reorder point = lead-time demand + safety margin
	m.ReorderPoint, _ = reorderPointRules.eval(in)

	// 4. Economic order quantity
	m.EconomicOrderQuantity, _ = orderQuantityRules.eval(in)

	// 5. Horizon forecasts share the step-1 daily rate
	m.Forecast30Days = m.AdjustedDailySalesForecast * 30
	m.Forecast60Days = m.AdjustedDailySalesForecast * 60
	m.Forecast90Days = m.AdjustedDailySalesForecast * 90

	// 6. Stocking action classification
	m.InventoryAction, _ = inventoryActionRules.eval(in)

	// 7. Forecast confidence
	m.ForecastConfidence, _ = confidenceRules.eval(in)

	return m
}
