// internal/domain/models.go
package domain

import (
	"database/sql"
	"time"
)

// Article represents an entry from the article master feed.
type Article struct {
	ID        int64     `json:"id" db:"id"`
	ArticleID string    `json:"article_id" db:"article_id"`
	Name      string    `json:"name" db:"name"`
	Brand     string    `json:"brand" db:"brand"`
	Category  string    `json:"category" db:"category"`
	CostPrice float64   `json:"cost_price" db:"cost_price"`
	Price     float64   `json:"price" db:"price"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ArticleForecast is one article's forecast snapshot for a run date. It is the
// persisted form of the policy engine's output plus the recommendation fields
// derived from it. A row is fully replaced on every run.
type ArticleForecast struct {
	ID          int64     `json:"id" db:"id"`
	RunDate     time.Time `json:"run_date" db:"run_date"`
	ArticleID   string    `json:"article_id" db:"article_id"`
	ArticleName string    `json:"article_name" db:"article_name"`
	Brand       string    `json:"brand" db:"brand"`
	Category    string    `json:"category" db:"category"`
	CostPrice   float64   `json:"cost_price" db:"cost_price"`

	CurrentInventory  float64         `json:"current_inventory" db:"current_inventory"`
	InventoryValue    float64         `json:"inventory_value" db:"inventory_value"`
	MonthsOfInventory sql.NullFloat64 `json:"months_of_inventory" db:"months_of_inventory"`
	InventoryStatus   string          `json:"inventory_status" db:"inventory_status"`

	AvgDailySales    sql.NullFloat64 `json:"avg_daily_sales" db:"avg_daily_sales"`
	MedianDailySales sql.NullFloat64 `json:"median_daily_sales" db:"median_daily_sales"`
	P90DailySales    sql.NullFloat64 `json:"p90_daily_sales" db:"p90_daily_sales"`
	StddevDailySales sql.NullFloat64 `json:"stddev_daily_sales" db:"stddev_daily_sales"`
	DaysWithSales    int             `json:"days_with_sales" db:"days_with_sales"`
	FirstSaleDate    sql.NullTime    `json:"first_sale_date" db:"first_sale_date"`
	LastSaleDate     sql.NullTime    `json:"last_sale_date" db:"last_sale_date"`

	PageViews            sql.NullFloat64 `json:"page_views" db:"page_views"`
	OnlineUsers          sql.NullFloat64 `json:"online_users" db:"online_users"`
	EngagementRate       sql.NullFloat64 `json:"engagement_rate" db:"engagement_rate"`
	OnlineConversionRate sql.NullFloat64 `json:"online_conversion_rate" db:"online_conversion_rate"`

	AdjustedDailySalesForecast float64 `json:"adjusted_daily_sales_forecast" db:"adjusted_daily_sales_forecast"`
	SafetyStock                float64 `json:"safety_stock" db:"safety_stock"`
	ReorderPoint               float64 `json:"reorder_point" db:"reorder_point"`
	EconomicOrderQuantity      float64 `json:"economic_order_quantity" db:"economic_order_quantity"`
	Forecast30Days             float64 `json:"forecast_30_days" db:"forecast_30_days"`
	Forecast60Days             float64 `json:"forecast_60_days" db:"forecast_60_days"`
	Forecast90Days             float64 `json:"forecast_90_days" db:"forecast_90_days"`
	InventoryAction            string  `json:"inventory_action" db:"inventory_action"`
	ForecastConfidence         string  `json:"forecast_confidence" db:"forecast_confidence"`

	RecommendationType string    `json:"recommendation_type" db:"recommendation_type"`
	Recommendation     string    `json:"recommendation" db:"recommendation"`
	SuggestedQuantity  int       `json:"suggested_quantity" db:"suggested_quantity"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// Recommendation is the reporting-facing view of a forecast row.
type Recommendation struct {
	RunDate            time.Time `json:"run_date" db:"run_date"`
	ArticleID          string    `json:"article_id" db:"article_id"`
	ArticleName        string    `json:"article_name" db:"article_name"`
	Brand              string    `json:"brand" db:"brand"`
	InventoryAction    string    `json:"inventory_action" db:"inventory_action"`
	RecommendationType string    `json:"recommendation_type" db:"recommendation_type"`
	Recommendation     string    `json:"recommendation" db:"recommendation"`
	SuggestedQuantity  int       `json:"suggested_quantity" db:"suggested_quantity"`
	ForecastConfidence string    `json:"forecast_confidence" db:"forecast_confidence"`
	CurrentInventory   float64   `json:"current_inventory" db:"current_inventory"`
	ReorderPoint       float64   `json:"reorder_point" db:"reorder_point"`
}

// ForecastFilter represents filters for forecast/recommendation queries.
type ForecastFilter struct {
	RunDate            string   `json:"run_date"`
	ArticleIDs         []string `json:"article_ids"`
	Brands             []string `json:"brands"`
	Categories         []string `json:"categories"`
	Action             string   `json:"action"`
	RecommendationType string   `json:"recommendation_type"`
	Confidence         string   `json:"confidence"`
	Page               int      `json:"page"`
	PageSize           int      `json:"page_size"`
}

// ActionSummary counts forecast rows per inventory action.
type ActionSummary struct {
	Action string `json:"action" db:"inventory_action"`
	Count  int    `json:"count" db:"count"`
}

// ConfidenceSummary counts forecast rows per confidence label.
type ConfidenceSummary struct {
	Confidence string `json:"confidence" db:"forecast_confidence"`
	Count      int    `json:"count" db:"count"`
}

// InsightsSummary is the dashboard payload for a run date.
type InsightsSummary struct {
	RunDate    string              `json:"run_date"`
	Actions    []ActionSummary     `json:"actions"`
	Confidence []ConfidenceSummary `json:"confidence"`
}
