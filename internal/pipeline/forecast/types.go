package forecast

import (
	"database/sql"
	"time"
)

// SaleLine represents a single row from the raw sales ledger feed.
type SaleLine struct {
	ArticleID string
	SaleDate  time.Time
	Quantity  float64
	UnitPrice float64
}

// DailySales is one (article, calendar day) aggregate. Days without sales are
// absent from the series, not zero-filled.
type DailySales struct {
	ArticleID string
	Day       time.Time
	Quantity  float64
}

// VelocityStats summarizes an article's daily sales series over the analysis
// window. All statistics are computed over active selling days only. An
// article with no sales history has every field invalid, never zero.
type VelocityStats struct {
	AvgDailySales    sql.NullFloat64
	MedianDailySales sql.NullFloat64
	P90DailySales    sql.NullFloat64
	StddevDailySales sql.NullFloat64
	DaysWithSales    int
	FirstSaleDate    sql.NullTime
	LastSaleDate     sql.NullTime
}

// EngagementRow is a raw row from the web-analytics export. Empty cells parse
// as invalid, not zero.
type EngagementRow struct {
	ArticleID            string
	PageViews            sql.NullFloat64
	OnlineUsers          sql.NullFloat64
	EngagementRate       sql.NullFloat64
	OnlineConversionRate sql.NullFloat64
	OnlineQuantitySold   sql.NullFloat64
	OnlineRevenue        sql.NullFloat64
}

// InterestSignal is the per-article online-interest record. It exists for
// every article in the run; when the analytics feed has nothing for an
// article, every field is invalid so downstream rules can branch on
// "no signal" explicitly.
type InterestSignal struct {
	PageViews            sql.NullFloat64
	OnlineUsers          sql.NullFloat64
	EngagementRate       sql.NullFloat64
	OnlineConversionRate sql.NullFloat64
	OnlineQuantitySold   sql.NullFloat64
	OnlineRevenue        sql.NullFloat64
}

// StockRow is a raw row from the inventory snapshot feed, one per
// (article, warehouse).
type StockRow struct {
	ArticleID       string
	WarehouseID     string
	QuantityOnHand  float64
	InventoryStatus string
}

// ArticleRow is a raw row from the article master feed.
type ArticleRow struct {
	ArticleID string
	Name      string
	Brand     string
	Category  string
	CostPrice float64
	Price     float64
}

// Position is the fully assembled per-article record the policy engine
// consumes: inventory snapshot, master data, velocity stats and online
// interest merged by article id. Exactly one Position exists per article
// per run.
type Position struct {
	ArticleID string
	Name      string
	Brand     string
	Category  string
	CostPrice float64
	Price     float64

	CurrentInventory  float64
	InventoryValue    float64
	MonthsOfInventory sql.NullFloat64
	InventoryStatus   string

	Stats  VelocityStats
	Signal InterestSignal
}

// Metrics is the policy engine's output for one article. Every field is
// always set; missing input data resolves through fallback rules, never into
// a null output.
type Metrics struct {
	AdjustedDailySalesForecast float64
	SafetyStock                float64
	ReorderPoint               float64
	EconomicOrderQuantity      float64
	Forecast30Days             float64
	Forecast60Days             float64
	Forecast90Days             float64
	InventoryAction            string
	ForecastConfidence         string
}

// Recommendation is the emitter's actionable view of a Metrics record.
type Recommendation struct {
	Type              string
	Text              string
	SuggestedQuantity int
}

// Config holds configuration for the forecast pipeline.
type Config struct {
	// InputDateFormat is the date layout used as feed filename prefix.
	InputDateFormat string
	// IntermediateDir is the root directory for per-run intermediate outputs.
	// When PersistDebugLayers is set, the assembled pre-forecast records are
	// written under 1_positions/<date>/ before the policy engine runs.
	IntermediateDir    string
	OutputDir          string
	PersistDebugLayers bool

	// SalesWindowDays limits the sales history considered, counted back from
	// the snapshot date. Zero means all available history.
	SalesWindowDays int

	Policy PolicyParams
}
