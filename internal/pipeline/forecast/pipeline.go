package forecast

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mercurios-ai/inventory-insights/internal/pipeline"
)

// Feed filename suffixes. Each snapshot date ships as a set of sibling CSVs
// sharing a date prefix: 20240115_inventory.csv, 20240115_articles.csv, ...
// The inventory file is the pipeline input; the others are located next to it.
const (
	feedInventory  = "inventory"
	feedArticles   = "articles"
	feedSales      = "sales"
	feedEngagement = "engagement"
)

// ForecastPipeline implements the generic pipeline.Pipeline interface for the
// per-article demand forecast and replenishment recommendation run.
type ForecastPipeline struct {
	config     Config
	calculator *Calculator
}

// NewForecastPipeline creates a new forecast pipeline instance.
func NewForecastPipeline(cfg Config) *ForecastPipeline {
	if cfg.InputDateFormat == "" {
		cfg.InputDateFormat = "20060102"
	}
	if cfg.IntermediateDir == "" {
		cfg.IntermediateDir = filepath.Join("data", "intermediate", "article_forecast")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join("data", "output", "article_forecast")
	}
	if cfg.Policy == (PolicyParams{}) {
		cfg.Policy = DefaultPolicyParams()
	}

	return &ForecastPipeline{
		config:     cfg,
		calculator: NewCalculator(cfg.Policy),
	}
}

// Name returns the unique identifier of this pipeline.
func (p *ForecastPipeline) Name() string {
	return "article_forecast"
}

// GetOutputTable returns the target database table for analytics ingestion.
func (p *ForecastPipeline) GetOutputTable() string {
	return "article_forecasts"
}

// GetSnapshotDate extracts the snapshot date from the filename prefix.
func (p *ForecastPipeline) GetSnapshotDate(filename string) (time.Time, error) {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	layout := p.config.InputDateFormat
	if len(base) < len(layout) {
		return time.Time{}, fmt.Errorf("filename %s does not contain date with layout %s", filename, layout)
	}

	return time.Parse(layout, base[:len(layout)])
}

// Validate performs basic validation on the input file: it must be an
// existing CSV whose name marks it as the inventory snapshot feed.
func (p *ForecastPipeline) Validate(inputFile string) error {
	info, err := os.Stat(inputFile)
	if err != nil {
		return fmt.Errorf("cannot stat input file %s: %w", inputFile, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path %s is a directory, expected file", inputFile)
	}
	ext := strings.ToLower(filepath.Ext(inputFile))
	if ext != ".csv" {
		return fmt.Errorf("unsupported file extension %s for %s (only CSV supported)", ext, inputFile)
	}
	if feedKind(inputFile) != feedInventory {
		return fmt.Errorf("input file %s is not an inventory snapshot feed", inputFile)
	}

	return nil
}

// Transform runs the full forecast pass for one snapshot: it reads the
// inventory feed plus its sibling article/sales/engagement feeds, assembles
// per-article positions, applies the policy engine and emits one transformed
// row per article. A missing sales or engagement feed degrades gracefully to
// the no-history / no-signal branches; it never aborts the run.
func (p *ForecastPipeline) Transform(ctx context.Context, inputFile string) ([]pipeline.TransformedRow, error) {
	snapshotDate, err := p.GetSnapshotDate(inputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot date: %w", err)
	}

	stock, err := p.readInventoryCSV(inputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory feed %s: %w", inputFile, err)
	}

	articles, err := p.readArticlesCSV(p.siblingFeed(inputFile, snapshotDate, feedArticles))
	if err != nil {
		return nil, fmt.Errorf("failed to read article master feed: %w", err)
	}

	sales, err := p.readSalesCSV(p.siblingFeed(inputFile, snapshotDate, feedSales))
	if err != nil {
		return nil, fmt.Errorf("failed to read sales feed: %w", err)
	}

	engagement, err := p.readEngagementCSV(p.siblingFeed(inputFile, snapshotDate, feedEngagement))
	if err != nil {
		return nil, fmt.Errorf("failed to read engagement feed: %w", err)
	}

	aggregator := NewAggregator(snapshotDate, p.config.SalesWindowDays)
	stats := aggregator.VelocityStatsByArticle(sales)
	signals := ExtractSignals(engagement)
	positions := AssemblePositions(articles, stock, stats, signals)

	if p.config.PersistDebugLayers {
		if err := p.writePositionsIntermediate(snapshotDate, inputFile, positions); err != nil {
			return nil, fmt.Errorf("failed to write positions intermediate: %w", err)
		}
	}

	type forecastedRecord struct {
		position       Position
		metrics        Metrics
		recommendation Recommendation
	}

	forecasted := make([]forecastedRecord, 0, len(positions))
	for i := range positions {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		metrics := p.calculator.Calculate(&positions[i])
		rec := BuildRecommendation(&positions[i], metrics)
		forecasted = append(forecasted, forecastedRecord{
			position:       positions[i],
			metrics:        metrics,
			recommendation: rec,
		})
	}

	result := make([]pipeline.TransformedRow, 0, len(forecasted))
	for _, fa := range forecasted {
		pos, m, rec := fa.position, fa.metrics, fa.recommendation
		data := map[string]interface{}{
			"run_date":                      snapshotDate.Format("2006-01-02"),
			"article_id":                    pos.ArticleID,
			"article_name":                  pos.Name,
			"brand":                         pos.Brand,
			"category":                      pos.Category,
			"cost_price":                    pos.CostPrice,
			"price":                         pos.Price,
			"current_inventory":             pos.CurrentInventory,
			"inventory_value":               pos.InventoryValue,
			"months_of_inventory":           formatNullFloat(pos.MonthsOfInventory, 2),
			"inventory_status":              pos.InventoryStatus,
			"avg_daily_sales":               formatNullFloat(pos.Stats.AvgDailySales, 4),
			"median_daily_sales":            formatNullFloat(pos.Stats.MedianDailySales, 4),
			"p90_daily_sales":               formatNullFloat(pos.Stats.P90DailySales, 4),
			"stddev_daily_sales":            formatNullFloat(pos.Stats.StddevDailySales, 4),
			"days_with_sales":               pos.Stats.DaysWithSales,
			"first_sale_date":               formatNullDate(pos.Stats.FirstSaleDate),
			"last_sale_date":                formatNullDate(pos.Stats.LastSaleDate),
			"page_views":                    formatNullFloat(pos.Signal.PageViews, 0),
			"online_users":                  formatNullFloat(pos.Signal.OnlineUsers, 0),
			"engagement_rate":               formatNullFloat(pos.Signal.EngagementRate, 4),
			"online_conversion_rate":        formatNullFloat(pos.Signal.OnlineConversionRate, 4),
			"adjusted_daily_sales_forecast": m.AdjustedDailySalesForecast,
			"safety_stock":                  m.SafetyStock,
			"reorder_point":                 m.ReorderPoint,
			"economic_order_quantity":       m.EconomicOrderQuantity,
			"forecast_30_days":              m.Forecast30Days,
			"forecast_60_days":              m.Forecast60Days,
			"forecast_90_days":              m.Forecast90Days,
			"inventory_action":              m.InventoryAction,
			"forecast_confidence":           m.ForecastConfidence,
			"recommendation_type":           rec.Type,
			"recommendation":                rec.Text,
			"suggested_quantity":            rec.SuggestedQuantity,
		}
		result = append(result, pipeline.TransformedRow{Data: data})
	}

	return result, nil
}

// siblingFeed locates a feed file that shares the input file's directory and
// date prefix, e.g. 20240115_sales.csv next to 20240115_inventory.csv.
func (p *ForecastPipeline) siblingFeed(inputFile string, date time.Time, kind string) string {
	dir := filepath.Dir(inputFile)
	name := fmt.Sprintf("%s_%s.csv", date.Format(p.config.InputDateFormat), kind)

	return filepath.Join(dir, name)
}

// feedKind extracts the feed suffix from a file name
// (20240115_inventory.csv -> "inventory").
func feedKind(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	idx := strings.LastIndex(base, "_")
	if idx < 0 || idx == len(base)-1 {
		return ""
	}

	return strings.ToLower(base[idx+1:])
}

type csvTable struct {
	header  []string
	records [][]string
}

// readCSVFile reads an entire CSV file. A missing optional feed returns an
// empty table rather than an error so the run can degrade gracefully.
func readCSVFile(path string, optional bool) (*csvTable, error) {
	file, err := os.Open(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return &csvTable{}, nil
		}
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &csvTable{}, nil
		}
		return nil, err
	}

	table := &csvTable{header: header}
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		table.records = append(table.records, record)
	}

	return table, nil
}

// colIndex finds the index of the first header matching any of the names,
// after normalization (case, spaces, separators).
func (t *csvTable) colIndex(names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range t.header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}

	return -1
}

func fieldAt(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}

	return strings.TrimSpace(record[idx])
}

func floatAt(record []string, idx int) float64 {
	v := fieldAt(record, idx)
	if v == "" {
		return 0
	}
	v = strings.ReplaceAll(v, ",", "")
	f, _ := strconv.ParseFloat(v, 64)

	return f
}

// nullFloatAt parses a cell as a nullable float: an empty cell stays null
// instead of collapsing to zero.
func nullFloatAt(record []string, idx int) sql.NullFloat64 {
	v := fieldAt(record, idx)
	if v == "" {
		return sql.NullFloat64{}
	}
	v = strings.ReplaceAll(v, ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: f, Valid: true}
}

func (p *ForecastPipeline) readInventoryCSV(path string) ([]StockRow, error) {
	table, err := readCSVFile(path, false)
	if err != nil {
		return nil, err
	}

	idxArticle := table.colIndex("article_id", "article id", "sku")
	idxWarehouse := table.colIndex("warehouse_id", "warehouse id", "warehouse")
	idxQty := table.colIndex("quantity_on_hand", "quantity on hand", "quantity", "stock")
	idxStatus := table.colIndex("inventory_status", "inventory status", "status")

	rows := make([]StockRow, 0, len(table.records))
	for _, record := range table.records {
		id := fieldAt(record, idxArticle)
		if id == "" {
			continue
		}
		rows = append(rows, StockRow{
			ArticleID:       id,
			WarehouseID:     fieldAt(record, idxWarehouse),
			QuantityOnHand:  floatAt(record, idxQty),
			InventoryStatus: fieldAt(record, idxStatus),
		})
	}

	return rows, nil
}

func (p *ForecastPipeline) readArticlesCSV(path string) ([]ArticleRow, error) {
	table, err := readCSVFile(path, true)
	if err != nil {
		return nil, err
	}

	idxArticle := table.colIndex("article_id", "article id", "sku")
	idxName := table.colIndex("name", "article_name", "product name")
	idxBrand := table.colIndex("brand")
	idxCategory := table.colIndex("category")
	idxCost := table.colIndex("cost_price", "cost price", "cost")
	idxPrice := table.colIndex("price", "selling price")

	rows := make([]ArticleRow, 0, len(table.records))
	for _, record := range table.records {
		id := fieldAt(record, idxArticle)
		if id == "" {
			continue
		}
		rows = append(rows, ArticleRow{
			ArticleID: id,
			Name:      fieldAt(record, idxName),
			Brand:     fieldAt(record, idxBrand),
			Category:  fieldAt(record, idxCategory),
			CostPrice: floatAt(record, idxCost),
			Price:     floatAt(record, idxPrice),
		})
	}

	return rows, nil
}

func (p *ForecastPipeline) readSalesCSV(path string) ([]SaleLine, error) {
	table, err := readCSVFile(path, true)
	if err != nil {
		return nil, err
	}

	idxArticle := table.colIndex("article_id", "article id", "sku")
	idxDate := table.colIndex("sale_date", "sale date", "date")
	idxQty := table.colIndex("quantity", "qty")
	idxPrice := table.colIndex("unit_price", "unit price", "price")

	rows := make([]SaleLine, 0, len(table.records))
	for _, record := range table.records {
		id := fieldAt(record, idxArticle)
		if id == "" {
			continue
		}
		day, err := parseFeedDate(fieldAt(record, idxDate))
		if err != nil {
			continue
		}
		rows = append(rows, SaleLine{
			ArticleID: id,
			SaleDate:  day,
			Quantity:  floatAt(record, idxQty),
			UnitPrice: floatAt(record, idxPrice),
		})
	}

	return rows, nil
}

func (p *ForecastPipeline) readEngagementCSV(path string) ([]EngagementRow, error) {
	table, err := readCSVFile(path, true)
	if err != nil {
		return nil, err
	}

	idxArticle := table.colIndex("article_id", "article id", "sku")
	idxViews := table.colIndex("page_views", "page views", "views")
	idxUsers := table.colIndex("online_users", "users")
	idxEngagement := table.colIndex("engagement_rate", "engagement rate")
	idxConversion := table.colIndex("online_conversion_rate", "conversion_rate", "conversion rate")
	idxQtySold := table.colIndex("online_quantity_sold", "quantity_sold")
	idxRevenue := table.colIndex("online_revenue", "revenue")

	rows := make([]EngagementRow, 0, len(table.records))
	for _, record := range table.records {
		id := fieldAt(record, idxArticle)
		if id == "" {
			continue
		}
		rows = append(rows, EngagementRow{
			ArticleID:            id,
			PageViews:            nullFloatAt(record, idxViews),
			OnlineUsers:          nullFloatAt(record, idxUsers),
			EngagementRate:       nullFloatAt(record, idxEngagement),
			OnlineConversionRate: nullFloatAt(record, idxConversion),
			OnlineQuantitySold:   nullFloatAt(record, idxQtySold),
			OnlineRevenue:        nullFloatAt(record, idxRevenue),
		})
	}

	return rows, nil
}

func parseFeedDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{"2006-01-02", "20060102", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Truncate(24 * time.Hour), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}

func (p *ForecastPipeline) writePositionsIntermediate(date time.Time, inputFile string, positions []Position) error {
	if p.config.IntermediateDir == "" {
		return nil
	}

	baseDir := filepath.Join(p.config.IntermediateDir, "1_positions", date.Format("20060102"))
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return err
	}

	path := filepath.Join(baseDir, filepath.Base(inputFile))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	headers := []string{
		"article_id", "article_name", "brand", "category", "cost_price", "price",
		"current_inventory", "inventory_value", "months_of_inventory", "inventory_status",
		"avg_daily_sales", "median_daily_sales", "p90_daily_sales", "stddev_daily_sales",
		"days_with_sales", "first_sale_date", "last_sale_date",
		"page_views", "online_users", "engagement_rate", "online_conversion_rate",
	}
	if err := w.Write(headers); err != nil {
		return err
	}

	for _, pos := range positions {
		rec := []string{
			pos.ArticleID,
			pos.Name,
			pos.Brand,
			pos.Category,
			formatFloat(pos.CostPrice, 2),
			formatFloat(pos.Price, 2),
			formatFloat(pos.CurrentInventory, 0),
			formatFloat(pos.InventoryValue, 2),
			formatNullFloat(pos.MonthsOfInventory, 2),
			pos.InventoryStatus,
			formatNullFloat(pos.Stats.AvgDailySales, 4),
			formatNullFloat(pos.Stats.MedianDailySales, 4),
			formatNullFloat(pos.Stats.P90DailySales, 4),
			formatNullFloat(pos.Stats.StddevDailySales, 4),
			strconv.Itoa(pos.Stats.DaysWithSales),
			formatNullDate(pos.Stats.FirstSaleDate),
			formatNullDate(pos.Stats.LastSaleDate),
			formatNullFloat(pos.Signal.PageViews, 0),
			formatNullFloat(pos.Signal.OnlineUsers, 0),
			formatNullFloat(pos.Signal.EngagementRate, 4),
			formatNullFloat(pos.Signal.OnlineConversionRate, 4),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	return nil
}
