package analytics

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mercurios-ai/inventory-insights/pkg/logger"
)

// ParseConfig controls how CSV cells are interpreted during loading.
type ParseConfig struct {
	// DateLayout is the layout for date cells. Defaults to 2006-01-02.
	DateLayout string
}

// ArticleResolver handles article identity lookups during loading.
type ArticleResolver struct {
	db *sql.DB
}

func NewArticleResolver(db *sql.DB) *ArticleResolver {
	return &ArticleResolver{db: db}
}

// EnsureArticle makes sure an articles row exists for the given external id,
// creating or refreshing it with the master data from the current feed.
func (r *ArticleResolver) EnsureArticle(ctx context.Context, tx *sql.Tx, articleID, name, brand, category string) error {
	if name == "" {
		name = "Article " + articleID
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO articles (article_id, name, brand, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (article_id)
		DO UPDATE SET name = EXCLUDED.name, brand = EXCLUDED.brand,
		              category = EXCLUDED.category, updated_at = NOW()
	`, articleID, name, brand, category)
	if err != nil {
		return fmt.Errorf("failed to ensure article %s: %w", articleID, err)
	}

	return nil
}

// Loader ingests aggregated forecast CSVs into the analytics tables.
type Loader struct {
	db       *sql.DB
	cfg      ParseConfig
	resolver *ArticleResolver
}

func NewLoader(db *sql.DB, cfg ParseConfig) *Loader {
	if cfg.DateLayout == "" {
		cfg.DateLayout = "2006-01-02"
	}

	return &Loader{
		db:       db,
		cfg:      cfg,
		resolver: NewArticleResolver(db),
	}
}

const upsertForecastQuery = `
	INSERT INTO article_forecasts (
		run_date, article_id, article_name, brand, category,
		cost_price, price, current_inventory, inventory_value,
		months_of_inventory, inventory_status,
		avg_daily_sales, median_daily_sales, p90_daily_sales, stddev_daily_sales,
		days_with_sales, first_sale_date, last_sale_date,
		page_views, online_users, engagement_rate, online_conversion_rate,
		adjusted_daily_sales_forecast, safety_stock, reorder_point,
		economic_order_quantity, forecast_30_days, forecast_60_days, forecast_90_days,
		inventory_action, forecast_confidence,
		recommendation_type, recommendation, suggested_quantity,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29,
		$30, $31, $32, $33, $34, NOW(), NOW()
	)
	ON CONFLICT (run_date, article_id)
	DO UPDATE SET
		article_name = EXCLUDED.article_name,
		brand = EXCLUDED.brand,
		category = EXCLUDED.category,
		cost_price = EXCLUDED.cost_price,
		price = EXCLUDED.price,
		current_inventory = EXCLUDED.current_inventory,
		inventory_value = EXCLUDED.inventory_value,
		months_of_inventory = EXCLUDED.months_of_inventory,
		inventory_status = EXCLUDED.inventory_status,
		avg_daily_sales = EXCLUDED.avg_daily_sales,
		median_daily_sales = EXCLUDED.median_daily_sales,
		p90_daily_sales = EXCLUDED.p90_daily_sales,
		stddev_daily_sales = EXCLUDED.stddev_daily_sales,
		days_with_sales = EXCLUDED.days_with_sales,
		first_sale_date = EXCLUDED.first_sale_date,
		last_sale_date = EXCLUDED.last_sale_date,
		page_views = EXCLUDED.page_views,
		online_users = EXCLUDED.online_users,
		engagement_rate = EXCLUDED.engagement_rate,
		online_conversion_rate = EXCLUDED.online_conversion_rate,
		adjusted_daily_sales_forecast = EXCLUDED.adjusted_daily_sales_forecast,
		safety_stock = EXCLUDED.safety_stock,
		reorder_point = EXCLUDED.reorder_point,
		economic_order_quantity = EXCLUDED.economic_order_quantity,
		forecast_30_days = EXCLUDED.forecast_30_days,
		forecast_60_days = EXCLUDED.forecast_60_days,
		forecast_90_days = EXCLUDED.forecast_90_days,
		inventory_action = EXCLUDED.inventory_action,
		forecast_confidence = EXCLUDED.forecast_confidence,
		recommendation_type = EXCLUDED.recommendation_type,
		recommendation = EXCLUDED.recommendation,
		suggested_quantity = EXCLUDED.suggested_quantity,
		updated_at = NOW()
`

// LoadFile loads one aggregated forecast CSV into article_forecasts. The whole
// file loads in a single transaction so a partial load never becomes visible.
func (l *Loader) LoadFile(ctx context.Context, filePath string) error {
	logger.Log.Info().Str("path", filePath).Msg("loading forecast file")

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[strings.TrimSpace(col)] = i
	}

	for _, required := range []string{"run_date", "article_id"} {
		if _, ok := colMap[required]; !ok {
			return fmt.Errorf("forecast file %s missing required column %s", filePath, required)
		}
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertForecastQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	processedCount := 0

	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("error reading record: %w", err)
		}

		cell := func(name string) string {
			idx, ok := colMap[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		articleID := cell("article_id")
		if articleID == "" {
			logger.Log.Warn().Str("path", filePath).Msg("skipping record without article id")
			continue
		}

		runDate, err := time.Parse(l.cfg.DateLayout, cell("run_date"))
		if err != nil {
			return fmt.Errorf("invalid run_date for article %s: %w", articleID, err)
		}

		if err := l.resolver.EnsureArticle(ctx, tx, articleID, cell("article_name"), cell("brand"), cell("category")); err != nil {
			return err
		}

		_, err = stmt.ExecContext(
			ctx,
			runDate,
			articleID,
			cell("article_name"),
			cell("brand"),
			cell("category"),
			parseFloatCell(cell("cost_price")),
			parseFloatCell(cell("price")),
			parseFloatCell(cell("current_inventory")),
			parseFloatCell(cell("inventory_value")),
			nullableFloatCell(cell("months_of_inventory")),
			cell("inventory_status"),
			nullableFloatCell(cell("avg_daily_sales")),
			nullableFloatCell(cell("median_daily_sales")),
			nullableFloatCell(cell("p90_daily_sales")),
			nullableFloatCell(cell("stddev_daily_sales")),
			parseIntCell(cell("days_with_sales")),
			l.nullableDateCell(cell("first_sale_date")),
			l.nullableDateCell(cell("last_sale_date")),
			nullableFloatCell(cell("page_views")),
			nullableFloatCell(cell("online_users")),
			nullableFloatCell(cell("engagement_rate")),
			nullableFloatCell(cell("online_conversion_rate")),
			parseFloatCell(cell("adjusted_daily_sales_forecast")),
			parseFloatCell(cell("safety_stock")),
			parseFloatCell(cell("reorder_point")),
			parseFloatCell(cell("economic_order_quantity")),
			parseFloatCell(cell("forecast_30_days")),
			parseFloatCell(cell("forecast_60_days")),
			parseFloatCell(cell("forecast_90_days")),
			cell("inventory_action"),
			cell("forecast_confidence"),
			cell("recommendation_type"),
			cell("recommendation"),
			parseIntCell(cell("suggested_quantity")),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert forecast for article %s: %w", articleID, err)
		}

		processedCount++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Log.Info().
		Int("records", processedCount).
		Str("path", filePath).
		Msg("loaded forecast records")

	return nil
}

func parseFloatCell(v string) float64 {
	if v == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

func parseIntCell(v string) int {
	if v == "" {
		return 0
	}
	n, _ := strconv.Atoi(v)
	return n
}

// nullableFloatCell maps an empty cell to SQL NULL instead of zero.
func nullableFloatCell(v string) interface{} {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return f
}

func (l *Loader) nullableDateCell(v string) interface{} {
	if v == "" {
		return nil
	}
	t, err := time.Parse(l.cfg.DateLayout, v)
	if err != nil {
		return nil
	}
	return t
}
