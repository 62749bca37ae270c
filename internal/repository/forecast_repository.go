package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mercurios-ai/inventory-insights/internal/domain"
)

type ForecastRepository interface {
	GetRecommendations(ctx context.Context, filter domain.ForecastFilter) ([]domain.Recommendation, int, error)
	GetReorderRecommendations(ctx context.Context, filter domain.ForecastFilter) ([]domain.Recommendation, error)
	GetForecastByArticle(ctx context.Context, articleID, runDate string) (*domain.ArticleForecast, error)
	GetSummary(ctx context.Context, runDate string) (*domain.InsightsSummary, error)
	GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error)
}

type forecastRepository struct {
	db *sqlx.DB
}

func NewForecastRepository(db *sqlx.DB) ForecastRepository {
	return &forecastRepository{db: db}
}

const forecastColumns = `
	id, run_date, article_id, article_name, brand, category, cost_price,
	current_inventory, inventory_value, months_of_inventory, inventory_status,
	avg_daily_sales, median_daily_sales, p90_daily_sales, stddev_daily_sales,
	days_with_sales, first_sale_date, last_sale_date,
	page_views, online_users, engagement_rate, online_conversion_rate,
	adjusted_daily_sales_forecast, safety_stock, reorder_point,
	economic_order_quantity, forecast_30_days, forecast_60_days, forecast_90_days,
	inventory_action, forecast_confidence,
	recommendation_type, recommendation, suggested_quantity,
	created_at, updated_at
`

const recommendationColumns = `
	run_date, article_id, article_name, brand, inventory_action,
	recommendation_type, recommendation, suggested_quantity,
	forecast_confidence, current_inventory, reorder_point
`

// buildFilterConditions translates a ForecastFilter into WHERE fragments with
// positional args, starting at the given counter.
func buildFilterConditions(filter domain.ForecastFilter, argCounter int) ([]string, []interface{}, int) {
	var conditions []string
	var args []interface{}

	if filter.RunDate != "" {
		conditions = append(conditions, fmt.Sprintf("run_date = $%d::date", argCounter))
		args = append(args, filter.RunDate)
		argCounter++
	}

	if len(filter.ArticleIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("article_id = ANY($%d::text[])", argCounter))
		args = append(args, pq.Array(filter.ArticleIDs))
		argCounter++
	}

	if len(filter.Brands) > 0 {
		conditions = append(conditions, fmt.Sprintf("brand = ANY($%d::text[])", argCounter))
		args = append(args, pq.Array(filter.Brands))
		argCounter++
	}

	if len(filter.Categories) > 0 {
		conditions = append(conditions, fmt.Sprintf("category = ANY($%d::text[])", argCounter))
		args = append(args, pq.Array(filter.Categories))
		argCounter++
	}

	if filter.Action != "" {
		conditions = append(conditions, fmt.Sprintf("inventory_action = $%d", argCounter))
		args = append(args, filter.Action)
		argCounter++
	}

	if filter.RecommendationType != "" {
		conditions = append(conditions, fmt.Sprintf("recommendation_type = $%d", argCounter))
		args = append(args, filter.RecommendationType)
		argCounter++
	}

	if filter.Confidence != "" {
		conditions = append(conditions, fmt.Sprintf("forecast_confidence = $%d", argCounter))
		args = append(args, filter.Confidence)
		argCounter++
	}

	return conditions, args, argCounter
}

func (r *forecastRepository) GetRecommendations(ctx context.Context, filter domain.ForecastFilter) ([]domain.Recommendation, int, error) {
	countQuery := `
		SELECT COUNT(*)
		FROM article_forecasts
		WHERE 1=1
	`

	query := `
		SELECT ` + recommendationColumns + `
		FROM article_forecasts
		WHERE 1=1
	`

	conditions, args, argCounter := buildFilterConditions(filter, 1)

	if len(conditions) > 0 {
		whereClause := " AND " + strings.Join(conditions, " AND ")
		query += whereClause
		countQuery += whereClause
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("error counting recommendations: %w", err)
	}

	query += actionUrgencyOrderClause()

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1)
		args = append(args, filter.PageSize, offset)
	}

	var recs []domain.Recommendation
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("error getting recommendations: %w", err)
	}

	return recs, total, nil
}

func (r *forecastRepository) GetReorderRecommendations(ctx context.Context, filter domain.ForecastFilter) ([]domain.Recommendation, error) {
	query := `
		SELECT ` + recommendationColumns + `
		FROM article_forecasts
		WHERE recommendation_type = $1
	`

	args := []interface{}{domain.RecommendationRestock}
	conditions, filterArgs, _ := buildFilterConditions(filter, 2)
	args = append(args, filterArgs...)

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += actionUrgencyOrderClause()

	var recs []domain.Recommendation
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("error getting reorder recommendations: %w", err)
	}

	return recs, nil
}

func (r *forecastRepository) GetForecastByArticle(ctx context.Context, articleID, runDate string) (*domain.ArticleForecast, error) {
	query := `
		SELECT ` + forecastColumns + `
		FROM article_forecasts
		WHERE article_id = $1
	`

	args := []interface{}{articleID}
	if runDate != "" {
		query += " AND run_date = $2::date"
		args = append(args, runDate)
	} else {
		query += " ORDER BY run_date DESC LIMIT 1"
	}

	var forecast domain.ArticleForecast
	if err := r.db.GetContext(ctx, &forecast, query, args...); err != nil {
		return nil, fmt.Errorf("error getting forecast for article %s: %w", articleID, err)
	}

	return &forecast, nil
}

func (r *forecastRepository) GetSummary(ctx context.Context, runDate string) (*domain.InsightsSummary, error) {
	if runDate == "" {
		dates, err := r.GetAvailableDates(ctx, 1)
		if err != nil {
			return nil, err
		}
		if len(dates) == 0 {
			return &domain.InsightsSummary{}, nil
		}
		runDate = dates[0].Format("2006-01-02")
	}

	actionQuery := `
		SELECT inventory_action, COUNT(*) as count
		FROM article_forecasts
		WHERE run_date = $1::date
		GROUP BY inventory_action
	`

	var actions []domain.ActionSummary
	if err := r.db.SelectContext(ctx, &actions, actionQuery, runDate); err != nil {
		return nil, fmt.Errorf("error getting action summary: %w", err)
	}

	confidenceQuery := `
		SELECT forecast_confidence, COUNT(*) as count
		FROM article_forecasts
		WHERE run_date = $1::date
		GROUP BY forecast_confidence
	`

	var confidence []domain.ConfidenceSummary
	if err := r.db.SelectContext(ctx, &confidence, confidenceQuery, runDate); err != nil {
		return nil, fmt.Errorf("error getting confidence summary: %w", err)
	}

	return &domain.InsightsSummary{
		RunDate:    runDate,
		Actions:    actions,
		Confidence: confidence,
	}, nil
}

func (r *forecastRepository) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `
		SELECT DISTINCT run_date
		FROM article_forecasts
		ORDER BY run_date DESC
		LIMIT $1
	`

	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, limit); err != nil {
		return nil, fmt.Errorf("error getting available dates: %w", err)
	}

	return dates, nil
}

// actionUrgencyOrderClause ranks rows from most to least urgent action, then
// by how far inventory sits below the reorder point.
func actionUrgencyOrderClause() string {
	return `
		ORDER BY CASE inventory_action
			WHEN '` + domain.ActionRestockImmediately + `' THEN 0
			WHEN '` + domain.ActionRestockSoon + `' THEN 1
			WHEN '` + domain.ActionOverstocked + `' THEN 2
			WHEN '` + domain.ActionMonitor + `' THEN 3
			ELSE 4
		END, reorder_point - current_inventory DESC, article_id
	`
}
