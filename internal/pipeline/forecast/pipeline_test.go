package forecast

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercurios-ai/inventory-insights/internal/domain"
)

func writeFeed(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGetSnapshotDate(t *testing.T) {
	p := NewForecastPipeline(Config{})

	date, err := p.GetSnapshotDate("/data/feeds/20240115_inventory.csv")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), date)

	_, err = p.GetSnapshotDate("inv.csv")
	assert.Error(t, err)

	_, err = p.GetSnapshotDate("notadate_inventory.csv")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	p := NewForecastPipeline(Config{})
	dir := t.TempDir()

	inventory := writeFeed(t, dir, "20240115_inventory.csv", "article_id,quantity_on_hand\nA,5\n")
	assert.NoError(t, p.Validate(inventory))

	sales := writeFeed(t, dir, "20240115_sales.csv", "article_id,sale_date,quantity\n")
	assert.Error(t, p.Validate(sales))

	xlsx := writeFeed(t, dir, "20240115_inventory.xlsx", "not a csv")
	assert.Error(t, p.Validate(xlsx))

	assert.Error(t, p.Validate(filepath.Join(dir, "missing.csv")))
	assert.Error(t, p.Validate(dir))
}

func TestTransformEndToEnd(t *testing.T) {
	dir := t.TempDir()

	inventory := writeFeed(t, dir, "20240115_inventory.csv",
		"article_id,warehouse_id,quantity_on_hand,inventory_status\n"+
			"SKU-1,W1,0,Out of Stock\n"+
			"SKU-1,W2,0,Out of Stock\n"+
			"SKU-2,W1,300,Healthy Stock\n")
	writeFeed(t, dir, "20240115_articles.csv",
		"article_id,name,brand,category,cost_price,price\n"+
			"SKU-1,Runner,Acme,Footwear,20,49.90\n"+
			"SKU-2,Jacket,Acme,Apparel,35,89.00\n")
	writeFeed(t, dir, "20240115_sales.csv",
		"article_id,sale_date,quantity,unit_price\n"+
			"SKU-1,2024-01-10,4,49.90\n"+
			"SKU-1,2024-01-12,6,49.90\n"+
			"SKU-2,2024-01-11,1,89.00\n")
	writeFeed(t, dir, "20240115_engagement.csv",
		"article_id,page_views,online_users,engagement_rate,online_conversion_rate\n"+
			"SKU-1,150,90,0.45,0.04\n"+
			"SKU-2,,,,\n")

	p := NewForecastPipeline(Config{})
	rows, err := p.Transform(context.Background(), inventory)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := make(map[string]map[string]interface{}, len(rows))
	for _, r := range rows {
		byID[r.Data["article_id"].(string)] = r.Data
	}

	sku1 := byID["SKU-1"]
	require.NotNil(t, sku1)
	assert.Equal(t, "2024-01-15", sku1["run_date"])
	assert.Equal(t, "Runner", sku1["article_name"])
	// Warehouses summed into one row per article.
	assert.Equal(t, 0.0, sku1["current_inventory"])
	assert.Equal(t, 2, sku1["days_with_sales"])
	assert.Equal(t, "5", sku1["avg_daily_sales"])
	assert.Equal(t, "150", sku1["page_views"])
	// Depleted with demand: hot uplift on a 5/day baseline.
	assert.Equal(t, domain.ActionRestockImmediately, sku1["inventory_action"])
	assert.Equal(t, domain.RecommendationRestock, sku1["recommendation_type"])
	assert.InDelta(t, 6.0, sku1["adjusted_daily_sales_forecast"].(float64), 1e-9)
	assert.Greater(t, sku1["suggested_quantity"].(int), 0)

	sku2 := byID["SKU-2"]
	require.NotNil(t, sku2)
	assert.Equal(t, 300.0, sku2["current_inventory"])
	// Empty engagement cells stay empty, not zero.
	assert.Equal(t, "", sku2["page_views"])
	assert.Equal(t, domain.ActionOverstocked, sku2["inventory_action"])
}

func TestTransformMissingOptionalFeeds(t *testing.T) {
	dir := t.TempDir()

	inventory := writeFeed(t, dir, "20240115_inventory.csv",
		"article_id,quantity_on_hand,inventory_status\nSKU-9,8,Low Stock\n")

	p := NewForecastPipeline(Config{})
	rows, err := p.Transform(context.Background(), inventory)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	data := rows[0].Data
	assert.Equal(t, "SKU-9", data["article_id"])
	assert.Equal(t, "", data["avg_daily_sales"])
	assert.Equal(t, "", data["page_views"])
	assert.Equal(t, 0.1, data["adjusted_daily_sales_forecast"])
	assert.Equal(t, domain.ConfidenceVeryLow, data["forecast_confidence"])
}

func TestTransformPersistsPositionsLayer(t *testing.T) {
	dir := t.TempDir()
	intermediateDir := filepath.Join(dir, "intermediate")

	inventory := writeFeed(t, dir, "20240115_inventory.csv",
		"article_id,quantity_on_hand\nSKU-1,5\n")

	p := NewForecastPipeline(Config{
		IntermediateDir:    intermediateDir,
		PersistDebugLayers: true,
	})

	_, err := p.Transform(context.Background(), inventory)
	require.NoError(t, err)

	persisted := filepath.Join(intermediateDir, "1_positions", "20240115", "20240115_inventory.csv")
	_, statErr := os.Stat(persisted)
	assert.NoError(t, statErr)
}

func TestTransformHonorsContextCancellation(t *testing.T) {
	dir := t.TempDir()

	inventory := writeFeed(t, dir, "20240115_inventory.csv",
		"article_id,quantity_on_hand\nSKU-1,5\nSKU-2,6\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewForecastPipeline(Config{})
	_, err := p.Transform(ctx, inventory)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFeedKind(t *testing.T) {
	assert.Equal(t, "inventory", feedKind("/x/20240115_inventory.csv"))
	assert.Equal(t, "sales", feedKind("20240115_sales.CSV"))
	assert.Equal(t, "", feedKind("inventory.csv"))
	assert.Equal(t, "", feedKind("20240115_.csv"))
}
