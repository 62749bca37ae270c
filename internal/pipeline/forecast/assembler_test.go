package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemblePositionsMergesAllSources(t *testing.T) {
	articles := []ArticleRow{
		{ArticleID: "A", Name: "Shoe", Brand: "Acme", Category: "Footwear", CostPrice: 20, Price: 49.9},
	}
	stock := []StockRow{
		{ArticleID: "A", WarehouseID: "W1", QuantityOnHand: 30, InventoryStatus: "Healthy Stock"},
	}
	stats := map[string]VelocityStats{
		"A": {AvgDailySales: validFloat(2), DaysWithSales: 40},
	}
	signals := map[string]InterestSignal{
		"A": {PageViews: validFloat(120)},
	}

	positions := AssemblePositions(articles, stock, stats, signals)

	require.Len(t, positions, 1)
	p := positions[0]
	assert.Equal(t, "Shoe", p.Name)
	assert.Equal(t, "Acme", p.Brand)
	assert.Equal(t, 30.0, p.CurrentInventory)
	assert.Equal(t, 600.0, p.InventoryValue)
	assert.Equal(t, "Healthy Stock", p.InventoryStatus)
	assert.Equal(t, 40, p.Stats.DaysWithSales)
	assert.InDelta(t, 120.0, p.Signal.PageViews.Float64, 1e-9)
	require.True(t, p.MonthsOfInventory.Valid)
	assert.InDelta(t, 0.5, p.MonthsOfInventory.Float64, 1e-9)
}

func TestAssemblePositionsSumsWarehouses(t *testing.T) {
	stock := []StockRow{
		{ArticleID: "A", WarehouseID: "W1", QuantityOnHand: 10, InventoryStatus: "Healthy Stock"},
		{ArticleID: "A", WarehouseID: "W2", QuantityOnHand: 15, InventoryStatus: "Low Stock"},
	}

	positions := AssemblePositions(nil, stock, nil, nil)

	require.Len(t, positions, 1)
	assert.Equal(t, 25.0, positions[0].CurrentInventory)
	// First seen status wins when warehouses disagree.
	assert.Equal(t, "Healthy Stock", positions[0].InventoryStatus)
}

func TestAssemblePositionsUniverseIsUnion(t *testing.T) {
	articles := []ArticleRow{
		{ArticleID: "MASTER-ONLY", Name: "Listed"},
	}
	stock := []StockRow{
		{ArticleID: "STOCK-ONLY", QuantityOnHand: 8},
	}

	positions := AssemblePositions(articles, stock, nil, nil)

	require.Len(t, positions, 2)
	// Sorted by article id.
	assert.Equal(t, "MASTER-ONLY", positions[0].ArticleID)
	assert.Equal(t, "STOCK-ONLY", positions[1].ArticleID)

	assert.Equal(t, 0.0, positions[0].CurrentInventory)
	assert.Equal(t, "", positions[1].Name)
	assert.Equal(t, 8.0, positions[1].CurrentInventory)
}

func TestAssemblePositionsMissingSidesStayNull(t *testing.T) {
	stock := []StockRow{{ArticleID: "A", QuantityOnHand: 12}}

	positions := AssemblePositions(nil, stock, nil, nil)

	require.Len(t, positions, 1)
	p := positions[0]
	assert.False(t, p.Stats.AvgDailySales.Valid)
	assert.False(t, p.Signal.PageViews.Valid)
	// Months of inventory is undefined without a demand rate.
	assert.False(t, p.MonthsOfInventory.Valid)
}
