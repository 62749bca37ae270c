package forecast

import (
	"fmt"

	"github.com/mercurios-ai/inventory-insights/internal/domain"
)

// Overstock reductions target 70% of the current level.
const overstockKeepRatio = 0.7

// BuildRecommendation maps an article's inventory action into an actionable
// recommendation: a stable machine-readable type, a human-readable text and a
// suggested quantity. Restock actions suggest ordering the economic order
// quantity; overstock suggests reducing down to 70% of the current level.
func BuildRecommendation(p *Position, m Metrics) Recommendation {
	switch m.InventoryAction {
	case domain.ActionRestockImmediately:
		qty := ceilUnits(m.EconomicOrderQuantity)
		return Recommendation{
			Type:              domain.RecommendationRestock,
			SuggestedQuantity: qty,
			Text: fmt.Sprintf("Out of stock with active demand. Order %d units now (expected %s-unit daily demand).",
				qty, formatFloat(m.AdjustedDailySalesForecast, 2)),
		}
	case domain.ActionRestockSoon:
		qty := ceilUnits(m.EconomicOrderQuantity)
		return Recommendation{
			Type:              domain.RecommendationRestock,
			SuggestedQuantity: qty,
			Text: fmt.Sprintf("Inventory (%s) is below the reorder point (%s). Order %d units.",
				formatFloat(p.CurrentInventory, 0), formatFloat(m.ReorderPoint, 0), qty),
		}
	case domain.ActionOverstocked:
		reduction := ceilUnits(p.CurrentInventory - p.CurrentInventory*overstockKeepRatio)
		return Recommendation{
			Type:              domain.RecommendationReduceInventory,
			SuggestedQuantity: reduction,
			Text: fmt.Sprintf("Inventory far exceeds projected demand. Reduce stock by %d units (down to %.0f%% of current level).",
				reduction, overstockKeepRatio*100),
		}
	case domain.ActionMaintain:
		return Recommendation{
			Type: domain.RecommendationOptimal,
			Text: "Stock level is healthy. Maintain the current replenishment cadence.",
		}
	default:
		return Recommendation{
			Type: domain.RecommendationMonitor,
			Text: "Demand signal is weak or inconclusive. Monitor sales and online interest before acting.",
		}
	}
}
