package forecast

import "sort"

// AssemblePositions merges the inventory snapshot, article master, velocity
// statistics and online-interest signals into one record per article.
//
// The article universe is the union of the inventory and master feeds; stats
// and signals are left-joined onto it, so an article with inventory but no
// sales history or online signal is still present with nulls on the missing
// side. Stock rows are summed across warehouses, guaranteeing exactly one
// Position per article. Output is sorted by article id for deterministic
// runs.
func AssemblePositions(
	articles []ArticleRow,
	stock []StockRow,
	stats map[string]VelocityStats,
	signals map[string]InterestSignal,
) []Position {
	master := make(map[string]ArticleRow, len(articles))
	for _, a := range articles {
		if a.ArticleID == "" {
			continue
		}
		master[a.ArticleID] = a
	}

	type stockAgg struct {
		quantity float64
		status   string
	}
	onHand := make(map[string]stockAgg, len(stock))
	for _, s := range stock {
		if s.ArticleID == "" {
			continue
		}
		agg := onHand[s.ArticleID]
		agg.quantity += s.QuantityOnHand
		if agg.status == "" {
			agg.status = s.InventoryStatus
		}
		onHand[s.ArticleID] = agg
	}

	universe := make(map[string]struct{}, len(master)+len(onHand))
	for id := range master {
		universe[id] = struct{}{}
	}
	for id := range onHand {
		universe[id] = struct{}{}
	}

	ids := make([]string, 0, len(universe))
	for id := range universe {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	positions := make([]Position, 0, len(ids))
	for _, id := range ids {
		p := Position{ArticleID: id}

		if a, ok := master[id]; ok {
			p.Name = a.Name
			p.Brand = a.Brand
			p.Category = a.Category
			p.CostPrice = a.CostPrice
			p.Price = a.Price
		}

		if s, ok := onHand[id]; ok {
			p.CurrentInventory = s.quantity
			p.InventoryStatus = s.status
		}
		p.InventoryValue = p.CurrentInventory * p.CostPrice

		if st, ok := stats[id]; ok {
			p.Stats = st
		}

		if sig, ok := signals[id]; ok {
			p.Signal = sig
		} else {
			p.Signal = NoSignal()
		}

		// Months of inventory is undefined without a demand rate.
		if gtVal(p.Stats.AvgDailySales, 0) {
			p.MonthsOfInventory = nullFloat(p.CurrentInventory / (p.Stats.AvgDailySales.Float64 * 30))
		}

		positions = append(positions, p)
	}

	return positions
}
