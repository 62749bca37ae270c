package forecast

import (
	"database/sql"
	"math"
	"sort"
	"time"
)

// Aggregator rolls raw sale line-items into per-article daily series and
// velocity statistics. Statistics cover active selling days only: a day with
// no sales is absent from the series, so the mean is a per-selling-day
// average rather than a calendar average diluted by zero-sale days.
type Aggregator struct {
	asOf       time.Time
	windowDays int
}

// NewAggregator creates an aggregator for a snapshot date. windowDays limits
// the trailing history considered; zero means all available history.
func NewAggregator(asOf time.Time, windowDays int) *Aggregator {
	return &Aggregator{asOf: asOf, windowDays: windowDays}
}

// AggregateDailySales groups sale lines into per-article daily quantity
// series, summing quantities per (article, calendar day). Series are sorted
// by day. Lines outside the trailing window or after the snapshot date are
// dropped.
func (a *Aggregator) AggregateDailySales(lines []SaleLine) map[string][]DailySales {
	var cutoff time.Time
	if a.windowDays > 0 {
		cutoff = a.asOf.AddDate(0, 0, -a.windowDays)
	}

	type dayKey struct {
		article string
		day     time.Time
	}

	sums := make(map[dayKey]float64)
	for _, line := range lines {
		if line.ArticleID == "" {
			continue
		}
		day := line.SaleDate.Truncate(24 * time.Hour)
		if !a.asOf.IsZero() && day.After(a.asOf) {
			continue
		}
		if a.windowDays > 0 && day.Before(cutoff) {
			continue
		}
		sums[dayKey{article: line.ArticleID, day: day}] += line.Quantity
	}

	series := make(map[string][]DailySales)
	for key, qty := range sums {
		series[key.article] = append(series[key.article], DailySales{
			ArticleID: key.article,
			Day:       key.day,
			Quantity:  qty,
		})
	}

	for id := range series {
		s := series[id]
		sort.Slice(s, func(i, j int) bool { return s[i].Day.Before(s[j].Day) })
		series[id] = s
	}

	return series
}

// ComputeVelocityStats derives summary statistics from one article's daily
// series. An empty series yields all-null statistics; downstream policy must
// treat that as "no history", not zero demand.
func (a *Aggregator) ComputeVelocityStats(series []DailySales) VelocityStats {
	stats := VelocityStats{}
	if len(series) == 0 {
		return stats
	}

	quantities := make([]float64, len(series))
	var sum float64
	for i, d := range series {
		quantities[i] = d.Quantity
		sum += d.Quantity
	}
	sort.Float64s(quantities)

	n := float64(len(quantities))
	mean := sum / n

	stats.DaysWithSales = len(series)
	stats.AvgDailySales = nullFloat(mean)
	stats.MedianDailySales = nullFloat(percentile(quantities, 0.5))
	stats.P90DailySales = nullFloat(percentile(quantities, 0.9))
	stats.FirstSaleDate = sql.NullTime{Time: series[0].Day, Valid: true}
	stats.LastSaleDate = sql.NullTime{Time: series[len(series)-1].Day, Valid: true}

	// Sample standard deviation needs at least two observations.
	if len(quantities) >= 2 {
		var ss float64
		for _, q := range quantities {
			ss += (q - mean) * (q - mean)
		}
		stats.StddevDailySales = nullFloat(math.Sqrt(ss / (n - 1)))
	}

	return stats
}

// VelocityStatsByArticle is the composed aggregation step: daily series plus
// statistics for every article that sold at least once in the window.
func (a *Aggregator) VelocityStatsByArticle(lines []SaleLine) map[string]VelocityStats {
	series := a.AggregateDailySales(lines)

	stats := make(map[string]VelocityStats, len(series))
	for id, s := range series {
		stats[id] = a.ComputeVelocityStats(s)
	}

	return stats
}

// percentile computes the p-th percentile (0..1) of sorted values using
// linear interpolation between closest ranks, matching SQL percentile_cont.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
