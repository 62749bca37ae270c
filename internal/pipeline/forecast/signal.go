package forecast

// ExtractSignals maps raw engagement rows into per-article interest signals.
// This is pure field mapping; empty cells stay null. Duplicate rows for an
// article keep the last occurrence, matching the export's overwrite
// semantics.
func ExtractSignals(rows []EngagementRow) map[string]InterestSignal {
	signals := make(map[string]InterestSignal, len(rows))
	for _, row := range rows {
		if row.ArticleID == "" {
			continue
		}
		signals[row.ArticleID] = InterestSignal{
			PageViews:            row.PageViews,
			OnlineUsers:          row.OnlineUsers,
			EngagementRate:       row.EngagementRate,
			OnlineConversionRate: row.OnlineConversionRate,
			OnlineQuantitySold:   row.OnlineQuantitySold,
			OnlineRevenue:        row.OnlineRevenue,
		}
	}

	return signals
}

// NoSignal returns the all-null interest record used for articles the
// analytics feed knows nothing about. The record is still present so policy
// rules can branch on "no signal" explicitly rather than seeing zeros.
func NoSignal() InterestSignal {
	return InterestSignal{}
}
