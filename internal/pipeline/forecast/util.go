package forecast

import (
	"database/sql"
	"math"
	"strconv"
	"strings"
)

// gtVal reports whether n is present and strictly greater than x. An invalid
// (null) value never satisfies a comparison; "no signal" must not be treated
// as zero.
func gtVal(n sql.NullFloat64, x float64) bool {
	return n.Valid && n.Float64 > x
}

// ltVal reports whether n is present and strictly less than x.
func ltVal(n sql.NullFloat64, x float64) bool {
	return n.Valid && n.Float64 < x
}

// orZero returns the value of n, or zero when it is null. Only used where the
// policy explicitly treats a missing term as contributing nothing.
func orZero(n sql.NullFloat64) float64 {
	if !n.Valid {
		return 0
	}

	return n.Float64
}

func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

// ceilUnits converts a fractional quantity into whole order units.
func ceilUnits(v float64) int {
	if v <= 0 {
		return 0
	}

	return int(math.Ceil(v))
}

func formatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(roundFloat(v, decimals), 'f', -1, 64)
}

func formatNullFloat(n sql.NullFloat64, decimals int) string {
	if !n.Valid {
		return ""
	}

	return formatFloat(n.Float64, decimals)
}

func formatNullDate(n sql.NullTime) string {
	if !n.Valid {
		return ""
	}

	return n.Time.Format("2006-01-02")
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}
