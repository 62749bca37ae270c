package domain

import "strings"

// Inventory actions produced by the policy engine. The strings are part of the
// reporting contract and must not change.
const (
	ActionRestockImmediately = "Restock Immediately"
	ActionRestockSoon        = "Restock Soon"
	ActionOverstocked        = "Overstocked"
	ActionMaintain           = "Maintain"
	ActionMonitor            = "Monitor"
)

// Forecast confidence labels.
const (
	ConfidenceHigh    = "High"
	ConfidenceMedium  = "Medium"
	ConfidenceLow     = "Low"
	ConfidenceVeryLow = "Very Low"
)

// Recommendation types consumed by the reporting API. OPTIMAL replaced the
// older MAINTAIN value for healthy stock; MAINTAIN is still accepted on the
// wire but the engine no longer emits it.
const (
	RecommendationRestock         = "RESTOCK"
	RecommendationReduceInventory = "REDUCE_INVENTORY"
	RecommendationOptimal         = "OPTIMAL"
	RecommendationMaintain        = "MAINTAIN"
	RecommendationMonitor         = "MONITOR"
)

// actionUrgency orders actions for reorder reporting, most urgent first.
var actionUrgency = map[string]int{
	ActionRestockImmediately: 0,
	ActionRestockSoon:        1,
	ActionOverstocked:        2,
	ActionMonitor:            3,
	ActionMaintain:           4,
}

var validActions = map[string]bool{
	strings.ToLower(ActionRestockImmediately): true,
	strings.ToLower(ActionRestockSoon):        true,
	strings.ToLower(ActionOverstocked):        true,
	strings.ToLower(ActionMaintain):           true,
	strings.ToLower(ActionMonitor):            true,
}

var validRecommendationTypes = map[string]bool{
	RecommendationRestock:         true,
	RecommendationReduceInventory: true,
	RecommendationOptimal:         true,
	RecommendationMaintain:        true,
	RecommendationMonitor:         true,
}

// ActionUrgency returns the sort rank for an inventory action, lower is more
// urgent. Unknown actions sort last.
func ActionUrgency(action string) int {
	if rank, ok := actionUrgency[action]; ok {
		return rank
	}

	return len(actionUrgency)
}

// IsValidAction reports whether the given label is a known inventory action
// (case-insensitive).
func IsValidAction(action string) bool {
	return validActions[strings.ToLower(strings.TrimSpace(action))]
}

// IsValidRecommendationType reports whether the given value is a known
// recommendation type.
func IsValidRecommendationType(t string) bool {
	return validRecommendationTypes[strings.ToUpper(strings.TrimSpace(t))]
}
