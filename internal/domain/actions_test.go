package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionUrgency(t *testing.T) {
	assert.Equal(t, 0, ActionUrgency(ActionRestockImmediately))
	assert.Equal(t, 1, ActionUrgency(ActionRestockSoon))
	assert.Less(t, ActionUrgency(ActionOverstocked), ActionUrgency(ActionMaintain))
	assert.Equal(t, 5, ActionUrgency("No Such Action"))
}

func TestIsValidAction(t *testing.T) {
	assert.True(t, IsValidAction("Restock Immediately"))
	assert.True(t, IsValidAction("restock soon"))
	assert.True(t, IsValidAction("  Overstocked  "))
	assert.False(t, IsValidAction("Restock"))
	assert.False(t, IsValidAction(""))
}

func TestIsValidRecommendationType(t *testing.T) {
	assert.True(t, IsValidRecommendationType("RESTOCK"))
	assert.True(t, IsValidRecommendationType("reduce_inventory"))
	assert.True(t, IsValidRecommendationType("Optimal"))
	assert.True(t, IsValidRecommendationType("MAINTAIN"))
	assert.False(t, IsValidRecommendationType("SELL"))
	assert.False(t, IsValidRecommendationType(""))
}
