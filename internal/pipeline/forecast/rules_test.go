package forecast

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func invalidFloat() sql.NullFloat64 {
	return sql.NullFloat64{}
}

func TestRuleTableFirstMatchWins(t *testing.T) {
	table := ruleTable[int]{
		name: "precedence",
		rules: []rule[int]{
			{
				name: "first",
				when: func(in ruleInput) bool { return in.Position.CurrentInventory > 10 },
				then: func(in ruleInput) int { return 1 },
			},
			{
				name: "second",
				when: func(in ruleInput) bool { return in.Position.CurrentInventory > 5 },
				then: func(in ruleInput) int { return 2 },
			},
		},
		defName: "fallback",
		def:     func(in ruleInput) int { return 3 },
	}

	eval := func(inventory float64) (int, string) {
		return table.eval(ruleInput{Position: &Position{CurrentInventory: inventory}})
	}

	// Both predicates hold; the earlier rule wins.
	v, name := eval(20)
	assert.Equal(t, 1, v)
	assert.Equal(t, "first", name)

	v, name = eval(7)
	assert.Equal(t, 2, v)
	assert.Equal(t, "second", name)

	v, name = eval(1)
	assert.Equal(t, 3, v)
	assert.Equal(t, "fallback", name)
}

func TestRuleTableNames(t *testing.T) {
	assert.Equal(t,
		[]string{
			"hot_interest_uplift",
			"warm_interest_uplift",
			"cold_interest_discount",
			"velocity_baseline",
			"new_product_with_interest",
			"minimum_floor",
		},
		dailyForecastRules.ruleNames())
}

func TestNullComparisons(t *testing.T) {
	assert.True(t, gtVal(validFloat(5), 4))
	assert.False(t, gtVal(validFloat(4), 4))
	assert.False(t, gtVal(invalidFloat(), -1))

	assert.True(t, ltVal(validFloat(3), 4))
	assert.False(t, ltVal(invalidFloat(), 4))

	assert.Equal(t, 0.0, orZero(invalidFloat()))
	assert.Equal(t, 2.5, orZero(validFloat(2.5)))
}
