package forecast

// The replenishment policy is a set of ordered rule cascades, each evaluated
// top-down with first match winning and a mandatory default. Keeping them as
// explicit (predicate, result) tables keeps the precedence order auditable
// and lets tests exercise each rule in isolation.

// ruleInput is the evaluation context shared by all tables. Metrics points at
// the partially computed result so later cascades (action classification) can
// read values produced by earlier ones (reorder point).
type ruleInput struct {
	Position *Position
	Params   PolicyParams
	Metrics  *Metrics
}

type rule[T any] struct {
	name string
	when func(in ruleInput) bool
	then func(in ruleInput) T
}

type ruleTable[T any] struct {
	name  string
	rules []rule[T]
	// def is the mandatory fallback; every cascade must be total.
	defName string
	def     func(in ruleInput) T
}

// eval walks the table top-down and returns the first matching rule's result
// together with the rule name that fired.
func (t ruleTable[T]) eval(in ruleInput) (T, string) {
	for _, r := range t.rules {
		if r.when(in) {
			return r.then(in), r.name
		}
	}

	return t.def(in), t.defName
}

// ruleNames lists the table's rule names in precedence order, fallback last.
func (t ruleTable[T]) ruleNames() []string {
	names := make([]string, 0, len(t.rules)+1)
	for _, r := range t.rules {
		names = append(names, r.name)
	}

	return append(names, t.defName)
}
