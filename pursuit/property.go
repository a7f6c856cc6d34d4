package pursuit

import "github.com/zeu5/pursuit-rl/types"

// AllAdversariesCaught reports whether the trace ends with an empty
// adversary roster
func AllAdversariesCaught(t *types.Trace) bool {
	_, _, _, ns, ok := t.Last()
	if !ok {
		return false
	}
	s, ok := ns.(*State)
	return ok && s.Done && len(s.Roster.Adversaries) == 0
}

// SuccessAnalyzer counts the episodes that caught every adversary so far
func SuccessAnalyzer() *SeriesAnalyzer {
	return NewCumulativeAnalyzer(func(t *types.Trace) float64 {
		if AllAdversariesCaught(t) {
			return 1
		}
		return 0
	})
}
