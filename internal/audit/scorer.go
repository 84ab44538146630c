package audit

import "strings"

// riskIndicator is one category of fraud language the scorer looks for in
// an audit narrative. A category counts once no matter how many of its
// patterns (or repetitions) appear, which keeps the score monotonic in the
// number of distinct categories matched.
type riskIndicator struct {
	label    string
	weight   int
	patterns []string
}

var riskIndicators = []riskIndicator{
	{"explicit fraud language", 16, []string{"fraud", "suspicious"}},
	{"upcoding", 14, []string{"upcoding", "upcoded"}},
	{"duplicate billing", 12, []string{"duplicate"}},
	{"unbundling", 12, []string{"unbundling", "unbundled"}},
	{"specialty mismatch", 10, []string{"mismatch"}},
	{"unusual charges", 10, []string{"unusual", "excessive"}},
	{"medical necessity", 10, []string{"unnecessary", "not medically necessary"}},
	{"missing documentation", 8, []string{"no documentation", "not documented", "undocumented"}},
	{"inconsistency", 8, []string{"inconsistent", "discrepanc"}},
	{"overutilization", 8, []string{"overutilization", "overuse"}},
}

// Score derives a fraud risk score in [0,100] from an LLM audit narrative.
// It is a pure, deterministic keyword heuristic: each distinct risk
// category found in the text adds its weight, the sum is clamped to 100,
// and text with no indicators scores 0. It never fails.
func Score(analysis string) int {
	if analysis == "" {
		return 0
	}
	lower := strings.ToLower(analysis)

	total := 0
	for _, ind := range riskIndicators {
		for _, p := range ind.patterns {
			if strings.Contains(lower, p) {
				total += ind.weight
				break
			}
		}
	}
	if total > 100 {
		return 100
	}
	return total
}

// RiskCategories returns the labels of risk categories matched in the
// analysis text, in scorer order. Used for observability in logs.
func RiskCategories(analysis string) []string {
	lower := strings.ToLower(analysis)
	var matched []string
	for _, ind := range riskIndicators {
		for _, p := range ind.patterns {
			if strings.Contains(lower, p) {
				matched = append(matched, ind.label)
				break
			}
		}
	}
	return matched
}
