package rules

import (
	"fmt"
	"regexp"

	"github.com/de-tools/redflag/pkg/models/domain"
)

var survivalPattern = regexp.MustCompile(`(?i)(?:surviv|representations).*?(\d+)\s*(?:months?|days?)`)

// minSurvivalMonths is the shortest survival period accepted without a flag.
const minSurvivalMonths = 12

type survivalPeriodCheck struct {
	window int
}

func newSurvivalPeriodCheck(window int) survivalPeriodCheck {
	return survivalPeriodCheck{window: window}
}

func (c survivalPeriodCheck) Name() string { return "survival_period" }

func (c survivalPeriodCheck) Run(text string) []domain.Finding {
	var out []domain.Finding
	for _, loc := range survivalPattern.FindAllStringSubmatchIndex(text, -1) {
		period, ok := submatchInt(text, loc, 1)
		if !ok || period >= minSurvivalMonths {
			continue
		}
		out = append(out, domain.Finding{
			Category:       domain.CategoryLiability,
			Severity:       domain.SeverityHigh,
			Title:          fmt.Sprintf("Short Survival Period (%d months)", period),
			Description:    fmt.Sprintf("Representations survive only %d months. Industry standard is 18-24 months minimum.", period),
			Location:       Window(text, loc[0], loc[1], c.window),
			Score:          7,
			Source:         domain.SourceRuleEngine,
			Recommendation: fmt.Sprintf("Negotiate longer survival period (minimum 18 months). %d months is insufficient for most issues to surface.", period),
		})
	}
	return out
}
