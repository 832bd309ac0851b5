package rules

import (
	"fmt"
	"regexp"

	"github.com/de-tools/redflag/pkg/models/domain"
)

var concentrationPattern = regexp.MustCompile(`(?i)top\s+\d+\s+customers?.*?(\d+)%`)

const (
	concentrationHigh     = 50
	concentrationCritical = 70
)

type customerConcentrationCheck struct {
	window int
}

func newCustomerConcentrationCheck(window int) customerConcentrationCheck {
	return customerConcentrationCheck{window: window}
}

func (c customerConcentrationCheck) Name() string { return "customer_concentration" }

func (c customerConcentrationCheck) Run(text string) []domain.Finding {
	var out []domain.Finding
	for _, loc := range concentrationPattern.FindAllStringSubmatchIndex(text, -1) {
		pct, ok := submatchInt(text, loc, 1)
		if !ok || pct <= concentrationHigh {
			continue
		}
		digits := text[loc[2]:loc[3]]
		severity, score := domain.SeverityHigh, 7
		if pct > concentrationCritical {
			severity, score = domain.SeverityCritical, 9
		}
		out = append(out, domain.Finding{
			Category:       domain.CategoryCustomer,
			Severity:       severity,
			Title:          fmt.Sprintf("High Customer Concentration (%s%%)", digits),
			Description:    fmt.Sprintf("Top customers represent %s%% of revenue. Loss of any major customer could be catastrophic.", digits),
			Location:       Window(text, loc[0], loc[1], c.window),
			Score:          score,
			Source:         domain.SourceRuleEngine,
			Recommendation: "Require customer retention agreements, escrow protection, or earnout tied to customer retention.",
		})
	}
	return out
}
