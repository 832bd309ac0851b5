package rules

import (
	"fmt"
	"strings"

	"github.com/de-tools/redflag/pkg/models/domain"
)

type jurisdictionCheck struct {
	terms    []termPattern
	keywords []string
	window   int
}

func newJurisdictionCheck(jurisdictions, escalation []string, window int) jurisdictionCheck {
	keywords := make([]string, 0, len(escalation))
	for _, k := range escalation {
		keywords = append(keywords, strings.ToLower(k))
	}
	return jurisdictionCheck{
		terms:    wordPatterns(jurisdictions),
		keywords: keywords,
		window:   window,
	}
}

func (c jurisdictionCheck) Name() string { return "offshore_jurisdiction" }

// Run emits one finding per mention of an offshore jurisdiction. Mentions whose
// context talks about governing law or dispute resolution are escalated.
func (c jurisdictionCheck) Run(text string) []domain.Finding {
	var out []domain.Finding
	for _, t := range c.terms {
		for _, loc := range t.re.FindAllStringIndex(text, -1) {
			context := Window(text, loc[0], loc[1], c.window)

			severity, score := domain.SeverityHigh, 7
			if containsAny(strings.ToLower(context), c.keywords) {
				severity, score = domain.SeverityCritical, 9
			}

			out = append(out, domain.Finding{
				Category:       domain.CategoryJurisdiction,
				Severity:       severity,
				Title:          fmt.Sprintf("Offshore Jurisdiction: %s", t.term),
				Description:    fmt.Sprintf("Document references %s, which may indicate jurisdiction shopping or regulatory arbitrage.", t.term),
				Location:       context,
				Score:          score,
				Source:         domain.SourceRuleEngine,
				Recommendation: "Require arbitration in neutral jurisdiction (Delaware, New York, or London). Investigate why offshore jurisdiction was chosen.",
			})
		}
	}
	return out
}
