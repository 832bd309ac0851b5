package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/de-tools/redflag/pkg/models/domain"
)

type deferredDisclosureCheck struct {
	terms  []termPattern
	window int
}

func newDeferredDisclosureCheck(phrases []string, window int) deferredDisclosureCheck {
	return deferredDisclosureCheck{terms: wordPatterns(phrases), window: window}
}

func (c deferredDisclosureCheck) Name() string { return "deferred_disclosure" }

func (c deferredDisclosureCheck) Run(text string) []domain.Finding {
	var out []domain.Finding
	for _, t := range c.terms {
		for _, loc := range t.re.FindAllStringIndex(text, -1) {
			out = append(out, domain.Finding{
				Category:       domain.CategoryMissingInfo,
				Severity:       domain.SeverityHigh,
				Title:          fmt.Sprintf("Deferred Disclosure: '%s'", t.term),
				Description:    "Critical information is deferred or incomplete. This is a major red flag - you're signing before having full information.",
				Location:       Window(text, loc[0], loc[1], c.window),
				Score:          8,
				Source:         domain.SourceRuleEngine,
				Recommendation: "STOP. Do not sign until all referenced information is provided and reviewed. No post-closing surprises.",
			})
		}
	}
	return out
}

// missingScheduleCheck reports at most one finding per document: the first
// indicator, in configured order, that appears anywhere in the text.
type missingScheduleCheck struct {
	indicators []termPattern
}

func newMissingScheduleCheck(indicators []string) missingScheduleCheck {
	out := make([]termPattern, 0, len(indicators))
	for _, ind := range indicators {
		if strings.TrimSpace(ind) == "" {
			continue
		}
		out = append(out, termPattern{
			term: ind,
			re:   regexp.MustCompile(`(?i).{0,100}` + regexp.QuoteMeta(ind) + `.{0,100}`),
		})
	}
	return missingScheduleCheck{indicators: out}
}

func (c missingScheduleCheck) Name() string { return "missing_schedule" }

func (c missingScheduleCheck) Run(text string) []domain.Finding {
	for _, ind := range c.indicators {
		loc := ind.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		return []domain.Finding{{
			Category:       domain.CategoryMissingInfo,
			Severity:       domain.SeverityCritical,
			Title:          "Missing or Incomplete Schedules",
			Description:    fmt.Sprintf("Schedules are incomplete: '%s'. Never sign with missing schedules.", ind.term),
			Location:       text[loc[0]:loc[1]],
			Score:          10,
			Source:         domain.SourceRuleEngine,
			Recommendation: "Require all schedules to be completed and attached before signing. Missing schedules = unknown liabilities.",
		}}
	}
	return nil
}
