package rules

import (
	"fmt"
	"regexp"

	"github.com/de-tools/redflag/pkg/models/domain"
)

var auditDatePattern = regexp.MustCompile(`(?i)audit(?:ed)?[^.]{0,50}(?:19|20)(\d{2})`)

type auditDateCheck struct {
	cutoff int
	window int
}

func newAuditDateCheck(cutoff, window int) auditDateCheck {
	return auditDateCheck{cutoff: cutoff, window: window}
}

func (c auditDateCheck) Name() string { return "audit_date" }

// Run flags every audit mention dated before the cutoff year.
func (c auditDateCheck) Run(text string) []domain.Finding {
	var out []domain.Finding
	for _, loc := range auditDatePattern.FindAllStringSubmatchIndex(text, -1) {
		yy, ok := submatchInt(text, loc, 1)
		if !ok {
			continue
		}
		year := resolveCentury(yy)
		if year >= c.cutoff {
			continue
		}
		out = append(out, domain.Finding{
			Category:       domain.CategoryFinancial,
			Severity:       domain.SeverityHigh,
			Title:          fmt.Sprintf("Outdated Financial Audit (%d)", year),
			Description:    fmt.Sprintf("Most recent audit mentioned is from %d, which is too old to be reliable.", year),
			Location:       Window(text, loc[0], loc[1], c.window),
			Score:          7,
			Source:         domain.SourceRuleEngine,
			Recommendation: "Require current audited financials (within 12 months). Outdated audits hide recent problems.",
		})
	}
	return out
}

// resolveCentury maps a two-digit year: above 50 is the 1900s, otherwise the 2000s.
func resolveCentury(yy int) int {
	if yy > 50 {
		return 1900 + yy
	}
	return 2000 + yy
}
