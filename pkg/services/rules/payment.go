package rules

import (
	"fmt"
	"regexp"

	"github.com/de-tools/redflag/pkg/models/domain"
	"github.com/de-tools/redflag/pkg/services/patterns"
)

type paymentRule struct {
	patterns.PaymentRule
	re *regexp.Regexp
}

type paymentCheck struct {
	rules  []paymentRule
	window int
}

func newPaymentCheck(table []patterns.PaymentRule, window int) (paymentCheck, error) {
	rules := make([]paymentRule, 0, len(table))
	for _, r := range table {
		re, err := regexp.Compile(`(?is)` + r.Pattern)
		if err != nil {
			return paymentCheck{}, fmt.Errorf("invalid payment rule %q: %w", r.Title, err)
		}
		if r.Score == 0 {
			r.Score = domain.DefaultScore
		}
		if r.Score < domain.MinScore || r.Score > domain.MaxScore {
			return paymentCheck{}, fmt.Errorf("invalid payment rule %q: score %d is outside [%d,%d]",
				r.Title, r.Score, domain.MinScore, domain.MaxScore)
		}
		rules = append(rules, paymentRule{PaymentRule: r, re: re})
	}
	return paymentCheck{rules: rules, window: window}, nil
}

func (c paymentCheck) Name() string { return "payment_red_flag" }

// Run applies the payment table in order; every match yields one finding.
func (c paymentCheck) Run(text string) []domain.Finding {
	var out []domain.Finding
	for _, r := range c.rules {
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			out = append(out, domain.Finding{
				Category:       domain.CategoryFinancial,
				Severity:       r.Severity,
				Title:          r.Title,
				Description:    "Payment terms are incomplete or subject to future agreement. This creates massive dispute risk.",
				Location:       Window(text, loc[0], loc[1], c.window),
				Score:          r.Score,
				Source:         domain.SourceRuleEngine,
				Recommendation: r.Recommendation,
			})
		}
	}
	return out
}
