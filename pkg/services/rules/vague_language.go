package rules

import (
	"fmt"

	"github.com/de-tools/redflag/pkg/models/domain"
)

type vagueLanguageCheck struct {
	terms     []termPattern
	threshold int
	window    int
}

func newVagueLanguageCheck(words []string, threshold, window int) vagueLanguageCheck {
	return vagueLanguageCheck{terms: wordPatterns(words), threshold: threshold, window: window}
}

func (c vagueLanguageCheck) Name() string { return "vague_language" }

// Run flags each weasel word used more than threshold times, once per word,
// pointing at its first occurrence.
func (c vagueLanguageCheck) Run(text string) []domain.Finding {
	var out []domain.Finding
	for _, t := range c.terms {
		matches := t.re.FindAllStringIndex(text, -1)
		if len(matches) <= c.threshold {
			continue
		}
		first := matches[0]
		out = append(out, domain.Finding{
			Category:       domain.CategoryVagueLanguage,
			Severity:       domain.SeverityMedium,
			Title:          fmt.Sprintf("Excessive Vague Language: '%s' (%dx)", t.term, len(matches)),
			Description:    fmt.Sprintf("Term '%s' appears %d times. Vague language creates ambiguity and potential for disputes.", t.term, len(matches)),
			Location:       Window(text, first[0], first[1], c.window),
			Score:          5,
			Source:         domain.SourceRuleEngine,
			Recommendation: fmt.Sprintf("Request specific definitions and thresholds. Replace '%s' with measurable criteria.", t.term),
		})
	}
	return out
}
