package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/de-tools/redflag/pkg/models/domain"
	"github.com/google/uuid"
)

const (
	// DefaultSimilarityThreshold is the Jaccard similarity at which two findings
	// of the same category count as duplicates.
	DefaultSimilarityThreshold = 0.7

	keyDescriptionChars = 100
)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source used for Report.AnalyzedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// WithSimilarityThreshold overrides DefaultSimilarityThreshold.
func WithSimilarityThreshold(threshold float64) Option {
	return func(a *Aggregator) {
		a.threshold = threshold
	}
}

// Aggregator merges rule and external findings into a single Report.
// It holds no mutable state and is safe for concurrent use.
type Aggregator struct {
	now       func() time.Time
	threshold float64
}

func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		now:       time.Now,
		threshold: DefaultSimilarityThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate normalizes, de-duplicates, ranks and scores the combined findings.
// Rule findings always precede external findings in arrival order, so a rule
// finding wins over a similar external one.
func (a *Aggregator) Aggregate(documentID string, ruleFindings, externalFindings []domain.Finding, elapsedSeconds float64) domain.Report {
	combined := make([]domain.Finding, 0, len(ruleFindings)+len(externalFindings))
	for _, f := range ruleFindings {
		combined = append(combined, f.Normalize())
	}
	for _, f := range externalFindings {
		combined = append(combined, f.Normalize())
	}

	findings := Deduplicate(combined, a.threshold)
	Sort(findings)

	r := domain.Report{
		ID:                    uuid.NewString(),
		DocumentID:            documentID,
		AnalyzedAt:            a.now(),
		TotalFlags:            len(findings),
		OverallRiskScore:      RiskScore(findings),
		Findings:              findings,
		ProcessingTimeSeconds: round2(elapsedSeconds),
		Metadata: domain.ReportMetadata{
			RuleFindingCount:     len(ruleFindings),
			ExternalFindingCount: len(externalFindings),
			DuplicatesRemoved:    len(combined) - len(findings),
		},
	}
	for _, f := range findings {
		switch f.Severity {
		case domain.SeverityCritical:
			r.CriticalCount++
		case domain.SeverityHigh:
			r.HighCount++
		case domain.SeverityMedium:
			r.MediumCount++
		case domain.SeverityLow:
			r.LowCount++
		}
	}
	return r
}

// Deduplicate drops findings that are textually similar to an earlier finding
// of the same category. Survivors are emitted group by group, in order of the
// first appearance of each category, keeping arrival order inside a group.
func Deduplicate(findings []domain.Finding, threshold float64) []domain.Finding {
	var order []domain.Category
	groups := make(map[domain.Category][]domain.Finding)
	for _, f := range findings {
		if _, ok := groups[f.Category]; !ok {
			order = append(order, f.Category)
		}
		groups[f.Category] = append(groups[f.Category], f)
	}

	out := make([]domain.Finding, 0, len(findings))
	for _, category := range order {
		var accepted [][]string
		for _, f := range groups[category] {
			tokens := strings.Fields(key(f))
			if isDuplicate(tokens, accepted, threshold) {
				continue
			}
			accepted = append(accepted, tokens)
			out = append(out, f)
		}
	}
	return out
}

func isDuplicate(tokens []string, accepted [][]string, threshold float64) bool {
	for _, seen := range accepted {
		if jaccard(tokens, seen) >= threshold {
			return true
		}
	}
	return false
}

// key is the text two findings are compared on.
func key(f domain.Finding) string {
	return strings.ToLower(f.Title) + "|" + strings.ToLower(domain.TruncateRunes(f.Description, keyDescriptionChars))
}

// Similarity returns the Jaccard similarity of the whitespace-separated word
// sets of a and b. It is 0 when either set is empty.
func Similarity(a, b string) float64 {
	return jaccard(strings.Fields(a), strings.Fields(b))
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, w := range a {
		set[w] = struct{}{}
	}
	union := len(set)
	inter := 0
	counted := make(map[string]struct{}, len(b))
	for _, w := range b {
		if _, dup := counted[w]; dup {
			continue
		}
		counted[w] = struct{}{}
		if _, ok := set[w]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// Sort orders findings most severe first and, within a severity, by
// descending score. Ties keep their relative order.
func Sort(findings []domain.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		ri, rj := findings[i].Severity.Rank(), findings[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return findings[i].Score > findings[j].Score
	})
}

// RiskScore is the severity-weighted mean of the finding scores, rounded to
// two decimals. An empty list scores 0.
func RiskScore(findings []domain.Finding) float64 {
	var weighted, total int
	for _, f := range findings {
		w := f.Severity.Weight()
		weighted += f.Score * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return round2(float64(weighted) / float64(total))
}

// Risk levels, from the highest band down.
const (
	LevelExtreme  = "EXTREME RISK"
	LevelHigh     = "HIGH RISK"
	LevelModerate = "MODERATE RISK"
	LevelLow      = "LOW RISK"
	LevelMinimal  = "MINIMAL RISK"
)

// RiskLevel classifies an overall risk score. Band lower bounds are inclusive.
func RiskLevel(score float64) string {
	switch {
	case score >= 8:
		return LevelExtreme
	case score >= 6:
		return LevelHigh
	case score >= 4:
		return LevelModerate
	case score >= 2:
		return LevelLow
	default:
		return LevelMinimal
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
