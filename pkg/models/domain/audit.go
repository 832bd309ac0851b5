package domain

import (
	"strings"
	"unicode/utf8"
)

// Severity is the ordinal risk bucket of a finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Severities lists every severity, most severe first.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// ParseSeverity maps free-form input onto a known severity.
// Unrecognised values become SeverityMedium.
func ParseSeverity(raw string) Severity {
	switch Severity(strings.ToUpper(strings.TrimSpace(raw))) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityHigh:
		return SeverityHigh
	case SeverityMedium:
		return SeverityMedium
	case SeverityLow:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Rank orders severities for sorting: CRITICAL is 0, LOW is 3.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	default:
		return 3
	}
}

// Weight is the multiplier a severity carries in the overall risk score.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 10
	case SeverityHigh:
		return 5
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// Category classifies what a finding is about.
type Category string

const (
	CategoryJurisdiction         Category = "jurisdiction"
	CategoryFinancial            Category = "financial"
	CategoryLegal                Category = "legal"
	CategoryOperational          Category = "operational"
	CategoryCompliance           Category = "compliance"
	CategoryVagueLanguage        Category = "vague_language"
	CategoryMissingInfo          Category = "missing_info"
	CategoryLiability            Category = "liability"
	CategoryIntellectualProperty Category = "intellectual_property"
	CategoryTax                  Category = "tax"
	CategoryEmployee             Category = "employee"
	CategoryCustomer             Category = "customer"
	CategoryOther                Category = "other"
)

var categories = map[Category]struct{}{
	CategoryJurisdiction:         {},
	CategoryFinancial:            {},
	CategoryLegal:                {},
	CategoryOperational:          {},
	CategoryCompliance:           {},
	CategoryVagueLanguage:        {},
	CategoryMissingInfo:          {},
	CategoryLiability:            {},
	CategoryIntellectualProperty: {},
	CategoryTax:                  {},
	CategoryEmployee:             {},
	CategoryCustomer:             {},
	CategoryOther:                {},
}

// ParseCategory maps free-form input onto a known category.
// Unrecognised values become CategoryOther.
func ParseCategory(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := categories[c]; ok {
		return c
	}
	return CategoryOther
}

const (
	// SourceRuleEngine marks findings produced by the deterministic rule engine.
	SourceRuleEngine = "rule_engine"

	MinScore          = 1
	MaxScore          = 10
	DefaultScore      = 5
	MaxLocationLength = 500
	DefaultTitle      = "Unspecified Issue"
)

// Finding is a single detected risk item, whatever produced it.
type Finding struct {
	Category       Category
	Severity       Severity
	Title          string
	Description    string
	Location       string // surrounding context or quoted span
	Score          int    // 1-10, independent of Severity
	Source         string
	Recommendation string
}

// Normalize returns a copy of f that satisfies the Finding invariants:
// known category and severity, score in [1,10], a title, and a bounded location.
func (f Finding) Normalize() Finding {
	f.Category = ParseCategory(string(f.Category))
	if !f.Severity.Valid() {
		f.Severity = ParseSeverity(string(f.Severity))
	}
	switch {
	case f.Score == 0:
		f.Score = DefaultScore
	case f.Score < MinScore:
		f.Score = MinScore
	case f.Score > MaxScore:
		f.Score = MaxScore
	}
	if strings.TrimSpace(f.Title) == "" {
		f.Title = DefaultTitle
	}
	f.Location = TruncateRunes(f.Location, MaxLocationLength)
	return f
}

// TruncateRunes cuts s to at most n characters without splitting a rune.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
