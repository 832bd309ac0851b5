package rules

import (
	"fmt"

	"github.com/de-tools/redflag/pkg/models/domain"
	"github.com/de-tools/redflag/pkg/services/patterns"
)

// Check is one independent rule. Run must be deterministic and must not
// keep state between calls.
type Check interface {
	Name() string
	Run(text string) []domain.Finding
}

// Settings contains the tunable thresholds of the rule engine
type Settings struct {
	// ContextChars is the number of characters kept on each side of a match (default: 150)
	ContextChars int
	// VagueThreshold is the count a weasel word must exceed before it is flagged (default: 3)
	VagueThreshold int
	// AuditCutoffYear flags audits dated before this year (default: 2023)
	AuditCutoffYear int
	// MaxTextBytes bounds how much of a document is scanned (default: 5 MiB)
	MaxTextBytes int
}

// DefaultSettings returns the default configuration for the rule engine
func DefaultSettings() Settings {
	return Settings{
		ContextChars:    150,
		VagueThreshold:  3,
		AuditCutoffYear: 2023,
		MaxTextBytes:    5 << 20,
	}
}

// withDefaults fills zero fields from DefaultSettings.
func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if s.ContextChars <= 0 {
		s.ContextChars = def.ContextChars
	}
	if s.VagueThreshold <= 0 {
		s.VagueThreshold = def.VagueThreshold
	}
	if s.AuditCutoffYear <= 0 {
		s.AuditCutoffYear = def.AuditCutoffYear
	}
	if s.MaxTextBytes <= 0 {
		s.MaxTextBytes = def.MaxTextBytes
	}
	return s
}

// Engine runs a fixed, ordered pipeline of checks over document text.
type Engine struct {
	checks   []Check
	settings Settings
}

// NewEngine compiles the library into the standard eight checks.
// An error is returned only when a payment rule pattern does not compile.
func NewEngine(lib patterns.Library, settings Settings) (*Engine, error) {
	lib = lib.Clone()
	settings = settings.withDefaults()

	payments, err := newPaymentCheck(lib.PaymentRedFlags, settings.ContextChars)
	if err != nil {
		return nil, err
	}

	checks := []Check{
		newJurisdictionCheck(lib.OffshoreJurisdictions, lib.EscalationKeywords, settings.ContextChars),
		newVagueLanguageCheck(lib.WeaselWords, settings.VagueThreshold, settings.ContextChars),
		newDeferredDisclosureCheck(lib.DeferredDisclosurePhrases, settings.ContextChars),
		newMissingScheduleCheck(lib.MissingScheduleIndicators),
		newAuditDateCheck(settings.AuditCutoffYear, settings.ContextChars),
		payments,
		newSurvivalPeriodCheck(settings.ContextChars),
		newCustomerConcentrationCheck(settings.ContextChars),
	}
	return NewEngineWithChecks(settings, checks...)
}

// NewEngineWithChecks builds an engine from an explicit check list, run in the given order.
func NewEngineWithChecks(settings Settings, checks ...Check) (*Engine, error) {
	seen := make(map[string]struct{}, len(checks))
	for _, c := range checks {
		if c == nil {
			return nil, fmt.Errorf("check cannot be nil")
		}
		if _, exists := seen[c.Name()]; exists {
			return nil, fmt.Errorf("duplicate check: %s", c.Name())
		}
		seen[c.Name()] = struct{}{}
	}
	return &Engine{checks: checks, settings: settings.withDefaults()}, nil
}

// Checks returns the check names in execution order.
func (e *Engine) Checks() []string {
	names := make([]string, 0, len(e.checks))
	for _, c := range e.checks {
		names = append(names, c.Name())
	}
	return names
}

// Analyze runs every check over text and concatenates their findings in check order.
func (e *Engine) Analyze(text string) []domain.Finding {
	text = clip(text, e.settings.MaxTextBytes)

	findings := []domain.Finding{}
	for _, c := range e.checks {
		findings = append(findings, c.Run(text)...)
	}
	return findings
}
