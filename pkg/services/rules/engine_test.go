package rules

import (
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/de-tools/redflag/pkg/models/domain"
	"github.com/de-tools/redflag/pkg/services/patterns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(patterns.Default(), DefaultSettings())
	require.NoError(t, err)
	return e
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		start, end int
		chars      int
		expected   string
	}{
		{name: "clipped both sides", text: "abcdefghij", start: 4, end: 6, chars: 2, expected: "...cdefgh..."},
		{name: "at document start", text: "hello world", start: 0, end: 5, chars: 3, expected: "hello wo..."},
		{name: "at document end", text: "hello world", start: 6, end: 11, chars: 3, expected: "...lo world"},
		{name: "window covers all", text: "short", start: 0, end: 5, chars: 150, expected: "short"},
		{name: "whitespace trimmed", text: "  a  ", start: 2, end: 3, chars: 150, expected: "a"},
		{name: "counts runes not bytes", text: "ééééXéééé", start: 8, end: 9, chars: 2, expected: "...ééXéé..."},
		{name: "negative size means no context", text: "abc", start: 1, end: 2, chars: -1, expected: "...b..."},
		{name: "out of range bounds are clamped", text: "abc", start: -5, end: 99, chars: 1, expected: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Window(tt.text, tt.start, tt.end, tt.chars))
		})
	}
}

func TestAnalyze_OffshoreJurisdictionNearGoverningLaw_IsCritical(t *testing.T) {
	// Given
	e := newTestEngine(t)
	text := "Section 12. Governing Law. This Agreement is governed by the laws of the Cayman Islands."

	// When
	findings := e.Analyze(text)

	// Then
	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, domain.CategoryJurisdiction, f.Category)
	assert.Equal(t, domain.SeverityCritical, f.Severity)
	assert.Equal(t, 9, f.Score)
	assert.Equal(t, "Offshore Jurisdiction: Cayman Islands", f.Title)
	assert.Equal(t, domain.SourceRuleEngine, f.Source)
	assert.Equal(t, text, f.Location)
}

func TestAnalyze_OffshoreJurisdiction_OneFindingPerMention(t *testing.T) {
	e := newTestEngine(t)
	text := "A subsidiary is located in Bermuda. Another office sits in bermuda. Bermudashorts are not a place."

	findings := e.Analyze(text)

	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Equal(t, domain.SeverityHigh, f.Severity)
		assert.Equal(t, 7, f.Score)
	}
}

func TestAnalyze_VagueLanguageThreshold(t *testing.T) {
	e := newTestEngine(t)

	t.Run("three uses are not flagged", func(t *testing.T) {
		text := "A reasonable cost, a reasonable fee and a reasonable time. Acting reasonably."
		assert.Empty(t, e.Analyze(text))
	})

	t.Run("four uses yield one finding", func(t *testing.T) {
		text := "A reasonable cost, a reasonable fee, a reasonable time and a Reasonable notice."
		findings := e.Analyze(text)

		require.Len(t, findings, 1)
		f := findings[0]
		assert.Equal(t, domain.CategoryVagueLanguage, f.Category)
		assert.Equal(t, domain.SeverityMedium, f.Severity)
		assert.Equal(t, 5, f.Score)
		assert.Equal(t, "Excessive Vague Language: 'reasonable' (4x)", f.Title)
		assert.True(t, strings.HasPrefix(f.Location, "A reasonable cost"))
	})
}

func TestAnalyze_DeferredDisclosure_EveryOccurrence(t *testing.T) {
	e := newTestEngine(t)
	text := "The customer list will be provided later. Pension details will be provided after signing."

	findings := e.Analyze(text)

	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Equal(t, domain.CategoryMissingInfo, f.Category)
		assert.Equal(t, domain.SeverityHigh, f.Severity)
		assert.Equal(t, 8, f.Score)
		assert.Equal(t, "Deferred Disclosure: 'will be provided'", f.Title)
	}
}

func TestAnalyze_MissingSchedules_FirstIndicatorInListOrderWins(t *testing.T) {
	// Given "to be determined" appears first in the text but later in the indicator list
	e := newTestEngine(t)
	text := "Purchase price adjustments are to be determined. Schedule 3.1 is being compiled."

	// When
	findings := e.Analyze(text)

	// Then
	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, domain.CategoryMissingInfo, f.Category)
	assert.Equal(t, domain.SeverityCritical, f.Severity)
	assert.Equal(t, 10, f.Score)
	assert.Contains(t, f.Description, "'being compiled'")
	assert.Equal(t, text, f.Location)
}

func TestAnalyze_MissingSchedules_AtMostOnce(t *testing.T) {
	e := newTestEngine(t)
	text := "Schedule A is being finalized.\nSchedule B is being finalized.\nSchedule C will be attached."

	findings := e.Analyze(text)

	require.Len(t, findings, 1)
	assert.Equal(t, "Schedule A is being finalized.", findings[0].Location)
}

func TestAnalyze_AuditDates(t *testing.T) {
	e := newTestEngine(t)
	text := "The company was last audited in 2019. Financial statements audited for fiscal 1998. The audit for 2024 is complete."

	findings := e.Analyze(text)

	require.Len(t, findings, 2)
	assert.Equal(t, "Outdated Financial Audit (2019)", findings[0].Title)
	assert.Equal(t, "Outdated Financial Audit (1998)", findings[1].Title)
	for _, f := range findings {
		assert.Equal(t, domain.CategoryFinancial, f.Category)
		assert.Equal(t, domain.SeverityHigh, f.Severity)
		assert.Equal(t, 7, f.Score)
	}
}

func TestResolveCentury(t *testing.T) {
	assert.Equal(t, 2050, resolveCentury(50))
	assert.Equal(t, 1951, resolveCentury(51))
	assert.Equal(t, 2000, resolveCentury(0))
	assert.Equal(t, 1999, resolveCentury(99))
}

func TestAnalyze_PaymentRedFlags(t *testing.T) {
	e := newTestEngine(t)

	t.Run("undefined earnout", func(t *testing.T) {
		findings := e.Analyze("The earnout shall be based on targets to be mutually agreed.")
		require.Len(t, findings, 1)
		assert.Equal(t, "Undefined Earnout Targets", findings[0].Title)
		assert.Equal(t, domain.SeverityCritical, findings[0].Severity)
		assert.Equal(t, 10, findings[0].Score)
		assert.Equal(t, domain.CategoryFinancial, findings[0].Category)
	})

	t.Run("matches across lines", func(t *testing.T) {
		findings := e.Analyze("Earnout\n\nThe targets remain undefined")
		require.Len(t, findings, 1)
		assert.Equal(t, "Undefined Earnout Targets", findings[0].Title)
	})

	t.Run("deferred payment", func(t *testing.T) {
		findings := e.Analyze("Deferred consideration is subject to performance metrics.")
		require.Len(t, findings, 1)
		assert.Equal(t, "Undefined Deferred Payment Terms", findings[0].Title)
		assert.Equal(t, domain.SeverityHigh, findings[0].Severity)
		assert.Equal(t, 8, findings[0].Score)
	})
}

func TestAnalyze_SurvivalPeriod(t *testing.T) {
	e := newTestEngine(t)

	t.Run("short period is flagged", func(t *testing.T) {
		findings := e.Analyze("All representations and warranties shall survive for 6 months after Closing.")
		require.Len(t, findings, 1)
		f := findings[0]
		assert.Equal(t, domain.CategoryLiability, f.Category)
		assert.Equal(t, domain.SeverityHigh, f.Severity)
		assert.Equal(t, "Short Survival Period (6 months)", f.Title)
		assert.Contains(t, f.Description, "only 6 months")
	})

	t.Run("standard period is not flagged", func(t *testing.T) {
		assert.Empty(t, e.Analyze("The representations shall survive for 18 months after Closing."))
	})
}

func TestAnalyze_CustomerConcentration(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name     string
		text     string
		severity domain.Severity
		score    int
		none     bool
	}{
		{name: "critical above 70", text: "Our top 5 customers represent 75% of revenue.", severity: domain.SeverityCritical, score: 9},
		{name: "high above 50", text: "The top 10 customers account for 60% of sales.", severity: domain.SeverityHigh, score: 7},
		{name: "exactly 70 is high", text: "The top 3 customers account for 70% of sales.", severity: domain.SeverityHigh, score: 7},
		{name: "50 is not flagged", text: "The top 3 customers account for 50% of sales.", none: true},
		{name: "oversized percentage is critical", text: "The top 5 customers represent 99999999999999999999% of revenue.", severity: domain.SeverityCritical, score: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := e.Analyze(tt.text)
			if tt.none {
				assert.Empty(t, findings)
				return
			}
			require.Len(t, findings, 1)
			assert.Equal(t, domain.CategoryCustomer, findings[0].Category)
			assert.Equal(t, tt.severity, findings[0].Severity)
			assert.Equal(t, tt.score, findings[0].Score)
		})
	}
}

func TestAnalyze_CustomerConcentration_KeepsCapturedDigits(t *testing.T) {
	e := newTestEngine(t)

	findings := e.Analyze("The top 5 customers represent 99999999999999999999% of revenue.")

	require.Len(t, findings, 1)
	assert.Equal(t, "High Customer Concentration (99999999999999999999%)", findings[0].Title)
}

func TestSubmatchInt(t *testing.T) {
	re := regexp.MustCompile(`(\d+)`)
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "small", text: "42", expected: 42},
		{name: "saturates", text: "99999999999999999999", expected: math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := submatchInt(tt.text, re.FindStringSubmatchIndex(tt.text), 1)
			require.True(t, ok)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestAnalyze_OrderFollowsCheckRegistration(t *testing.T) {
	e := newTestEngine(t)
	text := "Our top 5 customers represent 75% of revenue.\n" +
		"The representations survive for 6 months.\n" +
		"Governing law: Cayman Islands."

	findings := e.Analyze(text)

	require.Len(t, findings, 3)
	assert.Equal(t, domain.CategoryJurisdiction, findings[0].Category)
	assert.Equal(t, domain.CategoryLiability, findings[1].Category)
	assert.Equal(t, domain.CategoryCustomer, findings[2].Category)
}

func TestAnalyze_IsDeterministic(t *testing.T) {
	e := newTestEngine(t)
	text := strings.Repeat("The earnout is to be determined. Top 4 customers are 80% of revenue.\n", 5) +
		"Disputes go to arbitration in the British Virgin Islands. Audited 2015. Reasonable, reasonable, reasonable, reasonable."

	first := e.Analyze(text)
	second := e.Analyze(text)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestAnalyze_EmptyText(t *testing.T) {
	e := newTestEngine(t)
	findings := e.Analyze("")
	assert.NotNil(t, findings)
	assert.Empty(t, findings)
}

func TestAnalyze_TextBeyondLimitIsNotScanned(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxTextBytes = 20
	e, err := NewEngine(patterns.Default(), settings)
	require.NoError(t, err)

	findings := e.Analyze(strings.Repeat("x", 30) + " Cayman Islands")

	assert.Empty(t, findings)
}

func TestNewEngine_InvalidPaymentPattern(t *testing.T) {
	lib := patterns.Default()
	lib.PaymentRedFlags = []patterns.PaymentRule{{Pattern: "earnout(", Title: "broken"}}

	_, err := NewEngine(lib, DefaultSettings())

	assert.Error(t, err)
}

func TestNewEngine_PaymentRuleScore(t *testing.T) {
	t.Run("out of range is rejected", func(t *testing.T) {
		lib := patterns.Default()
		lib.PaymentRedFlags = []patterns.PaymentRule{{Pattern: "earnout", Title: "Earnout", Severity: domain.SeverityHigh, Score: 99}}

		_, err := NewEngine(lib, DefaultSettings())

		assert.Error(t, err)
	})

	t.Run("missing score defaults", func(t *testing.T) {
		lib := patterns.Default()
		lib.PaymentRedFlags = []patterns.PaymentRule{{Pattern: "earnout", Title: "Earnout", Severity: domain.SeverityHigh}}

		e, err := NewEngine(lib, DefaultSettings())
		require.NoError(t, err)

		findings := e.Analyze("The earnout applies.")
		require.Len(t, findings, 1)
		assert.Equal(t, domain.DefaultScore, findings[0].Score)
	})
}

func TestEngine_Checks(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, []string{
		"offshore_jurisdiction",
		"vague_language",
		"deferred_disclosure",
		"missing_schedule",
		"audit_date",
		"payment_red_flag",
		"survival_period",
		"customer_concentration",
	}, e.Checks())
}

type staticCheck struct {
	name     string
	findings []domain.Finding
}

func (s staticCheck) Name() string { return s.name }
func (s staticCheck) Run(string) []domain.Finding { return s.findings }

func TestNewEngineWithChecks(t *testing.T) {
	t.Run("runs checks in given order", func(t *testing.T) {
		e, err := NewEngineWithChecks(Settings{},
			staticCheck{name: "b", findings: []domain.Finding{{Title: "second"}}},
			staticCheck{name: "a", findings: []domain.Finding{{Title: "first"}}},
		)
		require.NoError(t, err)

		findings := e.Analyze("anything")

		require.Len(t, findings, 2)
		assert.Equal(t, "second", findings[0].Title)
		assert.Equal(t, "first", findings[1].Title)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		_, err := NewEngineWithChecks(Settings{}, staticCheck{name: "a"}, staticCheck{name: "a"})
		assert.Error(t, err)
	})
}
