package patterns

import (
	"fmt"

	"github.com/de-tools/redflag/pkg/models/domain"
	"github.com/spf13/viper"
)

// PaymentRule is one entry of the payment red-flag table: every match of
// Pattern yields a finding carrying the rule's fixed metadata.
type PaymentRule struct {
	Pattern        string          `mapstructure:"pattern" yaml:"pattern"`
	Title          string          `mapstructure:"title" yaml:"title"`
	Severity       domain.Severity `mapstructure:"severity" yaml:"severity"`
	Score          int             `mapstructure:"score" yaml:"score"`
	Recommendation string          `mapstructure:"recommendation" yaml:"recommendation"`
}

// Library is the static pattern data the rule engine scans for.
// Treat it as a value: the engine copies what it needs at construction time.
type Library struct {
	OffshoreJurisdictions     []string      `mapstructure:"offshore_jurisdictions" yaml:"offshore_jurisdictions"`
	EscalationKeywords        []string      `mapstructure:"escalation_keywords" yaml:"escalation_keywords"`
	WeaselWords               []string      `mapstructure:"weasel_words" yaml:"weasel_words"`
	DeferredDisclosurePhrases []string      `mapstructure:"deferred_disclosure_phrases" yaml:"deferred_disclosure_phrases"`
	MissingScheduleIndicators []string      `mapstructure:"missing_schedule_indicators" yaml:"missing_schedule_indicators"`
	PaymentRedFlags           []PaymentRule `mapstructure:"payment_red_flags" yaml:"payment_red_flags"`
}

// Default returns the built-in pattern library.
func Default() Library {
	return Library{
		OffshoreJurisdictions: []string{
			"Cayman Islands",
			"British Virgin Islands",
			"BVI",
			"Bermuda",
			"Bahamas",
			"Panama",
			"Seychelles",
			"Mauritius",
			"Isle of Man",
			"Guernsey",
			"Belize",
			"Marshall Islands",
			"Vanuatu",
			"Anguilla",
			"Labuan",
		},
		EscalationKeywords: []string{
			"governing law",
			"arbitration",
			"dispute resolution",
		},
		WeaselWords: []string{
			"reasonable",
			"reasonably",
			"material",
			"materially",
			"substantially",
			"approximately",
			"best efforts",
			"appropriate",
			"significant",
			"adequate",
			"from time to time",
		},
		DeferredDisclosurePhrases: []string{
			"to be disclosed",
			"will be provided",
			"to be agreed",
			"subject to further due diligence",
			"not yet available",
			"pending finalization",
			"under review",
		},
		MissingScheduleIndicators: []string{
			"being finalized",
			"to be provided",
			"being compiled",
			"will be attached",
			"to be determined",
		},
		PaymentRedFlags: []PaymentRule{
			{
				Pattern:        `earnout.*(?:undefined|to be determined|mutually agreed)`,
				Title:          "Undefined Earnout Targets",
				Severity:       domain.SeverityCritical,
				Score:          10,
				Recommendation: "Never accept undefined earnout metrics. Specify exact EBITDA/revenue targets and calculation methods.",
			},
			{
				Pattern:        `deferred.*(?:performance metrics|to be determined)`,
				Title:          "Undefined Deferred Payment Terms",
				Severity:       domain.SeverityHigh,
				Score:          8,
				Recommendation: "All deferred payment triggers must be clearly defined at signing.",
			},
		},
	}
}

// Clone returns a deep copy so callers can never alias each other's slices.
func (l Library) Clone() Library {
	return Library{
		OffshoreJurisdictions:     append([]string(nil), l.OffshoreJurisdictions...),
		EscalationKeywords:        append([]string(nil), l.EscalationKeywords...),
		WeaselWords:               append([]string(nil), l.WeaselWords...),
		DeferredDisclosurePhrases: append([]string(nil), l.DeferredDisclosurePhrases...),
		MissingScheduleIndicators: append([]string(nil), l.MissingScheduleIndicators...),
		PaymentRedFlags:           append([]PaymentRule(nil), l.PaymentRedFlags...),
	}
}

// Load reads a library file (YAML, JSON or TOML, by extension). Lists the file
// does not set keep their default values. A payment rule without a score gets
// domain.DefaultScore; a score outside [1,10] is rejected.
func Load(path string) (Library, error) {
	v := viper.New()
	v.SetConfigFile(path)

	def := Default()
	v.SetDefault("offshore_jurisdictions", def.OffshoreJurisdictions)
	v.SetDefault("escalation_keywords", def.EscalationKeywords)
	v.SetDefault("weasel_words", def.WeaselWords)
	v.SetDefault("deferred_disclosure_phrases", def.DeferredDisclosurePhrases)
	v.SetDefault("missing_schedule_indicators", def.MissingScheduleIndicators)

	if err := v.ReadInConfig(); err != nil {
		return Library{}, fmt.Errorf("failed to read pattern library: %w", err)
	}

	var lib Library
	if err := v.Unmarshal(&lib); err != nil {
		return Library{}, fmt.Errorf("failed to parse pattern library: %w", err)
	}
	if !v.IsSet("payment_red_flags") {
		lib.PaymentRedFlags = def.PaymentRedFlags
	}

	for i, rule := range lib.PaymentRedFlags {
		if rule.Pattern == "" || rule.Title == "" {
			return Library{}, fmt.Errorf("payment rule %d: pattern and title are required", i)
		}
		lib.PaymentRedFlags[i].Severity = domain.ParseSeverity(string(rule.Severity))
		switch {
		case rule.Score == 0:
			lib.PaymentRedFlags[i].Score = domain.DefaultScore
		case rule.Score < domain.MinScore || rule.Score > domain.MaxScore:
			return Library{}, fmt.Errorf("payment rule %d: score %d is outside [%d,%d]",
				i, rule.Score, domain.MinScore, domain.MaxScore)
		}
	}
	return lib, nil
}

// LoadOrDefault loads path when it is set and falls back to Default otherwise.
func LoadOrDefault(path string) (Library, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
