package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/de-tools/redflag/pkg/models/domain"
	"github.com/de-tools/redflag/pkg/services/semantic"
	"github.com/rs/zerolog"
)

var ErrEmptyDocument = errors.New("document is empty")

// RuleAnalyzer is the deterministic rule engine.
type RuleAnalyzer interface {
	Analyze(text string) []domain.Finding
}

// SemanticAnalyzer fans a document out to external providers.
type SemanticAnalyzer interface {
	Names() []string
	Analyze(ctx context.Context, text string, names ...string) ([]semantic.Outcome, error)
}

// Aggregator merges both finding streams into a report.
type Aggregator interface {
	Aggregate(documentID string, ruleFindings, externalFindings []domain.Finding, elapsedSeconds float64) domain.Report
}

// Options selects the analyzers used for one document.
type Options struct {
	UseRules    bool
	UseSemantic bool
	// Providers restricts semantic analysis to the named providers; empty means all
	Providers []string
}

func DefaultOptions() Options {
	return Options{UseRules: true, UseSemantic: true}
}

type Service struct {
	rules      RuleAnalyzer
	semantic   SemanticAnalyzer
	aggregator Aggregator
}

// NewService wires the analyzers together. semanticAnalyzer may be nil when
// no provider is configured.
func NewService(rules RuleAnalyzer, semanticAnalyzer SemanticAnalyzer, aggregator Aggregator) *Service {
	return &Service{rules: rules, semantic: semanticAnalyzer, aggregator: aggregator}
}

// Providers lists the configured semantic providers.
func (s *Service) Providers() []string {
	if s.semantic == nil {
		return nil
	}
	return s.semantic.Names()
}

type semanticResult struct {
	outcomes []semantic.Outcome
	err      error
}

// Analyze runs the selected analyzers over text and aggregates their findings.
// Semantic providers run in the background while the rule engine runs on the
// calling goroutine. An unknown provider name is the only semantic error returned.
func (s *Service) Analyze(ctx context.Context, documentID, text string, opts Options) (domain.Report, error) {
	logger := zerolog.Ctx(ctx).With().Str("document", documentID).Logger()

	if strings.TrimSpace(text) == "" {
		analysesTotal.WithLabelValues("rejected").Inc()
		return domain.Report{}, ErrEmptyDocument
	}

	start := time.Now()

	var semanticDone chan semanticResult
	if opts.UseSemantic && s.semantic != nil {
		semanticDone = make(chan semanticResult, 1)
		go func() {
			outcomes, err := s.semantic.Analyze(ctx, text, opts.Providers...)
			semanticDone <- semanticResult{outcomes: outcomes, err: err}
		}()
	}

	ruleFindings := []domain.Finding{}
	if opts.UseRules && s.rules != nil {
		ruleFindings = s.rules.Analyze(text)
		logger.Debug().Int("findings", len(ruleFindings)).Msg("rule engine finished")
	}

	externalFindings := []domain.Finding{}
	if semanticDone != nil {
		res := <-semanticDone
		if res.err != nil {
			analysesTotal.WithLabelValues("rejected").Inc()
			return domain.Report{}, res.err
		}
		for _, o := range res.outcomes {
			if o.Err != nil {
				providerFailuresTotal.WithLabelValues(o.Provider).Inc()
			}
		}
		externalFindings = semantic.Findings(res.outcomes)
	}

	elapsed := time.Since(start)
	report := s.aggregator.Aggregate(documentID, ruleFindings, externalFindings, elapsed.Seconds())

	analysesTotal.WithLabelValues("success").Inc()
	analysisDuration.Observe(elapsed.Seconds())
	duplicatesRemovedTotal.Add(float64(report.Metadata.DuplicatesRemoved))
	for _, f := range ruleFindings {
		findingsTotal.WithLabelValues(f.Source).Inc()
	}
	for _, f := range externalFindings {
		findingsTotal.WithLabelValues(f.Source).Inc()
	}

	logger.Info().
		Str("report_id", report.ID).
		Int("flags", report.TotalFlags).
		Int("duplicates_removed", report.Metadata.DuplicatesRemoved).
		Float64("risk_score", report.OverallRiskScore).
		Dur("elapsed", elapsed).
		Msg("analysis complete")

	return report, nil
}
