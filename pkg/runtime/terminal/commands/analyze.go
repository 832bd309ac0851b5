package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/de-tools/redflag/pkg/runtime/terminal/export"
	"github.com/de-tools/redflag/pkg/services/analysis"
	"github.com/de-tools/redflag/pkg/services/config"
	"github.com/de-tools/redflag/pkg/services/patterns"
	"github.com/de-tools/redflag/pkg/services/report"
	"github.com/de-tools/redflag/pkg/services/rules"
	"github.com/de-tools/redflag/pkg/services/semantic"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type AnalyzeCmd struct {
	settings *config.Settings
	vendors  semantic.Registry

	noRules       bool
	noSemantic    bool
	providers     []string
	patternsPath  string
	providersPath string
	format        string
	timeout       time.Duration
}

// NewAnalyzeCmd scans local documents. settings is read when the command runs,
// so it may be populated by a parent's pre-run hook.
func NewAnalyzeCmd(settings *config.Settings, vendors semantic.Registry) *cobra.Command {
	ac := &AnalyzeCmd{settings: settings, vendors: vendors}
	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Scan documents for risk language",
		Args:  cobra.MinimumNArgs(1),
		RunE:  ac.run,
	}

	cmd.Flags().BoolVar(&ac.noRules, "no-rules", false, "Skip the rule engine")
	cmd.Flags().BoolVar(&ac.noSemantic, "no-semantic", false, "Skip semantic providers")
	cmd.Flags().StringSliceVar(&ac.providers, "providers", nil, "Semantic providers to use (default: all enabled)")
	cmd.Flags().StringVar(&ac.patternsPath, "patterns", "", "Path to a pattern library file (overrides settings)")
	cmd.Flags().StringVar(&ac.providersPath, "providers-config", "", "Path to the providers ini file (overrides settings)")
	cmd.Flags().StringVarP(&ac.format, "output", "o", export.FormatText, "Output format: text, json or yaml")
	cmd.Flags().DurationVar(&ac.timeout, "timeout", 5*time.Minute, "Overall time limit")

	return cmd
}

func (ac *AnalyzeCmd) run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), ac.timeout)
	defer cancel()

	reporter, err := export.NewReporter(ac.format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	svc, closer, err := ac.buildService(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	opts := analysis.Options{
		UseRules:    !ac.noRules,
		UseSemantic: !ac.noSemantic,
		Providers:   ac.providers,
	}

	logger := zerolog.Ctx(ctx)
	var errs []error
	for _, path := range args {
		text, err := readDocument(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		rep, err := svc.Analyze(ctx, filepath.Base(path), text, opts)
		if err != nil {
			logger.Error().Err(err).Str("file", path).Msg("analysis failed")
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		if err := reporter.Handle(rep); err != nil {
			return fmt.Errorf("failed to write report for %s: %w", path, err)
		}
	}
	return errors.Join(errs...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func (ac *AnalyzeCmd) buildService(ctx context.Context) (*analysis.Service, io.Closer, error) {
	lib, err := patterns.LoadOrDefault(firstNonEmpty(ac.patternsPath, ac.settings.Analysis.PatternsFile))
	if err != nil {
		return nil, nil, err
	}
	engine, err := rules.NewEngine(lib, rules.Settings{MaxTextBytes: ac.settings.Analysis.MaxTextBytes})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build rule engine: %w", err)
	}

	aggregator := report.NewAggregator()
	if ac.noSemantic {
		return analysis.NewService(engine, nil, aggregator), nopCloser{}, nil
	}

	registry, err := config.NewProviderRegistry(firstNonEmpty(ac.providersPath, ac.settings.Analysis.ProvidersFile))
	if err != nil {
		return nil, nil, err
	}
	configs, err := config.EnabledConfigs(ctx, registry)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read provider config: %w", err)
	}
	analyzer, err := semantic.BuildAnalyzer(ctx, ac.vendors, configs, ac.settings.Analysis.ProviderTimeout)
	if err != nil {
		return nil, nil, err
	}

	var sem analysis.SemanticAnalyzer
	if len(analyzer.Names()) > 0 || len(ac.providers) > 0 {
		sem = analyzer
	} else {
		zerolog.Ctx(ctx).Warn().Msg("no semantic providers configured, running rules only")
	}
	return analysis.NewService(engine, sem, aggregator), analyzer, nil
}

func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8 text", path)
	}
	return string(data), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
