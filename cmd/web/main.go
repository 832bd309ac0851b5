package main

import (
	"fmt"
	"os"

	"github.com/de-tools/redflag/pkg/server"
	"github.com/de-tools/redflag/pkg/services/analysis"
	"github.com/de-tools/redflag/pkg/services/config"
	"github.com/de-tools/redflag/pkg/services/patterns"
	"github.com/de-tools/redflag/pkg/services/report"
	"github.com/de-tools/redflag/pkg/services/rules"
	"github.com/de-tools/redflag/pkg/services/semantic"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the RedFlag document analysis API",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to a settings file (YAML, JSON or TOML); REDFLAG_* variables override it")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file loaded: %v\n", err)
	}

	settings, err := config.LoadSettings(cfgPath)
	if err != nil {
		return err
	}

	logger := zerolog.New(os.Stdout).Level(settings.Log.ZerologLevel()).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	lib, err := patterns.LoadOrDefault(settings.Analysis.PatternsFile)
	if err != nil {
		return err
	}
	engine, err := rules.NewEngine(lib, rules.Settings{MaxTextBytes: settings.Analysis.MaxTextBytes})
	if err != nil {
		return fmt.Errorf("failed to build rule engine: %w", err)
	}

	registry, err := config.NewProviderRegistry(settings.Analysis.ProvidersFile)
	if err != nil {
		return fmt.Errorf("failed to create provider registry: %w", err)
	}
	configs, err := config.EnabledConfigs(ctx, registry)
	if err != nil {
		return fmt.Errorf("failed to read provider config: %w", err)
	}
	analyzer, err := semantic.BuildAnalyzer(ctx, semantic.DefaultRegistry(), configs, settings.Analysis.ProviderTimeout)
	if err != nil {
		return fmt.Errorf("failed to create semantic analyzer: %w", err)
	}
	defer analyzer.Close()

	var sem analysis.SemanticAnalyzer
	if names := analyzer.Names(); len(names) > 0 {
		logger.Info().Strs("providers", names).Msg("semantic providers ready")
		sem = analyzer
	} else {
		logger.Warn().Msg("no semantic providers configured, running rules only")
	}

	api := server.NewWebAPI(server.Config{
		Addr:            settings.Server.Addr(),
		ShutdownTimeout: settings.Server.ShutdownTimeout,
		MaxUploadBytes:  settings.Server.MaxUploadBytes,
		Version:         version,
		Dependencies: server.Dependencies{
			Analysis: analysis.NewService(engine, sem, report.NewAggregator()),
			Logger:   logger,
		},
	})

	return api.Start()
}
