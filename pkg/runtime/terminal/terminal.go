package terminal

import (
	"context"
	"io"
	"os"

	"github.com/de-tools/redflag/pkg/runtime/terminal/commands"
	"github.com/de-tools/redflag/pkg/services/config"
	"github.com/de-tools/redflag/pkg/services/semantic"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	vendors  semantic.Registry
	settings config.Settings
	logOut   io.Writer
	rootCmd  *cobra.Command

	configPath string
	verbose    bool
}

// Options contain configuration for the CLI
type Options struct {
	// Vendors creates semantic providers; semantic.DefaultRegistry when nil
	Vendors semantic.Registry
	Output  io.Writer
	// LogOutput receives diagnostics (default: stderr)
	LogOutput io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	if opts.Vendors == nil {
		opts.Vendors = semantic.DefaultRegistry()
	}

	cli := &CLI{
		vendors:  opts.Vendors,
		settings: config.DefaultSettings(),
		logOut:   opts.LogOutput,
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	cli.rootCmd.SetErr(opts.LogOutput)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.ExecuteContext(context.Background())
}

func (cli *CLI) ExecuteContext(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "redflag",
		Short:             "Risk-language detector for legal and financial documents",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: cli.setup,
	}

	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "", "Path to a settings file")
	cmd.PersistentFlags().BoolVarP(&cli.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(commands.NewAnalyzeCmd(&cli.settings, cli.vendors))
	cmd.AddCommand(commands.NewPatternsCmd(&cli.settings))
	cmd.AddCommand(commands.NewProvidersCmd(&cli.settings, cli.vendors))

	return cmd
}

// setup loads settings and attaches a console logger to the running command's context.
func (cli *CLI) setup(cmd *cobra.Command, _ []string) error {
	settings, err := config.LoadSettings(cli.configPath)
	if err != nil {
		return err
	}
	cli.settings = settings

	level := settings.Log.ZerologLevel()
	if cli.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cli.logOut, NoColor: true}).
		Level(level).
		With().Timestamp().Logger()

	cmd.SetContext(logger.WithContext(cmd.Context()))
	return nil
}
