package commands

import (
	"fmt"

	"github.com/de-tools/redflag/pkg/services/config"
	"github.com/de-tools/redflag/pkg/services/patterns"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type PatternsCmd struct {
	settings     *config.Settings
	patternsPath string
}

func NewPatternsCmd(settings *config.Settings) *cobra.Command {
	pc := &PatternsCmd{settings: settings}
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Print the effective pattern library as YAML",
		Args:  cobra.NoArgs,
		RunE:  pc.run,
	}

	cmd.Flags().StringVar(&pc.patternsPath, "patterns", "", "Path to a pattern library file (overrides settings)")

	return cmd
}

func (pc *PatternsCmd) run(cmd *cobra.Command, _ []string) error {
	lib, err := patterns.LoadOrDefault(firstNonEmpty(pc.patternsPath, pc.settings.Analysis.PatternsFile))
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(lib); err != nil {
		return fmt.Errorf("failed to encode pattern library: %w", err)
	}
	return enc.Close()
}
