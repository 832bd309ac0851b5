package commands

import (
	"fmt"
	"strings"

	"github.com/de-tools/redflag/pkg/services/config"
	"github.com/de-tools/redflag/pkg/services/semantic"
	"github.com/spf13/cobra"
)

type ProvidersCmd struct {
	settings      *config.Settings
	vendors       semantic.Registry
	providersPath string
}

func NewProvidersCmd(settings *config.Settings, vendors semantic.Registry) *cobra.Command {
	pc := &ProvidersCmd{settings: settings, vendors: vendors}
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List configured semantic providers",
		Args:  cobra.NoArgs,
		RunE:  pc.run,
	}

	cmd.Flags().StringVar(&pc.providersPath, "providers-config", "", "Path to the providers ini file (overrides settings)")

	return cmd
}

func (pc *ProvidersCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	registry, err := config.NewProviderRegistry(firstNonEmpty(pc.providersPath, pc.settings.Analysis.ProvidersFile))
	if err != nil {
		return err
	}
	profiles, err := registry.GetProfiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to read provider config: %w", err)
	}

	kinds := make([]string, 0, len(pc.vendors.Kinds()))
	for _, k := range pc.vendors.Kinds() {
		kinds = append(kinds, string(k))
	}

	if len(profiles) == 0 {
		fmt.Fprintf(out, "No providers configured. Supported kinds: %s\n", strings.Join(kinds, ", "))
		return nil
	}

	fmt.Fprintf(out, "%-16s %-10s %-32s %s\n", "NAME", "KIND", "MODEL", "ENABLED")
	for _, p := range profiles {
		fmt.Fprintf(out, "%-16s %-10s %-32s %t\n", p.Name, p.Kind, p.Model, p.Enabled)
	}
	return nil
}
