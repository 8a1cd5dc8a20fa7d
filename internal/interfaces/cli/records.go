package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
)

func newRecordsCommand(ctx *Context) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "records <provider-id>",
		Short: "List the live records a provider exposes to sync",
		Long:  "Fetch and normalize the provider's records, applying its own include and exclude rules.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.Store(cmd.Context())
			if err != nil {
				return err
			}
			providers, err := store.LoadProviders(cmd.Context())
			if err != nil {
				return err
			}
			idx := slices.IndexFunc(providers, func(p entity.ProviderConfig) bool { return p.ID == args[0] })
			if idx < 0 {
				return fmt.Errorf("%w: %s", domain.ErrProviderMissing, args[0])
			}
			p := providers[idx]

			wf, err := ctx.Workflow(cmd.Context())
			if err != nil {
				return err
			}
			adapters, err := wf.Adapters(cmd.Context())
			if err != nil {
				return err
			}
			adapter, err := adapters.Adapter(cmd.Context(), &p)
			if err != nil {
				return err
			}
			records, err := adapter.FetchRecords(cmd.Context(), &p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asYAML {
				data, err := yaml.Marshal(records)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}
			renderRecords(out, records)
			fmt.Fprintf(out, "%d records\n", len(records))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print records as YAML")
	return cmd
}
