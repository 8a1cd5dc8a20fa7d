package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config directory",
		Long:  "Load secrets.yaml, providers.yaml and options.yaml and check them without touching the store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := ctx.Workflow(cmd.Context())
			if err != nil {
				return err
			}
			b, err := wf.LoadBundle(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid: %d secrets, %d providers.\n", len(b.Secrets), len(b.Providers))
			return nil
		},
	}
}

func newImportCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Seed the store from the config directory",
		Long:  "Upsert providers.yaml entries by id and replace sync options when options.yaml is present.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := ctx.Workflow(cmd.Context())
			if err != nil {
				return err
			}
			res, err := wf.Import(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s imported: %d added, %d updated", SuccessStyle.Render("✓"), res.Added, res.Updated)
			if res.SyncOptions {
				fmt.Fprint(cmd.OutOrStdout(), ", sync options replaced")
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}
