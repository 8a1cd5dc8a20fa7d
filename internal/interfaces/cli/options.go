package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

func renderOptions(w io.Writer, opts valueobject.SyncOptions) {
	fmt.Fprintf(w, "overwriteAll: %t\n", opts.OverwriteAll)
	fmt.Fprintf(w, "deleteExtra:  %t\n", opts.DeleteExtra)
}

func newOptionsCommand(ctx *Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options",
		Short: "Show or change global sync options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ProviderService(cmd.Context())
			if err != nil {
				return err
			}
			opts, err := svc.SyncOptions(cmd.Context())
			if err != nil {
				return err
			}
			renderOptions(cmd.OutOrStdout(), opts)
			return nil
		},
	}

	var overwriteAll, deleteExtra bool
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change sync options; unset flags keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ProviderService(cmd.Context())
			if err != nil {
				return err
			}
			opts, err := svc.SyncOptions(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("overwrite-all") {
				opts.OverwriteAll = overwriteAll
			}
			if cmd.Flags().Changed("delete-extra") {
				opts.DeleteExtra = deleteExtra
			}
			if opts.DeleteExtra {
				fmt.Fprintln(cmd.OutOrStdout(), WarningStyle.Render("deleteExtra is on: target records missing from sources will be removed"))
			}
			if err := svc.SetSyncOptions(cmd.Context(), opts); err != nil {
				return err
			}
			renderOptions(cmd.OutOrStdout(), opts)
			return nil
		},
	}
	setCmd.Flags().BoolVar(&overwriteAll, "overwrite-all", true, "Create records missing on targets")
	setCmd.Flags().BoolVar(&deleteExtra, "delete-extra", false, "Delete target records absent from sources")
	cmd.AddCommand(setCmd)

	return cmd
}
