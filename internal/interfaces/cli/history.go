package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lite-lake/dnssync/internal/domain/entity"
)

func newHistoryCommand(ctx *Context) *cobra.Command {
	var target string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show sync history, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ProviderService(cmd.Context())
			if err != nil {
				return err
			}
			history, err := svc.History(cmd.Context())
			if err != nil {
				return err
			}
			if target != "" {
				filtered := entity.History{}
				for _, e := range history {
					if e.TargetProviderID == target {
						filtered = append(filtered, e)
					}
				}
				history = filtered
			}
			renderHistory(cmd.OutOrStdout(), history, limit)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "Only entries for this target id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to print (0 for all)")

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ProviderService(cmd.Context())
			if err != nil {
				return err
			}
			if !yes && !Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Clear all sync history?", false) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			if err := svc.ClearHistory(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}
	clearCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.AddCommand(clearCmd)

	return cmd
}
