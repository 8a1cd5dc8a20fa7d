package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lite-lake/dnssync/internal/application/orchestrator"
)

var errTargetsFailed = errors.New("one or more targets did not sync cleanly")

func newSyncCommand(ctx *Context) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "sync [target-id]",
		Short: "Sync targets from their sources",
		Long:  "Run one sync over every target, or over a single target when an id is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := ctx.Orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if confirm {
				plans, err := orch.Plan(cmd.Context())
				if err != nil {
					return err
				}
				renderPlans(out, plans)
				if !Confirm(cmd.InOrStdin(), out, "Apply these changes?", false) {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			if len(args) == 1 {
				res, err := orch.RunTarget(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				renderResult(out, *res)
				if !res.State.Success() {
					return errTargetsFailed
				}
				return nil
			}

			summary, err := orch.Run(cmd.Context(), orchestrator.TriggerManual)
			if err != nil {
				return err
			}
			renderSummary(out, summary)
			if len(summary.Failed) > 0 {
				return errTargetsFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Show the plan and ask before applying")
	return cmd
}

func newPlanCommand(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the changes a sync would make",
		Long:  "Fetch sources and targets and print the diff per target without applying it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := ctx.Orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			plans, err := orch.Plan(cmd.Context())
			if err != nil {
				return err
			}
			renderPlans(cmd.OutOrStdout(), plans)
			return nil
		},
	}
}
