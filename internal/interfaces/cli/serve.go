package cli

import (
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lite-lake/dnssync/internal/application/orchestrator"
	"github.com/lite-lake/dnssync/internal/interfaces/api"
)

func newServeCommand(ctx *Context) *cobra.Command {
	var addr string
	var interval time.Duration
	var noSchedule, runNow bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic sync scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := ctx.Orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := ctx.ProviderService(cmd.Context())
			if err != nil {
				return err
			}
			if addr == "" {
				addr = ctx.Settings.Server.Addr
			}
			if !cmd.Flags().Changed("interval") {
				interval = ctx.Settings.Sync.Interval
			}

			app := api.NewApp(api.NewHandler(orch, svc), api.ServerConfig{APIToken: ctx.Settings.Server.APIToken})

			g, gctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return api.Serve(gctx, app, addr)
			})
			if !noSchedule {
				scheduler := orchestrator.NewScheduler(orch, interval)
				g.Go(func() error {
					scheduler.Start(gctx, runNow)
					return nil
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from server.addr)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Scheduled sync interval (default from sync.interval, 0 disables)")
	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "Serve the API without periodic syncs")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Run a sync immediately on start")
	return cmd
}
