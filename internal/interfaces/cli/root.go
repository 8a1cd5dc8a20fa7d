package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var Version = "dev"

func NewRootCommand() *cobra.Command {
	ctx := NewContext()
	var showVersion bool

	rootCmd := &cobra.Command{
		Use:           "dnssync",
		Short:         "Multi-provider DNS record sync",
		Long:          "Dnssync reconciles DNS records from source providers onto target providers.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Println(Version)
				os.Exit(0)
			}
			return ctx.Load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.Close()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.SettingsFile, "settings", "s", "", "Settings file (yaml)")
	rootCmd.PersistentFlags().StringVarP(&ctx.ConfigDir, "config", "c", "", "Config directory with secrets.yaml (overrides store.config_dir)")
	rootCmd.PersistentFlags().StringVar(&ctx.EnvDir, "env-dir", ".", "Directory holding the .env file")
	rootCmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version information")

	rootCmd.AddCommand(
		newSyncCommand(ctx),
		newPlanCommand(ctx),
		newProviderCommand(ctx),
		newRecordsCommand(ctx),
		newOptionsCommand(ctx),
		newHistoryCommand(ctx),
		newValidateCommand(ctx),
		newImportCommand(ctx),
		newServeCommand(ctx),
	)
	return rootCmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
