package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/modsync/internal/version"
	"github.com/arthur-debert/modsync/pkg/logging"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity  int
		configPath string
	)

	rootCmd := &cobra.Command{
		Use:   "modsync",
		Short: "An installer orchestration engine for mod components",
		Long: `modsync applies an ordered collection of modification packages onto a
target directory. It resolves dependency and ordering constraints into a
deterministic install order, reconciles component identity across list
merges, and keeps a resumable session plus a rollback snapshot so an
interrupted run never requires manual recovery.`,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to modsync.toml (default: working directory)")

	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newInstallCmd(&configPath))
	rootCmd.AddCommand(newMergeCmd(&configPath))
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newRestoreCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}
