package cli

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/modsync/pkg/checkpoint"
)

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <destination>",
		Short: "Roll the destination directory back to its last snapshot",
		Long: `Restore extracts the last-known-good backup archive and replaces the
destination directory's contents with it, leaving only the session
metadata folder untouched. It fails if no snapshot exists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cp := checkpoint.NewManager(args[0])
			if err := cp.RestoreSnapshot(cmd.Context()); err != nil {
				return err
			}
			cmd.Println(successStyle.Render("Destination restored from snapshot."))
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <destination>",
		Short: "Delete the install session and backup for a destination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cp := checkpoint.NewManager(args[0])
			if err := cp.Reset(); err != nil {
				return err
			}
			cmd.Println(successStyle.Render("Session state cleared."))
			return nil
		},
	}
}
