package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/modsync/pkg/checkpoint"
	"github.com/arthur-debert/modsync/pkg/types"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <destination>",
		Short: "Show the install session state for a destination directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cp := checkpoint.NewManager(args[0])
			session, err := cp.Load()
			if err != nil {
				return err
			}
			if session == nil {
				cmd.Println(mutedStyle.Render("No install session for this destination."))
				return nil
			}

			cmd.Println(titleStyle.Render("Session " + session.SessionID))
			cmd.Printf("  created:    %s\n", session.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			cmd.Printf("  components: %d\n", len(session.ComponentOrder))
			if session.BackupPath != "" {
				cmd.Printf("  backup:     %s\n", session.BackupPath)
			}

			counts := map[types.InstallState]int{}
			for i, id := range session.ComponentOrder {
				entry := session.Components[id]
				if entry == nil {
					continue
				}
				counts[entry.State]++
				cmd.Printf("  %3d. %s  %s\n", i+1, renderState(entry.State), id)
			}

			states := make([]string, 0, len(counts))
			for state, n := range counts {
				states = append(states, fmt.Sprintf("%s: %d", state, n))
			}
			sort.Strings(states)
			for _, s := range states {
				cmd.Println(mutedStyle.Render("  " + s))
			}
			return nil
		},
	}
}

func renderState(s types.InstallState) string {
	switch s {
	case types.StateCompleted:
		return successStyle.Render(fmt.Sprintf("%-11s", s))
	case types.StateFailed:
		return errorStyle.Render(fmt.Sprintf("%-11s", s))
	case types.StateStarted:
		return warningStyle.Render(fmt.Sprintf("%-11s", s))
	default:
		return mutedStyle.Render(fmt.Sprintf("%-11s", s))
	}
}
