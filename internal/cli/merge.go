package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/modsync/pkg/config"
	"github.com/arthur-debert/modsync/pkg/manifest"
	"github.com/arthur-debert/modsync/pkg/reconcile"
)

func newMergeCmd(configPath *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "merge <existing-manifest> <incoming-manifest>",
		Short: "Merge a freshly imported component list over an existing one",
		Long: `Merge pairs up components across the two manifests, first by identifier
and then by name/author similarity, preserving local selection and
install progress for matched pairs. When a matched pair carries two
different identifiers, the one referenced by other components survives;
if both are referenced, the conflict is listed for manual review and the
existing identifier is kept in the meantime.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			existing, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			incoming, err := manifest.Load(args[1])
			if err != nil {
				return err
			}

			matcher := reconcile.NewMatcher(cfg.Matcher)
			merged, report := reconcile.MergeLists(existing, incoming, matcher)

			cmd.Println(titleStyle.Render(fmt.Sprintf(
				"Merged %d existing with %d incoming components:", len(existing), len(incoming))))
			cmd.Printf("  matched: %d, added: %d\n", len(report.Pairs), len(report.AddedIDs))

			for _, pair := range report.Pairs {
				if pair.Resolution == nil {
					continue
				}
				res := pair.Resolution
				if res.RequiresManualResolution {
					cmd.Println(warningStyle.Render("  NEEDS REVIEW: ") + res.Reason)
				} else {
					cmd.Println(mutedStyle.Render("  " + res.Reason))
				}
			}

			if output == "" {
				output = args[0]
			}
			if err := manifest.Save(output, merged); err != nil {
				return err
			}

			if report.RequiresManualResolution() {
				cmd.Println(warningStyle.Render(fmt.Sprintf(
					"%d identifier conflict(s) need manual review before installing.",
					len(report.ManualResolutions))))
			} else {
				cmd.Println(successStyle.Render("Merge completed with no unresolved conflicts."))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the merged manifest here (default: overwrite the existing manifest)")
	return cmd
}
