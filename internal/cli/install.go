package cli

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/modsync/pkg/checkpoint"
	"github.com/arthur-debert/modsync/pkg/config"
	"github.com/arthur-debert/modsync/pkg/manifest"
	"github.com/arthur-debert/modsync/pkg/orchestrator"
	"github.com/arthur-debert/modsync/pkg/types"
)

func newInstallCmd(configPath *string) *cobra.Command {
	var (
		payloadDir  string
		keepSession bool
	)

	cmd := &cobra.Command{
		Use:   "install <manifest> <destination>",
		Short: "Apply a component list onto a destination directory",
		Long: `Install resolves the manifest's component order, takes a snapshot of the
destination for rollback, then applies each selected component in turn.
Progress is checkpointed after every component, so an interrupted run can
be re-invoked and will skip whatever already completed.

Each component's payload is the directory named after its identifier
under --payloads; applying a component copies that tree into the
destination. Components without a payload directory are recorded as
applied without copying anything.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath, destDir := args[0], args[1]

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			list, err := manifest.Load(manifestPath)
			if err != nil {
				return err
			}
			if payloadDir == "" {
				payloadDir = filepath.Dir(manifestPath)
			}

			selected := 0
			for _, c := range list {
				if c.IsSelected {
					selected++
				}
			}

			progress, _ := pterm.DefaultProgressbar.
				WithTotal(selected).
				WithTitle("Installing").
				Start()

			apply := func(ctx context.Context, c *types.Component) error {
				progress.UpdateTitle(c.Name)
				defer progress.Increment()
				return applyPayload(ctx, payloadDir, destDir, c)
			}

			cp := checkpoint.NewManager(destDir,
				checkpoint.WithCompressionLevel(cfg.Snapshot.CompressionLevel))
			orch := orchestrator.New(cp, apply, orchestrator.Options{
				PromoteSnapshotAfterEach: cfg.Install.PromoteSnapshotAfterEach,
				KeepSessionOnSuccess:     keepSession,
			})

			result, err := orch.Run(cmd.Context(), list)
			_, _ = progress.Stop()
			if err != nil {
				if result != nil && result.FailedID != nil {
					cmd.Println(errorStyle.Render(
						fmt.Sprintf("Install failed at component %s.", result.FailedID)))
					cmd.Println(mutedStyle.Render(
						"Run 'modsync restore' to roll the destination back, or re-run install to retry."))
				}
				return err
			}

			cmd.Println(successStyle.Render(fmt.Sprintf(
				"Installed %d component(s), skipped %d already completed.",
				len(result.Installed), len(result.Skipped))))
			return nil
		},
	}

	cmd.Flags().StringVar(&payloadDir, "payloads", "", "Directory holding per-component payload folders (default: manifest directory)")
	cmd.Flags().BoolVar(&keepSession, "keep-session", false, "Keep session state and backup after a successful run")
	return cmd
}

// applyPayload copies the component's payload tree into the destination.
// A missing payload directory applies as a no-op.
func applyPayload(ctx context.Context, payloadDir, destDir string, c *types.Component) error {
	src := filepath.Join(payloadDir, c.ID.String())
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(destDir, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
}
