package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/modsync/pkg/graph"
	"github.com/arthur-debert/modsync/pkg/manifest"
	"github.com/arthur-debert/modsync/pkg/types"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <manifest>",
		Short: "Resolve and print the install order for a component list",
		Long: `Resolve loads a component manifest, builds the dependency graph over the
selected components, and prints the resulting install order. Cycles and
mutual-exclusion conflicts are reported with the components involved so
they can be fixed in the manifest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			order, err := graph.Resolve(list)
			if err != nil {
				printResolutionFailure(cmd, list, err)
				return err
			}

			names := nameIndex(list)
			cmd.Println(titleStyle.Render(fmt.Sprintf("Install order (%d components):", len(order))))
			for i, id := range order {
				cmd.Printf("  %2d. %s %s\n", i+1, names[id], mutedStyle.Render(id.String()))
			}
			return nil
		},
	}
}

// printResolutionFailure renders cycle and conflict details before the
// error itself propagates.
func printResolutionFailure(cmd *cobra.Command, list []*types.Component, err error) {
	names := nameIndex(list)

	var cycErr *graph.CyclicGraphError
	if errors.As(err, &cycErr) {
		cmd.Println(errorStyle.Render("Dependency cycles prevent resolution:"))
		for _, cycle := range cycErr.Result.Cycles {
			parts := make([]string, len(cycle))
			for i, id := range cycle {
				parts[i] = names[id]
			}
			cmd.Printf("  %s\n", strings.Join(parts, " -> "))
		}
		return
	}

	var exclErr *graph.MutualExclusionError
	if errors.As(err, &exclErr) {
		cmd.Println(errorStyle.Render("Mutually exclusive components are both selected:"))
		for _, p := range exclErr.Pairs {
			cmd.Printf("  %s <-> %s\n", names[p.First], names[p.Second])
		}
	}
}

func nameIndex(list []*types.Component) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(list))
	for _, c := range list {
		names[c.ID] = c.Name
	}
	return names
}
