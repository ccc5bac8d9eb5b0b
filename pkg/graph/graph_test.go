package graph_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/modsync/pkg/graph"
	"github.com/arthur-debert/modsync/pkg/testutil"
	"github.com/arthur-debert/modsync/pkg/types"
)

func indexOf(order []uuid.UUID, id uuid.UUID) int {
	for i, o := range order {
		if o == id {
			return i
		}
	}
	return -1
}

func TestResolveSimpleChain(t *testing.T) {
	// C depends on B depends on A: install order must be A, B, C.
	list := []*types.Component{
		testutil.NewComponent("C").DependsOn("B").Build(),
		testutil.NewComponent("B").DependsOn("A").Build(),
		testutil.NewComponent("A").Build(),
	}

	order, err := graph.Resolve(list)
	require.NoError(t, err)
	require.Len(t, order, 3)

	assert.Less(t, indexOf(order, testutil.StableID("A")), indexOf(order, testutil.StableID("B")))
	assert.Less(t, indexOf(order, testutil.StableID("B")), indexOf(order, testutil.StableID("C")))
}

func TestResolveHonorsEveryHardEdge(t *testing.T) {
	list := []*types.Component{
		testutil.NewComponent("app").DependsOn("lib", "runtime").Build(),
		testutil.NewComponent("lib").InstallAfter("runtime").Build(),
		testutil.NewComponent("runtime").Build(),
		testutil.NewComponent("docs").InstallBefore("app").Build(),
		testutil.NewComponent("theme").Build(),
	}

	order, err := graph.Resolve(list)
	require.NoError(t, err)
	require.Len(t, order, 5)

	// For every hard edge A -> B, B appears before A.
	assert.Less(t, indexOf(order, testutil.StableID("lib")), indexOf(order, testutil.StableID("app")))
	assert.Less(t, indexOf(order, testutil.StableID("runtime")), indexOf(order, testutil.StableID("app")))
	assert.Less(t, indexOf(order, testutil.StableID("runtime")), indexOf(order, testutil.StableID("lib")))
	assert.Less(t, indexOf(order, testutil.StableID("docs")), indexOf(order, testutil.StableID("app")))
}

func TestResolveTieBreaksByInputOrder(t *testing.T) {
	// No edges at all: output preserves input order exactly.
	list := []*types.Component{
		testutil.NewComponent("zeta").Build(),
		testutil.NewComponent("alpha").Build(),
		testutil.NewComponent("mid").Build(),
	}

	order, err := graph.Resolve(list)
	require.NoError(t, err)

	want := []uuid.UUID{
		testutil.StableID("zeta"),
		testutil.StableID("alpha"),
		testutil.StableID("mid"),
	}
	assert.Equal(t, want, order, "ties follow input list order, not identifier order")
}

func TestResolveDeterminism(t *testing.T) {
	list := []*types.Component{
		testutil.NewComponent("a").Build(),
		testutil.NewComponent("b").DependsOn("a").Build(),
		testutil.NewComponent("c").InstallAfter("a").Build(),
		testutil.NewComponent("d").InstallBefore("b").Build(),
	}

	first, err := graph.Resolve(list)
	require.NoError(t, err)
	second, err := graph.Resolve(list)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestResolveExcludesUnselected(t *testing.T) {
	// B depends on A, but A is deselected: the dependency edge is
	// dropped entirely rather than blocking resolution.
	list := []*types.Component{
		testutil.NewComponent("A").Deselected().Build(),
		testutil.NewComponent("B").DependsOn("A").Build(),
	}

	order, err := graph.Resolve(list)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{testutil.StableID("B")}, order)
}

func TestResolveCycleThroughInstallBefore(t *testing.T) {
	// A has no edges, B depends on A, C depends on B and installs
	// before A: C < A < B < C is impossible.
	list := []*types.Component{
		testutil.NewComponent("A").Build(),
		testutil.NewComponent("B").DependsOn("A").Build(),
		testutil.NewComponent("C").DependsOn("B").InstallBefore("A").Build(),
	}

	_, err := graph.Resolve(list)
	var cycErr *graph.CyclicGraphError
	require.ErrorAs(t, err, &cycErr)
	require.True(t, cycErr.Result.HasCycles)
	require.NotEmpty(t, cycErr.Result.Cycles)

	members := map[uuid.UUID]bool{}
	for _, cycle := range cycErr.Result.Cycles {
		for _, id := range cycle {
			members[id] = true
		}
	}
	assert.True(t, members[testutil.StableID("A")])
	assert.True(t, members[testutil.StableID("B")])
	assert.True(t, members[testutil.StableID("C")])
}

func TestDetectCyclesFindsAllDisjointCycles(t *testing.T) {
	list := []*types.Component{
		testutil.NewComponent("a").DependsOn("b").Build(),
		testutil.NewComponent("b").DependsOn("a").Build(),
		testutil.NewComponent("c").DependsOn("d").Build(),
		testutil.NewComponent("d").DependsOn("c").Build(),
		testutil.NewComponent("free").Build(),
	}

	result := graph.Build(list).DetectCycles()
	require.True(t, result.HasCycles)
	assert.Len(t, result.Cycles, 2)

	// Every node participating in a cycle appears in a reported cycle.
	members := map[uuid.UUID]bool{}
	for _, cycle := range result.Cycles {
		for _, id := range cycle {
			members[id] = true
		}
	}
	for _, name := range []string{"a", "b", "c", "d"} {
		assert.True(t, members[testutil.StableID(name)], "node %s missing from cycle report", name)
	}
	assert.False(t, members[testutil.StableID("free")])
}

func TestDetectCyclesCleanGraph(t *testing.T) {
	list := []*types.Component{
		testutil.NewComponent("a").Build(),
		testutil.NewComponent("b").DependsOn("a").Build(),
	}

	result := graph.Build(list).DetectCycles()
	assert.False(t, result.HasCycles)
	assert.Empty(t, result.Cycles)
}

func TestResolveMutualExclusion(t *testing.T) {
	list := []*types.Component{
		testutil.NewComponent("hd-textures").Restricts("low-textures").Build(),
		testutil.NewComponent("low-textures").Build(),
	}

	_, err := graph.Resolve(list)
	var exclErr *graph.MutualExclusionError
	require.ErrorAs(t, err, &exclErr)
	require.Len(t, exclErr.Pairs, 1)
	assert.Equal(t, testutil.StableID("hd-textures"), exclErr.Pairs[0].First)
	assert.Equal(t, testutil.StableID("low-textures"), exclErr.Pairs[0].Second)
}

func TestResolveRestrictionAgainstDeselected(t *testing.T) {
	// Restriction only bites when both ends are selected.
	list := []*types.Component{
		testutil.NewComponent("hd-textures").Restricts("low-textures").Build(),
		testutil.NewComponent("low-textures").Deselected().Build(),
	}

	order, err := graph.Resolve(list)
	require.NoError(t, err)
	assert.Len(t, order, 1)
}

func TestResolveRestrictionPairReportedOnce(t *testing.T) {
	// Both sides restrict each other; the pair is reported once.
	list := []*types.Component{
		testutil.NewComponent("x").Restricts("y").Build(),
		testutil.NewComponent("y").Restricts("x").Build(),
	}

	_, err := graph.Resolve(list)
	var exclErr *graph.MutualExclusionError
	require.True(t, errors.As(err, &exclErr))
	assert.Len(t, exclErr.Pairs, 1)
}

func TestRestrictionsAreNotOrderingEdges(t *testing.T) {
	list := []*types.Component{
		testutil.NewComponent("x").Restricts("y").Build(),
		testutil.NewComponent("y").Deselected().Build(),
	}

	g := graph.Build(list)
	assert.Empty(t, g.Prerequisites(testutil.StableID("x")))
}
