package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arthur-debert/modsync/pkg/reconcile"
	"github.com/arthur-debert/modsync/pkg/testutil"
	"github.com/arthur-debert/modsync/pkg/types"
)

func TestResolveGuidConflictDecisionTable(t *testing.T) {
	intricate := func(name string) *types.Component {
		return testutil.NewComponent(name).DependsOn(name + "-dep").Build()
	}
	plain := func(name string) *types.Component {
		return testutil.NewComponent(name).Build()
	}

	tests := []struct {
		name       string
		existing   *types.Component
		incoming   *types.Component
		wantChosen func(ex, in *types.Component) interface{}
		wantManual bool
	}{
		{
			name:       "both_intricate_needs_manual",
			existing:   intricate("ex"),
			incoming:   intricate("in"),
			wantChosen: func(ex, in *types.Component) interface{} { return ex.ID },
			wantManual: true,
		},
		{
			name:       "existing_intricate_wins",
			existing:   intricate("ex"),
			incoming:   plain("in"),
			wantChosen: func(ex, in *types.Component) interface{} { return ex.ID },
			wantManual: false,
		},
		{
			name:       "incoming_intricate_wins",
			existing:   plain("ex"),
			incoming:   intricate("in"),
			wantChosen: func(ex, in *types.Component) interface{} { return in.ID },
			wantManual: false,
		},
		{
			name:       "neither_intricate_keeps_existing",
			existing:   plain("ex"),
			incoming:   plain("in"),
			wantChosen: func(ex, in *types.Component) interface{} { return ex.ID },
			wantManual: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := reconcile.ResolveGuidConflict(tt.existing, tt.incoming)

			assert.Equal(t, tt.wantChosen(tt.existing, tt.incoming), res.ChosenID)
			assert.Equal(t, tt.wantManual, res.RequiresManualResolution)
			assert.NotEmpty(t, res.Reason)

			// Exactly one of the two identifiers is rejected.
			if res.ChosenID == tt.existing.ID {
				assert.Equal(t, tt.incoming.ID, res.RejectedID)
			} else {
				assert.Equal(t, tt.existing.ID, res.RejectedID)
			}
		})
	}
}

func TestOptionsCountAsIntricateUsage(t *testing.T) {
	existing := testutil.NewComponent("ex").WithOption("ex-sub").Build()
	incoming := testutil.NewComponent("in").Build()

	res := reconcile.ResolveGuidConflict(existing, incoming)
	assert.Equal(t, existing.ID, res.ChosenID)
	assert.False(t, res.RequiresManualResolution)
}
