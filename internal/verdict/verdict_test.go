package verdict

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepguard/stepguard/internal/coverage"
	"github.com/stepguard/stepguard/internal/integrity"
	"github.com/stepguard/stepguard/internal/quality"
)

func TestParsePolicy(t *testing.T) {
	for _, s := range []string{"mandatory", "optional", "forbidden"} {
		p, err := ParsePolicy(s)
		require.NoError(t, err)
		assert.Equal(t, Policy(s), p)
	}
	_, err := ParsePolicy("strict")
	assert.Error(t, err)
}

func TestDecideTable(t *testing.T) {
	cases := []struct {
		name       string
		in         IntegrityInputs
		wantStatus Status
		wantReason string
	}{
		{
			name: "record mismatch blocks",
			in: IntegrityInputs{
				Record: integrity.StatusInvalid,
				Anchor: integrity.StatusValid,
				Policy: PolicyOptional,
			},
			wantStatus: StatusBlocked,
			wantReason: "assertions modified since verification",
		},
		{
			name: "anchor mismatch blocks even with valid record",
			in: IntegrityInputs{
				Record: integrity.StatusValid,
				Anchor: integrity.StatusInvalid,
				Policy: PolicyMandatory,
			},
			wantStatus: StatusBlocked,
			wantReason: "assertions modified since verification",
		},
		{
			name: "drift blocks before unverifiability",
			in: IntegrityInputs{
				Record: integrity.StatusMissing,
				Anchor: integrity.StatusMissing,
				Drift:  integrity.DriftModified,
				Policy: PolicyOptional,
			},
			wantStatus: StatusBlocked,
			wantReason: "uncommitted changes to assertions",
		},
		{
			name: "untracked corpus with valid record passes",
			in: IntegrityInputs{
				Record: integrity.StatusValid,
				Anchor: integrity.StatusMissing,
				Drift:  integrity.DriftUntracked,
				Policy: PolicyOptional,
			},
			wantStatus: StatusPass,
		},
		{
			name: "untracked and unverifiable falls to the policy rows",
			in: IntegrityInputs{
				Record: integrity.StatusMissing,
				Anchor: integrity.StatusMissing,
				Drift:  integrity.DriftUntracked,
				Policy: PolicyMandatory,
			},
			wantStatus: StatusBlocked,
			wantReason: "verification mandatory but unverifiable",
		},
		{
			name: "mandatory and unverifiable blocks",
			in: IntegrityInputs{
				Record: integrity.StatusMissing,
				Anchor: integrity.StatusMissing,
				Policy: PolicyMandatory,
			},
			wantStatus: StatusBlocked,
			wantReason: "verification mandatory but unverifiable",
		},
		{
			name: "optional and unverifiable warns",
			in: IntegrityInputs{
				Record: integrity.StatusMissing,
				Anchor: integrity.StatusMissing,
				Policy: PolicyOptional,
			},
			wantStatus: StatusWarn,
			wantReason: "unverifiable, verification optional",
		},
		{
			name: "one valid anchor is enough",
			in: IntegrityInputs{
				Record: integrity.StatusMissing,
				Anchor: integrity.StatusValid,
				Policy: PolicyMandatory,
			},
			wantStatus: StatusPass,
		},
		{
			name: "all valid passes",
			in: IntegrityInputs{
				Record: integrity.StatusValid,
				Anchor: integrity.StatusValid,
				Drift:  integrity.DriftClean,
				Policy: PolicyMandatory,
			},
			wantStatus: StatusPass,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, reason := Decide(tc.in)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantReason, reason)
		})
	}
}

func TestAggregateLayersGates(t *testing.T) {
	clean := IntegrityInputs{
		Record: integrity.StatusValid,
		Anchor: integrity.StatusValid,
		Policy: PolicyMandatory,
	}
	covPass := coverage.Result{Status: coverage.StatusPass}
	qualPass := quality.Result{Status: quality.StatusPass}

	v := Aggregate(clean, covPass, qualPass)
	assert.Equal(t, StatusPass, v.Overall)

	v = Aggregate(clean, coverage.Result{Status: coverage.StatusBlocked}, qualPass)
	assert.Equal(t, StatusBlocked, v.Overall)
	assert.Equal(t, "undefined or pending steps", v.Reason)
	assert.Equal(t, StatusPass, v.Checks.Integrity)

	v = Aggregate(clean, covPass, quality.Result{Status: quality.StatusBlocked})
	assert.Equal(t, StatusBlocked, v.Overall)
	assert.Equal(t, "step bindings fail quality checks", v.Reason)
}

func TestAggregateDegradedCoverageWarnsWithReason(t *testing.T) {
	clean := IntegrityInputs{
		Record: integrity.StatusValid,
		Anchor: integrity.StatusValid,
		Policy: PolicyMandatory,
	}
	cov := coverage.Result{
		Status:  coverage.StatusDegraded,
		Details: "behave not found; step coverage is unverifiable",
	}

	// Degraded coverage softens to WARN, never blocks, and the verdict
	// carries the coverage detail as its reason.
	v := Aggregate(clean, cov, quality.Result{Status: quality.StatusPass})
	assert.Equal(t, StatusWarn, v.Overall)
	assert.Equal(t, StatusWarn, v.Checks.Coverage)
	assert.Equal(t, cov.Details, v.Reason)

	v = Aggregate(clean, coverage.Result{Status: coverage.StatusDegraded}, quality.Result{Status: quality.StatusPass})
	assert.Equal(t, "step coverage unverifiable", v.Reason)
}

func TestAggregateIntegrityReasonWins(t *testing.T) {
	in := IntegrityInputs{
		Record: integrity.StatusInvalid,
		Policy: PolicyOptional,
	}
	v := Aggregate(in,
		coverage.Result{Status: coverage.StatusBlocked},
		quality.Result{Status: quality.StatusBlocked})
	assert.Equal(t, StatusBlocked, v.Overall)
	assert.Equal(t, "assertions modified since verification", v.Reason)
}

func TestPipelineAccumulates(t *testing.T) {
	var order []string
	p := NewPipeline(nil, []Check{
		{Name: "integrity", Run: func(context.Context) (Status, string, error) {
			order = append(order, "integrity")
			return StatusBlocked, "digest mismatch", nil
		}},
		{Name: "coverage", Run: func(context.Context) (Status, string, error) {
			order = append(order, "coverage")
			return StatusPass, "", nil
		}},
		{Name: "quality", Run: func(context.Context) (Status, string, error) {
			order = append(order, "quality")
			return StatusWarn, "heuristic tier", nil
		}},
	})

	outcomes, overall, err := p.Execute(context.Background())
	require.NoError(t, err)
	// A blocked check never short-circuits the rest of the sequence.
	assert.Equal(t, []string{"integrity", "coverage", "quality"}, order)
	require.Len(t, outcomes, 3)
	assert.Equal(t, StatusBlocked, overall)
	assert.Equal(t, "digest mismatch", outcomes[0].Detail)
}

func TestPipelineOperationalErrorStops(t *testing.T) {
	boom := errors.New("git unavailable")
	p := NewPipeline(nil, []Check{
		{Name: "integrity", Run: func(context.Context) (Status, string, error) {
			return StatusPass, "", nil
		}},
		{Name: "coverage", Run: func(context.Context) (Status, string, error) {
			return "", "", boom
		}},
		{Name: "quality", Run: func(context.Context) (Status, string, error) {
			t.Fatal("quality check must not run after an operational error")
			return StatusPass, "", nil
		}},
	})

	outcomes, _, err := p.Execute(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Len(t, outcomes, 1)
}

func TestWorse(t *testing.T) {
	assert.Equal(t, StatusBlocked, Worse(StatusWarn, StatusBlocked))
	assert.Equal(t, StatusWarn, Worse(StatusPass, StatusWarn))
	assert.Equal(t, StatusPass, Worse(StatusPass, StatusPass))
}
