package engine

import (
	"testing"

	"github.com/xu-shawn/stoat/position"
)

func TestDiagnosticStringDeterministic(t *testing.T) {
	tt := NewTranspositionTable(1)

	// Keys chosen with widely separated high bits so the Lemire
	// reduction lands each in a different bucket of the table.
	tt.Store(0x1000000000000000, 0, 4, position.NullMove, 10, BoundExact, false)
	tt.Store(0x8000000000000000, 0, 4, position.NullMove, -10, BoundUpper, false)
	tt.Store(0xF000000000000000, 0, 4, position.NullMove, 5, BoundLower, false)

	counts := tt.BoundDistribution()
	if counts[BoundExact] != 1 || counts[BoundUpper] != 1 || counts[BoundLower] != 1 {
		t.Fatalf("BoundDistribution = %v, want one of each of exact/upper/lower", counts)
	}

	first := tt.DiagnosticString()
	second := tt.DiagnosticString()
	if first != second {
		t.Fatalf("DiagnosticString is not stable across calls: %q vs %q", first, second)
	}
	if first == "" {
		t.Fatalf("DiagnosticString returned empty string after 3 stores")
	}
}

func TestDiagnosticStringEmptyOnFreshTable(t *testing.T) {
	tt := NewTranspositionTable(1)
	if s := tt.DiagnosticString(); s != "" {
		t.Fatalf("DiagnosticString on a fresh table = %q, want empty", s)
	}
}

func TestResizeRequestDeferredUntilFinalize(t *testing.T) {
	tt := NewTranspositionTable(1)
	before := len(tt.entries)

	tt.RequestResize(4)
	if len(tt.entries) != before {
		t.Fatalf("RequestResize resized immediately, want deferred")
	}

	applied, mb := tt.FinalizePending()
	if !applied || mb != 4 {
		t.Fatalf("FinalizePending = (%v, %d), want (true, 4)", applied, mb)
	}
	if len(tt.entries) == before {
		t.Fatalf("FinalizePending did not grow the table")
	}

	applied, _ = tt.FinalizePending()
	if applied {
		t.Fatalf("FinalizePending applied twice with no new request")
	}
}
