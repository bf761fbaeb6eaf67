package engine

import (
	"testing"

	"github.com/xu-shawn/stoat/position"
)

func mustParse(t *testing.T, sfen string) position.Position {
	t.Helper()
	p, err := position.FromSFEN(sfen)
	if err != nil {
		t.Fatalf("FromSFEN(%q): %v", sfen, err)
	}
	return p
}

func TestSEEUndefendedCaptureWins(t *testing.T) {
	p := mustParse(t, "4p4/9/9/9/4R4/9/9/9/9 b - 1")
	m := position.NewMove(position.NewSquare(4, 4), position.NewSquare(4, 0))

	if !see(&p, m, 0) {
		t.Fatalf("undefended pawn capture should clear threshold 0")
	}
	if see(&p, m, 100) {
		t.Fatalf("rook x pawn should not clear threshold 100")
	}
}

func TestSEEDefendedCaptureLoses(t *testing.T) {
	p := mustParse(t, "4p4/4g4/9/9/4R4/9/9/9/9 b - 1")
	m := position.NewMove(position.NewSquare(4, 4), position.NewSquare(4, 0))

	if see(&p, m, 0) {
		t.Fatalf("rook x pawn defended by gold should not clear threshold 0")
	}
}

func TestSEEDropAlwaysClearsZero(t *testing.T) {
	p := mustParse(t, "9/9/9/9/9/9/9/9/9 b P 1")
	m := position.NewDropMove(position.Pawn, position.NewSquare(4, 4))

	if !see(&p, m, 0) {
		t.Fatalf("drop should clear threshold 0")
	}
	if see(&p, m, 1) {
		t.Fatalf("drop should not clear a positive threshold")
	}
}
