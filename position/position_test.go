package position

import "testing"

func TestStartposLegalMoveCount(t *testing.T) {
	p := Startpos()
	if p.Stm() != Black {
		t.Fatalf("startpos stm = %v, want Black", p.Stm())
	}
	moves := p.GenerateAll()
	legal := 0
	for _, m := range moves {
		if p.IsLegal(m) {
			legal++
		}
	}
	// Shogi's startpos has 30 legal moves for the first player.
	if legal != 30 {
		t.Fatalf("startpos legal move count = %d, want 30", legal)
	}
}

func TestApplyMoveFlipsStm(t *testing.T) {
	p := Startpos()
	moves := p.GenerateAll()
	var pawnPush Move
	for _, m := range moves {
		if !m.IsDrop() && p.IsLegal(m) {
			pawnPush = m
			break
		}
	}
	child := p.ApplyMove(pawnPush)
	if child.Stm() != White {
		t.Fatalf("after black move stm = %v, want White", child.Stm())
	}
	if child.Key() == p.Key() {
		t.Fatalf("key did not change after move")
	}
}

func TestKeyAfterMatchesApplyMove(t *testing.T) {
	p := Startpos()
	for _, m := range p.GenerateAll() {
		if !p.IsLegal(m) {
			continue
		}
		child := p.ApplyMove(m)
		want := child.Key()
		got := p.KeyAfter(m)
		if got != want {
			t.Fatalf("KeyAfter(%v) = %#x, want %#x", m, got, want)
		}
	}
}

func TestSFENRoundTrip(t *testing.T) {
	p, err := FromSFEN(StartposSFEN)
	if err != nil {
		t.Fatalf("FromSFEN: %v", err)
	}
	if p.SFEN() == "" {
		t.Fatalf("SFEN() returned empty string")
	}
	if p.KingSquare(Black) == NoSquare || p.KingSquare(White) == NoSquare {
		t.Fatalf("kings not found after parsing startpos sfen")
	}
}

func TestNoPerpetualAtStart(t *testing.T) {
	p := Startpos()
	if status := p.TestSennichite(false, nil, 16); status != SennichiteNone {
		t.Fatalf("TestSennichite on fresh game = %v, want SennichiteNone", status)
	}
}

func TestPawnDropNifu(t *testing.T) {
	p := Startpos()
	p.hands[Black].Increment(Pawn)
	if p.canDropAt(Pawn, NewSquare(0, 5), Black) {
		t.Fatalf("nifu: dropping a second pawn on a file that already has one should be illegal")
	}
}
