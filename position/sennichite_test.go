package position

import "testing"

func TestSennichiteDrawOnFourfoldRepetition(t *testing.T) {
	p := Startpos()
	key := p.Key()
	// Three prior occurrences plus the receiver's own position is the
	// fourth: sennichite.
	history := []uint64{key, key, key}
	if status := p.TestSennichite(false, history, 16); status != SennichiteDraw {
		t.Fatalf("TestSennichite with 3 prior occurrences = %v, want SennichiteDraw", status)
	}
}

func TestSennichiteNoneBelowThreshold(t *testing.T) {
	p := Startpos()
	key := p.Key()
	history := []uint64{key, key}
	if status := p.TestSennichite(false, history, 16); status != SennichiteNone {
		t.Fatalf("TestSennichite with 2 prior occurrences = %v, want SennichiteNone", status)
	}
}

func TestSennichiteIgnoresOldHistoryWithoutWorkaround(t *testing.T) {
	p := Startpos()
	key := p.Key()
	other := key ^ 0xabcd1234

	history := make([]uint64, 0, 20)
	for i := 0; i < 3; i++ {
		history = append(history, key)
	}
	for i := 0; i < 20; i++ {
		history = append(history, other)
	}

	if status := p.TestSennichite(false, history, 16); status != SennichiteNone {
		t.Fatalf("TestSennichite should only scan the last 16 entries, got %v", status)
	}
	if status := p.TestSennichite(true, history, 16); status != SennichiteDraw {
		t.Fatalf("TestSennichite with CuteChessWorkaround should scan the full history, got %v", status)
	}
}
