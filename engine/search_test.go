package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/xu-shawn/stoat/position"
)

// captureHandler records every report an Engine sends so tests can
// assert on the final outcome without a real USI front end.
type captureHandler struct {
	mu sync.Mutex

	infos           []SearchInfo
	bestMove        position.Move
	ponderMove      position.Move
	bestMoveCalls   int
	noLegalMoves    bool
	enteringWinCall bool
}

func (h *captureHandler) PrintSearchInfo(info SearchInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.infos = append(h.infos, info)
}

func (h *captureHandler) PrintInfoString(string) {}

func (h *captureHandler) PrintBestMove(best, ponder position.Move) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bestMove = best
	h.ponderMove = ponder
	h.bestMoveCalls++
}

func (h *captureHandler) HandleNoLegalMoves(*position.Position) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.noLegalMoves = true
}

func (h *captureHandler) HandleEnteringKingsWin(*position.Position) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enteringWinCall = true
	return true
}

func (h *captureHandler) snapshot() (best position.Move, calls int, noLegal bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bestMove, h.bestMoveCalls, h.noLegalMoves
}

// waitIdle blocks until e.IsSearching() goes false or timeout elapses.
func waitIdle(t *testing.T, e *Engine, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for e.IsSearching() {
		if time.Now().After(deadline) {
			t.Fatalf("search did not finish within %v", timeout)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// TestRootMateInOne builds a position where Black's only winning move
// is dropping a gold on 8b, 9a's diagonal neighbour: White's king,
// cornered at 9a, has every flight square covered by the drop itself
// and the drop square defended by a silver, so the drop is mate in one.
// See S1.
func TestRootMateInOne(t *testing.T) {
	pos := mustParse(t, "k8/9/2S6/9/9/9/9/9/8K b G 1")

	h := &captureHandler{}
	e := NewEngine(h)

	if err := e.StartSearch(pos, []uint64{pos.Key()}, time.Now(), false, 4, nil); err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	waitIdle(t, e, 5*time.Second)

	best, calls, noLegal := h.snapshot()
	if calls != 1 {
		t.Fatalf("PrintBestMove called %d times, want 1", calls)
	}
	if noLegal {
		t.Fatalf("HandleNoLegalMoves fired on a position with legal moves")
	}

	want := position.NewDropMove(position.Gold, position.NewSquare(1, 1))
	if best != want {
		t.Fatalf("bestmove = %v, want %v", best, want)
	}
}

// TestNoLegalMovesAtRoot mirrors TestRootMateInOne one ply later: White
// to move is already mated, so StartSearch must report no legal moves
// and never call PrintBestMove. See S2.
func TestNoLegalMovesAtRoot(t *testing.T) {
	pos := mustParse(t, "k8/1G7/2S6/9/9/9/9/9/8K w - 1")

	h := &captureHandler{}
	e := NewEngine(h)

	if err := e.StartSearch(pos, []uint64{pos.Key()}, time.Now(), false, 4, nil); err != nil {
		t.Fatalf("StartSearch: %v", err)
	}

	// StartSearch returns synchronously in the no-legal-moves case: no
	// worker goroutine is ever started, so there is nothing to wait on.
	if e.IsSearching() {
		t.Fatalf("IsSearching() true after a no-legal-moves StartSearch")
	}

	_, calls, noLegal := h.snapshot()
	if !noLegal {
		t.Fatalf("HandleNoLegalMoves was not called")
	}
	if calls != 0 {
		t.Fatalf("PrintBestMove called %d times, want 0", calls)
	}
}

// TestHashResizeThenSearchCompletes exercises SetTtSize's deferred
// resize: shrinking the table (applied by EnsureReady) and then
// requesting a larger one (applied by StartSearch) must still leave a
// search that completes with a bestmove. See S4.
func TestHashResizeThenSearchCompletes(t *testing.T) {
	h := &captureHandler{}
	e := NewEngine(h)

	e.SetTtSize(1)
	e.EnsureReady()

	e.SetTtSize(16)
	pos := position.Startpos()
	if err := e.StartSearch(pos, []uint64{pos.Key()}, time.Now(), false, 3, nil); err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	waitIdle(t, e, 10*time.Second)

	best, calls, _ := h.snapshot()
	if calls != 1 {
		t.Fatalf("PrintBestMove called %d times, want 1", calls)
	}
	if best.IsNull() {
		t.Fatalf("bestmove is null after a resized-table search from startpos")
	}
}

func TestDrawScoreIsSmall(t *testing.T) {
	for n := uint64(0); n < 8; n++ {
		s := drawScore(n)
		if s < -2 || s > 2 {
			t.Fatalf("drawScore(%d) = %d, want in [-2, 2]", n, s)
		}
	}
}
