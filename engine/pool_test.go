package engine

import (
	"testing"
	"time"

	"github.com/xu-shawn/stoat/position"
)

// TestStopIsHonoured drives an infinite search and confirms Stop is
// synchronous: by the time it returns, the driver has finished and
// emitted exactly one bestmove report. See S5.
func TestStopIsHonoured(t *testing.T) {
	h := &captureHandler{}
	e := NewEngine(h)
	pos := position.Startpos()

	if err := e.StartSearch(pos, []uint64{pos.Key()}, time.Now(), true, 0, nil); err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	if !e.IsSearching() {
		t.Fatalf("IsSearching() false immediately after StartSearch")
	}

	time.Sleep(150 * time.Millisecond)
	e.Stop()

	if e.IsSearching() {
		t.Fatalf("IsSearching() true after Stop returned")
	}
	_, calls, _ := h.snapshot()
	if calls != 1 {
		t.Fatalf("PrintBestMove called %d times, want exactly 1", calls)
	}
}

// TestMultiThreadSearchCompletes runs a fixed-depth search with
// several workers sharing one table and checks the driver still
// converges on a single, legal bestmove. See S6.
func TestMultiThreadSearchCompletes(t *testing.T) {
	h := &captureHandler{}
	e := NewEngine(h)
	if err := e.SetThreadCount(4); err != nil {
		t.Fatalf("SetThreadCount: %v", err)
	}

	pos := position.Startpos()
	if err := e.StartSearch(pos, []uint64{pos.Key()}, time.Now(), false, 3, nil); err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	waitIdle(t, e, 15*time.Second)

	best, calls, _ := h.snapshot()
	if calls != 1 {
		t.Fatalf("PrintBestMove called %d times, want exactly 1", calls)
	}
	if best.IsNull() {
		t.Fatalf("bestmove is null after a 4-thread search from startpos")
	}
	if !pos.IsLegal(best) {
		t.Fatalf("bestmove %v is not a legal root move", best)
	}
}

func TestSetThreadCountRefusedWhileSearching(t *testing.T) {
	h := &captureHandler{}
	e := NewEngine(h)
	pos := position.Startpos()

	if err := e.StartSearch(pos, []uint64{pos.Key()}, time.Now(), true, 0, nil); err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	defer e.Stop()

	if err := e.SetThreadCount(2); err == nil {
		t.Fatalf("SetThreadCount succeeded while searching, want an error")
	}
}

func TestSecondSearchRefusedWhileRunning(t *testing.T) {
	h := &captureHandler{}
	e := NewEngine(h)
	pos := position.Startpos()

	if err := e.StartSearch(pos, []uint64{pos.Key()}, time.Now(), true, 0, nil); err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	defer e.Stop()

	if err := e.StartSearch(pos, []uint64{pos.Key()}, time.Now(), true, 0, nil); err != ErrAlreadySearching {
		t.Fatalf("second StartSearch err = %v, want ErrAlreadySearching", err)
	}
}
