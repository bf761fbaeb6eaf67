package engine

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xu-shawn/stoat/position"
)

// ErrAlreadySearching is returned by StartSearch when a previous
// search has not yet finished.
var ErrAlreadySearching = errors.New("engine: search already in progress")

const (
	defaultThreads = 1
	defaultHashMB  = 64
	defaultMultiPV = 1
)

// Engine is the parallel driver from spec.md §4.8: a fixed-size pool of
// otherwise-identical workers sharing one TranspositionTable, started
// and stopped as a unit. The teacher runs one thread with no pooling at
// all, so this is supplemented wholesale from original_source's
// thread.h/.cpp; Go's sync.WaitGroup stands in for the C++ Barrier the
// original uses to fan worker goroutines out at the start of a search
// and back in at the end (see DESIGN.md).
type Engine struct {
	mu sync.Mutex

	tt      *TranspositionTable
	workers []*ThreadData

	multiPVTarget       int
	cuteChessWorkaround bool
	limiter             Limiter

	stop      atomic.Bool
	searching atomic.Bool
	wg        sync.WaitGroup
	done      chan struct{}

	handler Handler
}

// NewEngine wires a driver around handler, with one worker, a 64MiB
// table and MultiPV 1 — the teacher's and spec.md §6's defaults.
func NewEngine(handler Handler) *Engine {
	if handler == nil {
		handler = NullHandler{}
	}
	e := &Engine{
		tt:            NewTranspositionTable(defaultHashMB),
		multiPVTarget: defaultMultiPV,
		handler:       handler,
	}
	e.setThreadCountLocked(defaultThreads)
	return e
}

// NewGame clears the table and every worker's private heuristic state,
// per §6's "clear TT + per-thread heuristic state". NNUE accumulators
// reset themselves on the next ResetForSearch, so they are untouched
// here.
func (e *Engine) NewGame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tt.Clear()
	for _, td := range e.workers {
		td.History.Clear()
		td.CorrectionHistory.Clear()
	}
}

// EnsureReady finalises a pending Hash resize outside of a search, so
// the next go command never pays for it mid-search.
func (e *Engine) EnsureReady() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finalizeResizeLocked()
}

func (e *Engine) finalizeResizeLocked() {
	start := time.Now()
	if applied, mb := e.tt.FinalizePending(); applied {
		e.handler.PrintInfoString(
			"Hash resized to " + strconv.Itoa(mb) + " MB in " + time.Since(start).String(),
		)
	} else if diag := e.tt.DiagnosticString(); diag != "" {
		e.handler.PrintInfoString("hash occupancy " + diag)
	}
}

// SetThreadCount grows or shrinks the worker pool. Refused while a
// search is running, matching §4.8's "reconfigurable only when idle".
func (e *Engine) SetThreadCount(n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.searching.Load() {
		return errors.New("engine: cannot change thread count while searching")
	}
	e.setThreadCountLocked(n)
	return nil
}

func (e *Engine) setThreadCountLocked(n int) {
	if n < 1 {
		n = 1
	}
	workers := make([]*ThreadData, n)
	for i := range workers {
		workers[i] = NewThreadData(i)
	}
	e.workers = workers
}

// SetTtSize requests a Hash resize, applied at the next EnsureReady or
// search start.
func (e *Engine) SetTtSize(mib int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tt.RequestResize(mib)
}

// SetMultiPV sets the target number of PV lines reported per
// iteration; actual count is clamped to the number of legal root moves
// at search start.
func (e *Engine) SetMultiPV(k int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if k < 1 {
		k = 1
	}
	e.multiPVTarget = k
}

// SetCuteChessWorkaround forwards the flag a USI front-end learns from
// the `CuteChessWorkaround` option to every worker's sennichite check.
func (e *Engine) SetCuteChessWorkaround(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cuteChessWorkaround = enabled
}

// SetLimiter installs the limiter used by StartSearch calls that pass
// a nil limiter of their own.
func (e *Engine) SetLimiter(l Limiter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.limiter = l
}

func (e *Engine) IsSearching() bool { return e.searching.Load() }

// StartSearch is the driver algorithm from §4.8 steps 1-4: generate
// root moves, bail out early on no-legal-moves or an accepted
// entering-king win, finalise any pending resize, fan every worker out
// with its own copy of the root-move list and a freshly reset NNUE,
// then return immediately — the search runs in the background until it
// stops itself or Stop is called.
func (e *Engine) StartSearch(pos position.Position, keyHistory []uint64, startTime time.Time, infinite bool, maxDepth int, limiter Limiter) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.searching.Load() {
		return ErrAlreadySearching
	}

	legal := pos.GenerateAll()
	rootMoves := make([]RootMove, 0, len(legal))
	for _, m := range legal {
		if pos.IsLegal(m) {
			rootMoves = append(rootMoves, RootMove{Move: m, Score: -ScoreInf})
		}
	}
	if len(rootMoves) == 0 {
		e.handler.HandleNoLegalMoves(&pos)
		return nil
	}
	if pos.IsEnteringKingsWin() && e.handler.HandleEnteringKingsWin(&pos) {
		return nil
	}

	e.finalizeResizeLocked()

	if limiter == nil {
		limiter = e.limiter
	}

	multiPV := e.multiPVTarget
	if multiPV > len(rootMoves) {
		multiPV = len(rootMoves)
	}

	e.stop.Store(false)
	e.searching.Store(true)
	e.done = make(chan struct{})

	e.wg.Add(len(e.workers))
	for _, td := range e.workers {
		td.ResetForSearch(pos, keyHistory, cloneRootMoves(rootMoves))
		w := &Worker{
			td:                  td,
			tt:                  e.tt,
			stop:                &e.stop,
			limiter:             limiter,
			multiPV:             multiPV,
			cuteChessWorkaround: e.cuteChessWorkaround,
			startTime:           startTime,
			infinite:            infinite,
			maxDepth:            maxDepth,
		}
		go func(w *Worker) {
			defer e.wg.Done()
			w.IterativeDeepening(e.handler)
		}(w)
	}

	done := e.done
	go func() {
		e.wg.Wait()
		e.finishSearch()
		close(done)
	}()

	return nil
}

// Stop requests an early stop and blocks until the driver's final
// report has been emitted, matching §6's "stop() — synchronous; blocks
// until all workers report done."
func (e *Engine) Stop() {
	e.stop.Store(true)
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

// finishSearch runs once all workers have returned: it reads the main
// worker's (workers[0]) best move — per §4.8, non-main workers never
// contribute to the final report — ages the table, and clears the
// searching flag.
func (e *Engine) finishSearch() {
	main := e.workers[0]
	best := position.NullMove
	ponder := position.NullMove
	if len(main.RootMoves) > 0 {
		rm := &main.RootMoves[0]
		best = rm.Move
		if rm.PV.Len() > 1 {
			ponder = rm.PV.Move(1)
		}
	}
	e.handler.PrintBestMove(best, ponder)
	e.tt.NewSearch()
	e.searching.Store(false)
}

func cloneRootMoves(src []RootMove) []RootMove {
	out := make([]RootMove, len(src))
	copy(out, src)
	return out
}
