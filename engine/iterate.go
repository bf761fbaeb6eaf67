package engine

import (
	"time"

	"github.com/xu-shawn/stoat/position"
)

// aspirationReportGuard is how long an aspiration-window failure has
// to be "in flight" before it is worth a PrintSearchInfo call on its
// own, per spec.md §6 ("with a 1.5-second guard, on aspiration-window
// failures").
const aspirationReportGuard = 1500 * time.Millisecond

// IterativeDeepening runs one worker's depth loop, grounded on the
// teacher's rootsearch: depth 1 upward, an aspiration window from
// depth 3, and (for MultiPV > 1) one aspiration search per PV slot at
// each depth. Stops on the driver's stop flag, the configured limiter,
// or maxDepth/MaxDepth, whichever comes first.
func (w *Worker) IterativeDeepening(handler Handler) {
	limit := w.maxDepth
	if limit <= 0 || limit > MaxDepth {
		limit = MaxDepth
	}

	multiPV := w.multiPV
	if multiPV < 1 {
		multiPV = 1
	}
	if multiPV > len(w.td.RootMoves) {
		multiPV = len(w.td.RootMoves)
	}
	if multiPV < 1 {
		handler.HandleNoLegalMoves(&w.td.RootPos)
		return
	}

	for depth := 1; depth <= limit; depth++ {
		if w.stop.Load() {
			return
		}
		if w.td.IsMainThread() && !w.infinite && depth > 1 && w.limiter != nil &&
			w.limiter.StopSoft(w.td.Stats.LoadNodes()) {
			w.stop.Store(true)
			return
		}

		w.td.RootDepth = depth
		w.td.Stats.ResetSeldepth()

		for pvIdx := 0; pvIdx < multiPV; pvIdx++ {
			w.td.PVIdx = pvIdx
			if !w.aspirationSearch(depth, pvIdx, handler) {
				return
			}
		}

		if w.stop.Load() {
			return
		}

		w.td.DepthCompleted = depth

		if w.td.IsMainThread() {
			best := w.td.RootMoves[0].Move
			for i := 0; i < multiPV; i++ {
				handler.PrintSearchInfo(w.buildSearchInfo(depth, i))
			}
			if w.limiter != nil {
				w.limiter.Update(depth, best)
				w.limiter.AddMoveNodes(best, w.td.Stats.LoadNodes())
			}
		}

		if w.td.RootMoves[0].Score.IsDecisive() && !w.td.Datagen {
			break
		}
	}
}

// aspirationSearch runs the depth-3-and-up windowed retry ladder from
// §4.7: fail-low widens downward and resets the reduction, fail-high
// widens upward and grows the reduction (capped at 3), and every
// completed attempt re-sorts the unsettled tail of the root-move list
// so the next PV slot sees an accurate ranking. Returns false if the
// search was aborted mid-window.
func (w *Worker) aspirationSearch(depth, pvIdx int, handler Handler) bool {
	delta := Score(AspirationWindow)
	alpha, beta := -ScoreInf, ScoreInf
	reduction := 0

	if depth >= 3 {
		prev := w.td.RootMoves[pvIdx].Score
		alpha = maxScore(prev-delta, -ScoreInf)
		beta = minScore(prev+delta, ScoreInf)
	}

	for {
		if w.stop.Load() {
			return false
		}

		searchDepth := depth - reduction
		if searchDepth < 1 {
			searchDepth = 1
		}

		var pv PVList
		score := w.search(&w.td.RootPos, &pv, searchDepth, 0, alpha, beta, false, true)

		sortRootMovesFrom(w.td.RootMoves, pvIdx)

		if w.stop.Load() {
			return false
		}

		failedLow := score <= alpha
		failedHigh := score >= beta
		if !failedLow && !failedHigh {
			return true
		}

		if w.td.IsMainThread() && time.Since(w.startTime) > aspirationReportGuard {
			handler.PrintSearchInfo(w.buildSearchInfo(depth, pvIdx))
		}

		if failedLow {
			reduction = 0
			beta = (alpha + beta) / 2
			alpha = maxScore(score-delta, -ScoreInf)
		} else {
			if reduction < 3 {
				reduction++
			}
			beta = minScore(score+delta, ScoreInf)
		}

		if delta > ScoreInf/2 {
			delta = ScoreInf
		} else {
			delta *= 2
		}
	}
}

// buildSearchInfo assembles the §6 SearchInfo payload for rootMoves[idx]:
// mate-plies or centipawn score (near-zero scores clamped to 0 for
// display), the matching bound, elapsed time, nodes, nps and PV.
func (w *Worker) buildSearchInfo(depth, idx int) SearchInfo {
	rm := &w.td.RootMoves[idx]

	bound := BoundExact
	switch {
	case rm.Upperbound:
		bound = BoundUpper
	case rm.Lowerbound:
		bound = BoundLower
	}

	display := rm.Score
	if abs32Score(display) <= 2 {
		display = 0
	}
	rm.DisplayScore = display

	elapsed := time.Since(w.startTime)
	nodes := w.td.Stats.LoadNodes()
	nps := uint64(0)
	if ms := elapsed.Milliseconds(); ms > 0 {
		nps = nodes * 1000 / uint64(ms)
	}

	pv := make([]position.Move, rm.PV.Len())
	for i := range pv {
		pv[i] = rm.PV.Move(i)
	}
	if len(pv) == 0 {
		pv = []position.Move{rm.Move}
	}

	return SearchInfo{
		Depth:      depth,
		SelDepth:   rm.SelDepth,
		MultiPVIdx: idx,
		Score:      display,
		Bound:      bound,
		Nodes:      nodes,
		NPS:        nps,
		TimeUsed:   elapsed,
		HashFull:   w.tt.fullPermille(),
		PV:         pv,
	}
}
