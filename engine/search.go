package engine

import (
	"sync/atomic"
	"time"

	"github.com/xu-shawn/stoat/position"
)

// Worker drives one thread's search at a single ply; the iterative
// deepening loop around it lives in iterate.go. It owns nothing shared
// except the transposition table and the stop flag: history,
// correction and NNUE state all live on its ThreadData.
type Worker struct {
	td *ThreadData
	tt *TranspositionTable

	stop    *atomic.Bool
	limiter Limiter

	multiPV             int
	cuteChessWorkaround bool

	startTime time.Time
	infinite  bool
	maxDepth  int
}

// search is the negamax body from §4.7: (pos, pv, depth, ply, alpha,
// beta, cutnode) plus the PvNode/RootNode flags folded into an
// explicit pvNode bool and ply==0.
func (w *Worker) search(pos *position.Position, pv *PVList, depth, ply int, alpha, beta Score, cutnode, pvNode bool) Score {
	rootNode := ply == 0

	// 1. Aborts.
	if w.stop.Load() {
		return 0
	}
	if !rootNode && w.td.IsMainThread() && w.td.RootDepth > 1 {
		if w.td.Stats.LoadNodes()&2047 == 0 && w.limiter != nil && w.limiter.StopHard(w.td.Stats.LoadNodes()) {
			w.stop.Store(true)
			return 0
		}
	}

	inCheck := pos.IsInCheck()

	// 2. Mate-distance pruning.
	alpha = maxScore(alpha, matedIn(ply))
	beta = minScore(beta, mateIn(ply+1))
	if alpha >= beta {
		return alpha
	}

	// 3. Drop into quiescence.
	if depth <= 0 {
		return w.qsearch(pos, ply, alpha, beta)
	}

	// 4. Node accounting.
	w.td.Stats.IncNodes()
	if pvNode {
		w.td.Stats.UpdateSeldepth(ply + 1)
	}

	// 5. Max-depth floor.
	if ply >= MaxDepth {
		if inCheck {
			return 0
		}
		return staticEvalFor(w.td, pos, ply)
	}

	frame := &w.td.Stack[ply]
	excluded := frame.Excluded

	var ttHit ProbedEntry
	if excluded.IsNull() {
		ttHit = w.tt.Probe(pos.Key(), ply)
		if !rootNode && !pvNode && ttHit.Hit && ttHit.Depth >= depth {
			usable := false
			switch ttHit.Bound {
			case BoundExact:
				usable = true
			case BoundUpper:
				usable = ttHit.Score <= alpha
			case BoundLower:
				usable = ttHit.Score >= beta
			}
			if usable {
				cutStats.TTCutoffs.Add(1)
				return ttHit.Score
			}
		}
		if depth >= IIRMinDepth && !ttHit.Hit {
			depth--
		}
	}

	// 7. Static eval.
	staticEval := ScoreNone
	if !inCheck {
		staticEval = staticEvalFor(w.td, pos, ply)
	}
	frame.StaticEval = staticEval
	ttPv := ttHit.PV || pvNode

	// 8. Complexity.
	complexity := Score(0)
	if ttHit.Hit && staticEval != ScoreNone {
		if ttHit.Bound == BoundExact ||
			(ttHit.Bound == BoundUpper && ttHit.Score <= staticEval) ||
			(ttHit.Bound == BoundLower && ttHit.Score >= staticEval) {
			complexity = abs32Score(staticEval - ttHit.Score)
		}
	}

	// 9. Improving flag.
	improving := false
	if !inCheck {
		if ply >= 2 && w.td.Stack[ply-2].StaticEval != ScoreNone {
			improving = staticEval > w.td.Stack[ply-2].StaticEval
		} else if ply >= 4 && w.td.Stack[ply-4].StaticEval != ScoreNone {
			improving = staticEval > w.td.Stack[ply-4].StaticEval
		}
	}

	// 10. Pre-move pruning.
	if !pvNode && !inCheck && excluded.IsNull() && complexity <= 20 {
		if ply >= 1 {
			parent := &w.td.Stack[ply-1]
			if depth >= 2 && parent.Reduction >= 1 && staticEval+parent.StaticEval >= 200 {
				depth--
			}
		}

		if depth <= RFPMaxDepth && staticEval-RFPMarginBase*Score(depth-boolInt(improving)) >= beta {
			cutStats.StaticNullCutoffs.Add(1)
			return staticEval
		}

		if depth <= RazorMaxDepth && abs32Score(alpha) < 2000 && staticEval+RazorMarginPer*Score(depth) <= alpha {
			qs := w.qsearch(pos, ply, alpha, alpha+1)
			if qs <= alpha {
				cutStats.RazoringCutoffs.Add(1)
				return qs
			}
		}

		if depth >= NullMoveMinDepth && staticEval >= beta && (ply == 0 || !w.td.Stack[ply-1].Move.IsNull()) {
			r := 3 + depth/5
			child := pos.ApplyNullMove()
			savedReduction := frame.Reduction
			savedMove := frame.Move
			frame.Reduction = 0
			frame.Move = position.NullMove
			w.td.NNUE.Push(&child, nnueUpdatesForNullMove())
			var childPV PVList
			score := -w.search(&child, &childPV, depth-r, ply+1, -beta, -beta+1, !cutnode, false)
			w.td.NNUE.Pop()
			frame.Reduction = savedReduction
			frame.Move = savedMove
			if score >= beta {
				cutStats.NullMoveCutoffs.Add(1)
				if score.IsWin() {
					return beta
				}
				return score
			}
		}
	}

	picker := NewMovePicker(pos, ttHit.Move, w.td.History, w.td.Cont, ply)

	legalMoves := 0
	bestScore := matedIn(ply)
	var bestMove position.Move
	ttFlag := BoundUpper

	var quietsTried []triedQuiet
	var capturesTried []triedCapture

	for {
		m, ok := picker.Next()
		if !ok {
			break
		}
		if m == excluded {
			continue
		}
		if rootNode {
			if idx := w.td.rootMoveIndex(m); idx < 0 || idx < w.td.PVIdx {
				continue
			}
		}
		if !pos.IsLegal(m) {
			continue
		}

		isCapture := pos.IsCapture(m)
		moved := pos.PieceOn(m.From()).Type
		if m.IsDrop() {
			moved = m.DropPiece()
		}

		moveIdx := legalMoves
		lmr := baseLmr(depth, moveIdx)

		// Quiet-history snapshot for non-captures, fed into the LMR
		// formula's history term below.
		var quietHistScore int32
		if !isCapture {
			quietHistScore = w.td.History.nonCaptureScore(w.td.Cont, ply, moved, m)
		}

		if !rootNode && !pvNode && bestScore > -ScoreWin {
			if legalMoves >= lmpLimit(improving, depth) {
				picker.SkipNonCaptures()
			}
			seeThreshold := int32(-20 * depth * depth)
			if isCapture {
				seeThreshold = int32(-100 * depth * depth)
			}
			if !see(pos, m, seeThreshold) {
				continue
			}
			if depth <= QuietFutilityDepth && !inCheck && abs32Score(alpha) < 2000 && !isCapture &&
				staticEval+150+Score(100*depth) <= alpha {
				continue
			}
		}

		extension := 0
		if !rootNode && ply < 2*w.td.RootDepth && m == ttHit.Move && excluded.IsNull() {
			if depth >= SingularMinDepth && ttHit.Depth >= depth-3 && ttHit.Bound != BoundUpper {
				sBeta := maxScore(-ScoreInf+1, ttHit.Score-Score(4*depth/3))
				sDepth := (depth - 1) / 2
				frame.Excluded = m
				var dummyPV PVList
				sScore := w.search(pos, &dummyPV, sDepth, ply, sBeta-1, sBeta, cutnode, false)
				frame.Excluded = position.NullMove
				switch {
				case sScore < sBeta:
					extension = 1
				case sBeta >= beta:
					return sBeta
				case ttHit.Score >= beta:
					extension = -1
				case cutnode:
					extension = -1
				}
			} else if depth <= SingularMaxDepth && !inCheck && staticEval != ScoreNone &&
				staticEval <= alpha-26 && ttHit.Bound == BoundLower {
				extension = 1
			}
		}

		w.tt.Prefetch(pos.KeyAfter(m))

		childKey := pos.KeyAfter(m)
		wasEnteringKingWin := pos.IsEnteringKingsWin()
		child := pos.ApplyMove(m)
		sennStatus := child.TestSennichite(w.cuteChessWorkaround, w.td.KeyHistory, 16)

		if sennStatus == position.SennichiteWin {
			continue
		}

		legalMoves++

		var score Score
		switch {
		case sennStatus == position.SennichiteDraw:
			score = drawScore(w.td.Stats.LoadNodes())
		case wasEnteringKingWin:
			score = mateIn(ply + 1)
		default:
			gaveCheck := pos.GivesCheck(m)
			if extension == 0 && gaveCheck {
				extension = 1
			}
			newDepth := depth - 1 + extension

			w.td.KeyHistory = append(w.td.KeyHistory, childKey)
			w.td.Cont[ply] = w.td.History.continuationSlot(moved, m.To())
			w.td.NNUE.Push(&child, nnueUpdatesForMove(pos, m))
			frame.Move = m

			if depth >= 2 && legalMoves >= 3+2*boolInt(rootNode) && !gaveCheck && picker.stage >= stageNonCaptures {
				r := lmr + boolFloat(!pvNode) - boolFloat(inCheck) -
					boolFloat(isDropNearEnemyKing(pos, m)) + boolFloat(!improving) -
					float64(quietHistScore)/8192
				reduced := maxInt(minInt(newDepth-int(r), newDepth-1), 1)
				frame.Reduction = int(r)
				var childPV PVList
				score = -w.search(&child, &childPV, reduced, ply+1, -alpha-1, -alpha, true, false)
				if score > alpha && reduced < newDepth {
					score = -w.search(&child, &childPV, newDepth, ply+1, -alpha-1, -alpha, !cutnode, false)
				}
			} else if !pvNode || legalMoves > 1 {
				var childPV PVList
				score = -w.search(&child, &childPV, newDepth, ply+1, -alpha-1, -alpha, !cutnode, false)
			}

			if pvNode && (legalMoves == 1 || score > alpha) {
				var childPV PVList
				score = -w.search(&child, &childPV, newDepth, ply+1, -beta, -alpha, false, true)
				frame.PV.Update(m, &childPV)
			}

			w.td.NNUE.Pop()
			w.td.KeyHistory = w.td.KeyHistory[:len(w.td.KeyHistory)-1]
		}

		// 12. Post-move bookkeeping.
		if rootNode {
			if idx := w.td.rootMoveIndex(m); idx >= 0 {
				rm := &w.td.RootMoves[idx]
				if legalMoves == 1 || score > alpha {
					rm.SelDepth = w.td.Stats.LoadSeldepth()
					rm.Score = score
					rm.Upperbound = score <= alpha
					rm.Lowerbound = score >= beta
					rm.PV = frame.PV
				} else {
					rm.Score = -ScoreInf
				}
			}
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
			if score > alpha {
				alpha = score
				ttFlag = BoundExact
				pv.Update(m, &frame.PV)
			}
		}

		if isCapture {
			capturesTried = append(capturesTried, triedCapture{m, pos.PieceOn(m.To()).Type})
		} else {
			quietsTried = append(quietsTried, triedQuiet{m, moved})
		}

		if score >= beta {
			ttFlag = BoundLower
			break
		}
	}

	// 13. Stalemate.
	if legalMoves == 0 {
		if !excluded.IsNull() {
			return alpha
		}
		return matedIn(ply)
	}

	// 14. History update.
	if !bestMove.IsNull() && (bestScore >= beta || ttFlag == BoundExact) {
		bonus := historyBonus(depth)
		if pos.IsCapture(bestMove) {
			capturesTried = removeMove(capturesTried, bestMove)
			w.td.History.updateCapture(bestMove, pos.PieceOn(bestMove.To()).Type, capturesTried, bonus)
		} else {
			bestMoved := pos.PieceOn(bestMove.From()).Type
			if bestMove.IsDrop() {
				bestMoved = bestMove.DropPiece()
			}
			quietsTried = removeQuiet(quietsTried, bestMove)
			w.td.History.updateQuiet(bestMove, bestMoved, quietsTried, ply, w.td.Cont, bonus)
		}
	}

	// 15. Score dampening.
	if bestScore >= beta && !bestScore.IsWin() && !beta.IsWin() {
		bestScore = Score((int64(bestScore)*int64(depth) + int64(beta)) / int64(depth+1))
	}

	// 16. Correction-history update.
	if excluded.IsNull() && !inCheck && (bestMove.IsNull() || !pos.IsCapture(bestMove)) && staticEval != ScoreNone {
		if consistentWithBound(ttFlag, bestScore, staticEval) {
			w.td.CorrectionHistory.Update(pos.Stm().Idx(), pos.CastleKey(), pos.CavalryKey(), bestScore, staticEval, depth)
		}
	}

	// 17. TT store.
	if !rootNode || w.td.PVIdx == 0 {
		w.tt.Store(pos.Key(), ply, depth, bestMove, bestScore, ttFlag, ttPv)
	}

	return bestScore
}

// qsearch is the quiescence search from §4.7: shares stop checks, node
// counting and the depth floor with search, but only ever walks
// captures (plus evasions when in check).
func (w *Worker) qsearch(pos *position.Position, ply int, alpha, beta Score) Score {
	if w.stop.Load() {
		return 0
	}

	w.td.Stats.IncNodes()
	if ply >= MaxDepth {
		return 0
	}

	inCheck := pos.IsInCheck()

	var bestScore Score
	var staticEval Score
	if inCheck {
		bestScore = matedIn(ply)
	} else {
		staticEval = staticEvalFor(w.td, pos, ply)
		bestScore = staticEval
		if staticEval >= beta {
			return staticEval
		}
		if staticEval > alpha {
			alpha = staticEval
		}
	}

	ttHit := w.tt.Probe(pos.Key(), ply)
	picker := NewQuiescencePicker(pos, ttHit.Move, w.td.History, inCheck)

	legalMoves := 0
	captureCount := 0
	for {
		m, ok := picker.Next()
		if !ok {
			break
		}
		if !pos.IsLegal(m) {
			continue
		}
		isCapture := pos.IsCapture(m)

		if bestScore > -ScoreWin && !see(pos, m, -100) {
			continue
		}
		if !inCheck && staticEval+QSFutilityMargin <= alpha && !see(pos, m, 1) {
			if v := staticEval + QSFutilityMargin; v > bestScore {
				bestScore = v
			}
			continue
		}
		if isCapture {
			captureCount++
			if captureCount > 3 && bestScore > -ScoreWin {
				break
			}
		}

		child := pos.ApplyMove(m)
		senn := child.TestSennichite(w.cuteChessWorkaround, w.td.KeyHistory, 16)
		if senn == position.SennichiteWin {
			continue
		}
		legalMoves++

		var score Score
		if senn == position.SennichiteDraw {
			score = drawScore(w.td.Stats.LoadNodes())
		} else {
			w.td.NNUE.Push(&child, nnueUpdatesForMove(pos, m))
			score = -w.qsearch(&child, ply+1, -beta, -alpha)
			w.td.NNUE.Pop()
			if score > -ScoreWin {
				picker.SkipNonCaptures()
			}
		}

		if score > bestScore {
			bestScore = score
			if score > alpha {
				alpha = score
			}
		}
		if score >= beta {
			break
		}
	}

	if inCheck && legalMoves == 0 {
		return matedIn(ply)
	}

	return bestScore
}

func removeMove(tried []triedCapture, m position.Move) []triedCapture {
	out := tried[:0]
	for _, t := range tried {
		if t.move != m {
			out = append(out, t)
		}
	}
	return out
}

func removeQuiet(tried []triedQuiet, m position.Move) []triedQuiet {
	out := tried[:0]
	for _, t := range tried {
		if t.move != m {
			out = append(out, t)
		}
	}
	return out
}

// dropNearEnemyKingDistance is the Chebyshev-distance threshold a drop
// must fall within to count as "near the enemy king" for the LMR
// formula's drop term in §4.7 rule 11 — such drops are often the start
// of a mating attack and are reduced less than ordinary quiet moves.
const dropNearEnemyKingDistance = 2

func isDropNearEnemyKing(pos *position.Position, m position.Move) bool {
	if !m.IsDrop() {
		return false
	}
	enemyKing := pos.KingSquare(pos.Stm().Flip())
	return chebyshevDistance(m.To(), enemyKing) <= dropNearEnemyKingDistance
}

func chebyshevDistance(a, b position.Square) int {
	df := a.File() - b.File()
	if df < 0 {
		df = -df
	}
	dr := a.Rank() - b.Rank()
	if dr < 0 {
		dr = -dr
	}
	if df > dr {
		return df
	}
	return dr
}

func abs32Score(s Score) Score {
	if s < 0 {
		return -s
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
