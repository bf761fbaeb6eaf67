package engine

import (
	"github.com/xu-shawn/stoat/position"
)

type pickStage int

const (
	stageTTMove pickStage = iota
	stageGenCaptures
	stageGoodCaptures
	stageGenNonCaptures
	stageNonCaptures
	stageBadCaptures
	stageEnd
)

type scoredMove struct {
	move     position.Move
	score    int32
	captured position.PieceType
}

// MovePicker is the lazy staged move enumerator from §4.5: it only
// generates and scores a stage once a caller actually asks for a move
// from it, and hands out moves best-first within each stage via a
// selection sort over the remaining slice (the same "orderNextMove"
// shape the teacher uses, just re-run per stage instead of once over
// the full list).
type MovePicker struct {
	pos    *position.Position
	hist   *HistoryTables
	cont   []*contSlot
	ply    int
	ttMove position.Move

	stage pickStage
	idx   int

	captures    []scoredMove
	nonCaptures []scoredMove
	bad         []scoredMove

	skipNonCaptures bool
	quiescence      bool
	evasion         bool
}

func NewMovePicker(pos *position.Position, ttMove position.Move, hist *HistoryTables, cont []*contSlot, ply int) *MovePicker {
	return &MovePicker{pos: pos, hist: hist, cont: cont, ply: ply, ttMove: ttMove}
}

// NewQuiescencePicker builds a picker for qsearch: captures only
// unless inCheck, in which case it behaves like the main picker
// (evasion stage walks captures then non-captures).
func NewQuiescencePicker(pos *position.Position, ttMove position.Move, hist *HistoryTables, inCheck bool) *MovePicker {
	mp := NewMovePicker(pos, ttMove, hist, nil, 0)
	mp.quiescence = true
	mp.evasion = inCheck
	if !inCheck {
		mp.skipNonCaptures = true
	}
	return mp
}

func (mp *MovePicker) SkipNonCaptures() { mp.skipNonCaptures = true }

// Next pulls the next pseudolegal move, or (NullMove, false) at
// stageEnd. Every stage after the TT stage skips a move equal to the
// TT move; callers are responsible for legality filtering as described
// in §4.7 step 11 ("skip if not legal").
func (mp *MovePicker) Next() (position.Move, bool) {
	for {
		switch mp.stage {
		case stageTTMove:
			mp.stage++
			if !mp.ttMove.IsNull() && mp.pos.IsPseudolegal(mp.ttMove) {
				return mp.ttMove, true
			}
		case stageGenCaptures:
			mp.genCaptures()
			mp.stage++
			mp.idx = 0
		case stageGoodCaptures:
			if m, ok := mp.pullBestCapture(); ok {
				return m, true
			}
			mp.stage++
			mp.idx = 0
		case stageGenNonCaptures:
			mp.stage++
			if mp.skipNonCaptures {
				mp.stage = stageBadCaptures
				continue
			}
			mp.genNonCaptures()
			mp.idx = 0
		case stageNonCaptures:
			if mp.skipNonCaptures {
				mp.stage = stageBadCaptures
				continue
			}
			if m, ok := pullBest(mp.nonCaptures, &mp.idx); ok {
				if m == mp.ttMove {
					continue
				}
				return m, true
			}
			mp.stage++
			mp.idx = 0
		case stageBadCaptures:
			if m, ok := pullBest(mp.bad, &mp.idx); ok {
				if m == mp.ttMove {
					continue
				}
				return m, true
			}
			mp.stage = stageEnd
		case stageEnd:
			return position.NullMove, false
		}
	}
}

func (mp *MovePicker) genCaptures() {
	moves := mp.pos.GenerateCaptures()
	if mp.evasion {
		moves = mp.pos.GenerateAll()
	}
	for _, m := range moves {
		if !mp.pos.IsCapture(m) {
			continue
		}
		if m == mp.ttMove {
			continue
		}
		if m.IsDrop() {
			continue // drops never capture
		}
		captured := mp.pos.PieceOn(m.To()).Type
		score := mp.hist.captureScore(m, captured)
		mp.captures = append(mp.captures, scoredMove{m, score, captured})
	}
}

func (mp *MovePicker) pullBestCapture() (position.Move, bool) {
	for {
		sm, ok := pullBestScored(mp.captures, &mp.idx)
		if !ok {
			return position.NullMove, false
		}
		threshold := int32(0)
		if !see(mp.pos, sm.move, threshold) {
			mp.bad = append(mp.bad, sm)
			continue
		}
		return sm.move, true
	}
}

func (mp *MovePicker) genNonCaptures() {
	var moves []position.Move
	if mp.evasion {
		all := mp.pos.GenerateAll()
		for _, m := range all {
			if !mp.pos.IsCapture(m) {
				moves = append(moves, m)
			}
		}
	} else {
		moves = mp.pos.GenerateNonCaptures()
	}
	for _, m := range moves {
		if m == mp.ttMove {
			continue
		}
		moved := mp.pos.PieceOn(m.From()).Type
		if m.IsDrop() {
			moved = m.DropPiece()
		}
		score := mp.hist.nonCaptureScore(mp.cont, mp.ply, moved, m)
		mp.nonCaptures = append(mp.nonCaptures, scoredMove{m, score, position.PieceTypeNone})
	}
}

func pullBest(list []scoredMove, idx *int) (position.Move, bool) {
	sm, ok := pullBestScored(list, idx)
	if !ok {
		return position.NullMove, false
	}
	return sm.move, true
}

// pullBestScored runs the best-first selection sort described in
// §4.5: scan [idx, end), swap the winner into idx, advance.
func pullBestScored(list []scoredMove, idx *int) (scoredMove, bool) {
	if *idx >= len(list) {
		return scoredMove{}, false
	}
	best := *idx
	for i := *idx + 1; i < len(list); i++ {
		if list[i].score > list[best].score {
			best = i
		}
	}
	list[*idx], list[best] = list[best], list[*idx]
	sm := list[*idx]
	*idx++
	return sm, true
}
