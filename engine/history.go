package engine

import "github.com/xu-shawn/stoat/position"

// historyMax bounds every history entry, matching the "gravity" update
// rule's natural fixed point: v += bonus - v*|bonus|/historyMax keeps
// |v| <= historyMax for any bonus in [-historyMax, historyMax].
const historyMax = 16384

// historyBonus is the depth-scaled reward/penalty applied on a
// beta-cutoff (positive, to the best move) or a failed try (negative,
// to everything tried before it).
func historyBonus(depth int) int32 {
	b := int32(300*depth - 300)
	if b < 0 {
		b = 0
	}
	if b > 2500 {
		b = 2500
	}
	return b
}

func updateHistory(v *int16, bonus int32) {
	cur := int32(*v)
	cur += bonus - cur*abs32(bonus)/historyMax
	*v = int16(cur)
}

// quietHistory is the "main quiet" table indexed [promo?][from][to].
type quietHistory struct {
	table [2][position.NumSquares][position.NumSquares]int16
}

func (h *quietHistory) score(m position.Move) int32 {
	p := 0
	if m.IsPromo() {
		p = 1
	}
	return int32(h.table[p][m.From().Idx()][m.To().Idx()])
}

func (h *quietHistory) update(m position.Move, bonus int32) {
	p := 0
	if m.IsPromo() {
		p = 1
	}
	updateHistory(&h.table[p][m.From().Idx()][m.To().Idx()], bonus)
}

// dropHistory is indexed [droppedPieceType][toSquare].
type dropHistory struct {
	table [position.NumPieceTypes][position.NumSquares]int16
}

func (h *dropHistory) score(m position.Move) int32 {
	return int32(h.table[m.DropPiece().Idx()][m.To().Idx()])
}

func (h *dropHistory) update(m position.Move, bonus int32) {
	updateHistory(&h.table[m.DropPiece().Idx()][m.To().Idx()], bonus)
}

// captureHistory is indexed [promo?][from][to][capturedPieceType].
type captureHistory struct {
	table [2][position.NumSquares][position.NumSquares][position.NumPieceTypes]int16
}

func (h *captureHistory) score(m position.Move, captured position.PieceType) int32 {
	p := 0
	if m.IsPromo() {
		p = 1
	}
	return int32(h.table[p][m.From().Idx()][m.To().Idx()][captured.Idx()])
}

func (h *captureHistory) update(m position.Move, captured position.PieceType, bonus int32) {
	p := 0
	if m.IsPromo() {
		p = 1
	}
	updateHistory(&h.table[p][m.From().Idx()][m.To().Idx()][captured.Idx()], bonus)
}

// contSlot is a [movedPiece][toSquare] subtable reached through a
// continuation-pointer stack rather than a flat multi-dimensional
// array, since the predecessor context is identified by search-stack
// position rather than by an addressable key.
type contSlot struct {
	table [position.NumPieceTypes][position.NumSquares]int16
}

func (s *contSlot) score(moved position.PieceType, to position.Square) int32 {
	if s == nil {
		return 0
	}
	return int32(s.table[moved.Idx()][to.Idx()])
}

func (s *contSlot) update(moved position.PieceType, to position.Square, bonus int32) {
	if s == nil {
		return
	}
	updateHistory(&s.table[moved.Idx()][to.Idx()], bonus)
}

// continuationHistory owns one contSlot per (movedPiece, toSquare)
// pair that has ever appeared as the move *reaching* a node, so a
// child ply can look up "the slot for the move that got us here".
type continuationHistory struct {
	slots [position.NumPieceTypes][position.NumSquares]contSlot
}

func (c *continuationHistory) slot(moved position.PieceType, to position.Square) *contSlot {
	return &c.slots[moved.Idx()][to.Idx()]
}

// HistoryTables bundles every quiet/capture/continuation table a
// worker owns privately. Reset only on newgame, per the lifecycle
// rule in the data model.
type HistoryTables struct {
	quiet   quietHistory
	drop    dropHistory
	capture captureHistory
	cont    continuationHistory
}

func NewHistoryTables() *HistoryTables { return &HistoryTables{} }

func (h *HistoryTables) Clear() { *h = HistoryTables{} }

// mainNonCaptureScore is the cheap main quiet/drop table lookup for a
// quiet move with no continuation context; nonCaptureScore adds the
// continuation term on top of it.
func (h *HistoryTables) mainNonCaptureScore(m position.Move) int32 {
	if m.IsDrop() {
		return h.drop.score(m)
	}
	return h.quiet.score(m)
}

func (h *HistoryTables) captureScore(m position.Move, captured position.PieceType) int32 {
	return pieceValue(captured) + h.capture.score(m, captured)/8
}

// nonCaptureScore combines the main table with the previous ply's
// continuation slot, per spec.md §4.2.
func (h *HistoryTables) nonCaptureScore(contStack []*contSlot, ply int, moved position.PieceType, m position.Move) int32 {
	score := h.mainNonCaptureScore(m)
	if ply >= 1 && contStack[ply-1] != nil {
		score += contStack[ply-1].score(moved, m.To())
	}
	return score
}

func (h *HistoryTables) continuationSlot(moved position.PieceType, to position.Square) *contSlot {
	return h.cont.slot(moved, to)
}

// updateQuiet applies the cutoff bonus to bestMove (and its
// continuation slot) and an equal-magnitude penalty to every quiet
// move tried and rejected before it, per §4.7 rule 14.
func (h *HistoryTables) updateQuiet(best position.Move, bestMoved position.PieceType, tried []triedQuiet, ply int, contStack []*contSlot, bonus int32) {
	if best.IsDrop() {
		h.drop.update(best, bonus)
	} else {
		h.quiet.update(best, bonus)
	}
	if ply >= 1 && contStack[ply-1] != nil {
		contStack[ply-1].update(bestMoved, best.To(), bonus)
	}
	for _, t := range tried {
		if t.move.IsDrop() {
			h.drop.update(t.move, -bonus)
		} else {
			h.quiet.update(t.move, -bonus)
		}
		if ply >= 1 && contStack[ply-1] != nil {
			contStack[ply-1].update(t.moved, t.move.To(), -bonus)
		}
	}
}

func (h *HistoryTables) updateCapture(best position.Move, capturedBest position.PieceType, tried []triedCapture, bonus int32) {
	h.capture.update(best, capturedBest, bonus)
	for _, t := range tried {
		h.capture.update(t.move, t.captured, -bonus)
	}
}

type triedQuiet struct {
	move  position.Move
	moved position.PieceType
}

type triedCapture struct {
	move     position.Move
	captured position.PieceType
}
