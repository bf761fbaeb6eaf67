package engine

import (
	"github.com/xu-shawn/stoat/engine/nnue"
	"github.com/xu-shawn/stoat/position"
)

// rawEval reads the NNUE accumulator for the side to move. The search
// core never calls this directly outside staticEvalFor: every read
// goes through the correction-history adjustment below.
func rawEval(td *ThreadData, pos *position.Position) Score {
	return Score(td.NNUE.Evaluate(pos.Stm()))
}

// staticEvalFor is correctedStaticEval(pos, nnue, corrhist, ply) from
// §4.7 rule 7: ScoreNone in check (quiescence and the main search both
// treat a null static eval as "ask the move picker instead"),
// otherwise the raw NNUE read adjusted by the ply-scaled correction
// history lookup.
func staticEvalFor(td *ThreadData, pos *position.Position, ply int) Score {
	if pos.IsInCheck() {
		return ScoreNone
	}
	raw := rawEval(td, pos)
	corr := td.CorrectionHistory.Correction(pos.Stm().Idx(), pos.CastleKey(), pos.CavalryKey())
	return correctedStaticEval(raw, ply, corr)
}

// nnueUpdatesForMove builds the accumulator deltas §4.1 describes for
// one move, read off the pre-move position (so hand counts and the
// piece being displaced are still in view): at most one sub+add for
// the board move, a second sub+add pair for a capture or a drop's
// hand decrement, and a refresh flag when a king move carries its own
// perspective across the horizontal mirror boundary.
func nnueUpdatesForMove(pos *position.Position, m position.Move) *nnue.Updates {
	updates := &nnue.Updates{}
	us := pos.Stm()
	kings := [2]position.Square{pos.KingSquare(position.Black), pos.KingSquare(position.White)}

	if m.IsDrop() {
		pt := m.DropPiece()
		n := pos.Hand(us).Count(pt)
		piece := position.Piece{Type: pt, Owner: us}
		updates.PushDrop(kings, piece, m.To(), n)
		return updates
	}

	src := pos.PieceOn(m.From())
	dstType := src.Type
	if m.IsPromo() {
		dstType = src.Type.Promoted()
	}
	dst := position.Piece{Type: dstType, Owner: us}

	if captured := pos.PieceOn(m.To()); !captured.IsNone() {
		base := captured.Type.Unpromoted()
		n := pos.Hand(us).Count(base)
		updates.PushCapture(kings, m.To(), captured, n)
	}

	updates.PushMove(kings, src, dst, m.From(), m.To())

	if src.Type == position.King && (m.From().Relative(us).File() > 4) != (m.To().Relative(us).File() > 4) {
		updates.SetRefresh(us)
	}

	return updates
}

// nnueUpdatesForNullMove is feature-empty: the board and both hands
// are untouched by a null move, only the side to move flips.
func nnueUpdatesForNullMove() *nnue.Updates {
	return &nnue.Updates{}
}
