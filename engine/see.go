package engine

import "github.com/xu-shawn/stoat/position"

// pieceValueTable gives each piece type its material weight for SEE
// and capture-history ordering, roughly in line with common shogi
// engine tables (promoted pieces move like gold or better, so they
// outvalue their base form).
var pieceValueTable = func() [position.NumPieceTypes]int32 {
	var t [position.NumPieceTypes]int32
	t[position.Pawn.Idx()] = 90
	t[position.Lance.Idx()] = 315
	t[position.Knight.Idx()] = 405
	t[position.Silver.Idx()] = 495
	t[position.Gold.Idx()] = 540
	t[position.Bishop.Idx()] = 855
	t[position.Rook.Idx()] = 990
	t[position.King.Idx()] = 15000
	t[position.PPawn.Idx()] = 540
	t[position.PLance.Idx()] = 540
	t[position.PKnight.Idx()] = 540
	t[position.PSilver.Idx()] = 540
	t[position.PBishop.Idx()] = 945
	t[position.PRook.Idx()] = 1395
	return t
}()

func pieceValue(pt position.PieceType) int32 {
	if pt == position.PieceTypeNone {
		return 0
	}
	return pieceValueTable[pt.Idx()]
}

// see mirrors the teacher's gain-array exchange simulation: repeatedly
// find the least valuable attacker of the destination square for the
// side to move, swap it in, and unwind the gain array with a running
// minimax. Unlike the teacher's bitboard sliding lookups, attacker
// discovery here walks Position.AttackersTo against a mailbox copy
// with already-used pieces peeled off one at a time.
func see(pos *position.Position, m position.Move, threshold int32) bool {
	if m.IsDrop() {
		// A drop never gives up the dropped piece for recapture on
		// worse terms than it started; it only ever adds material to
		// the square, so it clears any non-positive threshold.
		return threshold <= 0
	}

	to := m.To()
	board := pos.WithoutPiece(m.From())

	attacker := pos.PieceOn(m.From())
	movedType := attacker.Type
	if m.IsPromo() {
		movedType = movedType.Promoted()
	}

	target := pos.PieceOn(to)
	var gain [32]int32
	depth := 0
	gain[0] = pieceValue(target.Type)

	side := pos.Stm().Flip()
	occValue := pieceValue(movedType)

	for depth < 31 {
		attackers := board.AttackersTo(to, side)
		if len(attackers) == 0 {
			break
		}
		from, pt := leastValuable(&board, attackers)
		depth++
		gain[depth] = occValue - gain[depth-1]
		if maxI32(-gain[depth-1], gain[depth]) < 0 {
			break
		}
		board = board.WithoutPiece(from)
		occValue = pieceValue(pt)
		side = side.Flip()
	}

	for i := depth; i > 0; i-- {
		gain[i-1] = -maxI32(-gain[i-1], gain[i])
	}

	return gain[0] >= threshold
}

func leastValuable(pos *position.Position, squares []position.Square) (position.Square, position.PieceType) {
	best := squares[0]
	bestPt := pos.PieceOn(best).Type
	bestVal := pieceValue(bestPt)
	for _, sq := range squares[1:] {
		pt := pos.PieceOn(sq).Type
		if v := pieceValue(pt); v < bestVal {
			best, bestPt, bestVal = sq, pt, v
		}
	}
	return best, bestPt
}

func maxI32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
