package position

// Zobrist keys. Three independent key streams are maintained
// incrementally alongside the board: the main position key, and two
// auxiliary keys (castle/cavalry) used only by engine's correction
// history, per spec.md's "castleKey, cavalryKey ... used only for
// correction-history indexing". Castle tracks the king/gold/silver
// defensive formation; cavalry tracks the more mobile knight/lance/
// bishop/rook placements. Any deterministic split is valid — the
// spec leaves the exact partition unspecified.

type splitmix64 struct{ state uint64 }

func (s *splitmix64) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

var (
	zobristPiece [2][NumPieceTypes][NumSquares]uint64
	zobristHand  [2][NumHandTypes][19]uint64 // up to 18 pawns in hand
	zobristStm   uint64
)

func init() {
	rng := &splitmix64{state: 0xD1CE5EED}
	for c := 0; c < 2; c++ {
		for pt := 0; pt < NumPieceTypes; pt++ {
			for sq := 0; sq < NumSquares; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
		for pt := 0; pt < NumHandTypes; pt++ {
			for n := range zobristHand[c][pt] {
				zobristHand[c][pt][n] = rng.next()
			}
		}
	}
	zobristStm = rng.next()
}

func pieceKey(p Piece, sq Square) uint64 {
	return zobristPiece[p.Owner][p.Type.Idx()][sq.Idx()]
}

func handKey(c Color, pt PieceType, count int) uint64 {
	idx := pt.handIdx()
	if idx < 0 || count <= 0 {
		return 0
	}
	if count >= len(zobristHand[c][idx]) {
		count = len(zobristHand[c][idx]) - 1
	}
	return zobristHand[c][idx][count]
}

// isCastlePiece reports whether a piece type contributes to castleKey
// (the king/gold/silver defensive core).
func isCastlePiece(pt PieceType) bool {
	switch pt.Unpromoted() {
	case King, Gold, Silver:
		return true
	default:
		return false
	}
}

// isCavalryPiece reports whether a piece type contributes to
// cavalryKey (knights, lances, and the long-range pieces).
func isCavalryPiece(pt PieceType) bool {
	switch pt.Unpromoted() {
	case Knight, Lance, Bishop, Rook:
		return true
	default:
		return false
	}
}
