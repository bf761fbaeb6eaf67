package nnue

import "github.com/xu-shawn/stoat/position"

// Accumulator is one ply's pair of perspective accumulators, each
// L1Size signed 16-bit lanes, per the data model's "two accumulators
// of L1 signed 16-bit integers each: one from the black perspective,
// one from the white."
type Accumulator struct {
	values [2][L1Size]int16
}

func (a *Accumulator) perspective(c position.Color) *[L1Size]int16 {
	return &a.values[c.Idx()]
}

// Update is a single feature toggle: a sparse add or sub applied to
// both perspectives' rows (the feature index differs per perspective,
// so both are precomputed by the caller).
type Update struct {
	BlackFeature, WhiteFeature int
}

// Updates bundles the deltas produced by one move, mirroring
// NnueUpdates in the original header: up to two adds/subs (a board
// move plus an optional capture, or a drop plus the hand decrement),
// and a per-perspective refresh flag for when a king move crosses the
// horizontal mirror boundary and incremental updates don't apply.
type Updates struct {
	Adds    []Update
	Subs    []Update
	Refresh [2]bool
}

func (u *Updates) PushMove(kings [2]position.Square, src, dst position.Piece, from, to position.Square) {
	u.Subs = append(u.Subs, Update{
		BlackFeature: PSQTFeatureIndex(position.Black, kings[position.Black], src, from),
		WhiteFeature: PSQTFeatureIndex(position.White, kings[position.White], src, from),
	})
	u.Adds = append(u.Adds, Update{
		BlackFeature: PSQTFeatureIndex(position.Black, kings[position.Black], dst, to),
		WhiteFeature: PSQTFeatureIndex(position.White, kings[position.White], dst, to),
	})
}

func (u *Updates) PushCapture(kings [2]position.Square, sq position.Square, captured position.Piece, currHandCount int) {
	u.Subs = append(u.Subs, Update{
		BlackFeature: PSQTFeatureIndex(position.Black, kings[position.Black], captured, sq),
		WhiteFeature: PSQTFeatureIndex(position.White, kings[position.White], captured, sq),
	})
	base := captured.Type.Unpromoted()
	handColor := captured.Owner.Flip()
	u.Adds = append(u.Adds, Update{
		BlackFeature: HandFeatureIndex(position.Black, base, handColor, currHandCount),
		WhiteFeature: HandFeatureIndex(position.White, base, handColor, currHandCount),
	})
}

func (u *Updates) PushDrop(kings [2]position.Square, piece position.Piece, to position.Square, currHandCount int) {
	u.Adds = append(u.Adds, Update{
		BlackFeature: PSQTFeatureIndex(position.Black, kings[position.Black], piece, to),
		WhiteFeature: PSQTFeatureIndex(position.White, kings[position.White], piece, to),
	})
	u.Subs = append(u.Subs, Update{
		BlackFeature: HandFeatureIndex(position.Black, piece.Type, piece.Owner, currHandCount-1),
		WhiteFeature: HandFeatureIndex(position.White, piece.Type, piece.Owner, currHandCount-1),
	})
}

func (u *Updates) SetRefresh(c position.Color) { u.Refresh[c.Idx()] = true }

func (u *Updates) RequiresRefresh(c position.Color) bool { return u.Refresh[c.Idx()] }

func featureFor(u Update, perspective position.Color) int {
	if perspective == position.Black {
		return u.BlackFeature
	}
	return u.WhiteFeature
}

// applyUpdates adds dst = src with updates applied for one perspective.
func applyUpdates(w *Weights, dst, src *[L1Size]int16, updates *Updates, perspective position.Color) {
	*dst = *src
	for _, s := range updates.Subs {
		row := w.FTWeights[featureFor(s, perspective)*L1Size : (featureFor(s, perspective)+1)*L1Size]
		for i := 0; i < L1Size; i++ {
			dst[i] -= row[i]
		}
	}
	for _, a := range updates.Adds {
		row := w.FTWeights[featureFor(a, perspective)*L1Size : (featureFor(a, perspective)+1)*L1Size]
		for i := 0; i < L1Size; i++ {
			dst[i] += row[i]
		}
	}
}

// refresh recomputes one perspective's accumulator from scratch off
// active features, used on reset() and on a king-mirror-crossing move.
func refreshPerspective(w *Weights, dst *[L1Size]int16, pos *position.Position, perspective position.Color) {
	copy(dst[:], w.FTBiases)
	kingSq := pos.KingSquare(perspective)

	for sq := position.Square(0); sq.Idx() < position.NumSquares; sq++ {
		pc := pos.PieceOn(sq)
		if pc.IsNone() {
			continue
		}
		idx := PSQTFeatureIndex(perspective, kingSq, pc, sq)
		row := w.FTWeights[idx*L1Size : (idx+1)*L1Size]
		for i := 0; i < L1Size; i++ {
			dst[i] += row[i]
		}
	}

	for _, c := range [2]position.Color{position.Black, position.White} {
		hand := pos.Hand(c)
		for _, pt := range []position.PieceType{
			position.Pawn, position.Lance, position.Knight, position.Silver,
			position.Gold, position.Bishop, position.Rook,
		} {
			n := hand.Count(pt)
			for k := 0; k < n; k++ {
				idx := HandFeatureIndex(perspective, pt, c, k)
				row := w.FTWeights[idx*L1Size : (idx+1)*L1Size]
				for i := 0; i < L1Size; i++ {
					dst[i] += row[i]
				}
			}
		}
	}
}
