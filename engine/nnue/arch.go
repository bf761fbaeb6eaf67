// Package nnue implements the feature transformer and forward pass of
// the NNUE evaluator: two perspective accumulators fed by a
// (piece, square) + (hand piece, count) feature set, combined through
// a quantised SCReLU activation into a single output score.
//
// Ported in spirit from the original engine's eval/nnue.h: the feature
// indexing constants (kColorStride, kPieceStride, kHandOffset,
// kHandFeatures and the per-type hand offsets) are carried over
// unchanged since they're part of the embedded weight file's wire
// format, not a free implementation choice.
package nnue

import "github.com/xu-shawn/stoat/position"

const (
	L1Size = 1024

	FTQBits = 8
	L1QBits = 7

	FTQ  = 1 << FTQBits
	L1Q  = 1 << L1QBits
	Scale = 400
)

const (
	PieceStride  = position.NumSquares
	HandFeatures = 38
	HandOffset   = PieceStride * position.NumPieceTypes
	ColorStride  = HandOffset + HandFeatures
)

// handOffsets are the per-type sub-strides within the 38-wide hand
// feature block, ordered to match the original weight layout.
var handOffsets = map[position.PieceType]int{
	position.Pawn:   0,
	position.Lance:  18,
	position.Knight: 22,
	position.Silver: 26,
	position.Gold:   30,
	position.Bishop: 34,
	position.Rook:   36,
}

// transformRelativeSquare mirrors sq horizontally when the
// perspective king sits on file > 4 (0-indexed file ≥ 5), so the
// feature set only ever sees a king on the left half of the board.
func transformRelativeSquare(kingSq, sq position.Square) position.Square {
	if kingSq.File() > 4 {
		return sq.FlipFile()
	}
	return sq
}

// PSQTFeatureIndex computes the feature slot for a board piece from
// one perspective, per psqtFeatureIndex in the original header.
func PSQTFeatureIndex(perspective position.Color, kingSq position.Square, piece position.Piece, sq position.Square) int {
	sq = sq.Relative(perspective)
	sq = transformRelativeSquare(kingSq.Relative(perspective), sq)
	colorOffset := 0
	if piece.Owner != perspective {
		colorOffset = ColorStride
	}
	return colorOffset + PieceStride*piece.Type.Idx() + sq.Idx()
}

// HandFeatureIndex computes the feature slot for a hand piece, per
// handFeatureIndex. countMinusOne is the piece's count in hand minus
// one (hand features are a unary "at least N" encoding).
func HandFeatureIndex(perspective position.Color, pt position.PieceType, handColor position.Color, countMinusOne int) int {
	colorOffset := 0
	if handColor != perspective {
		colorOffset = ColorStride
	}
	return colorOffset + HandOffset + handOffsets[pt] + countMinusOne
}

// NumFeatures is the total input dimension of the feature transformer,
// two colors' worth of the per-color stride.
const NumFeatures = 2 * ColorStride
