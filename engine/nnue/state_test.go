package nnue

import (
	"testing"

	"github.com/xu-shawn/stoat/position"
)

func TestFeatureIndexInBounds(t *testing.T) {
	pos := position.Startpos()
	for sq := position.Square(0); sq.Idx() < position.NumSquares; sq++ {
		pc := pos.PieceOn(sq)
		if pc.IsNone() {
			continue
		}
		for _, persp := range [2]position.Color{position.Black, position.White} {
			idx := PSQTFeatureIndex(persp, pos.KingSquare(persp), pc, sq)
			if idx < 0 || idx >= NumFeatures {
				t.Fatalf("PSQTFeatureIndex out of range: %d", idx)
			}
		}
	}
}

func TestHandFeatureIndexInBounds(t *testing.T) {
	for _, pt := range []position.PieceType{
		position.Pawn, position.Lance, position.Knight, position.Silver,
		position.Gold, position.Bishop, position.Rook,
	} {
		idx := HandFeatureIndex(position.Black, pt, position.White, 0)
		if idx < HandOffset || idx >= ColorStride {
			t.Fatalf("hand feature %v out of its color block: %d", pt, idx)
		}
	}
}

func TestResetThenEvaluateIsStable(t *testing.T) {
	pos := position.Startpos()
	s := NewState()
	s.Reset(&pos)

	a := s.Evaluate(position.Black)
	b := s.Evaluate(position.Black)
	if a != b {
		t.Fatalf("evaluating the same accumulator twice gave different scores: %d vs %d", a, b)
	}
}

func TestPushPopRoundTrips(t *testing.T) {
	pos := position.Startpos()
	s := NewState()
	s.Reset(&pos)
	before := s.Evaluate(position.Black)

	var up Updates
	up.SetRefresh(position.Black)
	up.SetRefresh(position.White)
	s.Push(&pos, &up)
	s.Pop()

	after := s.Evaluate(position.Black)
	if before != after {
		t.Fatalf("push+pop changed the evaluation: %d vs %d", before, after)
	}
}
