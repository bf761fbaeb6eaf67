package nnue

import "github.com/xu-shawn/stoat/position"

// MaxStackSize bounds the accumulator stack; one slot per ply plus the
// root, matching the search's MaxDepth+1 contract.
const MaxStackSize = 246 + 1

// State owns the accumulator stack used during search: reset() for a
// fresh root, push()/pop() around make/unmake at each ply, and
// applyInPlace() for the random-rollout phase of self-play data
// generation, which mutates the current frame instead of growing the
// stack.
type State struct {
	weights *Weights
	stack   [MaxStackSize]Accumulator
	cursor  int
}

func NewState() *State {
	return &State{weights: getDefaultWeights()}
}

// SetWeights overrides the network this state evaluates with. The USI
// front end has no option that calls it.
func (s *State) SetWeights(w *Weights) { s.weights = w }

func (s *State) current() *Accumulator { return &s.stack[s.cursor] }

// Reset recomputes both perspectives from scratch and collapses the
// stack back to the root frame.
func (s *State) Reset(pos *position.Position) {
	s.cursor = 0
	acc := s.current()
	refreshPerspective(s.weights, acc.perspective(position.Black), pos, position.Black)
	refreshPerspective(s.weights, acc.perspective(position.White), pos, position.White)
}

// Push copies the parent accumulator into a new frame and applies
// updates, refreshing a perspective from scratch instead when a king
// move crossed the mirror boundary for that perspective.
func (s *State) Push(pos *position.Position, updates *Updates) {
	parent := s.current()
	s.cursor++
	if s.cursor >= len(s.stack) {
		s.cursor = len(s.stack) - 1
	}
	child := s.current()

	for _, c := range [2]position.Color{position.Black, position.White} {
		if updates.RequiresRefresh(c) {
			refreshPerspective(s.weights, child.perspective(c), pos, c)
		} else {
			applyUpdates(s.weights, child.perspective(c), parent.perspective(c), updates, c)
		}
	}
}

// Pop discards the current frame, returning to the parent.
func (s *State) Pop() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// ApplyInPlace overwrites the current frame rather than pushing a new
// one, used by the random-rollout phase of self-play data generation
// where positions are played out without ever needing to unmake.
func (s *State) ApplyInPlace(pos *position.Position, updates *Updates) {
	cur := s.current()
	var tmp Accumulator
	for _, c := range [2]position.Color{position.Black, position.White} {
		if updates.RequiresRefresh(c) {
			refreshPerspective(s.weights, tmp.perspective(c), pos, c)
		} else {
			applyUpdates(s.weights, tmp.perspective(c), cur.perspective(c), updates, c)
		}
	}
	*cur = tmp
}

func clampByte(v int16) int32 {
	if v < 0 {
		return 0
	}
	if v > FTQ-1 {
		return FTQ - 1
	}
	return int32(v)
}

// Evaluate reads both accumulators in [stm, ~stm] order, applies the
// clamp + quadratic (SCReLU) activation, combines with the L1 weight
// rows and bias, and returns a centipawn score scaled by
// Scale / (FTQ * L1Q), per the data model's evaluate(stm) contract.
func (s *State) Evaluate(stm position.Color) int32 {
	acc := s.current()
	order := [2]position.Color{stm, stm.Flip()}

	var sum int64
	for p, c := range order {
		row := s.weights.L1Weights[p]
		vals := acc.perspective(c)
		for i := 0; i < L1Size; i++ {
			clamped := clampByte(vals[i])
			activated := clamped * clamped
			sum += int64(activated) * int64(row[i])
		}
	}
	sum /= FTQ
	sum += int64(s.weights.L1Bias)
	sum *= Scale
	sum /= FTQ * L1Q
	return int32(sum)
}
