package engine

import (
	"time"

	"github.com/xu-shawn/stoat/position"
)

// Limiter is the polymorphic stop-condition interface from §4.6,
// grounded on the teacher's TimeHandler but generalised to the
// original engine's ISearchLimiter shape: per-move node accounting,
// a per-iteration soft check, and a per-node hard check.
type Limiter interface {
	AddMoveNodes(move position.Move, nodes uint64)
	Update(depth int, bestMove position.Move)
	StopSoft(totalNodes uint64) bool
	StopHard(totalNodes uint64) bool
}

// CompoundLimiter is any-of over a set of limiters, matching the
// original CompoundLimiter: used when both a node cap and a time
// budget are configured simultaneously.
type CompoundLimiter struct {
	limiters []Limiter
}

func NewCompoundLimiter(limiters ...Limiter) *CompoundLimiter {
	return &CompoundLimiter{limiters: limiters}
}

func (c *CompoundLimiter) AddMoveNodes(move position.Move, nodes uint64) {
	for _, l := range c.limiters {
		l.AddMoveNodes(move, nodes)
	}
}

func (c *CompoundLimiter) Update(depth int, bestMove position.Move) {
	for _, l := range c.limiters {
		l.Update(depth, bestMove)
	}
}

func (c *CompoundLimiter) StopSoft(totalNodes uint64) bool {
	for _, l := range c.limiters {
		if l.StopSoft(totalNodes) {
			return true
		}
	}
	return false
}

func (c *CompoundLimiter) StopHard(totalNodes uint64) bool {
	for _, l := range c.limiters {
		if l.StopHard(totalNodes) {
			return true
		}
	}
	return false
}

// NodeLimiter caps total nodes searched; the soft and hard checks both
// use the same MaxNodes limit.
type NodeLimiter struct {
	MaxNodes uint64
}

func (n *NodeLimiter) AddMoveNodes(position.Move, uint64)  {}
func (n *NodeLimiter) Update(int, position.Move)           {}
func (n *NodeLimiter) StopSoft(total uint64) bool          { return total >= n.MaxNodes }
func (n *NodeLimiter) StopHard(total uint64) bool          { return total >= n.MaxNodes }

// SoftNodeLimiter separates a soft budget (checked between root
// iterations) from a hard ceiling (checked inside search), matching
// USI's `go nodes` vs a self-imposed safety cap.
type SoftNodeLimiter struct {
	SoftNodes uint64
	HardNodes uint64
}

func (n *SoftNodeLimiter) AddMoveNodes(position.Move, uint64) {}
func (n *SoftNodeLimiter) Update(int, position.Move)          {}
func (n *SoftNodeLimiter) StopSoft(total uint64) bool         { return total >= n.SoftNodes }
func (n *SoftNodeLimiter) StopHard(total uint64) bool         { return total >= n.HardNodes }

// MoveTimeLimiter stops at a fixed wall-clock deadline (USI `go
// movetime`).
type MoveTimeLimiter struct {
	Deadline time.Time
}

func NewMoveTimeLimiter(d time.Duration) *MoveTimeLimiter {
	return &MoveTimeLimiter{Deadline: time.Now().Add(d)}
}

func (m *MoveTimeLimiter) AddMoveNodes(position.Move, uint64) {}
func (m *MoveTimeLimiter) Update(int, position.Move)          {}
func (m *MoveTimeLimiter) StopSoft(uint64) bool               { return time.Now().After(m.Deadline) }
func (m *MoveTimeLimiter) StopHard(uint64) bool               { return time.Now().After(m.Deadline) }

// TimeManagerLimiter derives optimal/maximum budgets from clock state
// (remaining, increment, byoyomi, as durations) the way the teacher's
// TimeHandler does, then scales the soft budget by best-move stability
// and the fraction of total nodes spent on the current best move, per
// §4.6's "update" hook.
type TimeManagerLimiter struct {
	start    time.Time
	optimal  time.Duration
	maximum  time.Duration

	lastBest     position.Move
	stableDepths int

	moveNodes map[position.Move]uint64
	totalNodes uint64
}

// NewTimeManagerLimiter mirrors the teacher's StartTime: remaining and
// increment are the clock time and increment of the side to move,
// byoyomi is the fixed per-move grace period some shogi clocks use
// instead of an increment (0 if unused). movesLeft is an estimate of
// the side to move's moves remaining in the game, the engine-side
// analogue of GetPiecePhase.
func NewTimeManagerLimiter(remaining, increment, byoyomi time.Duration, movesLeft int) *TimeManagerLimiter {
	const overhead = 30 * time.Millisecond
	const maxFrac = 0.7

	if movesLeft < 1 {
		movesLeft = 1
	}

	var optimal time.Duration
	switch {
	case byoyomi > 0:
		optimal = byoyomi*9/10 + remaining/time.Duration(movesLeft*4)
	case increment > 0:
		optimal = remaining/time.Duration(movesLeft) + increment*3/4
	default:
		optimal = remaining / 40
	}

	maximum := remaining * 4 / 10
	if optimal > maximum {
		optimal = maximum
	}
	if cap := time.Duration(float64(remaining) * maxFrac); maximum > cap {
		maximum = cap
	}
	if maximum > remaining-overhead && remaining > overhead {
		maximum = remaining - overhead
	}
	if optimal < 5*time.Millisecond {
		optimal = 5 * time.Millisecond
	}
	if maximum < optimal {
		maximum = optimal
	}

	return &TimeManagerLimiter{
		start:     time.Now(),
		optimal:   optimal,
		maximum:   maximum,
		moveNodes: make(map[position.Move]uint64),
	}
}

func (tm *TimeManagerLimiter) AddMoveNodes(move position.Move, nodes uint64) {
	tm.moveNodes[move] += nodes
	tm.totalNodes += nodes
}

// Update scales the effective soft budget: a best move that keeps
// winning successive iterations shrinks it (we're confident, stop
// early), one that just changed widens it (give the new line room to
// prove itself), and a best move eating a small fraction of total
// nodes (the search is still undecided among several root moves)
// widens it further.
func (tm *TimeManagerLimiter) Update(depth int, bestMove position.Move) {
	if bestMove == tm.lastBest {
		tm.stableDepths++
	} else {
		tm.stableDepths = 0
		tm.lastBest = bestMove
	}
}

func (tm *TimeManagerLimiter) effectiveSoft() time.Duration {
	scale := 1.0 - 0.05*float64(min(tm.stableDepths, 8))

	if tm.totalNodes > 0 {
		frac := float64(tm.moveNodes[tm.lastBest]) / float64(tm.totalNodes)
		// Spread across many candidates: less confident, search longer.
		scale *= 1.5 - frac
	}
	if scale < 0.4 {
		scale = 0.4
	}
	if scale > 1.7 {
		scale = 1.7
	}
	return time.Duration(float64(tm.optimal) * scale)
}

func (tm *TimeManagerLimiter) StopSoft(uint64) bool {
	return time.Since(tm.start) >= tm.effectiveSoft()
}

func (tm *TimeManagerLimiter) StopHard(uint64) bool {
	return time.Since(tm.start) >= tm.maximum
}
