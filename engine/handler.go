package engine

import (
	"time"

	"github.com/xu-shawn/stoat/position"
)

// SearchInfo is the per-iteration report handed to Handler.PrintSearchInfo,
// roughly USI's "info depth ... score cp ... pv ..." line.
type SearchInfo struct {
	Depth    int
	SelDepth int
	MultiPVIdx int
	Score    Score
	Bound    Bound
	Nodes    uint64
	NPS      uint64
	TimeUsed time.Duration
	HashFull int
	PV       []position.Move
}

// Handler is the board/protocol-layer collaborator the driver reports
// through, deliberately kept tiny so the USI line loop (out of scope
// per the spec) is the only thing that needs to implement it.
type Handler interface {
	PrintSearchInfo(info SearchInfo)
	PrintInfoString(s string)
	PrintBestMove(best, ponder position.Move)
	HandleNoLegalMoves(pos *position.Position)
	HandleEnteringKingsWin(pos *position.Position) (accepted bool)
}

// NullHandler discards every report; useful for benchmarking and
// tests that only care about search results, not USI output.
type NullHandler struct{}

func (NullHandler) PrintSearchInfo(SearchInfo)                         {}
func (NullHandler) PrintInfoString(string)                             {}
func (NullHandler) PrintBestMove(position.Move, position.Move)         {}
func (NullHandler) HandleNoLegalMoves(*position.Position)              {}
func (NullHandler) HandleEnteringKingsWin(*position.Position) bool     { return false }
