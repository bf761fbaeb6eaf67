package engine

import (
	"sync/atomic"

	"github.com/xu-shawn/stoat/engine/nnue"
	"github.com/xu-shawn/stoat/position"
)

// RootMove tracks one root candidate's current bounds, score and PV
// across iterative-deepening depths, per the data model's worker-state
// contract.
type RootMove struct {
	Move         position.Move
	Score        Score
	DisplayScore Score
	Upperbound   bool
	Lowerbound   bool
	SelDepth     int
	PV           PVList
}

// StackFrame is one ply's slot in the search stack: the data model
// names "current PV, the move that reached this node, the static eval
// ..., an excluded move ..., the most recent LMR reduction".
type StackFrame struct {
	PV         PVList
	Move       position.Move
	StaticEval Score
	Excluded   position.Move
	Reduction  int
	Cont       *contSlot
}

// SearchStats holds the relaxed atomics nodes/seldepth are stored in,
// per the concurrency model ("Node counters and seldepth are relaxed
// atomics").
type SearchStats struct {
	seldepth atomic.Int32
	nodes    atomic.Uint64
}

func (s *SearchStats) LoadSeldepth() int { return int(s.seldepth.Load()) }

func (s *SearchStats) UpdateSeldepth(v int) {
	for {
		cur := s.seldepth.Load()
		if int32(v) <= cur {
			return
		}
		if s.seldepth.CompareAndSwap(cur, int32(v)) {
			return
		}
	}
}

func (s *SearchStats) ResetSeldepth() { s.seldepth.Store(0) }

func (s *SearchStats) LoadNodes() uint64   { return s.nodes.Load() }
func (s *SearchStats) IncNodes() uint64    { return s.nodes.Add(1) }
func (s *SearchStats) ResetNodes()         { s.nodes.Store(0) }

// ThreadData is per-worker state: root position, key history for
// sennichite detection, node/seldepth stats, history/correction/NNUE
// state, the root-move list, and the ply-indexed search stack and
// continuation-pointer stack. Kept private to one goroutine; the only
// cross-worker sharing is the TT (see pool.go).
type ThreadData struct {
	ID int

	MaxDepth int
	Datagen  bool

	RootPos    position.Position
	KeyHistory []uint64

	Stats SearchStats

	RootDepth      int
	DepthCompleted int

	History           *HistoryTables
	CorrectionHistory *CorrectionHistory
	NNUE              *nnue.State

	PVIdx     int
	RootMoves []RootMove

	Stack []StackFrame
	Cont  []*contSlot
}

func NewThreadData(id int) *ThreadData {
	td := &ThreadData{
		ID:                id,
		History:           NewHistoryTables(),
		CorrectionHistory: NewCorrectionHistory(),
		NNUE:              nnue.NewState(),
		Stack:             make([]StackFrame, MaxDepth+8),
		Cont:              make([]*contSlot, MaxDepth+8),
	}
	return td
}

func (td *ThreadData) IsMainThread() bool { return td.ID == 0 }

// ResetForSearch is called once per go command (not per depth): root
// position, root moves, key history, node/seldepth counters, the
// search stack, and the NNUE accumulators (recomputed from the root
// position) are all reset, but history/correction tables persist
// across searches per the data model's lifecycle rule.
func (td *ThreadData) ResetForSearch(root position.Position, keyHistory []uint64, rootMoves []RootMove) {
	td.RootPos = root
	td.KeyHistory = append(td.KeyHistory[:0], keyHistory...)
	td.RootMoves = rootMoves
	td.Stats.ResetNodes()
	td.Stats.ResetSeldepth()
	td.RootDepth = 0
	td.DepthCompleted = 0
	td.PVIdx = 0
	for i := range td.Stack {
		td.Stack[i] = StackFrame{}
	}
	for i := range td.Cont {
		td.Cont[i] = nil
	}
	td.NNUE.Reset(&td.RootPos)
}

func (td *ThreadData) rootMoveIndex(m position.Move) int {
	for i := range td.RootMoves {
		if td.RootMoves[i].Move == m {
			return i
		}
	}
	return -1
}
