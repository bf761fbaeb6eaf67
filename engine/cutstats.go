package engine

import (
	"fmt"
	"sync/atomic"
)

// CutStatistics tallies how often pruning/cutoff mechanisms fired,
// shared across every worker via atomic adds so the counters need no
// per-thread copy or lock. The search increments TTCutoffs,
// NullMoveCutoffs, StaticNullCutoffs and RazoringCutoffs; the other
// fields are never incremented and stay zero. Nothing calls
// resetCutStats, so counts accumulate for the life of the process.
type CutStatistics struct {
	TTCutoffs         atomic.Uint64
	NullMoveCutoffs   atomic.Uint64
	StaticNullCutoffs atomic.Uint64
	RazoringCutoffs   atomic.Uint64
	FutilityPrunes    atomic.Uint64
	LateMovePrunes    atomic.Uint64
	BetaCutoffs       atomic.Uint64
	QStandPatCutoffs  atomic.Uint64
	QBetaCutoffs      atomic.Uint64
}

var cutStats CutStatistics

// PrintCutStats is an exported switch for cutStats reporting. Neither
// Engine nor the USI front end reads or sets it; FormatCutStats is the
// only way the counters are rendered.
var PrintCutStats bool

func resetCutStats() {
	cutStats = CutStatistics{}
}

// FormatCutStats renders a snapshot of cutStats as the body of one or
// more `info string` lines; the caller (Engine, through its Handler)
// decides how those reach the user, keeping this package free of
// direct stdout writes.
func FormatCutStats() []string {
	return []string{
		fmt.Sprintf("cutstats tt=%d nullmove=%d staticnull=%d razor=%d futility=%d lmp=%d beta=%d qstandpat=%d qbeta=%d",
			cutStats.TTCutoffs.Load(),
			cutStats.NullMoveCutoffs.Load(),
			cutStats.StaticNullCutoffs.Load(),
			cutStats.RazoringCutoffs.Load(),
			cutStats.FutilityPrunes.Load(),
			cutStats.LateMovePrunes.Load(),
			cutStats.BetaCutoffs.Load(),
			cutStats.QStandPatCutoffs.Load(),
			cutStats.QBetaCutoffs.Load(),
		),
	}
}
