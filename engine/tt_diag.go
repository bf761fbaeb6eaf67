package engine

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
)

// BoundDistribution samples the same entry prefix fullPermille does
// and tallies how many of each bound kind are occupied — a cheap way
// to tell "lots of upper bounds, not much of a PV tree yet" from "well
// explored" without walking the whole table.
func (tt *TranspositionTable) BoundDistribution() map[Bound]int {
	n := len(tt.entries)
	sample := n
	if sample > 1000 {
		sample = 1000
	}
	counts := make(map[Bound]int)
	for i := 0; i < sample; i++ {
		e := tt.entries[i]
		if e.empty() {
			continue
		}
		counts[e.bound()]++
	}
	return counts
}

// DiagnosticString formats BoundDistribution for an `info string`
// line. Map iteration order isn't guaranteed, so the keys are pulled
// out with maps.Keys and sorted before printing, keeping the output
// (and any test asserting on it) deterministic.
func (tt *TranspositionTable) DiagnosticString() string {
	counts := tt.BoundDistribution()
	keys := maps.Keys(counts)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	s := ""
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%d", boundName(k), counts[k])
	}
	return s
}

func boundName(b Bound) string {
	switch b {
	case BoundExact:
		return "exact"
	case BoundUpper:
		return "upper"
	case BoundLower:
		return "lower"
	default:
		return "none"
	}
}
