package engine

import (
	"github.com/xu-shawn/stoat/position"
)

// Bound records which side of the search window a stored score is
// trustworthy on.
type Bound uint8

const (
	BoundNone Bound = iota
	BoundUpper
	BoundLower
	BoundExact
)

// ttAgeMod is the cyclic modulus for the age field packed alongside
// the bound and PV bit into a single byte (5 bits age + 1 bit pv + 2
// bits bound == 8), a tighter budget than spec's standalone 6-bit
// counter but the two wrap at different points only cosmetically:
// replacement only ever compares "differs from current age".
const ttAgeMod = 32

// ttEntry is the packed 8-byte transposition table slot described in
// the data model: 16-bit partial key, 16-bit mate-normalised score,
// 16-bit packed move, 8-bit depth, and a compound age/pv/bound byte.
type ttEntry struct {
	key16    uint16
	score    int16
	move     uint16
	depth    uint8
	compound uint8
}

func packCompound(age uint8, pv bool, bound Bound) uint8 {
	b := (age % ttAgeMod) << 3
	if pv {
		b |= 1 << 2
	}
	return b | uint8(bound)
}

func (e ttEntry) age() uint8    { return (e.compound >> 3) & (ttAgeMod - 1) }
func (e ttEntry) pv() bool      { return e.compound&(1<<2) != 0 }
func (e ttEntry) bound() Bound  { return Bound(e.compound & 0x3) }
func (e ttEntry) empty() bool   { return e.bound() == BoundNone }

// ProbedEntry is the decoded result of a successful TT probe.
type ProbedEntry struct {
	Score Score
	Depth int
	Move  position.Move
	Bound Bound
	PV    bool
	Hit   bool
}

// TranspositionTable is a fixed-size, direct-mapped cache of prior
// search results keyed by position.Key(). Indexing uses a Lemire
// reduction so resizing to an arbitrary entry count never needs the
// table size to be a power of two.
type TranspositionTable struct {
	entries []ttEntry
	age     uint8

	pendingMB int
}

// NewTranspositionTable allocates a table sized to hold roughly
// sizeMB megabytes of entries.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	tt := &TranspositionTable{}
	tt.Resize(sizeMB)
	return tt
}

// Resize is deferred in spirit to the next isready/newgame in the
// engine driver; here it's immediate since Go's GC makes a stale
// oversized slice cheap to drop.
func (tt *TranspositionTable) Resize(sizeMB int) {
	if sizeMB < 1 {
		sizeMB = 1
	}
	n := (sizeMB * 1024 * 1024) / 8
	if n < 1 {
		n = 1
	}
	tt.entries = make([]ttEntry, n)
	tt.age = 0
}

func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = ttEntry{}
	}
	tt.age = 0
}

// RequestResize records a Hash-option change without reallocating
// immediately; the engine driver applies it the next time the table is
// known to be idle (ensureReady, or a fresh reset before search), per
// spec.md §5's "Resize requires !searching and a deferred finalize()
// pass to zero memory".
func (tt *TranspositionTable) RequestResize(sizeMB int) {
	tt.pendingMB = sizeMB
}

// FinalizePending applies a pending RequestResize, if any, and reports
// whether it did.
func (tt *TranspositionTable) FinalizePending() (applied bool, sizeMB int) {
	if tt.pendingMB <= 0 {
		return false, 0
	}
	sizeMB = tt.pendingMB
	tt.Resize(sizeMB)
	tt.pendingMB = 0
	return true, sizeMB
}

// NewSearch bumps the age counter; called once per completed go.
func (tt *TranspositionTable) NewSearch() {
	tt.age = (tt.age + 1) % ttAgeMod
}

// index implements the Lemire reduction i = (key * n) >> 64.
func (tt *TranspositionTable) index(key uint64) uint64 {
	hi, _ := mul64(key, uint64(len(tt.entries)))
	return hi
}

func mul64(a, b uint64) (hi, lo uint64) {
	const mask32 = 1<<32 - 1
	aLo, aHi := a&mask32, a>>32
	bLo, bHi := b&mask32, b>>32

	lo = aLo * bLo
	mid1 := aHi * bLo
	mid2 := aLo * bHi
	carry := (lo>>32 + mid1&mask32 + mid2&mask32) >> 32

	hi = aHi*bHi + mid1>>32 + mid2>>32 + carry
	lo += mid1 << 32
	lo += mid2 << 32
	return hi, lo
}

// Prefetch is a no-op placeholder for the prefetch hint spec.md's
// search core issues on the post-move key before making the move; Go
// has no portable prefetch intrinsic, so this only exists to keep the
// call site symmetric with the original contract.
func (tt *TranspositionTable) Prefetch(key uint64) {}

// Probe looks up key and, on a hit, decodes the mate-normalised score
// relative to ply.
func (tt *TranspositionTable) Probe(key uint64, ply int) ProbedEntry {
	idx := tt.index(key)
	e := tt.entries[idx]
	partial := uint16(key)
	if e.empty() || e.key16 != partial {
		return ProbedEntry{}
	}
	score := Score(e.score)
	if score > ScoreWin {
		score -= Score(ply)
	} else if score < -ScoreWin {
		score += Score(ply)
	}
	return ProbedEntry{
		Score: score,
		Depth: int(e.depth),
		Move:  position.Unpack(e.move),
		Bound: e.bound(),
		PV:    e.pv(),
		Hit:   true,
	}
}

// Store writes a result, applying the replacement policy from §4.4:
// always replace on an exact bound, a different key, a stale age, or
// a sufficiently deeper search; on a same-key refresh, keep the old
// move if the new one is null.
func (tt *TranspositionTable) Store(key uint64, ply, depth int, move position.Move, score Score, bound Bound, pv bool) {
	idx := tt.index(key)
	e := &tt.entries[idx]
	partial := uint16(key)

	sameKey := !e.empty() && e.key16 == partial
	replace := bound == BoundExact || !sameKey || e.age() != tt.age || depth+4 > int(e.depth)
	if !replace {
		return
	}

	if score > ScoreWin {
		score += Score(ply)
	} else if score < -ScoreWin {
		score -= Score(ply)
	}

	packedMove := move.Pack()
	if sameKey && move.IsNull() {
		packedMove = e.move
	}

	e.key16 = partial
	e.score = int16(score)
	e.move = packedMove
	if depth < 0 {
		depth = 0
	}
	if depth > 255 {
		depth = 255
	}
	e.depth = uint8(depth)
	e.compound = packCompound(tt.age, pv, bound)
}

// fullPermille samples the first 1000 entries and reports how many
// parts per thousand are occupied at the current age, the USI `hashfull`
// statistic.
func (tt *TranspositionTable) fullPermille() int {
	n := len(tt.entries)
	if n == 0 {
		return 0
	}
	sample := n
	if sample > 1000 {
		sample = 1000
	}
	full := 0
	for i := 0; i < sample; i++ {
		e := tt.entries[i]
		if !e.empty() && e.age() == tt.age {
			full++
		}
	}
	return full * 1000 / sample
}
