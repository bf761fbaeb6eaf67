package position

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is an immutable snapshot of a shogi position. It is the
// out-of-scope collaborator named throughout spec.md: the search core
// only ever reads it through the methods below and transitions via
// ApplyMove/ApplyNullMove, which return a new snapshot rather than
// mutating in place (search recursion un-applies simply by discarding
// the child and continuing to use the parent it already holds).
type Position struct {
	mailbox [NumSquares]Piece
	hands   [2]Hand

	stm Color

	key         uint64
	castleKey   uint64
	cavalryKey  uint64

	moveCount uint32

	// consecutiveChecks[c] counts how many plies in a row c has been
	// giving check to the opponent, for the perpetual-check half of
	// sennichite detection.
	consecutiveChecks [2]uint16

	kingSquares [2]Square
}

// Startpos returns the standard shogi starting position.
func Startpos() Position {
	var p Position
	p.kingSquares = [2]Square{NoSquare, NoSquare}

	place := func(file, rank int, pt PieceType, c Color) {
		sq := NewSquare(file, rank)
		p.mailbox[sq] = Piece{Type: pt, Owner: c}
	}

	backRow := []PieceType{Lance, Knight, Silver, Gold, King, Gold, Silver, Knight, Lance}
	for f, pt := range backRow {
		place(f, 0, pt, White)
		place(f, 8, pt, Black)
	}
	place(1, 1, Rook, White)
	place(7, 1, Bishop, White)
	place(1, 7, Bishop, Black)
	place(7, 7, Rook, Black)
	for f := 0; f < 9; f++ {
		place(f, 2, Pawn, White)
		place(f, 6, Pawn, Black)
	}

	p.stm = Black
	p.moveCount = 1
	p.regenKey()
	p.findKings()
	return p
}

func (p *Position) findKings() {
	for sq := Square(0); sq.Idx() < NumSquares; sq++ {
		pc := p.mailbox[sq]
		if pc.Type == King {
			p.kingSquares[pc.Owner] = sq
		}
	}
}

// regenKey recomputes all three zobrist keys from scratch. Called
// after bulk mutation (SFEN parsing); incremental updates happen in
// apply.go during normal play.
func (p *Position) regenKey() {
	p.key, p.castleKey, p.cavalryKey = 0, 0, 0
	for sq := Square(0); sq.Idx() < NumSquares; sq++ {
		pc := p.mailbox[sq]
		if pc.IsNone() {
			continue
		}
		k := pieceKey(pc, sq)
		p.key ^= k
		if isCastlePiece(pc.Type) {
			p.castleKey ^= k
		}
		if isCavalryPiece(pc.Type) {
			p.cavalryKey ^= k
		}
	}
	for c := Color(0); c < 2; c++ {
		for _, pt := range []PieceType{Pawn, Lance, Knight, Silver, Gold, Bishop, Rook} {
			n := p.hands[c].Count(pt)
			for i := 1; i <= n; i++ {
				p.key ^= handKey(c, pt, i)
			}
		}
	}
	if p.stm == White {
		p.key ^= zobristStm
	}
}

func (p *Position) PieceOn(sq Square) Piece { return p.mailbox[sq] }

func (p *Position) Hand(c Color) Hand { return p.hands[c] }

func (p *Position) Stm() Color { return p.stm }

func (p *Position) Key() uint64 { return p.key }

func (p *Position) CastleKey() uint64 { return p.castleKey }

func (p *Position) CavalryKey() uint64 { return p.cavalryKey }

func (p *Position) MoveCount() uint32 { return p.moveCount }

func (p *Position) KingSquare(c Color) Square { return p.kingSquares[c] }

// KeyAfter computes the resulting key without constructing the child
// position, for TT prefetch per spec.md §4.7 step 11 ("Prefetch the TT
// bucket of the post-move key").
func (p *Position) KeyAfter(m Move) uint64 {
	k := p.key ^ zobristStm
	if m.IsDrop() {
		pc := Piece{Type: m.DropPiece(), Owner: p.stm}
		k ^= pieceKey(pc, m.To())
		n := p.hands[p.stm].Count(m.DropPiece())
		k ^= handKey(p.stm, m.DropPiece(), n)
		return k
	}
	src := p.mailbox[m.From()]
	k ^= pieceKey(src, m.From())
	dstType := src.Type
	if m.IsPromo() {
		dstType = src.Type.Promoted()
	}
	dst := Piece{Type: dstType, Owner: p.stm}
	k ^= pieceKey(dst, m.To())

	captured := p.mailbox[m.To()]
	if !captured.IsNone() {
		k ^= pieceKey(captured, m.To())
		base := captured.Type.Unpromoted()
		n := p.hands[p.stm].Count(base)
		k ^= handKey(p.stm, base, n+1)
	}
	return k
}

func (p *Position) IsInCheck() bool {
	return p.isAttacked(p.kingSquares[p.stm], p.stm.Flip())
}

func (p *Position) SFEN() string {
	var sb strings.Builder
	for r := 0; r < 9; r++ {
		run := 0
		for f := 0; f < 9; f++ {
			pc := p.mailbox[NewSquare(f, r)]
			if pc.IsNone() {
				run++
				continue
			}
			if run > 0 {
				fmt.Fprintf(&sb, "%d", run)
				run = 0
			}
			sb.WriteString(sfenPiece(pc))
		}
		if run > 0 {
			fmt.Fprintf(&sb, "%d", run)
		}
		if r != 8 {
			sb.WriteByte('/')
		}
	}
	sb.WriteByte(' ')
	sb.WriteString(p.stm.String())
	sb.WriteByte(' ')
	hands := sfenHands(p.hands[Black], p.hands[White])
	sb.WriteString(hands)
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(int(p.moveCount)))
	return sb.String()
}

func sfenPiece(pc Piece) string {
	letters := map[PieceType]string{
		Pawn: "P", Lance: "L", Knight: "N", Silver: "S", Gold: "G",
		Bishop: "B", Rook: "R", King: "K",
		PPawn: "+P", PLance: "+L", PKnight: "+N", PSilver: "+S",
		PBishop: "+B", PRook: "+R",
	}
	s := letters[pc.Type]
	if pc.Owner == Black {
		return s
	}
	return strings.ToLower(s)
}

func sfenHands(black, white Hand) string {
	order := []PieceType{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}
	var sb strings.Builder
	for _, pt := range order {
		if n := black.Count(pt); n > 0 {
			if n > 1 {
				fmt.Fprintf(&sb, "%d", n)
			}
			sb.WriteString(sfenPiece(Piece{Type: pt, Owner: Black}))
		}
	}
	for _, pt := range order {
		if n := white.Count(pt); n > 0 {
			if n > 1 {
				fmt.Fprintf(&sb, "%d", n)
			}
			sb.WriteString(sfenPiece(Piece{Type: pt, Owner: White}))
		}
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}
