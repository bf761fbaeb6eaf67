package position

// promotionZone reports whether sq lies in c's promotion zone (the
// three ranks furthest from c's own camp).
func promotionZone(c Color, sq Square) bool {
	if c == Black {
		return sq.Rank() <= 2
	}
	return sq.Rank() >= 6
}

// lastRank is the rank a pawn/lance cannot move beyond without
// promoting.
func lastRank(c Color) int {
	if c == Black {
		return 0
	}
	return 8
}

func promotable(pt PieceType) bool {
	switch pt {
	case Pawn, Lance, Knight, Silver, Bishop, Rook:
		return true
	default:
		return false
	}
}

// forcedPromotion reports whether pt moving to "to" must promote
// because it would otherwise have no legal move from there.
func forcedPromotion(pt PieceType, to Square, c Color) bool {
	switch pt {
	case Pawn, Lance:
		return to.Rank() == lastRank(c)
	case Knight:
		if c == Black {
			return to.Rank() <= 1
		}
		return to.Rank() >= 7
	default:
		return false
	}
}

// GenerateAll returns every pseudo-legal move for the side to move.
func (p *Position) GenerateAll() []Move {
	moves := p.GenerateNonCaptures()
	moves = append(moves, p.GenerateCaptures()...)
	return moves
}

// GenerateCaptures returns pseudo-legal moves (board moves only;
// drops can never capture) that land on an enemy-occupied square.
func (p *Position) GenerateCaptures() []Move {
	var moves []Move
	us, them := p.stm, p.stm.Flip()
	for from := Square(0); from.Idx() < NumSquares; from++ {
		pc := p.mailbox[from]
		if pc.IsNone() || pc.Owner != us {
			continue
		}
		for _, to := range p.attacksFrom(pc.Type, from, us) {
			dst := p.mailbox[to]
			if dst.IsNone() || dst.Owner != them {
				continue
			}
			moves = append(moves, p.expandPromotions(pc.Type, from, to, us)...)
		}
	}
	return moves
}

// GenerateNonCaptures returns pseudo-legal board moves to empty
// squares, plus every legal-shaped drop.
func (p *Position) GenerateNonCaptures() []Move {
	var moves []Move
	us := p.stm
	for from := Square(0); from.Idx() < NumSquares; from++ {
		pc := p.mailbox[from]
		if pc.IsNone() || pc.Owner != us {
			continue
		}
		for _, to := range p.attacksFrom(pc.Type, from, us) {
			if !p.mailbox[to].IsNone() {
				continue
			}
			moves = append(moves, p.expandPromotions(pc.Type, from, to, us)...)
		}
	}
	moves = append(moves, p.generateDrops()...)
	return moves
}

func (p *Position) expandPromotions(pt PieceType, from, to Square, c Color) []Move {
	if pt.IsPromoted() || pt == King || pt == Gold {
		return []Move{NewMove(from, to)}
	}
	if !promotable(pt) {
		return []Move{NewMove(from, to)}
	}
	if forcedPromotion(pt, to, c) {
		return []Move{NewPromoMove(from, to)}
	}
	if promotionZone(c, from) || promotionZone(c, to) {
		return []Move{NewMove(from, to), NewPromoMove(from, to)}
	}
	return []Move{NewMove(from, to)}
}

func (p *Position) generateDrops() []Move {
	var moves []Move
	us := p.stm
	hand := p.hands[us]
	for _, pt := range []PieceType{Pawn, Lance, Knight, Silver, Gold, Bishop, Rook} {
		if hand.Count(pt) == 0 {
			continue
		}
		for to := Square(0); to.Idx() < NumSquares; to++ {
			if !p.mailbox[to].IsNone() {
				continue
			}
			if !p.canDropAt(pt, to, us) {
				continue
			}
			moves = append(moves, NewDropMove(pt, to))
		}
	}
	return moves
}

func (p *Position) canDropAt(pt PieceType, to Square, c Color) bool {
	switch pt {
	case Pawn:
		if to.Rank() == lastRank(c) {
			return false
		}
		if p.hasUnpromotedPawnOnFile(to.File(), c) {
			return false
		}
	case Lance, Knight:
		if forcedPromotion(pt, to, c) {
			return false
		}
	}
	return true
}

func (p *Position) hasUnpromotedPawnOnFile(file int, c Color) bool {
	for r := 0; r < 9; r++ {
		pc := p.mailbox[NewSquare(file, r)]
		if pc.Type == Pawn && pc.Owner == c {
			return true
		}
	}
	return false
}

// IsCapture reports whether m lands on an enemy-occupied square.
func (p *Position) IsCapture(m Move) bool {
	if m.IsDrop() || m.IsNull() {
		return false
	}
	dst := p.mailbox[m.To()]
	return !dst.IsNone() && dst.Owner != p.stm
}

// GivesCheck reports whether playing m would place the opponent's king
// in check.
func (p *Position) GivesCheck(m Move) bool {
	child := p.ApplyMove(m)
	return child.isAttacked(child.kingSquares[child.stm], child.stm.Flip())
}

// IsPseudolegal reports whether m is structurally valid in this
// position (piece present, target reachable, hand has the piece for
// drops) without checking whether it leaves the mover's king in check.
func (p *Position) IsPseudolegal(m Move) bool {
	if m.IsNull() {
		return false
	}
	if m.IsDrop() {
		if p.hands[p.stm].Count(m.DropPiece()) == 0 {
			return false
		}
		if !p.mailbox[m.To()].IsNone() {
			return false
		}
		return p.canDropAt(m.DropPiece(), m.To(), p.stm)
	}
	pc := p.mailbox[m.From()]
	if pc.IsNone() || pc.Owner != p.stm {
		return false
	}
	dst := p.mailbox[m.To()]
	if !dst.IsNone() && dst.Owner == p.stm {
		return false
	}
	for _, to := range p.attacksFrom(pc.Type, m.From(), p.stm) {
		if to == m.To() {
			return true
		}
	}
	return false
}

// IsLegal reports whether m is pseudo-legal and does not leave the
// mover's own king in check.
func (p *Position) IsLegal(m Move) bool {
	if !p.IsPseudolegal(m) {
		return false
	}
	child := p.ApplyMove(m)
	return !child.isAttacked(child.kingSquares[p.stm], child.stm)
}

// HasLegalMoves reports whether the side to move has at least one
// legal move, used for stalemate/checkmate detection.
func (p *Position) HasLegalMoves() bool {
	for _, m := range p.GenerateAll() {
		if p.IsLegal(m) {
			return true
		}
	}
	return false
}

// IsEnteringKingsWin implements a simplified 27-point entering-king
// ("try") rule declaration check: the mover's king must sit in the
// opponent's promotion zone, be safe, have at least 10 of its own
// non-pawn, non-king pieces inside that zone, and the mover must hold
// at least the point total the rule requires (27 points moving first,
// 28 moving second), counting rook/bishop at 5 and every other
// non-pawn, non-king piece at 1, on board squares inside the zone or
// in hand. Pawns score no points.
func (p *Position) IsEnteringKingsWin() bool {
	c := p.stm
	king := p.kingSquares[c]
	if king == NoSquare || !promotionZone(c, king) {
		return false
	}
	if p.isAttacked(king, c.Flip()) {
		return false
	}

	points := 0
	minorCount := 0
	for sq := Square(0); sq.Idx() < NumSquares; sq++ {
		pc := p.mailbox[sq]
		if pc.IsNone() || pc.Owner != c || pc.Type == King || pc.Type.Unpromoted() == Pawn {
			continue
		}
		if !promotionZone(c, sq) {
			continue
		}
		minorCount++
		points += pointValue(pc.Type)
	}
	for _, pt := range []PieceType{Lance, Knight, Silver, Gold, Bishop, Rook} {
		n := p.hands[c].Count(pt)
		points += n * pointValue(pt)
	}

	required := 27
	if c == White {
		required = 28
	}
	return minorCount >= 10 && points >= required
}

func pointValue(pt PieceType) int {
	switch pt.Unpromoted() {
	case Rook, Bishop:
		return 5
	default:
		return 1
	}
}
