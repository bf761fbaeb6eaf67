package position

// ApplyMove returns the position resulting from playing m, which must
// be at least pseudo-legal. The receiver is left unmodified: the
// search core holds onto parent positions on the Go call stack rather
// than mutating and unmaking, which is simpler to reason about and
// matches returning Position "by value" in the original contract.
func (p *Position) ApplyMove(m Move) Position {
	child := *p
	us := p.stm

	if m.IsDrop() {
		pt := m.DropPiece()
		n := child.hands[us].Count(pt)
		child.key ^= handKey(us, pt, n)
		child.hands[us].Decrement(pt)

		pc := Piece{Type: pt, Owner: us}
		child.mailbox[m.To()] = pc
		child.key ^= pieceKey(pc, m.To())
	} else {
		src := p.mailbox[m.From()]
		child.mailbox[m.From()] = NoPiece
		child.key ^= pieceKey(src, m.From())
		if isCastlePiece(src.Type) {
			child.castleKey ^= pieceKey(src, m.From())
		}
		if isCavalryPiece(src.Type) {
			child.cavalryKey ^= pieceKey(src, m.From())
		}

		captured := p.mailbox[m.To()]
		if !captured.IsNone() {
			child.key ^= pieceKey(captured, m.To())
			if isCastlePiece(captured.Type) {
				child.castleKey ^= pieceKey(captured, m.To())
			}
			if isCavalryPiece(captured.Type) {
				child.cavalryKey ^= pieceKey(captured, m.To())
			}
			base := captured.Type.Unpromoted()
			n := child.hands[us].Count(base)
			child.hands[us].Increment(base)
			child.key ^= handKey(us, base, n+1)
		}

		dstType := src.Type
		if m.IsPromo() {
			dstType = src.Type.Promoted()
		}
		dst := Piece{Type: dstType, Owner: us}
		child.mailbox[m.To()] = dst
		child.key ^= pieceKey(dst, m.To())
		if isCastlePiece(dst.Type) {
			child.castleKey ^= pieceKey(dst, m.To())
		}
		if isCavalryPiece(dst.Type) {
			child.cavalryKey ^= pieceKey(dst, m.To())
		}

		if src.Type == King {
			child.kingSquares[us] = m.To()
		}
	}

	child.key ^= zobristStm
	child.stm = us.Flip()
	if us == White {
		child.moveCount++
	}

	if child.isAttacked(child.kingSquares[child.stm], us) {
		child.consecutiveChecks[us]++
	} else {
		child.consecutiveChecks[us] = 0
	}

	return child
}

// ApplyNullMove flips the side to move without changing the board,
// used by null-move pruning.
func (p *Position) ApplyNullMove() Position {
	child := *p
	child.key ^= zobristStm
	child.stm = p.stm.Flip()
	child.consecutiveChecks[p.stm] = 0
	return child
}
