package position

// perpetualCheckPlies is how many consecutive plies of check are
// required before a repetition is blamed on perpetual check rather
// than ruled a plain draw.
const perpetualCheckPlies = 4

// TestSennichite checks the receiver's key against keyHistory for
// fourfold repetition (sennichite). keyHistory is every key seen so
// far in the game, oldest first, NOT including the receiver's own key.
// limit bounds how far back to look when cuteChessWorkaround is unset
// (some GUIs silently truncate the history they forward over USI, so
// the deeper scan is opt-in).
func (p *Position) TestSennichite(cuteChessWorkaround bool, keyHistory []uint64, limit int) SennichiteStatus {
	if limit <= 0 {
		limit = 16
	}
	start := 0
	if !cuteChessWorkaround && len(keyHistory) > limit {
		start = len(keyHistory) - limit
	}

	count := 0
	for i := start; i < len(keyHistory); i++ {
		if keyHistory[i] == p.key {
			count++
		}
	}
	if count < 3 {
		return SennichiteNone
	}

	// The side that just moved is the one who would be committing an
	// illegal perpetual check; that's the color not to move now.
	mover := p.stm.Flip()
	if p.consecutiveChecks[mover] >= perpetualCheckPlies {
		return SennichiteWin
	}
	return SennichiteDraw
}
