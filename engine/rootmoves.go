package engine

import "golang.org/x/exp/slices"

// sortRootMovesFrom stably sorts the tail rootMoves[from:] by score
// descending, leaving the already-settled leading MultiPV lines in
// rootMoves[:from] untouched. Stability matters: two root moves tied
// on score keep the relative order the move generator produced them
// in, rather than flapping between depths.
func sortRootMovesFrom(moves []RootMove, from int) {
	if from >= len(moves) {
		return
	}
	tail := moves[from:]
	slices.SortStableFunc(tail, func(a, b RootMove) bool {
		return a.Score > b.Score
	})
}
