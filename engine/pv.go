package engine

import "github.com/xu-shawn/stoat/position"

// PVList is a ply-indexed principal variation, capped at MaxDepth
// moves. It is stored inline (not as a linked list) so update is a
// single copy rather than pointer surgery.
type PVList struct {
	moves [MaxDepth]position.Move
	n     int
}

func (pv *PVList) Len() int { return pv.n }

func (pv *PVList) Move(i int) position.Move { return pv.moves[i] }

func (pv *PVList) Clear() { pv.n = 0 }

// Update sets the PV to head followed by child's moves, per spec.md's
// `update(head, child_pv)` contract.
func (pv *PVList) Update(head position.Move, child *PVList) {
	pv.moves[0] = head
	n := 1
	for i := 0; i < child.n && n < MaxDepth; i++ {
		pv.moves[n] = child.moves[i]
		n++
	}
	pv.n = n
}

func (pv *PVList) String() string {
	if pv.n == 0 {
		return ""
	}
	s := pv.moves[0].String()
	for i := 1; i < pv.n; i++ {
		s += " " + pv.moves[i].String()
	}
	return s
}
