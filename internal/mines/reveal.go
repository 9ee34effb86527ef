package mines

import (
	"fmt"

	"github.com/gammazero/deque"
)

type RevealResult struct {
	HitMine  bool
	Revealed []Point // every cell opened by this call, in visit order
}

// Reveal opens the cell at p. A mine explodes and stops there; a cell with
// no neighbouring mines opens its hidden, unflagged neighbours breadth-first
// until the flood reaches numbered cells. Revealing an open, exploded or
// flagged cell fails with [ErrIllegalMove] and changes nothing.
func Reveal(grid *Grid, p Point) (RevealResult, error) {
	cell, err := grid.Cell(p)
	if err != nil {
		return RevealResult{}, err
	}
	if !cell.Hidden() || cell.Flagged {
		return RevealResult{}, fmt.Errorf("%w: cannot reveal %s", ErrIllegalMove, p)
	}
	if cell.Count == CountUnset && !cell.Mine {
		return RevealResult{}, AssertionError{"reveal before neighbour counts are known"}
	}

	if cell.Mine {
		grid.at(p).Exploded = true
		return RevealResult{HitMine: true, Revealed: []Point{p}}, nil
	}

	var (
		revealed []Point
		queue    deque.Deque
	)
	open := func(q Point) {
		grid.at(q).Revealed = true
		revealed = append(revealed, q)
		queue.PushBack(q)
	}

	open(p)
	for queue.Len() > 0 {
		q := queue.PopFront().(Point)
		if grid.at(q).Count != 0 {
			continue
		}
		for _, n := range grid.Neighbors(q) {
			c := grid.at(n)
			if c.Hidden() && !c.Flagged && !c.Mine {
				open(n)
			}
		}
	}

	return RevealResult{Revealed: revealed}, nil
}
