package mines

import (
	"fmt"
	"math/rand/v2"
)

func absDiff(x, y int) int {
	if x < y {
		return y - x
	}
	return x - y
}

// PlaceMines puts mineCount mines on the grid, never at exclude (and, for
// [ExcludeNeighborhood], never next to it when the field has room for that).
// It returns the mine positions ordered by (x, y). The grid is left untouched
// on error.
func PlaceMines(
	grid *Grid, mineCount int, exclude Point, policy StartPolicy, r *rand.Rand,
) ([]Point, error) {
	size := grid.Size()
	if err := grid.checkBounds(exclude); err != nil {
		return nil, err
	}
	if mineCount < 0 || mineCount >= size*size {
		return nil, fmt.Errorf(
			"%w: %d mines do not fit a %dx%d field",
			ErrInvalidConfiguration, mineCount, size, size,
		)
	}

	/*
	 * Write down the list of possible mine locations.
	 */
	radius := 0
	if policy == ExcludeNeighborhood {
		radius = 1
		if size*size-len(grid.Neighbors(exclude))-1 < mineCount {
			Log.WithField("mine_count", mineCount).
				Debug("no room to clear the start neighbourhood, excluding start cell only")
			radius = 0
		}
	}
	candidates := make([]int, 0, size*size)
	for y := range size {
		for x := range size {
			if absDiff(exclude.X, x) > radius || absDiff(exclude.Y, y) > radius {
				candidates = append(candidates, y*size+x)
			}
		}
	}

	/*
	 * Now pick n off the list at random.
	 */
	picked := make([]bool, size*size)
	k := len(candidates)
	for range mineCount {
		i := r.IntN(k)
		picked[candidates[i]] = true
		k--
		candidates[i] = candidates[k]
	}

	for i, mine := range picked {
		if mine {
			grid.cells[i].Mine = true
		}
	}

	return grid.collect(func(c Cell) bool { return c.Mine }), nil
}
