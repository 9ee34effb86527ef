package mines

import (
	"fmt"
	"strconv"
	"strings"
)

// Point is a cell coordinate. X selects the row of the persisted board and
// Y the column, matching the "x,y" keys of the saved state.
type Point struct {
	X, Y int
}

func (p Point) String() string {
	return strconv.Itoa(p.X) + "," + strconv.Itoa(p.Y)
}

func ParsePoint(s string) (Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, fmt.Errorf("invalid point %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return Point{x, y}, nil
}

// CountUnset marks a cell whose neighbour count has not been computed yet.
const CountUnset int8 = -1

type Cell struct {
	Mine     bool
	Count    int8 // 0..8, or [CountUnset] before mines are placed
	Revealed bool
	Flagged  bool
	Exploded bool
}

func (c Cell) Hidden() bool {
	return !c.Revealed && !c.Exploded
}

// Grid is a square board stored row by row (index = y*size + x).
type Grid struct {
	size  int
	cells []Cell
}

func NewGrid(size int) (*Grid, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: field size %d", ErrInvalidConfiguration, size)
	}
	cells := make([]Cell, size*size)
	for i := range cells {
		cells[i].Count = CountUnset
	}
	return &Grid{size: size, cells: cells}, nil
}

func (g *Grid) Size() int {
	return g.size
}

func (g *Grid) InBounds(p Point) bool {
	return 0 <= p.X && p.X < g.size && 0 <= p.Y && p.Y < g.size
}

func (g *Grid) index(p Point) int {
	return p.Y*g.size + p.X
}

func (g *Grid) point(i int) Point {
	return Point{i % g.size, i / g.size}
}

func (g *Grid) checkBounds(p Point) error {
	if !g.InBounds(p) {
		return fmt.Errorf("%w: %s on %dx%d grid", ErrOutOfBounds, p, g.size, g.size)
	}
	return nil
}

func (g *Grid) Cell(p Point) (Cell, error) {
	if err := g.checkBounds(p); err != nil {
		return Cell{}, err
	}
	return g.cells[g.index(p)], nil
}

func (g *Grid) Set(p Point, c Cell) error {
	if err := g.checkBounds(p); err != nil {
		return err
	}
	g.cells[g.index(p)] = c
	return nil
}

// at returns a pointer into the grid; p must be in bounds.
func (g *Grid) at(p Point) *Cell {
	return &g.cells[g.index(p)]
}

// Neighbors returns the in-bounds cells within one step of p, p excluded.
func (g *Grid) Neighbors(p Point) []Point {
	res := make([]Point, 0, 8)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			q := Point{p.X + dx, p.Y + dy}
			if g.InBounds(q) {
				res = append(res, q)
			}
		}
	}
	return res
}

// collect returns the points of all cells matching fn, ordered by (x, y).
func (g *Grid) collect(fn func(Cell) bool) []Point {
	res := make([]Point, 0)
	for x := range g.size {
		for y := range g.size {
			p := Point{x, y}
			if fn(g.cells[g.index(p)]) {
				res = append(res, p)
			}
		}
	}
	return res
}
