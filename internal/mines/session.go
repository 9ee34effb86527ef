package mines

import (
	"fmt"
	"hash/maphash"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Outcome int8

const (
	None Outcome = iota
	Won
	Lost
)

func (o Outcome) String() string {
	switch o {
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "none"
	}
}

// [Outcome] implements [encoding.TextMarshaler]
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// [Outcome] implements [encoding.TextUnmarshaler]
func (o *Outcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none":
		*o = None
	case "won":
		*o = Won
	case "lost":
		*o = Lost
	default:
		return fmt.Errorf("unknown outcome %q", text)
	}
	return nil
}

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

// MoveResult describes what a single reveal changed.
type MoveResult struct {
	Ignored  bool // the move was not applied
	HitMine  bool
	Revealed []Point
	Mines    []Point // all mines, filled in when the move lost the game
	Outcome  Outcome
	Result   *Result // set when the move won the game
}

type CellView struct {
	Revealed bool   `json:"revealed"`
	Flagged  bool   `json:"flagged"`
	Exploded bool   `json:"exploded"`
	Value    string `json:"value"` // "", "F", "M" or "0".."8"
}

// Session is one game from the first click to a win or a loss. It is not
// safe for concurrent use.
type Session struct {
	params        GameParams
	grid          *Grid
	mines         []Point
	moves         int
	start, end    time.Time
	firstMoveMade bool
	gameOver      bool
	outcome       Outcome
	exploded      *Point
	revealedCount int
	flagCount     int

	rnd   *rand.Rand
	clock Clock
	log   logrus.FieldLogger
}

type Option func(*Session)

func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rnd = r }
}

func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) { s.log = l }
}

func newSession(opts []Option) *Session {
	s := &Session{
		clock: ClockFunc(time.Now),
		log:   Log,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = NewRand()
	}
	return s
}

func NewSession(params GameParams, opts ...Option) (*Session, error) {
	s := newSession(opts)
	if err := s.Reset(params); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset discards the current game and starts a fresh one with params. The
// session is unchanged when params are invalid.
func (s *Session) Reset(params GameParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	grid, err := NewGrid(params.Size)
	if err != nil {
		return err
	}
	*s = Session{
		params: params,
		grid:   grid,
		rnd:    s.rnd,
		clock:  s.clock,
		log:    s.log,
	}
	return nil
}

func (s *Session) ToggleFlag(x, y int) (bool, error) {
	p := Point{x, y}
	cell, err := s.grid.Cell(p)
	if err != nil {
		return false, err
	}
	if s.gameOver || !cell.Hidden() {
		return false, nil
	}
	c := s.grid.at(p)
	c.Flagged = !c.Flagged
	if c.Flagged {
		s.flagCount++
	} else {
		s.flagCount--
	}
	return true, nil
}

func (s *Session) placeMines(start Point) error {
	mines, err := PlaceMines(s.grid, s.params.MineCount, start, s.params.Policy, s.rnd)
	if err != nil {
		return err
	}
	ComputeCounts(s.grid)
	if s.grid.at(start).Mine {
		return AssertionError{"mine in starting cell"}
	}
	s.mines = mines
	s.firstMoveMade = true
	s.log.WithFields(logrus.Fields{
		"seed":  s.params.Seed(),
		"start": start.String(),
	}).Debug("mines placed")
	return nil
}

func (s *Session) RevealAt(x, y int) (MoveResult, error) {
	p := Point{x, y}
	cell, err := s.grid.Cell(p)
	if err != nil {
		return MoveResult{}, err
	}
	if s.gameOver || cell.Flagged || !cell.Hidden() {
		return MoveResult{Ignored: true, Outcome: s.outcome}, nil
	}

	if !s.firstMoveMade {
		if err := s.placeMines(p); err != nil {
			return MoveResult{}, err
		}
	}
	if s.start.IsZero() {
		s.start = s.clock.Now()
	}
	s.moves++

	res, err := Reveal(s.grid, p)
	if err != nil {
		return MoveResult{}, err
	}

	move := MoveResult{HitMine: res.HitMine, Revealed: res.Revealed}
	if res.HitMine {
		s.exploded = &p
		s.finish(Lost)
		move.Mines = slices.Clone(s.mines)
	} else {
		s.revealedCount += len(res.Revealed)
		if s.revealedCount == s.params.SafeCount() {
			s.finish(Won)
			result := s.result()
			move.Result = &result
		}
	}
	move.Outcome = s.outcome
	return move, nil
}

func (s *Session) finish(outcome Outcome) {
	s.gameOver = true
	s.outcome = outcome
	s.end = s.clock.Now()
	s.log.WithFields(logrus.Fields{
		"seed":    s.params.Seed(),
		"outcome": outcome.String(),
		"moves":   s.moves,
	}).Debug("game over")
}

func (s *Session) result() Result {
	return Result{
		Time:  int(math.Round(s.end.Sub(s.start).Seconds())),
		Moves: s.moves,
		Date:  s.end.Format(ResultDateLayout),
	}
}

func (s *Session) CellView(x, y int) (CellView, error) {
	cell, err := s.grid.Cell(Point{x, y})
	if err != nil {
		return CellView{}, err
	}
	return s.view(cell), nil
}

func (s *Session) view(c Cell) CellView {
	v := CellView{Revealed: c.Revealed, Flagged: c.Flagged, Exploded: c.Exploded}
	switch {
	case c.Exploded:
		v.Value = "M"
	case c.Revealed:
		v.Value = string(rune('0' + c.Count))
	case c.Flagged:
		v.Value = "F"
	case c.Mine && s.outcome == Lost:
		v.Value = "M"
	}
	return v
}

// ElapsedSeconds is the whole number of seconds since the first reveal,
// frozen once the game is over.
func (s *Session) ElapsedSeconds() int {
	if s.start.IsZero() {
		return 0
	}
	end := s.end
	if end.IsZero() {
		end = s.clock.Now()
	}
	return int(end.Sub(s.start) / time.Second)
}

func (s *Session) Params() GameParams { return s.params }
func (s *Session) Moves() int { return s.moves }
func (s *Session) GameOver() bool { return s.gameOver }
func (s *Session) Outcome() Outcome { return s.outcome }
func (s *Session) FirstMoveMade() bool { return s.firstMoveMade }
func (s *Session) StartTime() time.Time { return s.start }
func (s *Session) FlagsLeft() int { return s.params.MineCount - s.flagCount }

// TimerRunning reports whether a display clock should be ticking.
func (s *Session) TimerRunning() bool {
	return !s.start.IsZero() && !s.gameOver
}

func (s *Session) Mines() []Point {
	return slices.Clone(s.mines)
}

func (s *Session) RevealedCells() []Point {
	return s.grid.collect(func(c Cell) bool { return c.Revealed })
}

func (s *Session) FlaggedCells() []Point {
	return s.grid.collect(func(c Cell) bool { return c.Flagged })
}

// Rows returns the player's view of the board, rows indexed by x.
func (s *Session) Rows() [][]CellView {
	size := s.params.Size
	rows := make([][]CellView, size)
	for x := range size {
		rows[x] = make([]CellView, size)
		for y := range size {
			rows[x][y] = s.view(*s.grid.at(Point{x, y}))
		}
	}
	return rows
}

func (s *Session) String() string {
	var b strings.Builder
	for _, row := range s.Rows() {
		for y, v := range row {
			if y > 0 {
				b.WriteByte(' ')
			}
			if v.Value == "" {
				b.WriteByte('.')
			} else {
				b.WriteString(v.Value)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
