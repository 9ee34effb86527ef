package mines

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// savedState is the persisted form of a [Session]. The board is indexed
// board[x][y] and coordinate lists hold "x,y" strings.
type savedState struct {
	FieldSize     int           `json:"fieldSize"`
	MineCount     int           `json:"mineCount"`
	MoveCount     int           `json:"moveCount"`
	StartTime     *int64        `json:"startTime"` // epoch millis
	FirstMoveMade bool          `json:"firstMoveMade"`
	GameOver      bool          `json:"gameOver"`
	Board         [][]boardCell `json:"board"`
	MineLocations []string      `json:"mineLocations"`
	OpenedCells   []string      `json:"openedCells"`
	FlaggedCells  []string      `json:"flaggedCells"`
	Difficulty    Difficulty    `json:"difficulty"`
	EndTime       *int64        `json:"endTime"`
	ExplodedCell  *string       `json:"explodedCell"`
	StartPolicy   string        `json:"startPolicy,omitempty"`
}

// boardCell is "M" or a neighbour count. Counts written as JSON numbers are
// accepted too.
type boardCell string

func (c *boardCell) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = boardCell(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid board cell %s", data)
	}
	*c = boardCell(strconv.Itoa(n))
	return nil
}

func millis(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func pointStrings(points []Point) []string {
	res := make([]string, len(points))
	for i, p := range points {
		res[i] = p.String()
	}
	return res
}

// MarshalState encodes the session for the save slot.
func (s *Session) MarshalState() ([]byte, error) {
	size := s.params.Size
	board := make([][]boardCell, size)
	for x := range size {
		board[x] = make([]boardCell, size)
		for y := range size {
			c := s.grid.at(Point{x, y})
			switch {
			case c.Mine:
				board[x][y] = "M"
			case c.Count == CountUnset:
				board[x][y] = "0"
			default:
				board[x][y] = boardCell(strconv.Itoa(int(c.Count)))
			}
		}
	}

	state := savedState{
		FieldSize:     size,
		MineCount:     s.params.MineCount,
		MoveCount:     s.moves,
		StartTime:     millis(s.start),
		FirstMoveMade: s.firstMoveMade,
		GameOver:      s.gameOver,
		Board:         board,
		MineLocations: pointStrings(s.mines),
		OpenedCells:   pointStrings(s.RevealedCells()),
		FlaggedCells:  pointStrings(s.FlaggedCells()),
		Difficulty:    s.params.Difficulty,
		EndTime:       millis(s.end),
		StartPolicy:   s.params.Policy.String(),
	}
	if s.exploded != nil {
		e := s.exploded.String()
		state.ExplodedCell = &e
	}
	return json.Marshal(state)
}

// RestoreSession rebuilds a session from a saved state. An empty blob
// returns [ErrNoSavedState]; anything that does not describe a consistent
// game returns [ErrMalformedState]. Either way the caller should start a
// fresh session.
func RestoreSession(blob []byte, opts ...Option) (*Session, error) {
	if len(bytes.TrimSpace(blob)) == 0 {
		return nil, ErrNoSavedState
	}
	var state savedState
	if err := json.Unmarshal(blob, &state); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedState, err)
	}
	s := newSession(opts)
	if err := s.restore(&state); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedState, err)
	}
	return s, nil
}

func (s *Session) parsePoints(list []string) ([]Point, error) {
	seen := make(map[Point]struct{}, len(list))
	res := make([]Point, 0, len(list))
	for _, str := range list {
		p, err := ParsePoint(str)
		if err != nil {
			return nil, err
		}
		if err := s.grid.checkBounds(p); err != nil {
			return nil, err
		}
		if _, ok := seen[p]; ok {
			return nil, fmt.Errorf("duplicate point %s", p)
		}
		seen[p] = struct{}{}
		res = append(res, p)
	}
	return res, nil
}

func (s *Session) restore(state *savedState) error {
	difficulty := state.Difficulty
	if difficulty == "" {
		difficulty = Custom
	}
	if _, err := ParseDifficulty(string(difficulty)); err != nil {
		return err
	}
	var policy StartPolicy
	if state.StartPolicy != "" {
		if err := policy.Set(state.StartPolicy); err != nil {
			return err
		}
	}
	params := GameParams{
		Size:       state.FieldSize,
		MineCount:  state.MineCount,
		Difficulty: difficulty,
		Policy:     policy,
	}
	if err := params.Validate(); err != nil {
		return err
	}
	if len(state.Board) != params.Size {
		return fmt.Errorf("board has %d rows, want %d", len(state.Board), params.Size)
	}
	for x, row := range state.Board {
		if len(row) != params.Size {
			return fmt.Errorf("board row %d has %d cells, want %d", x, len(row), params.Size)
		}
	}
	if err := s.Reset(params); err != nil {
		return err
	}
	if state.MoveCount < 0 {
		return fmt.Errorf("negative move count %d", state.MoveCount)
	}
	s.moves = state.MoveCount
	s.firstMoveMade = state.FirstMoveMade

	mines, err := s.parsePoints(state.MineLocations)
	if err != nil {
		return fmt.Errorf("mineLocations: %w", err)
	}
	if s.firstMoveMade {
		if len(mines) != params.MineCount {
			return fmt.Errorf("%d mine locations, want %d", len(mines), params.MineCount)
		}
		for _, p := range mines {
			s.grid.at(p).Mine = true
		}
		ComputeCounts(s.grid)
		for x, row := range state.Board {
			for y, value := range row {
				c := s.grid.at(Point{x, y})
				want := "M"
				if !c.Mine {
					want = strconv.Itoa(int(c.Count))
				}
				if string(value) != want {
					return fmt.Errorf("board[%d][%d] = %q, want %q", x, y, value, want)
				}
			}
		}
		s.mines = s.grid.collect(func(c Cell) bool { return c.Mine })
	} else if len(mines) != 0 {
		return fmt.Errorf("mines placed before the first move")
	}

	opened, err := s.parsePoints(state.OpenedCells)
	if err != nil {
		return fmt.Errorf("openedCells: %w", err)
	}
	for _, p := range opened {
		c := s.grid.at(p)
		if !s.firstMoveMade || c.Mine {
			return fmt.Errorf("cell %s cannot be open", p)
		}
		c.Revealed = true
	}
	s.revealedCount = len(opened)

	flagged, err := s.parsePoints(state.FlaggedCells)
	if err != nil {
		return fmt.Errorf("flaggedCells: %w", err)
	}
	for _, p := range flagged {
		c := s.grid.at(p)
		if c.Revealed {
			return fmt.Errorf("cell %s is both open and flagged", p)
		}
		c.Flagged = true
	}
	s.flagCount = len(flagged)

	if state.ExplodedCell != nil {
		p, err := ParsePoint(*state.ExplodedCell)
		if err != nil {
			return err
		}
		if !s.grid.InBounds(p) || !s.grid.at(p).Mine || !state.GameOver {
			return fmt.Errorf("cell %s cannot be exploded", p)
		}
		s.grid.at(p).Exploded = true
		s.exploded = &p
	}

	if state.StartTime != nil {
		s.start = time.UnixMilli(*state.StartTime)
	}
	if state.EndTime != nil {
		s.end = time.UnixMilli(*state.EndTime)
	}

	won := s.firstMoveMade && s.revealedCount == params.SafeCount()
	switch {
	case won && !state.GameOver:
		return fmt.Errorf("every safe cell is open but the game is not over")
	case won && s.exploded != nil:
		return fmt.Errorf("won game with an exploded mine")
	case won:
		s.outcome = Won
	case state.GameOver:
		s.outcome = Lost
	}
	s.gameOver = state.GameOver
	if s.gameOver && s.end.IsZero() {
		s.end = s.clock.Now()
	}
	return nil
}
