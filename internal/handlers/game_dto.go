package handlers

import (
	"fmt"
	"net/url"

	"github.com/gorilla/schema"

	"github.com/vancomm/minesweeper/internal/game"
	"github.com/vancomm/minesweeper/internal/mines"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}

type NewGameDTO struct {
	Difficulty string `schema:"difficulty"`
	Size       int    `schema:"size"` // custom difficulty only
	MineCount  *int   `schema:"mine_count"`
	Policy     string `schema:"policy"`
}

func ParseNewGameDTO(src url.Values) (NewGameDTO, error) {
	var dto NewGameDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

// Params fills the blanks from defaults. Switching to another preset
// without a mine count uses [mines.DefaultMineCount].
func (dto NewGameDTO) Params(defaults mines.GameParams) (mines.GameParams, error) {
	difficulty := defaults.Difficulty
	if dto.Difficulty != "" {
		d, err := mines.ParseDifficulty(dto.Difficulty)
		if err != nil {
			return mines.GameParams{}, err
		}
		difficulty = d
	}
	size := dto.Size
	if size == 0 {
		size = defaults.Size
	}
	mineCount := mines.DefaultMineCount
	if dto.MineCount != nil {
		mineCount = *dto.MineCount
	} else if difficulty == defaults.Difficulty {
		mineCount = defaults.MineCount
	}
	params, err := mines.NewGameParams(difficulty, size, mineCount)
	if err != nil {
		return mines.GameParams{}, err
	}
	params.Policy = defaults.Policy
	if dto.Policy != "" {
		if err := params.Policy.Set(dto.Policy); err != nil {
			return mines.GameParams{}, fmt.Errorf("%w: %w", mines.ErrInvalidConfiguration, err)
		}
	}
	return params, nil
}

type PositionDTO struct {
	X int `schema:"x,required"`
	Y int `schema:"y,required"`
}

func ParsePositionDTO(src url.Values) (PositionDTO, error) {
	var dto PositionDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

type GameMove int

const (
	Open GameMove = iota
	Flag
)

func ParseGameMove(s string) (GameMove, error) {
	switch s {
	case "open":
		return Open, nil
	case "flag":
		return Flag, nil
	}
	return 0, fmt.Errorf("unknown move %q", s)
}

type MoveDTO struct {
	Move string `schema:"move,required"`
	X    int    `schema:"x,required"`
	Y    int    `schema:"y,required"`
}

func ParseMoveDTO(src url.Values) (MoveDTO, error) {
	var dto MoveDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

func pointStrings(points []mines.Point) []string {
	res := make([]string, len(points))
	for i, p := range points {
		res[i] = p.String()
	}
	return res
}

type MoveResultDTO struct {
	Ignored  bool           `json:"ignored"`
	Flagged  *bool          `json:"flagged,omitempty"`
	HitMine  bool           `json:"hit_mine"`
	Revealed []string       `json:"revealed"`
	Mines    []string       `json:"mines,omitempty"`
	Outcome  mines.Outcome  `json:"outcome"`
	Result   *mines.Result  `json:"result,omitempty"`
	Game     *game.Snapshot `json:"game"`
}

func NewRevealDTO(out *game.MoveOutcome) *MoveResultDTO {
	dto := &MoveResultDTO{
		Ignored:  out.Move.Ignored,
		HitMine:  out.Move.HitMine,
		Revealed: pointStrings(out.Move.Revealed),
		Outcome:  out.Game.Outcome,
		Result:   out.Move.Result,
		Game:     out.Game,
	}
	if len(out.Move.Mines) > 0 {
		dto.Mines = pointStrings(out.Move.Mines)
	}
	return dto
}

func NewFlagDTO(changed bool, snap *game.Snapshot, flagged bool) *MoveResultDTO {
	return &MoveResultDTO{
		Ignored:  !changed,
		Flagged:  &flagged,
		Revealed: []string{},
		Outcome:  snap.Outcome,
		Game:     snap,
	}
}

type TickDTO struct {
	Elapsed int `json:"elapsed"`
}
