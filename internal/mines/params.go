package mines

import (
	"fmt"
	"strings"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
	Custom Difficulty = "custom"
)

const (
	DefaultMineCount = 10
	MaxFieldSize     = 50
)

var difficultySizes = map[Difficulty]int{
	Easy:   10,
	Medium: 15,
	Hard:   25,
}

func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := difficultySizes[d]; ok || d == Custom {
		return d, nil
	}
	return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfiguration, s)
}

// StartPolicy decides which cells the first reveal keeps free of mines.
type StartPolicy int8

const (
	ExcludeCell         StartPolicy = iota // only the clicked cell
	ExcludeNeighborhood                    // the clicked cell and its neighbours
)

var startPolicies = map[string]StartPolicy{
	"classic": ExcludeCell,
	"safe":    ExcludeNeighborhood,
}

func (p StartPolicy) String() string {
	for name, policy := range startPolicies {
		if policy == p {
			return name
		}
	}
	return fmt.Sprint(int8(p))
}

// [StartPolicy] implements [pflag.Value]
func (p *StartPolicy) Set(value string) error {
	policy, ok := startPolicies[strings.ToLower(value)]
	if !ok {
		return fmt.Errorf("invalid start policy %q", value)
	}
	*p = policy
	return nil
}

func (p *StartPolicy) Type() string {
	return "mines.StartPolicy"
}

type GameParams struct {
	Size       int
	MineCount  int
	Difficulty Difficulty
	Policy     StartPolicy
}

// NewGameParams builds params for a preset difficulty. Custom difficulty
// keeps the given size.
func NewGameParams(d Difficulty, size, mineCount int) (GameParams, error) {
	if preset, ok := difficultySizes[d]; ok {
		size = preset
	} else if d != Custom {
		return GameParams{}, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfiguration, d)
	}
	p := GameParams{Size: size, MineCount: mineCount, Difficulty: d}
	return p, p.Validate()
}

func (p GameParams) Validate() error {
	switch {
	case p.Size <= 0 || p.Size > MaxFieldSize:
		return fmt.Errorf(
			"%w: field size %d not in 1..%d", ErrInvalidConfiguration, p.Size, MaxFieldSize,
		)
	case p.MineCount < 0:
		return fmt.Errorf("%w: negative mine count %d", ErrInvalidConfiguration, p.MineCount)
	case p.MineCount >= p.Size*p.Size:
		return fmt.Errorf(
			"%w: %d mines do not fit a %dx%d field",
			ErrInvalidConfiguration, p.MineCount, p.Size, p.Size,
		)
	}
	return nil
}

func (p GameParams) CellCount() int {
	return p.Size * p.Size
}

func (p GameParams) SafeCount() int {
	return p.CellCount() - p.MineCount
}

func (p GameParams) PointInBounds(x, y int) bool {
	return 0 <= x && x < p.Size && 0 <= y && y < p.Size
}

// Seed encodes the params as "difficulty:size:mines:policy".
func (p GameParams) Seed() string {
	return fmt.Sprintf("%s:%d:%d:%s", p.Difficulty, p.Size, p.MineCount, p.Policy)
}

func ParseSeed(seed string) (*GameParams, error) {
	parts := strings.Split(seed, ":")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: invalid game params seed %q", ErrInvalidConfiguration, seed)
	}
	d, err := ParseDifficulty(parts[0])
	if err != nil {
		return nil, err
	}
	var size, mineCount int
	if _, err := fmt.Sscanf(parts[1]+" "+parts[2], "%d %d", &size, &mineCount); err != nil {
		return nil, fmt.Errorf(
			"%w: invalid game params seed %q: %w", ErrInvalidConfiguration, seed, err,
		)
	}
	var policy StartPolicy
	if err := policy.Set(parts[3]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	p, err := NewGameParams(d, size, mineCount)
	if err != nil {
		return nil, err
	}
	p.Policy = policy
	return &p, nil
}
