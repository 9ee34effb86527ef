package game

import (
	"time"

	"github.com/vancomm/minesweeper/internal/mines"
)

// Snapshot is a read-only view of a session taken right after an
// operation.
type Snapshot struct {
	Difficulty   mines.Difficulty   `json:"difficulty"`
	FieldSize    int                `json:"field_size"`
	MineCount    int                `json:"mine_count"`
	Policy       string             `json:"policy"`
	Moves        int                `json:"moves"`
	Elapsed      int                `json:"elapsed"`
	StartedAt    *int64             `json:"started_at,omitempty"`
	TimerRunning bool               `json:"timer_running"`
	GameOver     bool               `json:"game_over"`
	Outcome      mines.Outcome      `json:"outcome"`
	FlagsLeft    int                `json:"flags_left"`
	Grid         [][]mines.CellView `json:"grid"`
}

func NewSnapshot(s *mines.Session) *Snapshot {
	params := s.Params()
	snap := &Snapshot{
		Difficulty:   params.Difficulty,
		FieldSize:    params.Size,
		MineCount:    params.MineCount,
		Policy:       params.Policy.String(),
		Moves:        s.Moves(),
		Elapsed:      s.ElapsedSeconds(),
		TimerRunning: s.TimerRunning(),
		GameOver:     s.GameOver(),
		Outcome:      s.Outcome(),
		FlagsLeft:    s.FlagsLeft(),
		Grid:         s.Rows(),
	}
	if start := s.StartTime(); !start.IsZero() {
		ms := start.UnixMilli()
		snap.StartedAt = &ms
	}
	return snap
}

// ElapsedAt is the whole number of seconds between the first reveal and
// now, or the frozen value once the timer stopped.
func (s *Snapshot) ElapsedAt(now time.Time) int {
	if !s.TimerRunning || s.StartedAt == nil {
		return s.Elapsed
	}
	return int(now.Sub(time.UnixMilli(*s.StartedAt)) / time.Second)
}
