package mines

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	Log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	m.Run()
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// gridWithMines builds a grid with mines at the given points and counts set.
func gridWithMines(t *testing.T, size int, mines ...Point) *Grid {
	t.Helper()
	g, err := NewGrid(size)
	require.NoError(t, err)
	for _, p := range mines {
		require.True(t, g.InBounds(p))
		g.at(p).Mine = true
	}
	ComputeCounts(g)
	return g
}

func newTestSession(t *testing.T, size, mineCount int, opts ...Option) (*Session, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	opts = append([]Option{WithRand(testRand()), WithClock(clock)}, opts...)
	s, err := NewSession(GameParams{Size: size, MineCount: mineCount, Difficulty: Custom}, opts...)
	require.NoError(t, err)
	return s, clock
}

func newSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}
