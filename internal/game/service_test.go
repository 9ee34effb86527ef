package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper/internal/mines"
	"github.com/vancomm/minesweeper/internal/store"
)

const slot = "8d7f6f5e-0c0b-4a3f-9e2d-1c2b3a4d5e6f"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, slots store.Slots, opts ...ServiceOption) (*Service, *fakeClock) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	opts = append([]ServiceOption{
		WithClock(clock),
		WithRandSource(func() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }),
	}, opts...)
	return NewService(logger, slots, opts...), clock
}

func custom(size, mineCount int) mines.GameParams {
	return mines.GameParams{Size: size, MineCount: mineCount, Difficulty: mines.Custom}
}

// savedMines reads the mine locations straight from the stored state.
func savedMines(t *testing.T, slots store.Slots) []mines.Point {
	t.Helper()
	blob, err := slots.Get(context.Background(), StateKey(slot))
	require.NoError(t, err)
	var state struct {
		MineLocations []string `json:"mineLocations"`
	}
	require.NoError(t, json.Unmarshal(blob, &state))
	res := make([]mines.Point, 0, len(state.MineLocations))
	for _, s := range state.MineLocations {
		p, err := mines.ParsePoint(s)
		require.NoError(t, err)
		res = append(res, p)
	}
	return res
}

func TestLoadStartsFreshGame(t *testing.T) {
	slots := store.NewMemory()
	svc, _ := newTestService(t, slots)

	snap, err := svc.Load(context.Background(), slot)
	require.NoError(t, err)
	assert.Equal(t, mines.Easy, snap.Difficulty)
	assert.Equal(t, 10, snap.FieldSize)
	assert.Equal(t, 10, snap.FlagsLeft)
	assert.Zero(t, snap.Moves)
	assert.False(t, snap.TimerRunning)
	assert.Len(t, snap.Grid, 10)

	_, err = slots.Get(context.Background(), StateKey(slot))
	assert.NoError(t, err, "fresh game is saved")
}

func TestRevealIsPersisted(t *testing.T) {
	ctx := context.Background()
	slots := store.NewMemory()
	svc, clock := newTestService(t, slots)

	out, err := svc.RevealAt(ctx, slot, 0, 0)
	require.NoError(t, err)
	assert.False(t, out.Move.Ignored)
	assert.False(t, out.Move.HitMine)
	assert.Contains(t, out.Move.Revealed, mines.Point{X: 0, Y: 0})
	assert.Len(t, savedMines(t, slots), 10)

	clock.Advance(3 * time.Second)
	snap, err := svc.Load(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Moves)
	assert.True(t, snap.TimerRunning)
	assert.Equal(t, 3, snap.Elapsed)
	assert.True(t, snap.Grid[0][0].Revealed)

	// the same cell again changes nothing
	out, err = svc.RevealAt(ctx, slot, 0, 0)
	require.NoError(t, err)
	assert.True(t, out.Move.Ignored)
	assert.Equal(t, 1, out.Game.Moves)
}

func TestRevealOutOfBounds(t *testing.T) {
	svc, _ := newTestService(t, store.NewMemory())

	_, err := svc.RevealAt(context.Background(), slot, 10, 0)
	assert.ErrorIs(t, err, mines.ErrOutOfBounds)
}

func TestWinRecordsResult(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestService(t, store.NewMemory())

	_, err := svc.Reset(ctx, slot, custom(2, 3))
	require.NoError(t, err)
	clock.Advance(1500 * time.Millisecond)

	out, err := svc.RevealAt(ctx, slot, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, mines.Won, out.Move.Outcome)
	require.NotNil(t, out.Move.Result)
	assert.True(t, out.Game.GameOver)

	history, err := svc.Results(ctx, slot)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].Moves)
	assert.Equal(t, 0, history[0].Time)
}

func TestHistoryIsCapped(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemory())

	for range mines.HistoryLimit + 3 {
		_, err := svc.Reset(ctx, slot, custom(1, 0))
		require.NoError(t, err)
		out, err := svc.RevealAt(ctx, slot, 0, 0)
		require.NoError(t, err)
		require.Equal(t, mines.Won, out.Move.Outcome)
	}

	history, err := svc.Results(ctx, slot)
	require.NoError(t, err)
	assert.Len(t, history, mines.HistoryLimit)
}

func TestLossRevealsMines(t *testing.T) {
	ctx := context.Background()
	slots := store.NewMemory()
	svc, _ := newTestService(t, slots)

	_, err := svc.Reset(ctx, slot, custom(5, 20))
	require.NoError(t, err)
	_, err = svc.RevealAt(ctx, slot, 0, 0)
	require.NoError(t, err)

	mine := savedMines(t, slots)[0]
	out, err := svc.RevealAt(ctx, slot, mine.X, mine.Y)
	require.NoError(t, err)
	assert.True(t, out.Move.HitMine)
	assert.Equal(t, mines.Lost, out.Move.Outcome)
	assert.ElementsMatch(t, savedMines(t, slots), out.Move.Mines)
	assert.Equal(t, "M", out.Game.Grid[mine.X][mine.Y].Value)

	history, err := svc.Results(ctx, slot)
	require.NoError(t, err)
	assert.Empty(t, history)

	// the lost game survives a reload
	snap, err := svc.Load(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, mines.Lost, snap.Outcome)
	assert.True(t, snap.Grid[mine.X][mine.Y].Exploded)
}

func TestMalformedStateStartsFresh(t *testing.T) {
	ctx := context.Background()
	slots := store.NewMemory()
	require.NoError(t, slots.Set(ctx, StateKey(slot), []byte(`{"fieldSize": "ten"}`)))
	svc, _ := newTestService(t, slots, WithDefaults(custom(4, 2)))

	snap, err := svc.Load(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.FieldSize)
	assert.Equal(t, 2, snap.MineCount)

	blob, err := slots.Get(ctx, StateKey(slot))
	require.NoError(t, err)
	_, err = mines.RestoreSession(blob)
	assert.NoError(t, err, "malformed state is replaced")
}

func TestMalformedResultsAreEmpty(t *testing.T) {
	ctx := context.Background()
	slots := store.NewMemory()
	require.NoError(t, slots.Set(ctx, ResultsKey(slot), []byte(`{`)))
	svc, _ := newTestService(t, slots)

	history, err := svc.Results(ctx, slot)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestToggleFlag(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemory())

	changed, snap, err := svc.ToggleFlag(ctx, slot, 2, 3)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "F", snap.Grid[2][3].Value)
	assert.Equal(t, 9, snap.FlagsLeft)

	out, err := svc.RevealAt(ctx, slot, 2, 3)
	require.NoError(t, err)
	assert.True(t, out.Move.Ignored)
	assert.Zero(t, out.Game.Moves)

	changed, snap, err = svc.ToggleFlag(ctx, slot, 2, 3)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 10, snap.FlagsLeft)
	assert.Empty(t, snap.Grid[2][3].Value)
}

func TestResetInvalidKeepsGame(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemory())

	_, err := svc.RevealAt(ctx, slot, 0, 0)
	require.NoError(t, err)

	_, err = svc.Reset(ctx, slot, custom(3, 9))
	assert.ErrorIs(t, err, mines.ErrInvalidConfiguration)

	snap, err := svc.Load(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Moves)
}

func TestCellView(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemory())

	_, _, err := svc.ToggleFlag(ctx, slot, 1, 1)
	require.NoError(t, err)
	view, err := svc.CellView(ctx, slot, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, mines.CellView{Flagged: true, Value: "F"}, view)

	_, err = svc.CellView(ctx, slot, -1, 0)
	assert.ErrorIs(t, err, mines.ErrOutOfBounds)
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	slots := store.NewMemory()
	svc, _ := newTestService(t, slots)

	_, err := svc.Load(ctx, slot)
	require.NoError(t, err)
	require.NoError(t, svc.Forget(ctx, slot))

	_, err = slots.Get(ctx, StateKey(slot))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBadSlot(t *testing.T) {
	svc, _ := newTestService(t, store.NewMemory())

	_, err := svc.Load(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, ErrBadSlot)
}

func TestConcurrentMovesAreSerialized(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemory())
	_, err := svc.Reset(ctx, slot, custom(10, 50))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for x := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range 3 {
				_, _, err := svc.ToggleFlag(ctx, slot, x, y)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	snap, err := svc.Load(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, 50-30, snap.FlagsLeft)
}

func TestSlotLocksAreReleased(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemory())

	for i := range 100 {
		_, err := svc.Load(ctx, fmt.Sprintf("slot-%d", i))
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Load(ctx, fmt.Sprintf("slot-%d", i%4))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.NoError(t, svc.Forget(ctx, "slot-0"))

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.locks)
}

type failingSlots struct{}

var errUnavailable = errors.New("store unavailable")

func (failingSlots) Get(context.Context, string) ([]byte, error) { return nil, errUnavailable }
func (failingSlots) Set(context.Context, string, []byte) error   { return errUnavailable }
func (failingSlots) Delete(context.Context, string) error        { return errUnavailable }

func TestStorageErrorsPropagate(t *testing.T) {
	svc, _ := newTestService(t, failingSlots{})

	_, err := svc.Load(context.Background(), slot)
	assert.ErrorIs(t, err, errUnavailable)
	_, err = svc.Results(context.Background(), slot)
	assert.ErrorIs(t, err, errUnavailable)
}

func TestSnapshotElapsedAt(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_000)
	ms := start.UnixMilli()
	snap := &Snapshot{StartedAt: &ms, TimerRunning: true}
	assert.Equal(t, 4, snap.ElapsedAt(start.Add(4900*time.Millisecond)))

	snap.TimerRunning = false
	snap.Elapsed = 7
	assert.Equal(t, 7, snap.ElapsedAt(start.Add(time.Hour)))
}
