package term

import (
	"bytes"
	"context"
	"io"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper/internal/game"
	"github.com/vancomm/minesweeper/internal/mines"
	"github.com/vancomm/minesweeper/internal/store"
)

func newTestTerminal(t *testing.T, input string) (*Terminal, *bytes.Buffer) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	slots, err := store.NewFile(t.TempDir())
	require.NoError(t, err)
	games := game.NewService(logger, slots,
		game.WithRandSource(func() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }),
	)
	var out bytes.Buffer
	return New(logger, games, "local", strings.NewReader(input), &out), &out
}

func TestRender(t *testing.T) {
	grid := [][]mines.CellView{
		{{Revealed: true, Value: "0"}, {Revealed: true, Value: "1"}},
		{{Flagged: true, Value: "F"}, {}},
	}
	assert.Equal(t, "   0 1\n0    1\n1  F .\n", Render(grid))
}

func TestRunWin(t *testing.T) {
	term, out := newTestTerminal(t, "n custom:1:0:classic\no 0 0\nr\nq\no 0 0\n")

	require.NoError(t, term.Run(context.Background()))
	text := out.String()
	assert.Contains(t, text, "you won")
	assert.Contains(t, text, "1 moves")
	assert.NotContains(t, text, "no results yet")
}

func TestRunErrors(t *testing.T) {
	term, out := newTestTerminal(t, "x\no 99 0\nh\nt\n")

	require.NoError(t, term.Run(context.Background()))
	text := out.String()
	assert.Contains(t, text, "error: bad command: unknown command")
	assert.Contains(t, text, "out of bounds")
	assert.Contains(t, text, "commands:")
	assert.Contains(t, text, "time: 0s")
}

func TestRunResumes(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	slots, err := store.NewFile(t.TempDir())
	require.NoError(t, err)
	games := game.NewService(logger, slots)

	var out bytes.Buffer
	first := New(logger, games, "local", strings.NewReader("f 2 3\nq\n"), &out)
	require.NoError(t, first.Run(context.Background()))

	out.Reset()
	second := New(logger, games, "local", strings.NewReader("q\n"), &out)
	require.NoError(t, second.Run(context.Background()))
	assert.Contains(t, out.String(), "9 flags left")
}
