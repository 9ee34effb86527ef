// Package term plays minesweeper on a text terminal, one command per line.
package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper/internal/game"
	"github.com/vancomm/minesweeper/internal/mines"
)

const help = `commands:
  o X Y     open the cell in row X, column Y
  f X Y     toggle a flag
  n SEED    new game, SEED is difficulty:size:mines:policy (e.g. easy:10:10:classic)
  g         redraw the board
  t         show the clock
  r         show recent results
  h         this help
  q         quit
`

type Terminal struct {
	log   logrus.FieldLogger
	games *game.Service
	slot  string
	in    *bufio.Scanner
	out   io.Writer
	now   func() time.Time
}

func New(log logrus.FieldLogger, games *game.Service, slot string, in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		log:   log,
		games: games,
		slot:  slot,
		in:    bufio.NewScanner(in),
		out:   out,
		now:   time.Now,
	}
}

// Run reads commands until q, end of input or ctx is done.
func (t *Terminal) Run(ctx context.Context) error {
	snap, err := t.games.Load(ctx, t.slot)
	if err != nil {
		return err
	}
	t.draw(snap)
	t.prompt()

	for t.in.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(t.in.Text())
		switch line {
		case "":
		case "q":
			return nil
		case "h":
			fmt.Fprint(t.out, help)
		case "t":
			fmt.Fprintf(t.out, "time: %ds\n", snap.ElapsedAt(t.now()))
		case "r":
			history, err := t.games.Results(ctx, t.slot)
			if err != nil {
				return err
			}
			t.results(history)
		default:
			t.log.WithField("command", line).Debug("execute")
			next, err := t.games.Execute(ctx, t.slot, line)
			if err != nil {
				if !isUserError(err) {
					return err
				}
				fmt.Fprintf(t.out, "error: %v\n", err)
				break
			}
			snap = next
			t.draw(snap)
		}
		t.prompt()
	}
	return t.in.Err()
}

func isUserError(err error) bool {
	return errors.Is(err, game.ErrBadCommand) ||
		errors.Is(err, mines.ErrOutOfBounds) ||
		errors.Is(err, mines.ErrInvalidConfiguration)
}

func (t *Terminal) prompt() {
	fmt.Fprint(t.out, "> ")
}

func (t *Terminal) draw(snap *game.Snapshot) {
	fmt.Fprintf(t.out, "%s %dx%d, %d mines, %d flags left, %d moves\n",
		snap.Difficulty, snap.FieldSize, snap.FieldSize,
		snap.MineCount, snap.FlagsLeft, snap.Moves,
	)
	fmt.Fprint(t.out, Render(snap.Grid))
	switch snap.Outcome {
	case mines.Won:
		fmt.Fprintf(t.out, "you won in %ds!\n", snap.Elapsed)
	case mines.Lost:
		fmt.Fprintln(t.out, "boom, game over")
	}
}

func (t *Terminal) results(history mines.History) {
	if len(history) == 0 {
		fmt.Fprintln(t.out, "no results yet")
		return
	}
	for i := len(history) - 1; i >= 0; i-- {
		r := history[i]
		fmt.Fprintf(t.out, "%s  %4ds  %3d moves\n", r.Date, r.Time, r.Moves)
	}
}

// Render draws the grid with row numbers on the left and column numbers on
// top. Hidden cells are dots.
func Render(grid [][]mines.CellView) string {
	var b strings.Builder
	width := len(fmt.Sprint(len(grid) - 1))
	b.WriteString(strings.Repeat(" ", width+1))
	for y := range grid {
		fmt.Fprintf(&b, "%*d", width+1, y)
	}
	b.WriteByte('\n')
	for x, row := range grid {
		fmt.Fprintf(&b, "%*d ", width, x)
		for _, v := range row {
			value := v.Value
			if value == "" {
				value = "."
			} else if value == "0" {
				value = " "
			}
			fmt.Fprintf(&b, "%*s", width+1, value)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
