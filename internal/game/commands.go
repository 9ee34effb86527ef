package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vancomm/minesweeper/internal/mines"
)

var ErrBadCommand = errors.New("bad command")

// Maps known commands to number of arguments
var commandNargs = map[string]int{
	"g": 0,
	"o": 2,
	"f": 2,
	"n": 1,
}

func parseXY(twoStrings []string) (x int, y int, err error) {
	if x, err = strconv.Atoi(twoStrings[0]); err != nil {
		err = fmt.Errorf("%w: first argument must be an int", ErrBadCommand)
		return
	}
	if y, err = strconv.Atoi(twoStrings[1]); err != nil {
		err = fmt.Errorf("%w: second argument must be an int", ErrBadCommand)
		return
	}
	return
}

// Execute runs one command line against the slot and returns the
// resulting state: "o x y" reveals, "f x y" toggles a flag, "n <seed>"
// starts a new game and "g" only reloads.
func (s *Service) Execute(ctx context.Context, slot, c string) (*Snapshot, error) {
	parts := strings.Fields(c)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrBadCommand)
	}
	nargs, ok := commandNargs[parts[0]]
	if !ok {
		return nil, fmt.Errorf("%w: unknown command", ErrBadCommand)
	}
	if nargs != len(parts)-1 {
		return nil, fmt.Errorf("%w: invalid number of arguments", ErrBadCommand)
	}
	switch parts[0] {
	case "g":
		return s.Load(ctx, slot)
	case "o":
		x, y, err := parseXY(parts[1:])
		if err != nil {
			return nil, err
		}
		out, err := s.RevealAt(ctx, slot, x, y)
		if err != nil {
			return nil, err
		}
		return out.Game, nil
	case "f":
		x, y, err := parseXY(parts[1:])
		if err != nil {
			return nil, err
		}
		_, snap, err := s.ToggleFlag(ctx, slot, x, y)
		return snap, err
	case "n":
		params, err := mines.ParseSeed(parts[1])
		if err != nil {
			return nil, err
		}
		return s.Reset(ctx, slot, *params)
	}
	return nil, fmt.Errorf("%w: invalid command", ErrBadCommand)
}

// ByLine splits a message into its non-blank lines.
func ByLine(text string) []string {
	lines := strings.Split(text, "\n")
	res := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			res = append(res, l)
		}
	}
	return res
}
