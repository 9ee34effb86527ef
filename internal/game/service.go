// Package game runs minesweeper sessions on top of save slots. Every
// operation restores the slot, applies one command and saves it back.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper/internal/metrics"
	"github.com/vancomm/minesweeper/internal/mines"
	"github.com/vancomm/minesweeper/internal/store"
)

const (
	stateKeyPrefix   = "minesweeperGameState:"
	resultsKeyPrefix = "minesweeperResults:"
)

var ErrBadSlot = errors.New("bad slot id")

func StateKey(slot string) string   { return stateKeyPrefix + slot }
func ResultsKey(slot string) string { return resultsKeyPrefix + slot }

type Service struct {
	log      logrus.FieldLogger
	slots    store.Slots
	defaults mines.GameParams
	clock    mines.Clock
	newRand  func() *rand.Rand

	mu    sync.Mutex
	locks map[string]*slotLock
}

// slotLock is dropped from the map once nobody holds or waits on it.
type slotLock struct {
	sync.Mutex
	refs int
}

type ServiceOption func(*Service)

// WithDefaults sets the params of games started without a saved state.
func WithDefaults(params mines.GameParams) ServiceOption {
	return func(s *Service) { s.defaults = params }
}

func WithClock(c mines.Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

// WithRandSource sets the generator factory; it is called once per
// operation, so each call must return an independent generator.
func WithRandSource(fn func() *rand.Rand) ServiceOption {
	return func(s *Service) { s.newRand = fn }
}

func NewService(log logrus.FieldLogger, slots store.Slots, opts ...ServiceOption) *Service {
	s := &Service{
		log:   log,
		slots: slots,
		defaults: mines.GameParams{
			Size:       10,
			MineCount:  mines.DefaultMineCount,
			Difficulty: mines.Easy,
		},
		newRand: mines.NewRand,
		locks:   make(map[string]*slotLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Defaults() mines.GameParams {
	return s.defaults
}

// lock serializes operations on one slot and returns the unlock func.
func (s *Service) lock(slot string) func() {
	s.mu.Lock()
	l, ok := s.locks[slot]
	if !ok {
		l = &slotLock{}
		s.locks[slot] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, slot)
		}
		s.mu.Unlock()
	}
}

func (s *Service) checkSlot(slot string) error {
	if !store.ValidKey(StateKey(slot)) {
		return fmt.Errorf("%w: %q", ErrBadSlot, slot)
	}
	return nil
}

func (s *Service) sessionOptions(slot string) []mines.Option {
	opts := []mines.Option{
		mines.WithRand(s.newRand()),
		mines.WithLogger(s.log.WithField("slot", slot)),
	}
	if s.clock != nil {
		opts = append(opts, mines.WithClock(s.clock))
	}
	return opts
}

// load restores the slot or starts a fresh game when there is nothing
// usable to restore. The caller must hold the slot lock.
func (s *Service) load(ctx context.Context, slot string) (*mines.Session, error) {
	blob, err := s.slots.Get(ctx, StateKey(slot))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("unable to read slot: %w", err)
	}

	session, err := mines.RestoreSession(blob, s.sessionOptions(slot)...)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, mines.ErrNoSavedState) {
		metrics.RestoreFailures.Inc()
		s.log.WithFields(logrus.Fields{
			"slot":  slot,
			"error": err,
		}).Warn("discarding saved state")
	}
	return s.start(ctx, slot, s.defaults)
}

func (s *Service) start(ctx context.Context, slot string, params mines.GameParams) (*mines.Session, error) {
	session, err := mines.NewSession(params, s.sessionOptions(slot)...)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, slot, session); err != nil {
		return nil, err
	}
	metrics.GamesStarted.WithLabelValues(string(params.Difficulty)).Inc()
	s.log.WithFields(logrus.Fields{
		"slot": slot,
		"seed": params.Seed(),
	}).Debug("new game")
	return session, nil
}

func (s *Service) save(ctx context.Context, slot string, session *mines.Session) error {
	blob, err := session.MarshalState()
	if err != nil {
		return fmt.Errorf("unable to encode game state: %w", err)
	}
	if err := s.slots.Set(ctx, StateKey(slot), blob); err != nil {
		return fmt.Errorf("unable to save slot: %w", err)
	}
	return nil
}

// Load returns the slot's current game, starting one if needed.
func (s *Service) Load(ctx context.Context, slot string) (*Snapshot, error) {
	if err := s.checkSlot(slot); err != nil {
		return nil, err
	}
	defer s.lock(slot)()

	session, err := s.load(ctx, slot)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(session), nil
}

type MoveOutcome struct {
	Move mines.MoveResult
	Game *Snapshot
}

func (s *Service) RevealAt(ctx context.Context, slot string, x, y int) (*MoveOutcome, error) {
	if err := s.checkSlot(slot); err != nil {
		return nil, err
	}
	defer s.lock(slot)()

	session, err := s.load(ctx, slot)
	if err != nil {
		return nil, err
	}
	move, err := session.RevealAt(x, y)
	if err != nil {
		return nil, err
	}
	if !move.Ignored {
		if err := s.save(ctx, slot, session); err != nil {
			return nil, err
		}
		metrics.Moves.WithLabelValues("open").Inc()
		if move.Outcome != mines.None {
			metrics.GamesFinished.WithLabelValues(move.Outcome.String()).Inc()
		}
		if move.Result != nil {
			if err := s.record(ctx, slot, *move.Result); err != nil {
				return nil, err
			}
		}
	}
	return &MoveOutcome{Move: move, Game: NewSnapshot(session)}, nil
}

// ToggleFlag reports whether the flag changed along with the new state.
func (s *Service) ToggleFlag(ctx context.Context, slot string, x, y int) (bool, *Snapshot, error) {
	if err := s.checkSlot(slot); err != nil {
		return false, nil, err
	}
	defer s.lock(slot)()

	session, err := s.load(ctx, slot)
	if err != nil {
		return false, nil, err
	}
	changed, err := session.ToggleFlag(x, y)
	if err != nil {
		return false, nil, err
	}
	if changed {
		if err := s.save(ctx, slot, session); err != nil {
			return false, nil, err
		}
		metrics.Moves.WithLabelValues("flag").Inc()
	}
	return changed, NewSnapshot(session), nil
}

// Reset replaces the slot's game with a fresh one. Invalid params leave
// the saved game untouched.
func (s *Service) Reset(ctx context.Context, slot string, params mines.GameParams) (*Snapshot, error) {
	if err := s.checkSlot(slot); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	defer s.lock(slot)()

	session, err := s.start(ctx, slot, params)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(session), nil
}

func (s *Service) CellView(ctx context.Context, slot string, x, y int) (mines.CellView, error) {
	if err := s.checkSlot(slot); err != nil {
		return mines.CellView{}, err
	}
	defer s.lock(slot)()

	session, err := s.load(ctx, slot)
	if err != nil {
		return mines.CellView{}, err
	}
	return session.CellView(x, y)
}

func (s *Service) results(ctx context.Context, slot string) (mines.History, error) {
	blob, err := s.slots.Get(ctx, ResultsKey(slot))
	if errors.Is(err, store.ErrNotFound) {
		return mines.History{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read results: %w", err)
	}
	history, err := mines.DecodeHistory(blob)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"slot":  slot,
			"error": err,
		}).Warn("discarding results history")
		return mines.History{}, nil
	}
	return history, nil
}

func (s *Service) record(ctx context.Context, slot string, result mines.Result) error {
	history, err := s.results(ctx, slot)
	if err != nil {
		return err
	}
	blob, err := history.Add(result).Bytes()
	if err != nil {
		return fmt.Errorf("unable to encode results: %w", err)
	}
	if err := s.slots.Set(ctx, ResultsKey(slot), blob); err != nil {
		return fmt.Errorf("unable to save results: %w", err)
	}
	return nil
}

// Results returns the slot's most recent wins, oldest first.
func (s *Service) Results(ctx context.Context, slot string) (mines.History, error) {
	if err := s.checkSlot(slot); err != nil {
		return nil, err
	}
	defer s.lock(slot)()

	return s.results(ctx, slot)
}

// Forget deletes the slot's game and results.
func (s *Service) Forget(ctx context.Context, slot string) error {
	if err := s.checkSlot(slot); err != nil {
		return err
	}
	defer s.lock(slot)()

	if err := s.slots.Delete(ctx, StateKey(slot)); err != nil {
		return fmt.Errorf("unable to delete slot: %w", err)
	}
	if err := s.slots.Delete(ctx, ResultsKey(slot)); err != nil {
		return fmt.Errorf("unable to delete results: %w", err)
	}
	return nil
}
