package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper/internal/config"
	"github.com/vancomm/minesweeper/internal/game"
	"github.com/vancomm/minesweeper/internal/middleware"
	"github.com/vancomm/minesweeper/internal/mines"
)

type GameHandler struct {
	log   logrus.FieldLogger
	games *game.Service
	ws    *config.WebSocket
}

func NewGameHandler(
	log logrus.FieldLogger,
	games *game.Service,
	ws *config.WebSocket,
) *GameHandler {
	return &GameHandler{
		log:   log,
		games: games,
		ws:    ws,
	}
}

// slot returns the caller's slot id, writing a 401 when the slot middleware
// did not run.
func (g GameHandler) slot(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.SlotClaims(r.Context())
	if !ok {
		sendError(w, g.log, http.StatusUnauthorized, fmt.Errorf("no slot"))
		return "", false
	}
	return claims.SlotId, true
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, mines.ErrOutOfBounds),
		errors.Is(err, mines.ErrInvalidConfiguration),
		errors.Is(err, game.ErrBadSlot),
		errors.Is(err, game.ErrBadCommand):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail writes bad input back to the client and logs everything else.
func (g GameHandler) fail(w http.ResponseWriter, slot string, err error) {
	status := errorStatus(err)
	if status != http.StatusInternalServerError {
		sendError(w, g.log, status, err)
		return
	}
	g.log.WithFields(logrus.Fields{
		"slot":  slot,
		"error": err,
	}).Error("game operation failed")
	w.WriteHeader(status)
}

func (g GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	slot, ok := g.slot(w, r)
	if !ok {
		return
	}
	snap, err := g.games.Load(r.Context(), slot)
	if err != nil {
		g.fail(w, slot, err)
		return
	}
	sendJSONOrLog(w, g.log, snap)
}

func (g GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	slot, ok := g.slot(w, r)
	if !ok {
		return
	}
	dto, err := ParseNewGameDTO(r.URL.Query())
	if err != nil {
		sendError(w, g.log, http.StatusBadRequest, err)
		return
	}
	params, err := dto.Params(g.games.Defaults())
	if err != nil {
		sendError(w, g.log, http.StatusBadRequest, err)
		return
	}
	snap, err := g.games.Reset(r.Context(), slot, params)
	if err != nil {
		g.fail(w, slot, err)
		return
	}
	sendJSONOrLog(w, g.log, snap)
}

func (g GameHandler) MakeAMove(w http.ResponseWriter, r *http.Request) {
	slot, ok := g.slot(w, r)
	if !ok {
		return
	}
	dto, err := ParseMoveDTO(r.URL.Query())
	if err != nil {
		sendError(w, g.log, http.StatusBadRequest, err)
		return
	}
	move, err := ParseGameMove(dto.Move)
	if err != nil {
		sendError(w, g.log, http.StatusBadRequest, err)
		return
	}

	switch move {
	case Open:
		out, err := g.games.RevealAt(r.Context(), slot, dto.X, dto.Y)
		if err != nil {
			g.fail(w, slot, err)
			return
		}
		sendJSONOrLog(w, g.log, NewRevealDTO(out))
	case Flag:
		changed, snap, err := g.games.ToggleFlag(r.Context(), slot, dto.X, dto.Y)
		if err != nil {
			g.fail(w, slot, err)
			return
		}
		flagged := snap.Grid[dto.X][dto.Y].Flagged
		sendJSONOrLog(w, g.log, NewFlagDTO(changed, snap, flagged))
	}
}

func (g GameHandler) Cell(w http.ResponseWriter, r *http.Request) {
	slot, ok := g.slot(w, r)
	if !ok {
		return
	}
	pos, err := ParsePositionDTO(r.URL.Query())
	if err != nil {
		sendError(w, g.log, http.StatusBadRequest, err)
		return
	}
	view, err := g.games.CellView(r.Context(), slot, pos.X, pos.Y)
	if err != nil {
		g.fail(w, slot, err)
		return
	}
	sendJSONOrLog(w, g.log, view)
}

func (g GameHandler) Results(w http.ResponseWriter, r *http.Request) {
	slot, ok := g.slot(w, r)
	if !ok {
		return
	}
	history, err := g.games.Results(r.Context(), slot)
	if err != nil {
		g.fail(w, slot, err)
		return
	}
	sendJSONOrLog(w, g.log, history)
}

func (g GameHandler) Forget(w http.ResponseWriter, r *http.Request) {
	slot, ok := g.slot(w, r)
	if !ok {
		return
	}
	if err := g.games.Forget(r.Context(), slot); err != nil {
		g.fail(w, slot, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
