package app

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vancomm/minesweeper/internal/handlers"
)

func (a *App) loadRoutes() {
	game := handlers.NewGameHandler(a.log, a.games, a.ws)

	a.router.HandleFunc("GET /game", game.Fetch)
	a.router.HandleFunc("POST /game", game.NewGame)
	a.router.HandleFunc("DELETE /game", game.Forget)
	a.router.HandleFunc("POST /game/move", game.MakeAMove)
	a.router.HandleFunc("GET /game/cell", game.Cell)
	a.router.HandleFunc("GET /game/connect", game.ConnectWS)
	a.router.HandleFunc("GET /results", game.Results)
	a.router.Handle("GET /metrics", promhttp.Handler())
}
