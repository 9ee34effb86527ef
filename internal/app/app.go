package app

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minesweeper/internal/config"
	"github.com/vancomm/minesweeper/internal/game"
	"github.com/vancomm/minesweeper/internal/middleware"
	"github.com/vancomm/minesweeper/internal/store"
)

type App struct {
	log        *logrus.Logger
	cfg        *config.App
	router     *http.ServeMux
	games      *game.Service
	cookies    *config.Cookies
	jwt        *config.JWT
	ws         *config.WebSocket
	migrations fs.FS
}

func New(log *logrus.Logger, cfg *config.App, migrations fs.FS) *App {
	return &App{
		log:        log,
		cfg:        cfg,
		router:     http.NewServeMux(),
		migrations: migrations,
	}
}

// setup builds everything the routes need on top of slots.
func (a *App) setup(slots store.Slots) error {
	params, err := a.cfg.GameParams()
	if err != nil {
		return err
	}
	a.games = game.NewService(a.log, slots, game.WithDefaults(params))

	if a.jwt, err = config.NewJWT(); err != nil {
		return err
	}
	if a.cookies, err = config.NewCookies(a.jwt); err != nil {
		return err
	}
	if a.ws, err = config.NewWebSocket(); err != nil {
		return err
	}

	a.loadRoutes()
	return nil
}

func (a *App) handler() http.Handler {
	return middleware.Wrap(
		a.router,
		middleware.Slot(a.log, a.cookies, func() *config.SlotClaims {
			return config.NewSlotClaims(a.jwt.TokenLifetime())
		}),
		middleware.Cors(),
		middleware.Logging(a.log),
	)
}

// Start serves the API until ctx is cancelled, then shuts down
// gracefully.
func (a *App) Start(ctx context.Context) error {
	slots, closeStore, err := OpenStore(ctx, a.log, a.cfg.Store, a.migrations)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := a.setup(slots); err != nil {
		return err
	}

	server := &http.Server{
		Addr:    a.cfg.Addr,
		Handler: a.handler(),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	a.log.WithFields(logrus.Fields{
		"addr":  a.cfg.Addr,
		"store": a.cfg.Store.Driver,
	}).Info("server listening")

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
