package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vancomm/minesweeper/internal/game"
)

func (g GameHandler) write(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(g.ws.WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

// ConnectWS keeps a live session: each text message is a batch of
// commands, one per line, answered with the resulting game state. While
// the game clock runs the elapsed seconds are pushed every tick.
func (g GameHandler) ConnectWS(w http.ResponseWriter, r *http.Request) {
	slot, ok := g.slot(w, r)
	if !ok {
		return
	}
	snap, err := g.games.Load(r.Context(), slot)
	if err != nil {
		g.fail(w, slot, err)
		return
	}

	conn, err := g.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.WithError(err).Error("unable to upgrade connection")
		return
	}
	defer conn.Close()

	log := g.log.WithField("slot", slot)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages := make(chan string)
	go func() {
		defer close(messages)
		for {
			mt, message, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.WithError(err).Warn("read")
				}
				return
			}
			if mt != websocket.TextMessage {
				return
			}
			select {
			case messages <- string(message):
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(g.ws.TickInterval)
	defer ticker.Stop()

	if err := g.write(conn, snap); err != nil {
		log.WithError(err).Error("write")
		return
	}

	for {
		select {
		case text, ok := <-messages:
			if !ok {
				return
			}
			for _, c := range game.ByLine(text) {
				log.Debug("> ", c)
				next, err := g.games.Execute(ctx, slot, c)
				if err != nil {
					if errorStatus(err) == http.StatusInternalServerError {
						log.WithError(err).Error("command")
						return
					}
					if err := g.write(conn, wrapError(err)); err != nil {
						log.WithError(err).Error("write")
						return
					}
					break
				}
				snap = next
			}
			if err := g.write(conn, snap); err != nil {
				log.WithError(err).Error("write")
				return
			}
		case now := <-ticker.C:
			if !snap.TimerRunning {
				continue
			}
			if err := g.write(conn, TickDTO{Elapsed: snap.ElapsedAt(now)}); err != nil {
				log.WithError(err).Warn("tick")
				return
			}
		}
	}
}
