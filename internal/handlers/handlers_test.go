package handlers

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper/internal/config"
	"github.com/vancomm/minesweeper/internal/game"
	"github.com/vancomm/minesweeper/internal/middleware"
	"github.com/vancomm/minesweeper/internal/mines"
	"github.com/vancomm/minesweeper/internal/store"
)

const testSlot = "0f6e2b8a-3c1d-4e5f-8a9b-7c6d5e4f3a2b"

func newTestHandler(t *testing.T, tick time.Duration) *GameHandler {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	games := game.NewService(logger, store.NewMemory(),
		game.WithRandSource(func() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }),
	)
	ws, err := config.NewWebSocket()
	require.NoError(t, err)
	ws.TickInterval = tick
	return NewGameHandler(logger, games, ws)
}

func withSlot(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := &config.SlotClaims{SlotId: testSlot}
		ctx := context.WithValue(r.Context(), middleware.CtxSlotClaims, claims)
		h(w, r.WithContext(ctx))
	})
}

func do(t *testing.T, h http.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	withSlot(h).ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestFetchStartsGame(t *testing.T) {
	g := newTestHandler(t, time.Hour)

	rec := do(t, g.Fetch, http.MethodGet, "/game")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[game.Snapshot](t, rec)
	assert.Equal(t, mines.Easy, snap.Difficulty)
	assert.Equal(t, 10, snap.FieldSize)
	assert.Len(t, snap.Grid, 10)
	assert.False(t, snap.GameOver)
}

func TestFetchWithoutSlot(t *testing.T) {
	g := newTestHandler(t, time.Hour)

	rec := httptest.NewRecorder()
	g.Fetch(rec, httptest.NewRequest(http.MethodGet, "/game", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewGame(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		status int
		size   int
		mines  int
	}{
		{"preset", "difficulty=medium", http.StatusOK, 15, mines.DefaultMineCount},
		{"preset with mines", "difficulty=hard&mine_count=99", http.StatusOK, 25, 99},
		{"custom", "difficulty=custom&size=6&mine_count=5&policy=safe", http.StatusOK, 6, 5},
		{"too many mines", "difficulty=easy&mine_count=100", http.StatusBadRequest, 0, 0},
		{"unknown difficulty", "difficulty=insane", http.StatusBadRequest, 0, 0},
		{"bad policy", "policy=lucky", http.StatusBadRequest, 0, 0},
		{"bad mine count", "mine_count=lots", http.StatusBadRequest, 0, 0},
		{"oversized custom", "difficulty=custom&size=100000&mine_count=1", http.StatusBadRequest, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestHandler(t, time.Hour)
			rec := do(t, g.NewGame, http.MethodPost, "/game?"+tt.query)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				assert.Contains(t, decode[map[string]string](t, rec), "error")
				return
			}
			snap := decode[game.Snapshot](t, rec)
			assert.Equal(t, tt.size, snap.FieldSize)
			assert.Equal(t, tt.mines, snap.MineCount)
			assert.Equal(t, tt.mines, snap.FlagsLeft)
		})
	}
}

func TestMakeAMove(t *testing.T) {
	g := newTestHandler(t, time.Hour)

	rec := do(t, g.MakeAMove, http.MethodPost, "/game/move?move=flag&x=2&y=3")
	require.Equal(t, http.StatusOK, rec.Code)
	flag := decode[MoveResultDTO](t, rec)
	require.NotNil(t, flag.Flagged)
	assert.True(t, *flag.Flagged)
	assert.False(t, flag.Ignored)

	rec = do(t, g.MakeAMove, http.MethodPost, "/game/move?move=open&x=2&y=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[MoveResultDTO](t, rec).Ignored, "flagged cell stays closed")

	rec = do(t, g.MakeAMove, http.MethodPost, "/game/move?move=open&x=0&y=0")
	require.Equal(t, http.StatusOK, rec.Code)
	open := decode[MoveResultDTO](t, rec)
	assert.False(t, open.Ignored)
	assert.False(t, open.HitMine)
	assert.Contains(t, open.Revealed, "0,0")
	assert.Equal(t, 1, open.Game.Moves)
	assert.True(t, open.Game.Grid[0][0].Revealed)
}

func TestMakeAMoveBadRequests(t *testing.T) {
	g := newTestHandler(t, time.Hour)

	for _, query := range []string{
		"move=chord&x=0&y=0",
		"move=open&x=0",
		"move=open&x=a&y=0",
		"move=open&x=10&y=0",
		"move=flag&x=0&y=-1",
	} {
		t.Run(query, func(t *testing.T) {
			rec := do(t, g.MakeAMove, http.MethodPost, "/game/move?"+query)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCellAndResults(t *testing.T) {
	g := newTestHandler(t, time.Hour)

	rec := do(t, g.NewGame, http.MethodPost, "/game?difficulty=custom&size=1&mine_count=0")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, g.MakeAMove, http.MethodPost, "/game/move?move=open&x=0&y=0")
	require.Equal(t, http.StatusOK, rec.Code)
	won := decode[MoveResultDTO](t, rec)
	assert.Equal(t, mines.Won, won.Outcome)
	require.NotNil(t, won.Result)
	assert.Equal(t, 1, won.Result.Moves)

	rec = do(t, g.Cell, http.MethodGet, "/game/cell?x=0&y=0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mines.CellView{Revealed: true, Value: "0"}, decode[mines.CellView](t, rec))

	rec = do(t, g.Cell, http.MethodGet, "/game/cell?x=1&y=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, g.Results, http.MethodGet, "/results")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[mines.History](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].Moves)

	rec = do(t, g.Forget, http.MethodDelete, "/game")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, g.Results, http.MethodGet, "/results")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestParseNewGameDefaults(t *testing.T) {
	defaults := mines.GameParams{Size: 15, MineCount: 30, Difficulty: mines.Medium, Policy: mines.ExcludeNeighborhood}

	params, err := NewGameDTO{}.Params(defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, params)

	params, err = NewGameDTO{Difficulty: "easy"}.Params(defaults)
	require.NoError(t, err)
	assert.Equal(t, mines.GameParams{
		Size: 10, MineCount: mines.DefaultMineCount, Difficulty: mines.Easy, Policy: mines.ExcludeNeighborhood,
	}, params)
}

func dialTestServer(t *testing.T, g *GameHandler) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(withSlot(g.ConnectWS))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/game/connect"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	var msg map[string]json.RawMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestConnectWS(t *testing.T) {
	g := newTestHandler(t, time.Hour)
	conn := dialTestServer(t, g)

	initial := readJSON(t, conn)
	assert.Contains(t, initial, "grid")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("n custom:5:20:classic\no 0 0")))
	var snap game.Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, 5, snap.FieldSize)
	assert.Equal(t, 1, snap.Moves)
	assert.True(t, snap.Grid[0][0].Revealed)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("boom")))
	failed := readJSON(t, conn)
	assert.Contains(t, failed, "error")
	// the state is still sent after a failed batch
	assert.Contains(t, readJSON(t, conn), "grid")
}

func TestConnectWSTicks(t *testing.T) {
	g := newTestHandler(t, 10*time.Millisecond)
	conn := dialTestServer(t, g)

	initial := readJSON(t, conn)
	assert.Contains(t, initial, "grid")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("n custom:5:20:classic\no 0 0")))
	var snap game.Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	require.True(t, snap.TimerRunning)

	tick := readJSON(t, conn)
	assert.NotContains(t, tick, "grid")
	assert.Contains(t, tick, "elapsed")
}
