package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/nardengine/pkg/engine"
	"github.com/yourusername/nardengine/pkg/nard"
)

func getTestEngine() *engine.Engine {
	return engine.NewEngine(engine.EngineOptions{CacheSize: 256})
}

func newTestServer(t *testing.T, config ServerConfig) *httptest.Server {
	t.Helper()
	s := NewServer(getTestEngine(), config, "test", zerolog.Nop())
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestHealthHandler(t *testing.T) {
	h := NewHandlers(nil, "test-version")

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test-version", health.Version)
	assert.False(t, health.Ready)
	assert.Nil(t, health.Pool)
	assert.Nil(t, health.Cache)
}

func TestHealthHandlerReady(t *testing.T) {
	h := NewHandlersWithPool(getTestEngine(), "1.0.0", NewWorkerPool(DefaultPoolConfig()))

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var health HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
	assert.True(t, health.Ready)
	require.NotNil(t, health.Pool)
	assert.Equal(t, 100, health.Pool.MaxFast)
	require.NotNil(t, health.Cache)
	assert.Equal(t, uint32(256), health.Cache.Size)
}

func TestMovesHandler(t *testing.T) {
	h := NewHandlers(getTestEngine(), "1.0.0")

	w := postJSON(t, h.Moves, "/api/moves", MovesRequest{Player: "white", Dice: []int{1, 2}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp MovesResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "white", resp.Player)
	assert.Equal(t, 2, resp.NumLegal)
	assert.False(t, resp.OffPossible)
	assert.Nil(t, resp.Legal)
	require.Len(t, resp.Moves, 2)
	assert.Equal(t, MoveResponse{Move: "1/2", Kind: "travel", Source: 0, Destination: 1}, resp.Moves[0])
	assert.Equal(t, "1/3", resp.Moves[1].Move)
}

func TestMovesHandlerCheckMove(t *testing.T) {
	h := NewHandlers(getTestEngine(), "1.0.0")

	tests := []struct {
		move  string
		legal bool
	}{
		{move: "1/4", legal: true},
		{move: "1/6", legal: true},
		{move: "1/5", legal: false},
	}
	for _, tc := range tests {
		t.Run(tc.move, func(t *testing.T) {
			w := postJSON(t, h.Moves, "/api/moves", MovesRequest{Player: "black", Dice: []int{3, 5}, Move: tc.move})
			require.Equal(t, http.StatusOK, w.Code)

			var resp MovesResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			require.NotNil(t, resp.Legal)
			assert.Equal(t, tc.legal, *resp.Legal)
		})
	}
}

func TestMovesHandlerBearOff(t *testing.T) {
	h := NewHandlers(getTestEngine(), "1.0.0")

	var slots [nard.NumPoints]int
	slots[23] = 1
	slots[5] = -1
	w := postJSON(t, h.Moves, "/api/moves", MovesRequest{
		Slots: &slots, WhiteOff: 14, BlackOff: 14, Player: "w", Dice: []int{1},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp MovesResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.OffPossible)
	assert.Equal(t, []MoveResponse{{Move: "24/off", Kind: "bear_off", Source: 23, Destination: -1}}, resp.Moves)
}

func TestMovesHandlerErrors(t *testing.T) {
	h := NewHandlers(getTestEngine(), "1.0.0")

	badSlots := engine.StartingPosition().Slots
	badSlots[0] = 16

	tests := []struct {
		name     string
		body     any
		wantCode string
	}{
		{name: "invalid json", body: "{", wantCode: CodeInvalidJSON},
		{name: "unknown player", body: MovesRequest{Player: "red", Dice: []int{1, 2}}, wantCode: CodeInvalidPlayer},
		{name: "die out of range", body: MovesRequest{Player: "white", Dice: []int{7, 1}}, wantCode: CodeInvalidDice},
		{name: "no dice", body: MovesRequest{Player: "white"}, wantCode: CodeInvalidDice},
		{name: "bad position", body: MovesRequest{Slots: &badSlots, Player: "white", Dice: []int{1, 2}}, wantCode: CodeInvalidPosition},
		{name: "bad move", body: MovesRequest{Player: "white", Dice: []int{1, 2}, Move: "1-3"}, wantCode: CodeInvalidMove},
		{name: "off count without slots", body: MovesRequest{WhiteOff: 3, Player: "white", Dice: []int{1, 2}}, wantCode: CodeInvalidPosition},
		{name: "black off without slots", body: MovesRequest{BlackOff: 1, Player: "black", Dice: []int{6, 6}}, wantCode: CodeInvalidPosition},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, h.Moves, "/api/moves", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestRolloutHandler(t *testing.T) {
	h := NewHandlers(getTestEngine(), "1.0.0")

	w := postJSON(t, h.Rollout, "/api/rollout", RolloutRequest{Games: 12, Workers: 2, Seed: 3})
	require.Equal(t, http.StatusOK, w.Code)

	var resp RolloutResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 12, resp.Games)
	assert.Equal(t, uint64(3), resp.Seed)
	assert.Equal(t, resp.Finished, resp.WhiteWins+resp.BlackWins)
	assert.LessOrEqual(t, resp.WhiteWinRate, 100.0)
}

func TestRolloutHandlerPicksSeed(t *testing.T) {
	h := NewHandlers(getTestEngine(), "1.0.0")

	w := postJSON(t, h.Rollout, "/api/rollout", RolloutRequest{Games: 2, FirstPlayer: "black"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp RolloutResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotZero(t, resp.Seed)
}

func TestRolloutHandlerErrors(t *testing.T) {
	h := NewHandlers(getTestEngine(), "1.0.0")
	h.SetRolloutLimits(0, 0, 5)
	h.SetMaxRolloutWorkers(3)

	tests := []struct {
		name     string
		body     any
		wantCode string
	}{
		{name: "invalid json", body: "[", wantCode: CodeInvalidJSON},
		{name: "negative games", body: RolloutRequest{Games: -1}, wantCode: CodeInvalidRollout},
		{name: "unknown first player", body: RolloutRequest{Games: 1, FirstPlayer: "green"}, wantCode: CodeInvalidPlayer},
		{name: "too many games", body: RolloutRequest{Games: 6}, wantCode: CodeTooManyGames},
		{name: "too many workers", body: RolloutRequest{Games: 5, Workers: 4}, wantCode: CodeInvalidRollout},
		// Default game count exceeds the limit too
		{name: "default over limit", body: RolloutRequest{}, wantCode: CodeTooManyGames},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, h.Rollout, "/api/rollout", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestHandlersServerBusy(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxFastWorkers: 1, MaxSlowWorkers: 1, QueueTimeout: 10 * time.Millisecond})
	h := NewHandlersWithPool(getTestEngine(), "1.0.0", pool)

	require.True(t, pool.TryAcquireSlow())
	w := postJSON(t, h.Rollout, "/api/rollout", RolloutRequest{Games: 1})
	pool.ReleaseSlow()
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, CodeServerBusy, decodeError(t, w).Code)

	require.True(t, pool.TryAcquireFast())
	w = postJSON(t, h.Moves, "/api/moves", MovesRequest{Player: "white", Dice: []int{1, 2}})
	pool.ReleaseFast()
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, CodeServerBusy, decodeError(t, w).Code)

	assert.Equal(t, int64(2), pool.Stats().Rejected)
}

func TestRolloutSSE(t *testing.T) {
	ts := newTestServer(t, DefaultConfig())

	resp, err := http.Get(ts.URL + "/api/rollout/stream?games=20&workers=2&seed=5")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "event: progress\n")
	assert.Contains(t, text, "event: result\n")
	assert.True(t, strings.HasSuffix(text, "event: done\n\n"))
	assert.NotContains(t, text, "event: error")
	assert.Contains(t, text, `"games":20`)
}

func TestRolloutSSEBadParams(t *testing.T) {
	ts := newTestServer(t, DefaultConfig())

	resp, err := http.Get(ts.URL + "/api/rollout/stream?games=abc")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "event: error\n")
	assert.NotContains(t, string(body), "event: result")
}

func TestRolloutSSETooManyWorkers(t *testing.T) {
	ts := newTestServer(t, DefaultConfig())

	resp, err := http.Get(ts.URL + "/api/rollout/stream?games=100000&workers=100000")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "event: error\n")
	assert.Contains(t, string(body), "workers per rollout")
	assert.NotContains(t, string(body), "event: progress")
}

func TestRoutes(t *testing.T) {
	ts := newTestServer(t, DefaultConfig())

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	resp, err = http.Get(ts.URL + "/api/moves")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/evaluate")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRoutesCORSPreflight(t *testing.T) {
	ts := newTestServer(t, DefaultConfig())

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/moves", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestServerAddr(t *testing.T) {
	config := DefaultConfig()
	config.Host = "0.0.0.0"
	config.Port = 9090
	s := NewServer(getTestEngine(), config, "test", zerolog.Nop())
	assert.Equal(t, "0.0.0.0:9090", s.Addr())
	assert.Equal(t, 4, s.Pool().Stats().MaxSlow)
}
