package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/yourusername/nardengine/pkg/engine"
)

// checkOrigin admits handshakes without an Origin header (non-browser
// clients) and those from an allowed origin. Browsers skip CORS preflight
// for WebSockets, so the CORS middleware does not guard this route.
func (h *Handlers) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.origins {
		if originMatches(allowed, origin) {
			return true
		}
	}
	return false
}

// originMatches compares origins case-insensitively. A single "*" in
// allowed matches any run of characters, as in "https://*.example.com".
func originMatches(allowed, origin string) bool {
	allowed = strings.ToLower(allowed)
	origin = strings.ToLower(origin)
	prefix, suffix, wild := strings.Cut(allowed, "*")
	if !wild {
		return allowed == origin
	}
	return len(origin) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix)
}

// WSMessage is a generic WebSocket message.
type WSMessage struct {
	Type    string          `json:"type"`    // Message type: "moves", "rollout", "ping"
	ID      string          `json:"id"`      // Request ID for correlating responses
	Payload json.RawMessage `json:"payload"` // Type-specific payload
}

// WSResponse is a generic WebSocket response.
type WSResponse struct {
	Type    string `json:"type"`              // Response type: "result", "progress", "error", "pong"
	ID      string `json:"id,omitempty"`      // Request ID
	Payload any    `json:"payload,omitempty"` // Response data
	Error   string `json:"error,omitempty"`   // Error message if any
	Code    string `json:"code,omitempty"`    // Error code if any
}

// WSClient represents a connected WebSocket client. Rollouts run in their
// own goroutines so that a client can keep sending while one is in flight.
type WSClient struct {
	id       string
	conn     *websocket.Conn
	handlers *Handlers
	log      zerolog.Logger

	sendChan chan WSResponse
	done     chan struct{} // closed when the write pump exits

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WebSocket handles WebSocket connections for real-time analysis.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("origin", r.Header.Get("Origin")).Msg("websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	client := &WSClient{
		id:       id,
		conn:     conn,
		handlers: h,
		log:      hlog.FromRequest(r).With().Str("conn_id", id).Logger(),
		sendChan: make(chan WSResponse, 256),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	client.log.Info().Msg("websocket connected")
	go client.writePump()
	client.readPump()
	client.log.Info().Msg("websocket disconnected")
}

func (c *WSClient) writePump() {
	defer func() {
		close(c.done)
		c.conn.Close()
	}()
	for msg := range c.sendChan {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.log.Debug().Err(err).Msg("websocket write failed")
			return
		}
	}
}

func (c *WSClient) readPump() {
	defer func() {
		c.cancel()
		c.wg.Wait()
		close(c.sendChan)
		<-c.done
	}()
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}
		c.handleMessage(msg)
	}
}

// send queues a response unless the connection is going away.
func (c *WSClient) send(resp WSResponse) {
	select {
	case c.sendChan <- resp:
	case <-c.done:
	case <-c.ctx.Done():
	}
}

func (c *WSClient) sendError(id, code, msg string) {
	c.send(WSResponse{Type: "error", ID: id, Error: msg, Code: code})
}

func (c *WSClient) handleMessage(msg WSMessage) {
	switch msg.Type {
	case "moves":
		c.handleMoves(msg)
	case "rollout":
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.handleRollout(msg)
		}()
	case "ping":
		c.send(WSResponse{Type: "pong", ID: msg.ID})
	default:
		c.sendError(msg.ID, "UNKNOWN_TYPE", "unknown message type")
	}
}

func (c *WSClient) handleMoves(msg WSMessage) {
	var req MovesRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		c.sendError(msg.ID, CodeInvalidJSON, "invalid payload")
		return
	}

	if pool := c.handlers.pool; pool != nil {
		if err := pool.AcquireFast(c.ctx); err != nil {
			c.sendError(msg.ID, CodeServerBusy, "server busy")
			return
		}
		defer pool.ReleaseFast()
	}

	resp, apiErr := c.handlers.analyzeMoves(&req)
	if apiErr != nil {
		c.sendError(msg.ID, apiErr.code, apiErr.Error())
		return
	}
	c.send(WSResponse{Type: "result", ID: msg.ID, Payload: resp})
}

func (c *WSClient) handleRollout(msg WSMessage) {
	var req RolloutRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		c.sendError(msg.ID, CodeInvalidJSON, "invalid payload")
		return
	}

	if pool := c.handlers.pool; pool != nil {
		if err := pool.AcquireSlow(c.ctx); err != nil {
			c.sendError(msg.ID, CodeServerBusy, "server busy")
			return
		}
		defer pool.ReleaseSlow()
	}

	progress := func(p engine.RolloutProgress) {
		c.send(WSResponse{Type: "progress", ID: msg.ID, Payload: ProgressToResponse(p)})
	}
	resp, apiErr := c.handlers.runRollout(c.ctx, &req, progress)
	if apiErr != nil {
		if c.ctx.Err() == nil {
			c.log.Warn().Err(apiErr).Str("request_id", msg.ID).Msg("websocket rollout failed")
		}
		c.sendError(msg.ID, apiErr.code, apiErr.Error())
		return
	}
	c.send(WSResponse{Type: "result", ID: msg.ID, Payload: resp})
}
