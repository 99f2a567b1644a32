package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Victorh-Tasca/discord-example-app/internal/api/handler/v1/request"
	"github.com/Victorh-Tasca/discord-example-app/internal/api/handler/v1/response"
	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
	"github.com/Victorh-Tasca/discord-example-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
	liveSendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type liveClient struct {
	conn     *websocket.Conn
	send     chan []byte
	raffleID string
}

type liveMessage struct {
	raffleID string
	payload  []byte
}

// LiveHandler streams tally updates of a raffle to websocket subscribers.
type LiveHandler struct {
	svc        RaffleService
	clients    map[*liveClient]struct{}
	broadcast  chan liveMessage
	register   chan *liveClient
	unregister chan *liveClient
	done       chan struct{}
}

func NewLiveHandler(svc RaffleService) *LiveHandler {
	return &LiveHandler{
		svc:        svc,
		clients:    make(map[*liveClient]struct{}),
		broadcast:  make(chan liveMessage, 64),
		register:   make(chan *liveClient),
		unregister: make(chan *liveClient),
		done:       make(chan struct{}),
	}
}

// Run owns the subscriber set until ctx is done, then closes every connection.
func (h *LiveHandler) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				if client.raffleID != message.raffleID {
					continue
				}
				select {
				case client.send <- message.payload:
				default:
					h.drop(client)
				}
			}
		}
	}
}

func (h *LiveHandler) drop(client *liveClient) {
	delete(h.clients, client)
	close(client.send)
}

// TallyChanged queues the new state for the raffle's subscribers. It never blocks.
func (h *LiveHandler) TallyChanged(raffle domain.Raffle, tally domain.Tally) {
	payload, err := json.Marshal(response.NewRaffleWithTally(raffle, tally))
	if err != nil {
		zap.L().Warn("failed to encode live tally", zap.String("raffle_id", raffle.ID), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- liveMessage{raffleID: raffle.ID, payload: payload}:
	default:
		zap.L().Warn("live tally queue full, update dropped", zap.String("raffle_id", raffle.ID))
	}
}

// HandleLive upgrades to a websocket that first receives the raffle with its tally, then
// every later change until the raffle is drawn or cancelled.
func (h *LiveHandler) HandleLive(ctx *gin.Context) {
	var input request.GetRaffleRequest
	if err := ctx.ShouldBindUri(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	raffle, tally, err := h.svc.GetRaffleWithTally(ctx.Request.Context(), input.RaffleID)
	if err != nil {
		if errors.Is(err, service.ErrRaffleNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", input.RaffleID))
			return
		}

		err = fmt.Errorf("HandleLive -> h.svc.GetRaffleWithTally -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	snapshot, err := json.Marshal(response.NewRaffleWithTally(raffle, tally))
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("HandleLive -> json.Marshal -> %w", err)))
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &liveClient{
		conn:     conn,
		send:     make(chan []byte, liveSendBuffer),
		raffleID: raffle.ID,
	}
	client.send <- snapshot

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *liveClient) writePump() {
	ticker := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the peer going away; subscribers never send anything useful.
func (c *liveClient) readPump(h *LiveHandler) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(livePongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("live subscriber closed", zap.String("raffle_id", c.raffleID), zap.Error(err))
			}
			return
		}
	}
}
