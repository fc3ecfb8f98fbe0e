package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/medtranslate/server/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

var (
	errClientClosed   = errors.New("connection already closed")
	errSendBufferFull = errors.New("send buffer full")
)

// Client is a middleman between one websocket connection and the registry.
type Client struct {
	registry *Registry
	relay    *usecase.RelayService

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound payloads.
	send chan []byte

	// Conversation room this connection is bound to.
	conversationID string

	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

// ServeConversation upgrades the request and binds the connection to the
// conversation's room.
func ServeConversation(registry *Registry, relay *usecase.RelayService, c echo.Context, conversationID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		registry:       registry,
		relay:          relay,
		conn:           conn,
		send:           make(chan []byte, 256),
		conversationID: conversationID,
		logger:         logger,
	}

	registry.Connect(client, conversationID)

	// Allow collection of memory referenced by the caller by doing all work
	// in new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// enqueue hands a payload to the write pump. It fails when the connection
// is closed or its buffer is full; the registry treats either as an
// unrecoverable send failure.
func (c *Client) enqueue(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClientClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump pumps events from the websocket connection into the relay
// pipeline. One event is processed to completion before the next is read,
// which gives per-connection ordering of side effects.
func (c *Client) readPump() {
	defer func() {
		c.registry.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		c.dispatch(message)
	}
}

// dispatch decodes one inbound frame and routes it. Malformed frames are
// dropped, the connection stays open.
func (c *Client) dispatch(raw []byte) {
	event, err := decodeInboundEvent(raw)
	if err != nil {
		c.logger.Warn("Dropping malformed frame",
			zap.String("conversationID", c.conversationID),
			zap.Error(err))
		return
	}

	ctx := context.Background()

	switch event := event.(type) {
	case joinEvent:
		ack := c.relay.JoinAck(c.conversationID, event.role)
		c.registry.SendPersonal(c, ack)

	case sendMessageEvent:
		c.relay.HandleSendMessage(ctx, c.conversationID, usecase.SendMessageEvent{
			Text:     event.text,
			Role:     event.role,
			IsAudio:  event.isAudio,
			AudioURL: event.audioURL,
		})

	case typingEvent:
		c.relay.HandleTyping(c.conversationID, event.role, event.isTyping)
	}
}

// writePump pumps payloads from the send channel to the websocket
// connection and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
