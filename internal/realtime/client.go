package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"bookfast/pkg/logger"
	"bookfast/pkg/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client is one websocket connection. It implements Subscriber.
type Client struct {
	id       string
	conn     *websocket.Conn
	gateway  *Gateway
	actor    model.Actor
	log      *logger.Logger
	send     chan *ServerMessage
	stop     chan struct{}
	stopOnce sync.Once
}

func NewClient(conn *websocket.Conn, gateway *Gateway, actor model.Actor, log *logger.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:      id,
		conn:    conn,
		gateway: gateway,
		actor:   actor,
		log:     &logger.Logger{Logger: log.With("connection_id", id, "user_id", actor.UserID)},
		send:    make(chan *ServerMessage, sendBufferSize),
		stop:    make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Actor() model.Actor {
	return c.actor
}

func (c *Client) Send(evt model.Event) bool {
	return c.queueMessage(EventMessage(evt))
}

// Run starts the write pump and blocks in the read pump until the
// connection closes.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			raw, err := json.Marshal(msg)
			if err != nil {
				c.log.Error("Failed to serialize message", "error", err)
				continue
			}
			if !c.write(websocket.TextMessage, raw) {
				return
			}
		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		case <-c.stop:
			return
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		c.gateway.Disconnect(c)
		c.stopClient()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Warn("Websocket read failed", "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.queueMessage(ErrInvalidMessage(0, "malformed message"))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		reply := c.gateway.Handle(ctx, c, &msg)
		cancel()
		if reply != nil {
			c.queueMessage(reply)
		}
	}
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case <-c.stop:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		c.log.Warn("Send buffer full, dropping message")
		return false
	}
}

func (c *Client) write(msgType int, payload []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(msgType, payload); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Warn("Websocket write failed", "error", err)
		}
		return false
	}
	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() { close(c.stop) })
}
