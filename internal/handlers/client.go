package handlers

import (
	"errors"
	"io"
	"log"
	"net"
	"time"

	"chessroom/internal/config"
	"chessroom/internal/game"
	"chessroom/internal/logging"
	"chessroom/internal/protocol"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// client pumps frames between one socket and the hub.
type client struct {
	conn    *websocket.Conn
	send    chan []byte
	hub     *game.Hub
	id      string
	addr    string
	limiter *rateLimiter
	rate    config.RateLimitConfig
}

func (c *client) readPump(done func()) {
	defer func() {
		c.hub.Detach(c.id)
		// no hub operation can reach this channel once detached
		close(c.send)
		done()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		if !c.limiter.allow() {
			log.Printf("Rate limit exceeded for %s (%d messages per %s); discarding message", c.addr, c.rate.Burst, c.rate.RefillInterval)
			continue
		}
		c.dispatch(raw)
	}
}

func (c *client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Printf("Message from %s exceeded the size limit", c.addr)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		logging.Debugf("client %s disconnected: %v", c.addr, err)
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		logging.Debugf("client %s connection closed: %v", c.addr, err)
	default:
		log.Printf("WebSocket read error from %s: %v", c.addr, err)
	}
}

// dispatch decodes one frame and applies it to the hub. A panic is contained
// here so the socket stays open.
func (c *client) dispatch(raw []byte) {
	in, err := protocol.Decode(raw)
	if err != nil {
		log.Printf("Dropping frame from %s: %v", c.addr, err)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic handling %s from %s: %v", in.EventName(), c.addr, r)
			if _, ok := in.(protocol.SendMessage); ok {
				c.hub.ChatError(c.id, "Lỗi khi gửi tin nhắn")
			}
		}
	}()

	switch m := in.(type) {
	case protocol.JoinGame:
		var res game.JoinResult
		res, err = c.hub.Join(c.id, m.Code, m.PlayerName, m.Color)
		if err == nil {
			logging.Debugf("%s joined %s as %s", c.id, m.Code, res.Color)
		}
	case protocol.Move:
		err = c.hub.RelayMove(c.id, m.Payload)
	case protocol.SendMessage:
		_, err = c.hub.SendChat(c.id, m.Content)
	case protocol.Typing:
		err = c.hub.Typing(c.id, m.IsTyping)
	case protocol.RequestRematch:
		err = c.hub.RequestRematch(c.id)
	case protocol.AcceptRematch:
		err = c.hub.AcceptRematch(c.id)
	case protocol.DeclineRematch:
		err = c.hub.DeclineRematch(c.id)
	case protocol.Ping:
		err = c.hub.Ping(c.id)
	}
	if err != nil {
		log.Printf("%s from %s ignored: %v", in.EventName(), c.addr, err)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logging.Debugf("write to %s: %v", c.addr, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logging.Debugf("ping to %s: %v", c.addr, err)
				return
			}
		}
	}
}
