package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/contrib/websocket"
	"golang.org/x/time/rate"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/modules/board"
)

// Per-connection limits on client messages.
const (
	messagesPerSecond = 10
	burstSize         = 20
)

// homeSocket streams date view snapshots to one client. The connection is a
// date view observer for as long as it stays open.
func (m *APIModule) homeSocket(c *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan board.DateView, 1)
	replies := make(chan WSMessage, 8)
	writerDone := make(chan struct{})
	limiter := rate.NewLimiter(rate.Limit(messagesPerSecond), burstSize)

	unwatch := m.agg.Watch(func(v board.DateView) {
		// Keep only the newest snapshot for a slow client.
		select {
		case <-updates:
		default:
		}
		updates <- v
	})

	go func() {
		defer close(writerDone)
		for {
			var msg WSMessage
			select {
			case <-ctx.Done():
				return
			case v := <-updates:
				msg = WSMessage{Type: "date_view", View: &v}
			case msg = <-replies:
			}
			if err := c.WriteJSON(msg); err != nil {
				m.logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}()

	defer func() {
		unwatch()
		cancel()
		<-writerDone
		c.Close()
	}()

	m.logger.Info("home websocket connected")

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.logger.Error("websocket error", "error", err)
			}
			break
		}

		if !limiter.Allow() {
			reply(replies, WSMessage{Type: "error", Error: "Rate limit exceeded, please slow down"})
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			reply(replies, WSMessage{Type: "error", Error: "Invalid message format"})
			continue
		}

		switch msg.Type {
		case "select_date":
			date, err := domain.ParseDate(msg.Date)
			if err != nil {
				reply(replies, WSMessage{Type: "error", Error: "date must be YYYY-MM-DD"})
				continue
			}
			// Runs detached so a later selection can supersede it.
			go func() {
				_, err := m.agg.SetSelectedDate(ctx, date)
				if err != nil && !errors.Is(err, board.ErrSuperseded) && ctx.Err() == nil {
					reply(replies, WSMessage{Type: "error", Error: err.Error()})
				}
			}()
		default:
			reply(replies, WSMessage{Type: "error", Error: "Unknown message type: " + msg.Type})
		}
	}

	m.logger.Info("home websocket disconnected")
}

// reply queues a message for the writer, dropping it when the queue is full.
func reply(replies chan<- WSMessage, msg WSMessage) {
	select {
	case replies <- msg:
	default:
	}
}
