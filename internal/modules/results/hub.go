package results

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"typingspeed/internal/domain"
)

const (
	subscriberBuffer = 16
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = 30 * time.Second
)

// LiveEvent is what feed subscribers receive for every saved result.
type LiveEvent struct {
	Type     string          `json:"type"`
	Username string          `json:"username"`
	WPM      float64         `json:"wpm"`
	Accuracy float64         `json:"accuracy"`
	Mode     domain.TestMode `json:"mode"`
	At       time.Time       `json:"at"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans saved results out to websocket subscribers. A subscriber that
// cannot keep up is dropped rather than slowing down the publisher.
type Hub struct {
	subscribers map[*subscriber]struct{}
	closed      bool
	mutex       sync.RWMutex
	log         logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		log:         log,
	}
}

// register reports false once the hub is closed.
func (h *Hub) register(conn *websocket.Conn) (*subscriber, bool) {
	s := &subscriber{conn: conn, send: make(chan []byte, subscriberBuffer)}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.closed {
		return nil, false
	}
	h.subscribers[s] = struct{}{}
	return s, true
}

func (h *Hub) unregister(s *subscriber) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.subscribers[s]; ok {
		delete(h.subscribers, s)
		close(s.send)
	}
}

// Publish never blocks.
func (h *Hub) Publish(event LiveEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.WithError(err).Error("encode live event")
		return
	}

	var slow []*subscriber
	h.mutex.RLock()
	for s := range h.subscribers {
		select {
		case s.send <- payload:
		default:
			slow = append(slow, s)
		}
	}
	h.mutex.RUnlock()

	for _, s := range slow {
		h.unregister(s)
		_ = s.conn.Close()
	}
}

func (h *Hub) SubscriberCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.subscribers)
}

// Close disconnects every subscriber and turns away new ones.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.closed = true
	for s := range h.subscribers {
		delete(h.subscribers, s)
		close(s.send)
		_ = s.conn.Close()
	}
}

// writeLoop is the only writer for the connection.
func (s *subscriber) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
