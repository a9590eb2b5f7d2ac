package realtime

import (
	"net/http"

	"canteen/internal/auth"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Controller struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewController(hub *Hub, logger *zap.Logger) *Controller {
	return &Controller{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// HandleSocket upgrades the connection and pumps hub events to it until
// the peer goes away. The subscription is removed on any exit path, so
// reconnect cycles cannot leak topic membership.
func (c *Controller) HandleSocket(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = TopicCustomer
	}
	if !ValidTopic(topic) {
		http.Error(w, "unknown topic", http.StatusBadRequest)
		return
	}

	// Every topic needs a resolved identity; order snapshots carry
	// customer data. The staff topic additionally needs a staff role.
	id, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if topic == TopicStaff && !id.IsStaff() {
		http.Error(w, "staff role required", http.StatusForbidden)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := c.hub.Subscribe(topic)
	defer func() {
		c.hub.Unsubscribe(topic, sub)
		conn.Close()
	}()

	// Inbound frames are ignored; the read loop only detects disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-sub.Receive():
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("websocket write failed", zap.String("topic", topic), zap.Error(err))
				return
			}
		case <-done:
			return
		}
	}
}
