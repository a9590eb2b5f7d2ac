package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	TopicStaff    = "staff"
	TopicCustomer = "customer"

	EventNewOrder           = "new-order"
	EventOrderStatusUpdated = "order-status-updated"
)

// Message is the wire envelope for every broadcast.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Subscriber is one connection's membership in a topic. Delivery goes
// through a single buffered channel, so events published in sequence on a
// topic arrive in the same sequence on each subscriber.
type Subscriber struct {
	send chan []byte
}

func (s *Subscriber) Receive() <-chan []byte {
	return s.send
}

// Hub maps topic names to their current subscribers and fans published
// events out to them. It holds no business state and never touches the
// order store: a publish to an empty topic is a silent no-op.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscriber]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[*Subscriber]struct{}),
		logger: logger,
	}
}

func ValidTopic(topic string) bool {
	return topic == TopicStaff || topic == TopicCustomer
}

func (h *Hub) Subscribe(topic string) *Subscriber {
	sub := &Subscriber{send: make(chan []byte, 32)}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}

	h.logger.Debug("subscriber joined", zap.String("topic", topic), zap.Int("subscribers", len(subs)))
	return sub
}

func (h *Hub) Unsubscribe(topic string, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}

// Publish delivers the event to every subscriber connected at call time,
// at most once each. A subscriber whose buffer is full misses the event
// rather than blocking the caller; the tracking endpoint is the recovery
// path for anything missed.
func (h *Hub) Publish(topic, event string, payload interface{}) {
	body, err := json.Marshal(Message{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("marshaling event", zap.String("topic", topic), zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[topic] {
		select {
		case sub.send <- body:
		default:
			h.logger.Warn("dropping event for slow subscriber", zap.String("topic", topic), zap.String("event", event))
		}
	}
}

// SubscriberCount reports current topic membership, for logging and tests.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
