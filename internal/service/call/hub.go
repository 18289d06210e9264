package call

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/z-guardian/backend/internal/metrics"
)

// maxClosedSessions bounds how many finished session ids the hub remembers.
const maxClosedSessions = 4096

// Hub fans session events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	logger zerolog.Logger

	closed      map[string]struct{}
	closedOrder []string
}

// Subscription receives the events of one session until closed.
type Subscription struct {
	C <-chan Event

	ch        chan Event
	hub       *Hub
	sessionID string
	once      sync.Once
}

// NewHub returns a hub giving every subscriber a buffer of the given size.
func NewHub(buffer int, logger zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger.With().Str("component", "event_hub").Logger(),
		closed: make(map[string]struct{}),
	}
}

// Subscribe registers interest in one session's events. Subscribing to a
// session that was already closed yields a closed subscription.
func (h *Hub) Subscribe(sessionID string) *Subscription {
	ch := make(chan Event, h.buffer)
	sub := &Subscription{C: ch, ch: ch, hub: h, sessionID: sessionID}

	h.mu.Lock()
	if _, done := h.closed[sessionID]; done {
		h.mu.Unlock()
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Publish delivers ev to the subscribers of its session. It is a Listener.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[ev.SessionID] {
		select {
		case sub.ch <- ev:
		default:
			metrics.EventsDropped.Inc()
			h.logger.Warn().
				Str("call_id", ev.SessionID).
				Uint64("seq", ev.Seq).
				Str("type", string(ev.Type)).
				Msg("subscriber too slow, dropping event")
		}
	}
}

// CloseSession closes every subscription of a finished session, including
// any made later.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	set := h.subs[sessionID]
	delete(h.subs, sessionID)
	if _, done := h.closed[sessionID]; !done {
		h.closed[sessionID] = struct{}{}
		h.closedOrder = append(h.closedOrder, sessionID)
		if len(h.closedOrder) > maxClosedSessions {
			delete(h.closed, h.closedOrder[0])
			h.closedOrder = h.closedOrder[1:]
		}
	}
	h.mu.Unlock()

	for sub := range set {
		sub.once.Do(func() { close(sub.ch) })
	}
}

// Subscribers reports how many subscriptions a session has.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

// Close unsubscribes. The channel is closed; pending events are discarded.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	if set, ok := s.hub.subs[s.sessionID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(s.hub.subs, s.sessionID)
		}
	}
	s.hub.mu.Unlock()

	s.once.Do(func() { close(s.ch) })
}
