package gameserver

import (
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridlock/internal/game/match"
)

// subscriber is the send side of one connected client.
type subscriber struct {
	playerID string
	send     chan ServerMessage
}

// Hub fans engine output out to connected clients. It tracks which
// player each connection speaks for and which match code each player
// currently occupies, and implements the engine's Broadcaster contract.
// Sends never block: a client whose buffer is full loses the message
// and recovers on the next full-state update.
type Hub struct {
	mu sync.RWMutex
	// subscribers maps playerID to the connection's outbound channel.
	subscribers map[string]*subscriber
	// codes maps playerID to the match code the player occupies.
	codes map[string]string

	logger *zap.Logger
}

var _ match.Broadcaster = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]*subscriber),
		codes:       make(map[string]string),
		logger:      logger,
	}
}

// Attach routes a player's outbound traffic into ch. The channel stays
// owned by the connection; a newer connection for the same player
// silently displaces the old route.
func (h *Hub) Attach(playerID string, ch chan ServerMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[playerID] = &subscriber{playerID: playerID, send: ch}
}

// Detach drops a player's route and session binding, but only if ch is
// still the active route; a displaced connection detaching late must
// not evict its successor.
func (h *Hub) Detach(playerID string, ch chan ServerMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub, ok := h.subscribers[playerID]
	if !ok || sub.send != ch {
		return
	}
	delete(h.subscribers, playerID)
	delete(h.codes, playerID)
}

// Bind records that a player occupies the session identified by code.
func (h *Hub) Bind(playerID, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.codes[playerID] = code
}

// Unbind clears a player's session binding without dropping the
// connection; the client is back in the menu.
func (h *Hub) Unbind(playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.codes, playerID)
}

// SendUpdate pushes the full session view to every seated player with a
// live connection.
func (h *Hub) SendUpdate(view match.View) {
	msg := updateMessage(view)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range view.Players {
		h.sendLocked(p.ID, msg)
	}
}

// SendMessage pushes a user-facing notice to every connection bound to
// the session identified by code.
func (h *Hub) SendMessage(code, text string, closeable bool) {
	msg := noticeMessage(text, closeable)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for playerID, c := range h.codes {
		if c == code {
			h.sendLocked(playerID, msg)
		}
	}
}

// EmitRemovedFromMatch tells a single removed player why they are out.
func (h *Hub) EmitRemovedFromMatch(playerID, reason string) {
	h.mu.RLock()
	h.sendLocked(playerID, removedMessage(reason))
	h.mu.RUnlock()
	h.Unbind(playerID)
}

// SendTo pushes one message to one player.
func (h *Hub) SendTo(playerID string, msg ServerMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.sendLocked(playerID, msg)
}

func (h *Hub) sendLocked(playerID string, msg ServerMessage) {
	sub, ok := h.subscribers[playerID]
	if !ok {
		return
	}
	select {
	case sub.send <- msg:
	default:
		h.logger.Warn("dropping message for slow client",
			zap.String("player_id", playerID),
			zap.String("type", msg.Type))
	}
}

// SubscriberCount returns the number of live connections.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
