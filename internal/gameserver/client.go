package gameserver

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gridlock/internal/game/grid"
	"github.com/cory-johannsen/gridlock/internal/game/item"
	"github.com/cory-johannsen/gridlock/internal/game/match"
	"github.com/cory-johannsen/gridlock/internal/game/registry"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client is the mediator between one WebSocket connection and the match
// engine. It owns its outbound channel; the hub only routes into it.
type Client struct {
	hub      *Hub
	registry *registry.Registry
	conn     *websocket.Conn
	logger   *zap.Logger

	// playerID is empty until the connection creates or joins a match.
	playerID string
	send     chan ServerMessage
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, reg *registry.Registry, conn *websocket.Conn, logger *zap.Logger) *Client {
	return &Client{
		hub:      hub,
		registry: reg,
		conn:     conn,
		logger:   logger,
		send:     make(chan ServerMessage, 64),
	}
}

// Run services the connection until it drops, then releases the seat.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump reads intents from the client in arrival order. Messages
// from the same connection are processed sequentially, so a client can
// never race itself.
func (c *Client) readPump() {
	defer func() {
		if c.playerID != "" {
			c.hub.Detach(c.playerID, c.send)
			c.registry.LeaveMatch(c.playerID)
		}
		close(c.send)
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("closing connection", zap.Error(err))
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Warn("setting read deadline", zap.Error(err))
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var intent Intent
		if err := c.conn.ReadJSON(&intent); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		c.dispatch(intent)
	}
}

// writePump drains the outbound channel and keeps the connection alive
// with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("closing connection in writer", zap.Error(err))
		}
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("setting write deadline", zap.Error(err))
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("setting ping write deadline", zap.Error(err))
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch validates and routes one intent. Session-scoped intents are
// handed to the engine's public entry points, which drop anything
// illegal for the sender and current state.
func (c *Client) dispatch(intent Intent) {
	switch intent.Type {
	case IntentCreateMatch:
		c.createMatch(intent)
	case IntentJoinMatch:
		c.joinMatch(intent)
	case IntentLeaveMatch:
		c.leaveMatch()
	default:
		c.sessionIntent(intent)
	}
}

func (c *Client) createMatch(intent Intent) {
	if c.playerID != "" && c.registry.InMatch(c.playerID) {
		c.send <- errorMessage(registry.ErrAlreadyInMatch.Error())
		return
	}
	mode := match.ModeElimination
	if intent.Mode == match.ModeObjective.String() {
		mode = match.ModeObjective
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, host, err := c.registry.CreateMatch(ctx, intent.MapID, mode, intent.Name)
	if err != nil {
		c.send <- errorMessage(err.Error())
		return
	}
	c.seat(host.ID, s.Code())
	c.send <- joinedMessage(host.ID, s.Code())
	c.hub.SendUpdate(s.View())
}

func (c *Client) joinMatch(intent Intent) {
	if c.playerID != "" && c.registry.InMatch(c.playerID) {
		c.send <- errorMessage(registry.ErrAlreadyInMatch.Error())
		return
	}
	s, p, err := c.registry.JoinMatch(intent.Code, intent.Name)
	if err != nil {
		c.send <- errorMessage(err.Error())
		return
	}
	c.seat(p.ID, s.Code())
	c.send <- joinedMessage(p.ID, s.Code())
	c.hub.SendUpdate(s.View())
}

// seat binds this connection to a freshly created player.
func (c *Client) seat(playerID, code string) {
	if c.playerID != "" {
		c.hub.Detach(c.playerID, c.send)
	}
	c.playerID = playerID
	c.hub.Attach(playerID, c.send)
	c.hub.Bind(playerID, code)
}

func (c *Client) leaveMatch() {
	if c.playerID == "" {
		return
	}
	c.registry.LeaveMatch(c.playerID)
	c.hub.Unbind(c.playerID)
}

func (c *Client) sessionIntent(intent Intent) {
	if c.playerID == "" {
		return
	}
	s, ok := c.registry.SessionFor(c.playerID)
	if !ok {
		return
	}
	pos := grid.Position{X: intent.X, Y: intent.Y}

	switch intent.Type {
	case IntentStartMatch:
		s.Start(c.playerID)
	case IntentAddBot:
		kind := match.KindBotAggressive
		if intent.Personality == match.KindBotDefensive.String() {
			kind = match.KindBotDefensive
		}
		bot, err := s.AddBot(c.playerID, kind)
		if err != nil {
			c.send <- errorMessage(err.Error())
			return
		}
		if bot != nil {
			c.registry.RegisterBot(s.Code(), bot)
		}
	case IntentKickPlayer:
		c.registry.Kick(c.playerID, intent.PlayerID)
	case IntentChangeAvatar:
		s.ChangeAvatar(c.playerID, intent.Avatar)
	case IntentChangeLock:
		s.SetLocked(c.playerID, intent.Enabled)
	case IntentChangeDebugMode:
		s.SetDebug(c.playerID, intent.Enabled)
	case IntentMove:
		s.Move(c.playerID, pos)
	case IntentAction:
		s.Action(c.playerID, pos)
	case IntentDebugMove:
		s.DebugMove(c.playerID, pos)
	case IntentEndTurn:
		s.EndTurn(c.playerID)
	case IntentAttack:
		s.Attack(c.playerID)
	case IntentEscape:
		s.Escape(c.playerID)
	case IntentDropItem:
		kind, err := item.ParseKind(intent.Item)
		if err != nil {
			return
		}
		s.DropItem(c.playerID, kind)
	default:
		c.logger.Debug("unknown intent", zap.String("type", intent.Type))
	}
}
