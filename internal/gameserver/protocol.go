// Package gameserver is the WebSocket transport for the match engine:
// connection handling, intent dispatch, and the fan-out collaborators
// the engine publishes through. The core never touches sockets; it
// calls the hub's broadcast primitives with fully built views.
package gameserver

import (
	"github.com/cory-johannsen/gridlock/internal/game/match"
)

// Intent type identifiers accepted from clients.
const (
	IntentCreateMatch     = "createMatch"
	IntentJoinMatch       = "joinMatch"
	IntentLeaveMatch      = "leaveMatch"
	IntentStartMatch      = "startMatch"
	IntentAddBot          = "addBot"
	IntentKickPlayer      = "kickPlayer"
	IntentChangeAvatar    = "changeAvatar"
	IntentChangeLock      = "changeLockStatus"
	IntentChangeDebugMode = "changeDebugMode"
	IntentMove            = "move"
	IntentAction          = "action"
	IntentDebugMove       = "debugMove"
	IntentEndTurn         = "endTurn"
	IntentAttack          = "attack"
	IntentEscape          = "escape"
	IntentDropItem        = "dropItem"
)

// Intent is the client-to-server message envelope. Only the fields
// relevant to Type are read; everything else is ignored. Illegal or
// malformed intents are dropped without a response, except match
// admission which declines with a user-facing reason.
type Intent struct {
	Type string `json:"type"`
	// Name is the display name for createMatch/joinMatch.
	Name string `json:"name,omitempty"`
	// MapID selects the map for createMatch.
	MapID string `json:"mapId,omitempty"`
	// Mode selects the win condition for createMatch: "elimination"
	// (default) or "objective".
	Mode string `json:"mode,omitempty"`
	// Code is the match code for joinMatch.
	Code string `json:"code,omitempty"`
	// Personality selects the bot kind for addBot: "aggressiveBot" or
	// "defensiveBot".
	Personality string `json:"personality,omitempty"`
	// PlayerID is the kick target for kickPlayer.
	PlayerID string `json:"playerId,omitempty"`
	// Avatar is the avatar index for changeAvatar.
	Avatar int `json:"avatar,omitempty"`
	// Enabled carries the flag for changeLockStatus/changeDebugMode.
	Enabled bool `json:"enabled,omitempty"`
	// X, Y form the target position for move/action/debugMove.
	X int `json:"x,omitempty"`
	Y int `json:"y,omitempty"`
	// Item is the item kind name for dropItem.
	Item string `json:"item,omitempty"`
}

// Server-to-client message types.
const (
	MessageUpdate  = "update"
	MessageNotice  = "message"
	MessageRemoved = "removedFromMatch"
	MessageJoined  = "joined"
	MessageError   = "error"
)

// ServerMessage is the server-to-client envelope.
type ServerMessage struct {
	Type string `json:"type"`
	// Session carries the full session view for "update".
	Session *match.View `json:"session,omitempty"`
	// Text and Closeable carry a user-facing notice for "message".
	Text      string `json:"text,omitempty"`
	Closeable bool   `json:"closeable,omitempty"`
	// Reason carries the explanation for "removedFromMatch"/"error".
	Reason string `json:"reason,omitempty"`
	// PlayerID and Code identify the seat for "joined".
	PlayerID string `json:"playerId,omitempty"`
	Code     string `json:"code,omitempty"`
}

func updateMessage(v match.View) ServerMessage {
	return ServerMessage{Type: MessageUpdate, Session: &v}
}

func noticeMessage(text string, closeable bool) ServerMessage {
	return ServerMessage{Type: MessageNotice, Text: text, Closeable: closeable}
}

func removedMessage(reason string) ServerMessage {
	return ServerMessage{Type: MessageRemoved, Reason: reason}
}

func joinedMessage(playerID, code string) ServerMessage {
	return ServerMessage{Type: MessageJoined, PlayerID: playerID, Code: code}
}

func errorMessage(reason string) ServerMessage {
	return ServerMessage{Type: MessageError, Reason: reason}
}
