// Package registry owns the cross-session state: the code→session and
// player→code maps. Everything else in the engine is exclusively owned
// by one session; these two maps are the only resource shared across
// sessions and are guarded by a single RWMutex that is never held while
// a session's own lock is taken.
package registry

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridlock/internal/game/gamemap"
	"github.com/cory-johannsen/gridlock/internal/game/match"
)

// Match admission and lookup failures, surfaced to clients as
// user-facing decline reasons.
var (
	// ErrMapNotFound means the requested map has been deleted.
	ErrMapNotFound = errors.New("map not found")
	// ErrMapUnpublished means the map exists but is not published.
	ErrMapUnpublished = errors.New("map is not published")
	// ErrAlreadyInMatch means the player already occupies a seat in
	// some session.
	ErrAlreadyInMatch = errors.New("player is already in a match")
	// ErrUnknownCode means no session exists for the given match code.
	ErrUnknownCode = errors.New("unknown match code")
)

// MapFinder is the persistence contract the registry consumes: a single
// lookup at match-creation time verifying the map still exists and is
// published.
type MapFinder interface {
	// FindMap returns the definition for id, ErrMapNotFound, or
	// ErrMapUnpublished.
	FindMap(ctx context.Context, id string) (*gamemap.MapDefinition, error)
}

// codeAlphabet excludes easily confused characters.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 5
)

// Registry creates, resolves, and tears down match sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*match.Session
	players  map[string]string

	maps   MapFinder
	deps   match.Deps
	logger *zap.Logger
}

// New creates a registry. deps is the prototype collaborator set cloned
// into every session; its OnTerminal hook is owned by the registry.
func New(maps MapFinder, deps match.Deps, logger *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*match.Session),
		players:  make(map[string]string),
		maps:     maps,
		deps:     deps,
		logger:   logger,
	}
}

// CreateMatch validates the map, allocates a fresh code, and opens a
// lobby with hostName seated as host.
func (r *Registry) CreateMatch(ctx context.Context, mapID string, mode match.Mode, hostName string) (*match.Session, *match.Player, error) {
	def, err := r.maps.FindMap(ctx, mapID)
	if err != nil {
		return nil, nil, err
	}
	if !def.Published {
		return nil, nil, ErrMapUnpublished
	}
	if err := def.Validate(); err != nil {
		return nil, nil, err
	}

	deps := r.deps
	deps.OnTerminal = r.onTerminal

	r.mu.Lock()
	defer r.mu.Unlock()
	code := r.newCodeLocked()
	s, host := match.NewSession(code, def, mode, hostName, deps)
	r.sessions[code] = s
	r.players[host.ID] = code
	r.logger.Info("match created",
		zap.String("code", code),
		zap.String("map", mapID),
		zap.String("mode", mode.String()),
		zap.String("host", hostName))
	return s, host, nil
}

// newCodeLocked draws codes until one is free. Collisions are vanishingly
// rare at realistic session counts, so a retry loop suffices.
func (r *Registry) newCodeLocked() string {
	for {
		buf := make([]byte, codeLength)
		for i := range buf {
			buf[i] = codeAlphabet[r.deps.Roller.Pick(len(codeAlphabet))]
		}
		code := string(buf)
		if _, taken := r.sessions[code]; !taken {
			return code
		}
	}
}

// JoinMatch seats a new player in the session identified by code.
func (r *Registry) JoinMatch(code, name string) (*match.Session, *match.Player, error) {
	r.mu.RLock()
	s, ok := r.sessions[code]
	r.mu.RUnlock()
	if !ok {
		return nil, nil, ErrUnknownCode
	}
	p, err := s.Join(name)
	if err != nil {
		return nil, nil, err
	}
	r.mu.Lock()
	r.players[p.ID] = code
	r.mu.Unlock()
	return s, p, nil
}

// RegisterBot records a bot seated by a session so teardown can clear
// its entry.
func (r *Registry) RegisterBot(code string, p *match.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[p.ID] = code
}

// LeaveMatch removes playerID from their session, tearing the session
// down once no connected human remains.
func (r *Registry) LeaveMatch(playerID string) {
	r.mu.Lock()
	code, ok := r.players[playerID]
	if ok {
		delete(r.players, playerID)
	}
	s := r.sessions[code]
	r.mu.Unlock()
	if !ok || s == nil {
		return
	}
	if s.Leave(playerID) == 0 {
		r.Teardown(code)
	}
}

// Kick removes targetID from the requester's lobby and frees the
// target's seat entry so they can create or join another match. The
// session itself enforces the host-only rule.
func (r *Registry) Kick(requesterID, targetID string) {
	s, ok := r.SessionFor(requesterID)
	if !ok {
		return
	}
	if !s.Kick(requesterID, targetID) {
		return
	}
	r.mu.Lock()
	delete(r.players, targetID)
	r.mu.Unlock()
}

// Lookup resolves a match code.
func (r *Registry) Lookup(code string) (*match.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[code]
	if !ok {
		return nil, ErrUnknownCode
	}
	return s, nil
}

// SessionFor resolves the session a player currently occupies.
func (r *Registry) SessionFor(playerID string) (*match.Session, bool) {
	r.mu.RLock()
	code, ok := r.players[playerID]
	s := r.sessions[code]
	r.mu.RUnlock()
	if !ok || s == nil {
		return nil, false
	}
	return s, true
}

// InMatch reports whether playerID currently occupies a seat anywhere.
func (r *Registry) InMatch(playerID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.players[playerID]
	return ok
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Teardown closes the session and removes every player entry pointing
// at it, residual bots included. Idempotent.
func (r *Registry) Teardown(code string) {
	r.mu.Lock()
	s, ok := r.sessions[code]
	if ok {
		delete(r.sessions, code)
		for playerID, c := range r.players {
			if c == code {
				delete(r.players, playerID)
			}
		}
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	s.Close()
	r.deps.Tracker.Release(code)
	r.logger.Info("match torn down", zap.String("code", code))
}

// onTerminal runs when a session reaches its terminal state.
func (r *Registry) onTerminal(code string) {
	r.Teardown(code)
}
