package main

import (
	"crypto/rand"
	"sync"
	"time"
)

// Registry owns every live room. Rooms are created through matchmaking,
// disposed a grace period after their match ends, and reaped when abandoned
// while still waiting for players.
type Registry struct {
	cfg  *Config
	bank *QuestionBank

	mu    sync.Mutex
	rooms map[string]*Room
}

func newRegistry(cfg *Config, bank *QuestionBank) *Registry {
	reg := &Registry{
		cfg:   cfg,
		bank:  bank,
		rooms: make(map[string]*Room),
	}
	if cfg.idleTimeout > 0 {
		go reg.reaperLoop()
	}
	return reg
}

// findOrCreateRoom resolves a join request to a room. A requested code must
// name an existing room that is neither full nor already playing. Without a
// code, any room still waiting for an opponent is reused; otherwise a fresh
// room is created with the joiner's (validated) subject filter.
func (reg *Registry) findOrCreateRoom(requestedID string, subjects []string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if requestedID != "" {
		room, ok := reg.rooms[requestedID]
		if !ok {
			return nil, errRoomNotFound
		}
		switch {
		case room.started():
			return nil, errGameInProgress
		case room.full():
			return nil, errRoomFull
		}
		return room, nil
	}

	for _, room := range reg.rooms {
		if room.waitingForOpponent() {
			return room, nil
		}
	}

	id := reg.newRoomIDLocked()
	room := newRoom(id, reg.cfg, reg.bank, reg, subjects)
	reg.rooms[id] = room

	logf(reg.cfg, "ROOMS: Created room %s with subjects %v", id, room.subjectFilter())

	return room, nil
}

// newRoomIDLocked generates a crypto-random room code and ensures it doesn't
// collide with existing rooms.
func (reg *Registry) newRoomIDLocked() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for {
		buf := make([]byte, 6)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 6)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		if _, exists := reg.rooms[id]; !exists {
			return id
		}
	}
}

func (reg *Registry) lookup(id string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.rooms[id]
}

// scheduleDispose removes the room after the configured grace window, so
// late queries against the finished match code still resolve until then.
func (reg *Registry) scheduleDispose(id string) {
	time.AfterFunc(reg.cfg.disposeGrace, func() {
		reg.dispose(id)
	})
}

func (reg *Registry) dispose(id string) {
	reg.mu.Lock()
	room, ok := reg.rooms[id]
	if ok {
		delete(reg.rooms, id)
	}
	reg.mu.Unlock()

	if !ok {
		return
	}

	room.close()
	logf(reg.cfg, "ROOMS: Disposed room %s", id)
}

// reaperLoop periodically removes rooms that never started a match and have
// been idle longer than the configured timeout.
func (reg *Registry) reaperLoop() {
	ticker := time.NewTicker(reg.cfg.idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-reg.cfg.idleTimeout)

		reg.mu.Lock()
		stale := make([]*Room, 0)
		for id, room := range reg.rooms {
			if room.idleSince(cutoff) {
				delete(reg.rooms, id)
				stale = append(stale, room)
			}
		}
		reg.mu.Unlock()

		for _, room := range stale {
			room.close()
			logf(reg.cfg, "ROOMS: Reaped idle room %s", room.id)
		}
	}
}

// closeAll disposes every room (used on shutdown).
func (reg *Registry) closeAll() {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for id, room := range reg.rooms {
		rooms = append(rooms, room)
		delete(reg.rooms, id)
	}
	reg.mu.Unlock()

	for _, room := range rooms {
		room.close()
	}
}
