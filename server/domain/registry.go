package domain

import (
	"sort"
	"sync"
	"time"
)

// RoomRegistry owns the in-memory mapping of room name to joined sessions.
// Unknown rooms are no-ops for Leave, ListDisplayNames and MemberCount.
type RoomRegistry interface {
	Join(session Session)
	Leave(sessionID string) (Session, bool)
	Session(sessionID string) (Session, bool)
	ListDisplayNames(room string) []string
	MemberCount(room string) int
	ActiveRooms() []string
}

// Broadcaster delivers events to session outboxes. A session's outbox channel
// must stay open until Unregister has returned: sends happen under the
// registry lock, so observing that invariant makes a send to a session being
// torn down fail cleanly instead of panicking.
type Broadcaster interface {
	Register(sessionID string, outbox chan<- Event)
	Unregister(sessionID string)
	SendTo(sessionID string, event Event) bool
	Broadcast(room string, event Event) []string
	BroadcastPresence(room string)
}

type Registry interface {
	RoomRegistry
	Broadcaster

	Stats() RegistryStats
}

type RegistryStats struct {
	ActiveRooms     int    `json:"active_rooms"`
	ActiveSessions  int    `json:"active_sessions"`
	TotalBroadcasts int64  `json:"total_broadcasts"`
	Uptime          string `json:"uptime"`
}

// Locking: one RWMutex on the registry maps plus one per room, always taken
// registry first. Operations on a single room are linearizable; sends are
// non-blocking channel writes performed under the registry read lock.
type registryImpl struct {
	mu        sync.RWMutex
	rooms     map[string]*roomImpl
	sessions  map[string]Session
	outboxes  map[string]chan<- Event
	stats     RegistryStats
	startTime time.Time
}

type roomImpl struct {
	mu      sync.RWMutex
	name    string
	clients map[string]Session
}

func NewRegistry() Registry {
	return &registryImpl{
		rooms:     make(map[string]*roomImpl),
		sessions:  make(map[string]Session),
		outboxes:  make(map[string]chan<- Event),
		startTime: time.Now(),
	}
}

func (rg *registryImpl) Join(session Session) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	rg.sessions[session.ID] = session

	room, exists := rg.rooms[session.Room]
	if !exists {
		room = &roomImpl{name: session.Room, clients: make(map[string]Session)}
		rg.rooms[session.Room] = room
	}

	room.mu.Lock()
	room.clients[session.ID] = session
	room.mu.Unlock()
}

// Leave removes the session from its room and drops the room's in-memory
// entry when the last member is gone. The persisted room row is untouched.
func (rg *registryImpl) Leave(sessionID string) (Session, bool) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	return rg.leaveLocked(sessionID)
}

func (rg *registryImpl) leaveLocked(sessionID string) (Session, bool) {
	session, exists := rg.sessions[sessionID]
	if !exists {
		return Session{}, false
	}

	if room, ok := rg.rooms[session.Room]; ok {
		room.mu.Lock()
		delete(room.clients, sessionID)
		remaining := len(room.clients)
		room.mu.Unlock()

		if remaining == 0 {
			delete(rg.rooms, session.Room)
		}
	}

	delete(rg.sessions, sessionID)
	return session, true
}

func (rg *registryImpl) Session(sessionID string) (Session, bool) {
	rg.mu.RLock()
	defer rg.mu.RUnlock()

	session, exists := rg.sessions[sessionID]
	return session, exists
}

// ListDisplayNames returns a sorted point-in-time snapshot of the distinct
// display names in the room. Duplicate names across connections collapse in
// the set view; both connections remain addressable by session ID.
func (rg *registryImpl) ListDisplayNames(roomName string) []string {
	rg.mu.RLock()
	room, exists := rg.rooms[roomName]
	rg.mu.RUnlock()

	if !exists {
		return []string{}
	}

	room.mu.RLock()
	seen := make(map[string]struct{}, len(room.clients))
	for _, session := range room.clients {
		seen[session.Name] = struct{}{}
	}
	room.mu.RUnlock()

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (rg *registryImpl) MemberCount(roomName string) int {
	rg.mu.RLock()
	room, exists := rg.rooms[roomName]
	rg.mu.RUnlock()

	if !exists {
		return 0
	}

	room.mu.RLock()
	defer room.mu.RUnlock()
	return len(room.clients)
}

func (rg *registryImpl) ActiveRooms() []string {
	rg.mu.RLock()
	defer rg.mu.RUnlock()

	rooms := make([]string, 0, len(rg.rooms))
	for name := range rg.rooms {
		rooms = append(rooms, name)
	}
	sort.Strings(rooms)
	return rooms
}

func (rg *registryImpl) Register(sessionID string, outbox chan<- Event) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	rg.outboxes[sessionID] = outbox
}

func (rg *registryImpl) Unregister(sessionID string) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	delete(rg.outboxes, sessionID)
}

// SendTo delivers an event to one session without blocking. A full or
// missing outbox reports failure to the caller; it never blocks and never
// removes the session itself.
func (rg *registryImpl) SendTo(sessionID string, event Event) bool {
	rg.mu.RLock()
	defer rg.mu.RUnlock()

	outbox, exists := rg.outboxes[sessionID]
	if !exists {
		return false
	}

	select {
	case outbox <- event:
		return true
	default:
		return false
	}
}

// Broadcast delivers the event to every session that is a member of the room
// when the broadcast begins. Sessions whose send fails are collected during
// iteration and removed afterwards, so the snapshot being walked is never
// mutated mid-loop. Returns the IDs of evicted sessions.
func (rg *registryImpl) Broadcast(roomName string, event Event) []string {
	rg.mu.RLock()
	room, exists := rg.rooms[roomName]
	if !exists {
		rg.mu.RUnlock()
		return nil
	}

	room.mu.RLock()
	ids := make([]string, 0, len(room.clients))
	for id := range room.clients {
		ids = append(ids, id)
	}
	room.mu.RUnlock()
	sort.Strings(ids)

	var failed []string
	for _, id := range ids {
		outbox, ok := rg.outboxes[id]
		if !ok {
			continue
		}
		select {
		case outbox <- event:
		default:
			failed = append(failed, id)
		}
	}
	rg.mu.RUnlock()

	if len(failed) > 0 {
		rg.mu.Lock()
		for _, id := range failed {
			rg.leaveLocked(id)
			delete(rg.outboxes, id)
		}
		rg.mu.Unlock()
	}

	rg.mu.Lock()
	rg.stats.TotalBroadcasts++
	rg.mu.Unlock()

	return failed
}

// BroadcastPresence recomputes the room's user list and broadcasts it.
// Called after every join and leave.
func (rg *registryImpl) BroadcastPresence(roomName string) {
	names := rg.ListDisplayNames(roomName)
	if len(names) == 0 {
		return
	}
	rg.Broadcast(roomName, NewUsersEvent(names))
}

func (rg *registryImpl) Stats() RegistryStats {
	rg.mu.RLock()
	defer rg.mu.RUnlock()

	stats := rg.stats
	stats.ActiveRooms = len(rg.rooms)
	stats.ActiveSessions = len(rg.sessions)
	stats.Uptime = time.Since(rg.startTime).String()
	return stats
}
