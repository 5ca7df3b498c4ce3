package domain

import "time"

// Session identifies one joined connection. RoomID is the persisted room row
// backing the in-memory room the session joined.
type Session struct {
	ID       string
	Name     string
	Room     string
	RoomID   int
	Remote   string
	JoinedAt time.Time
}

func NewSession(id, name, room string, roomID int, remote string) Session {
	return Session{
		ID:       id,
		Name:     name,
		Room:     room,
		RoomID:   roomID,
		Remote:   remote,
		JoinedAt: time.Now(),
	}
}

func (s Session) IsValid() bool {
	return s.ID != "" && s.Room != ""
}

func (s Session) String() string {
	return s.Name + "@" + s.Room
}
