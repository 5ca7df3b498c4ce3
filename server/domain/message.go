package domain

import "time"

// Message is a persisted chat line. Author is empty for system- or
// bot-authored messages. Rows are immutable once written; ordering is
// created_at, ties broken by id.
type Message struct {
	ID        int
	RoomID    int
	Author    string
	Content   string
	CreatedAt time.Time
}

func NewMessage(id, roomID int, author, content string, createdAt time.Time) Message {
	return Message{
		ID:        id,
		RoomID:    roomID,
		Author:    author,
		Content:   content,
		CreatedAt: createdAt,
	}
}

func (m Message) IsSystem() bool {
	return m.Author == ""
}

// Room is the persisted room row. The in-memory connection set lives in the
// Registry, not here.
type Room struct {
	ID        int
	Name      string
	CreatedAt time.Time
}

// Activity log actions. The log is append-only; this core never mutates or
// deletes rows.
const (
	ActionLogin     = "login"
	ActionLogout    = "logout"
	ActionJoinRoom  = "join_room"
	ActionLeaveRoom = "leave_room"
	ActionChat      = "chat"
)
