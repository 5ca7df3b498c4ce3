package domain

import "time"

// ClockFormat is the wall-clock format stamped onto outbound events.
const ClockFormat = "15:04"

type EventType string

const (
	EventChat        EventType = "chat"
	EventSystem      EventType = "system"
	EventUsers       EventType = "users"
	EventStreamStart EventType = "stream_start"
	EventStreamChunk EventType = "stream_chunk"
	EventStreamEnd   EventType = "stream_end"
)

// Event is a server-to-client frame. Fields not used by a given type are
// omitted from the wire representation.
type Event struct {
	Type      EventType `json:"type"`
	User      string    `json:"user,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
	IsHistory bool      `json:"is_history,omitempty"`
	Users     []string  `json:"users,omitempty"`
	Count     int       `json:"count,omitempty"`
}

func NewChatEvent(user, content string, at time.Time) Event {
	return Event{
		Type:      EventChat,
		User:      user,
		Content:   content,
		Timestamp: at.Format(ClockFormat),
	}
}

// NewHistoryEvent is a chat event replayed from persistence to a single
// session. History events are never re-broadcast.
func NewHistoryEvent(user, content string, at time.Time) Event {
	e := NewChatEvent(user, content, at)
	e.IsHistory = true
	return e
}

func NewSystemEvent(content string) Event {
	return Event{
		Type:      EventSystem,
		Content:   content,
		Timestamp: time.Now().Format(ClockFormat),
	}
}

func NewUsersEvent(users []string) Event {
	return Event{
		Type:  EventUsers,
		Users: users,
		Count: len(users),
	}
}

func NewStreamStartEvent(user string) Event {
	return Event{Type: EventStreamStart, User: user}
}

func NewStreamChunkEvent(user, chunk string) Event {
	return Event{Type: EventStreamChunk, User: user, Content: chunk}
}

func NewStreamEndEvent(user string) Event {
	return Event{Type: EventStreamEnd, User: user}
}

func (e Event) IsValid() bool {
	switch e.Type {
	case EventChat:
		return e.Content != ""
	case EventSystem:
		return e.Content != ""
	case EventUsers:
		return e.Count == len(e.Users)
	case EventStreamStart, EventStreamChunk, EventStreamEnd:
		return e.User != ""
	default:
		return false
	}
}
