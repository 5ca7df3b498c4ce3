package domain

type RequestType string

const (
	RequestJoin RequestType = "join"
	RequestChat RequestType = "chat"
)

// Request is a client-to-server frame. The first frame of a session must be
// a join request; everything after it must be chat.
type Request struct {
	Type        RequestType `json:"type"`
	Room        string      `json:"room,omitempty"`
	DisplayName string      `json:"displayName,omitempty"`
	Content     string      `json:"content,omitempty"`
}

func NewJoinRequest(room, displayName string) Request {
	return Request{
		Type:        RequestJoin,
		Room:        room,
		DisplayName: displayName,
	}
}

func NewChatRequest(content string) Request {
	return Request{
		Type:    RequestChat,
		Content: content,
	}
}

func (r Request) IsValid() bool {
	switch r.Type {
	case RequestJoin:
		return r.Room != ""
	case RequestChat:
		return r.Content != ""
	default:
		return false
	}
}

func (r Request) String() string {
	switch r.Type {
	case RequestJoin:
		return string(r.Type) + ": " + r.DisplayName + " -> " + r.Room
	case RequestChat:
		return string(r.Type) + ": " + r.Content
	default:
		return string(r.Type)
	}
}
