package usecase

import (
	"context"
	"errors"

	"github.com/ponyo877/chatroom/server/domain"
)

var ErrNotFound = errors.New("not found")

// Repository is the persistence collaborator. Implementations must be safe
// for concurrent use from session goroutines.
type Repository interface {
	GetOrCreateRoom(name string) (domain.Room, error)
	SaveMessage(roomID int, author, content string) error
	ListRecentMessages(roomID, limit int) ([]domain.Message, error)
	AppendActivityLog(username, action, content string) error
	ListSensitiveWords() ([]string, error)
	AppendWarningLog(content, username string, roomID int, word string) error
}

// BotService streams an AI reply as a finite, non-restartable sequence of
// text chunks. The channel closes when the reply is complete.
type BotService interface {
	StreamReply(ctx context.Context, query, speaker, room string) (<-chan string, error)
}

type MusicMode string

const (
	MusicGift   MusicMode = "gift"
	MusicRandom MusicMode = "random"
)

type WeatherService interface {
	Fetch(ctx context.Context, city string) (domain.WeatherReport, error)
}

type MusicService interface {
	Fetch(ctx context.Context, mode MusicMode) (domain.Song, error)
}

type NewsService interface {
	Fetch(ctx context.Context) (domain.NewsDigest, error)
}

type VideoService interface {
	ResolveEmbed(url string) string
	FetchRandomURL(ctx context.Context) (string, error)
}

// Services bundles the external command collaborators. Any of them may be
// nil; the matching command then reports itself unconfigured.
type Services struct {
	Bot     BotService
	Weather WeatherService
	Music   MusicService
	News    NewsService
	Video   VideoService
}
