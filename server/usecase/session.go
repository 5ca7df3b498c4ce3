package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ponyo877/chatroom/server/domain"
)

const (
	defaultHistoryLimit = 50
	defaultBotMention   = "@小助手"
	defaultCity         = "北京"
)

// ChatUsecase drives the per-connection protocol: join, history replay,
// active chat loop and teardown. One HandleSession call serves exactly one
// connection; cross-session state lives in the registry and the repository.
type ChatUsecase struct {
	repo         Repository
	registry     domain.Registry
	services     Services
	historyLimit int
	botMention   string
	city         string
	commands     []commandRoute
}

func NewChatUsecase(repo Repository, registry domain.Registry, services Services) *ChatUsecase {
	u := &ChatUsecase{
		repo:         repo,
		registry:     registry,
		services:     services,
		historyLimit: defaultHistoryLimit,
		botMention:   defaultBotMention,
		city:         defaultCity,
	}
	u.commands = u.buildRoutes()
	return u
}

func (u *ChatUsecase) SetHistoryLimit(limit int) {
	if limit > 0 {
		u.historyLimit = limit
	}
}

func (u *ChatUsecase) SetBotMention(prefix string) {
	if prefix != "" {
		u.botMention = prefix
	}
}

// HandleSession processes one connection's requests until the request
// channel closes. The first request must be a join; any other shape drops
// the connection with no room side effects. The caller owns the outbox and
// must close it only after HandleSession has returned.
func (u *ChatUsecase) HandleSession(
	ctx context.Context,
	requests <-chan domain.Request,
	outbox chan<- domain.Event,
	sessionID, remote string,
) error {
	u.registry.Register(sessionID, outbox)
	defer u.registry.Unregister(sessionID)

	var joined bool
	for request := range requests {
		if !joined {
			if request.Type != domain.RequestJoin || !request.IsValid() {
				return fmt.Errorf("protocol error: first request must be join, got %q", request.Type)
			}
			if err := u.handleJoin(request, sessionID, remote); err != nil {
				return fmt.Errorf("join failed: %w", err)
			}
			joined = true
			continue
		}

		if request.Type == domain.RequestChat {
			if err := u.handleChat(ctx, sessionID, request.Content); err != nil {
				// A single bad message must not kill the session.
				log.Printf("session %s: chat error: %v", sessionID, err)
			}
		}
	}

	if joined {
		u.handleClose(sessionID)
	}
	return nil
}

func (u *ChatUsecase) handleJoin(request domain.Request, sessionID, remote string) error {
	name := strings.TrimSpace(request.DisplayName)
	if name == "" {
		name = remote
	}

	if err := u.repo.AppendActivityLog(name, domain.ActionLogin, remote); err != nil {
		log.Printf("session %s: failed to append login log: %v", sessionID, err)
	}

	room, err := u.repo.GetOrCreateRoom(request.Room)
	if err != nil {
		return fmt.Errorf("failed to get or create room %q: %w", request.Room, err)
	}

	session := domain.NewSession(sessionID, name, request.Room, room.ID, remote)
	u.registry.Join(session)

	u.replayHistory(session)

	u.registry.Broadcast(session.Room, domain.NewSystemEvent(fmt.Sprintf("%s 加入了 %s", name, session.Room)))
	if err := u.repo.AppendActivityLog(name, domain.ActionJoinRoom, session.Room); err != nil {
		log.Printf("session %s: failed to append join_room log: %v", sessionID, err)
	}
	u.registry.BroadcastPresence(session.Room)
	return nil
}

// replayHistory sends the room's recent persisted messages, oldest first, to
// this session only. History is tagged and never re-broadcast.
func (u *ChatUsecase) replayHistory(session domain.Session) {
	messages, err := u.repo.ListRecentMessages(session.RoomID, u.historyLimit)
	if err != nil {
		log.Printf("session %s: failed to load history for room %s: %v", session.ID, session.Room, err)
		return
	}
	for _, m := range messages {
		u.registry.SendTo(session.ID, domain.NewHistoryEvent(m.Author, m.Content, m.CreatedAt))
	}
}

func (u *ChatUsecase) handleChat(ctx context.Context, sessionID, content string) error {
	session, exists := u.registry.Session(sessionID)
	if !exists {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	if word, hit := u.matchSensitiveWord(content); hit {
		if err := u.repo.AppendWarningLog(content, session.Name, session.RoomID, word); err != nil {
			log.Printf("session %s: failed to append warning log: %v", sessionID, err)
		}
		u.registry.SendTo(sessionID, domain.NewSystemEvent("消息包含敏感词，已被拦截"))
		return nil
	}

	if err := u.repo.SaveMessage(session.RoomID, session.Name, content); err != nil {
		u.registry.SendTo(sessionID, domain.NewSystemEvent("消息发送失败，请稍后重试"))
		return fmt.Errorf("failed to save message: %w", err)
	}
	u.registry.Broadcast(session.Room, domain.NewChatEvent(session.Name, content, time.Now()))

	if err := u.repo.AppendActivityLog(session.Name, domain.ActionChat, content); err != nil {
		log.Printf("session %s: failed to append chat log: %v", sessionID, err)
	}

	u.dispatch(ctx, session, content)
	return nil
}

// matchSensitiveWord reports the first configured word contained in the
// content. A repository failure fails open: moderation never blocks chat by
// itself.
func (u *ChatUsecase) matchSensitiveWord(content string) (string, bool) {
	words, err := u.repo.ListSensitiveWords()
	if err != nil {
		log.Printf("failed to load sensitive words: %v", err)
		return "", false
	}
	for _, word := range words {
		if word != "" && strings.Contains(content, word) {
			return word, true
		}
	}
	return "", false
}

func (u *ChatUsecase) handleClose(sessionID string) {
	session, exists := u.registry.Leave(sessionID)
	if !exists {
		return
	}

	// Best effort: a failed log write must not block teardown.
	if err := u.repo.AppendActivityLog(session.Name, domain.ActionLeaveRoom, session.Room); err != nil {
		log.Printf("session %s: failed to append leave_room log: %v", sessionID, err)
	}
	if err := u.repo.AppendActivityLog(session.Name, domain.ActionLogout, ""); err != nil {
		log.Printf("session %s: failed to append logout log: %v", sessionID, err)
	}

	if u.registry.MemberCount(session.Room) > 0 {
		u.registry.Broadcast(session.Room, domain.NewSystemEvent(fmt.Sprintf("%s 离开了", session.Name)))
		u.registry.BroadcastPresence(session.Room)
	}
}

func (u *ChatUsecase) Stats() domain.RegistryStats {
	return u.registry.Stats()
}
