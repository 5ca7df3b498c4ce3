package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ponyo877/chatroom/server/domain"
)

// Chat command triggers. Matching is literal prefix comparison on the raw
// content, evaluated in route order; first match wins.
const (
	weatherCommand   = "小天气"
	musicCommand     = "小音乐"
	newsCommand      = "小新闻"
	videoCommand     = "小视频"
	musicGiftKeyword = "群内送歌"
)

type commandRoute struct {
	name   string
	match  func(content string) bool
	handle func(ctx context.Context, session domain.Session, content string)
}

func (u *ChatUsecase) buildRoutes() []commandRoute {
	return []commandRoute{
		{
			name:   "bot",
			match:  func(content string) bool { return strings.HasPrefix(content, u.botMention) },
			handle: u.handleBotMention,
		},
		{
			name:   "weather",
			match:  func(content string) bool { return strings.HasPrefix(content, weatherCommand) },
			handle: u.handleWeather,
		},
		{
			name:   "music",
			match:  func(content string) bool { return strings.HasPrefix(content, musicCommand) },
			handle: u.handleMusic,
		},
		{
			name:   "news",
			match:  func(content string) bool { return content == newsCommand },
			handle: u.handleNews,
		},
		{
			name:   "video",
			match:  func(content string) bool { return strings.HasPrefix(content, videoCommand) },
			handle: u.handleVideo,
		},
	}
}

// dispatch routes an already-broadcast chat message to at most one command
// handler. Handler failures surface as system notices, never as errors to
// the session loop.
func (u *ChatUsecase) dispatch(ctx context.Context, session domain.Session, content string) {
	for _, route := range u.commands {
		if route.match(content) {
			route.handle(ctx, session, content)
			return
		}
	}
}

func (u *ChatUsecase) botName() string {
	return strings.TrimPrefix(u.botMention, "@")
}

func (u *ChatUsecase) notifyRoom(room, message string) {
	u.registry.Broadcast(room, domain.NewSystemEvent(message))
}

// emitSpecial wraps the payload in the special envelope and delivers it.
// Payloads with a target user go to that session only and are never
// persisted; everything else is persisted authorless and broadcast.
func (u *ChatUsecase) emitSpecial(session domain.Session, payload domain.SpecialPayload) {
	content, err := domain.EncodeSpecial(payload)
	if err != nil {
		log.Printf("session %s: %v", session.ID, err)
		return
	}
	event := domain.NewChatEvent("", content, time.Now())

	if payload.TargetUser != "" {
		u.registry.SendTo(session.ID, event)
		return
	}

	if err := u.repo.SaveMessage(session.RoomID, "", content); err != nil {
		log.Printf("session %s: failed to save special message: %v", session.ID, err)
	}
	u.registry.Broadcast(session.Room, event)
}

func (u *ChatUsecase) handleBotMention(ctx context.Context, session domain.Session, content string) {
	if u.services.Bot == nil {
		u.notifyRoom(session.Room, "AI 助手未配置")
		return
	}

	query := strings.TrimSpace(strings.TrimPrefix(content, u.botMention))
	chunks, err := u.services.Bot.StreamReply(ctx, query, session.Name, session.Room)
	if err != nil {
		u.notifyRoom(session.Room, "AI 回复失败: "+err.Error())
		return
	}

	botName := u.botName()
	u.registry.Broadcast(session.Room, domain.NewStreamStartEvent(botName))

	var reply strings.Builder
	for chunk := range chunks {
		reply.WriteString(chunk)
		u.registry.Broadcast(session.Room, domain.NewStreamChunkEvent(botName, chunk))
	}
	u.registry.Broadcast(session.Room, domain.NewStreamEndEvent(botName))

	if reply.Len() > 0 {
		if err := u.repo.SaveMessage(session.RoomID, "", reply.String()); err != nil {
			log.Printf("session %s: failed to save bot reply: %v", session.ID, err)
		}
	}
}

func (u *ChatUsecase) handleWeather(ctx context.Context, session domain.Session, content string) {
	city := strings.TrimSpace(strings.TrimPrefix(content, weatherCommand))
	if city == "" {
		city = u.city
	}

	if u.services.Weather == nil {
		u.notifyRoom(session.Room, "天气接口未配置")
		return
	}

	// Progress notice only; not persisted.
	u.notifyRoom(session.Room, fmt.Sprintf("正在查询 %s 的天气...", city))

	report, err := u.services.Weather.Fetch(ctx, city)
	if err != nil {
		u.notifyRoom(session.Room, "天气查询失败: "+err.Error())
		return
	}

	u.emitSpecial(session, domain.SpecialPayload{Type: domain.SpecialWeather, Data: report})
}

func (u *ChatUsecase) handleMusic(ctx context.Context, session domain.Session, content string) {
	if u.services.Music == nil {
		u.notifyRoom(session.Room, "音乐接口未配置")
		return
	}

	mode := MusicRandom
	if strings.Contains(content, musicGiftKeyword) {
		mode = MusicGift
	}

	song, err := u.services.Music.Fetch(ctx, mode)
	if err != nil {
		if mode == MusicGift {
			u.notifyRoom(session.Room, "音乐获取失败: "+err.Error())
		} else {
			u.registry.SendTo(session.ID, domain.NewSystemEvent("音乐获取失败: "+err.Error()))
		}
		return
	}

	if mode == MusicGift {
		u.emitSpecial(session, domain.SpecialPayload{Type: domain.SpecialMusicGift, Data: song})
		return
	}
	u.emitSpecial(session, domain.SpecialPayload{
		Type:       domain.SpecialMusicPrivate,
		Data:       song,
		TargetUser: session.Name,
	})
}

func (u *ChatUsecase) handleNews(ctx context.Context, session domain.Session, _ string) {
	if u.services.News == nil {
		u.notifyRoom(session.Room, "新闻接口未配置")
		return
	}

	digest, err := u.services.News.Fetch(ctx)
	if err != nil {
		u.notifyRoom(session.Room, "新闻获取失败: "+err.Error())
		return
	}

	u.emitSpecial(session, domain.SpecialPayload{Type: domain.SpecialNewsCard, Data: digest})
}

func (u *ChatUsecase) handleVideo(ctx context.Context, session domain.Session, content string) {
	if u.services.Video == nil {
		u.notifyRoom(session.Room, "视频接口未配置")
		return
	}

	// Argument is space or colon separated: "小视频 <url>" or "小视频:<url>".
	arg := strings.TrimSpace(strings.TrimPrefix(content, videoCommand))
	arg = strings.TrimSpace(strings.TrimPrefix(arg, ":"))

	var embed domain.VideoEmbed
	if arg != "" {
		embed = domain.VideoEmbed{
			Src:         u.services.Video.ResolveEmbed(arg),
			OriginalURL: arg,
		}
	} else {
		url, err := u.services.Video.FetchRandomURL(ctx)
		if err != nil {
			u.notifyRoom(session.Room, "视频获取失败: "+err.Error())
			return
		}
		embed = domain.VideoEmbed{Src: url}
	}

	u.emitSpecial(session, domain.SpecialPayload{Type: domain.SpecialVideoEmbed, Data: embed})
}
