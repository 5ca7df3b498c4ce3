package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ponyo877/chatroom/server/domain"
	"github.com/ponyo877/chatroom/server/usecase"
)

type MusicConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type MusicAPI struct {
	cfg    MusicConfig
	client *http.Client
}

func NewMusicAPI(cfg MusicConfig) *MusicAPI {
	if cfg.Timeout == 0 {
		cfg.Timeout = 8 * time.Second
	}
	return &MusicAPI{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type musicResponse struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data domain.Song `json:"data"`
}

func (m *MusicAPI) Fetch(ctx context.Context, mode usecase.MusicMode) (domain.Song, error) {
	if m.cfg.URL == "" {
		return domain.Song{}, fmt.Errorf("music api not configured")
	}

	// The upstream API distinguishes modes by the request phrase.
	msg := "随机播放"
	if mode == usecase.MusicGift {
		msg = "群内送歌"
	}

	form := url.Values{
		"token": {m.cfg.Token},
		"msg":   {msg},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.Song{}, fmt.Errorf("failed to build music request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return domain.Song{}, fmt.Errorf("music request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Song{}, fmt.Errorf("music api returned status %d", resp.StatusCode)
	}

	var body musicResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Song{}, fmt.Errorf("failed to decode music response: %w", err)
	}
	if body.Code != http.StatusOK {
		if body.Msg == "" {
			body.Msg = "获取音乐失败"
		}
		return domain.Song{}, fmt.Errorf("%s", body.Msg)
	}
	return body.Data, nil
}
