package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ponyo877/chatroom/server/domain"
)

const defaultNewsURL = "https://news.topurl.cn/api?count=20"

type NewsConfig struct {
	URL     string
	Timeout time.Duration
}

type NewsAPI struct {
	cfg    NewsConfig
	client *http.Client
}

func NewNewsAPI(cfg NewsConfig) *NewsAPI {
	if cfg.URL == "" {
		cfg.URL = defaultNewsURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &NewsAPI{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type newsResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		NewsList []domain.NewsItem `json:"newsList"`
	} `json:"data"`
}

func (n *NewsAPI) Fetch(ctx context.Context) (domain.NewsDigest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.cfg.URL, nil)
	if err != nil {
		return domain.NewsDigest{}, fmt.Errorf("failed to build news request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return domain.NewsDigest{}, fmt.Errorf("news request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewsDigest{}, fmt.Errorf("news api returned status %d", resp.StatusCode)
	}

	var body newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.NewsDigest{}, fmt.Errorf("failed to decode news response: %w", err)
	}
	if body.Code != http.StatusOK {
		if body.Msg == "" {
			body.Msg = "获取新闻失败"
		}
		return domain.NewsDigest{}, fmt.Errorf("%s", body.Msg)
	}
	return domain.NewsDigest{Items: body.Data.NewsList}, nil
}
