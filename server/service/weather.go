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
)

type WeatherConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type WeatherAPI struct {
	cfg    WeatherConfig
	client *http.Client
}

func NewWeatherAPI(cfg WeatherConfig) *WeatherAPI {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &WeatherAPI{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type weatherResponse struct {
	Code int                  `json:"code"`
	Msg  string               `json:"msg"`
	Data domain.WeatherReport `json:"data"`
}

func (w *WeatherAPI) Fetch(ctx context.Context, city string) (domain.WeatherReport, error) {
	if w.cfg.URL == "" {
		return domain.WeatherReport{}, fmt.Errorf("weather api not configured")
	}

	form := url.Values{
		"token": {w.cfg.Token},
		"msg":   {city},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.WeatherReport{}, fmt.Errorf("failed to build weather request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := w.client.Do(req)
	if err != nil {
		return domain.WeatherReport{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.WeatherReport{}, fmt.Errorf("weather api returned status %d", resp.StatusCode)
	}

	var body weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.WeatherReport{}, fmt.Errorf("failed to decode weather response: %w", err)
	}
	if body.Code != http.StatusOK {
		if body.Msg == "" {
			body.Msg = "获取天气失败"
		}
		return domain.WeatherReport{}, fmt.Errorf("%s", body.Msg)
	}

	report := body.Data
	if report.City == "" {
		report.City = city
	}
	return report, nil
}
