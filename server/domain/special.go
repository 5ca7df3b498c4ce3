package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SpecialPrefix marks message content carrying a structured payload instead
// of plain text. The marker plus JSON travels through persistence and history
// replay unchanged.
const SpecialPrefix = "SPECIAL:"

type SpecialType string

const (
	SpecialWeather      SpecialType = "weather"
	SpecialMusicGift    SpecialType = "music_gift"
	SpecialMusicPrivate SpecialType = "music_private"
	SpecialNewsCard     SpecialType = "news_card"
	SpecialVideoEmbed   SpecialType = "video_embed"
)

// SpecialPayload is the envelope behind SpecialPrefix. Data holds the
// type-specific object; TargetUser is set only for private flows.
type SpecialPayload struct {
	Type       SpecialType `json:"type"`
	Data       any         `json:"data"`
	TargetUser string      `json:"target_user,omitempty"`
}

func IsSpecial(content string) bool {
	return strings.HasPrefix(content, SpecialPrefix)
}

// EncodeSpecial renders the payload as persistable message content.
func EncodeSpecial(p SpecialPayload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode special payload: %w", err)
	}
	return SpecialPrefix + string(b), nil
}

// DecodeSpecial parses special message content. Data decodes generically so
// callers can inspect payloads of any type.
func DecodeSpecial(content string) (SpecialPayload, error) {
	if !IsSpecial(content) {
		return SpecialPayload{}, fmt.Errorf("not a special message")
	}
	var p SpecialPayload
	if err := json.Unmarshal([]byte(strings.TrimPrefix(content, SpecialPrefix)), &p); err != nil {
		return SpecialPayload{}, fmt.Errorf("failed to decode special payload: %w", err)
	}
	return p, nil
}

// WeatherReport is the weather collaborator result carried in a
// weather-typed payload.
type WeatherReport struct {
	Condition string `json:"type"`
	City      string `json:"city"`
	Temp      string `json:"temp"`
	Wind      string `json:"wind"`
}

// Song is the music collaborator result.
type Song struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	URL    string `json:"url"`
	Cover  string `json:"cover,omitempty"`
}

type NewsItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type NewsDigest struct {
	Items []NewsItem `json:"items"`
}

// VideoEmbed carries a resolved iframe src plus the URL the user asked for.
type VideoEmbed struct {
	Src         string `json:"src"`
	OriginalURL string `json:"original_url,omitempty"`
}
