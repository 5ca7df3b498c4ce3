package service

import (
	"context"
	"log"
	"net/http"
	"time"
)

// fallbackVideoURL is served when every configured random-video source
// fails.
const fallbackVideoURL = "https://www.w3schools.com/html/mov_bbb.mp4"

type VideoConfig struct {
	// ParsingURL is prefixed onto user-supplied video URLs to build the
	// embeddable player src.
	ParsingURL string
	// Sources are random-video endpoints tried in priority order; each is
	// expected to redirect to a playable URL.
	Sources []string
	Timeout time.Duration
}

type VideoAPI struct {
	cfg    VideoConfig
	client *http.Client
}

func NewVideoAPI(cfg VideoConfig) *VideoAPI {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &VideoAPI{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (v *VideoAPI) ResolveEmbed(url string) string {
	if v.cfg.ParsingURL == "" {
		return url
	}
	return v.cfg.ParsingURL + url
}

// FetchRandomURL walks the source list in order and returns the first
// playable URL, falling back to the hardcoded default when all sources fail.
func (v *VideoAPI) FetchRandomURL(ctx context.Context) (string, error) {
	for _, source := range v.cfg.Sources {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			log.Printf("video source %s: bad url: %v", source, err)
			continue
		}
		resp, err := v.client.Do(req)
		if err != nil {
			log.Printf("video source %s failed: %v", source, err)
			continue
		}
		final := resp.Request.URL.String()
		resp.Body.Close()

		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusBadRequest && final != source {
			return final, nil
		}
	}
	return fallbackVideoURL, nil
}
