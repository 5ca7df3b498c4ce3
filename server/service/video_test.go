package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveEmbed(t *testing.T) {
	api := NewVideoAPI(VideoConfig{ParsingURL: "https://jx.example/?url="})
	if got := api.ResolveEmbed("https://v.example/1"); got != "https://jx.example/?url=https://v.example/1" {
		t.Errorf("ResolveEmbed() = %q", got)
	}

	bare := NewVideoAPI(VideoConfig{})
	if got := bare.ResolveEmbed("https://v.example/1"); got != "https://v.example/1" {
		t.Errorf("ResolveEmbed() without parser = %q, want passthrough", got)
	}
}

func TestFetchRandomURLFollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/random", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/video.mp4", http.StatusFound)
	})
	mux.HandleFunc("/video.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	api := NewVideoAPI(VideoConfig{Sources: []string{srv.URL + "/random"}})
	got, err := api.FetchRandomURL(context.Background())
	if err != nil {
		t.Fatalf("FetchRandomURL() error: %v", err)
	}
	if got != srv.URL+"/video.mp4" {
		t.Errorf("FetchRandomURL() = %q, want redirect target", got)
	}
}

func TestFetchRandomURLSkipsFailedSources(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/random", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/video.mp4", http.StatusFound)
	})
	mux.HandleFunc("/video.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	api := NewVideoAPI(VideoConfig{Sources: []string{
		"http://127.0.0.1:1/unreachable",
		srv.URL + "/broken",
		srv.URL + "/random",
	}})
	got, err := api.FetchRandomURL(context.Background())
	if err != nil {
		t.Fatalf("FetchRandomURL() error: %v", err)
	}
	if got != srv.URL+"/video.mp4" {
		t.Errorf("FetchRandomURL() = %q, want the working source's target", got)
	}
}

func TestFetchRandomURLFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Serves directly without redirecting, so it is not a usable source.
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	api := NewVideoAPI(VideoConfig{Sources: []string{srv.URL}})
	got, err := api.FetchRandomURL(context.Background())
	if err != nil {
		t.Fatalf("FetchRandomURL() error: %v", err)
	}
	if got != fallbackVideoURL {
		t.Errorf("FetchRandomURL() = %q, want fallback", got)
	}
}

func TestFetchRandomURLNoSources(t *testing.T) {
	api := NewVideoAPI(VideoConfig{})
	got, err := api.FetchRandomURL(context.Background())
	if err != nil {
		t.Fatalf("FetchRandomURL() error: %v", err)
	}
	if got != fallbackVideoURL {
		t.Errorf("FetchRandomURL() = %q, want fallback", got)
	}
}
