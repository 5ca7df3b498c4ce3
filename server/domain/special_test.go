package domain

import (
	"strings"
	"testing"
)

func TestIsSpecial(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{`SPECIAL:{"type":"weather"}`, true},
		{"SPECIAL:", true},
		{"hello", false},
		{" SPECIAL:{}", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSpecial(tt.content); got != tt.want {
			t.Errorf("IsSpecial(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestEncodeDecodeSpecial(t *testing.T) {
	encoded, err := EncodeSpecial(SpecialPayload{
		Type: SpecialVideoEmbed,
		Data: VideoEmbed{Src: "https://example.com/embed?url=v", OriginalURL: "v"},
	})
	if err != nil {
		t.Fatalf("EncodeSpecial() error: %v", err)
	}
	if !strings.HasPrefix(encoded, SpecialPrefix) {
		t.Fatalf("encoded content %q lacks prefix", encoded)
	}

	decoded, err := DecodeSpecial(encoded)
	if err != nil {
		t.Fatalf("DecodeSpecial() error: %v", err)
	}
	if decoded.Type != SpecialVideoEmbed {
		t.Errorf("Type = %q, want %q", decoded.Type, SpecialVideoEmbed)
	}
	data, ok := decoded.Data.(map[string]any)
	if !ok {
		t.Fatalf("Data = %T, want map", decoded.Data)
	}
	if src := data["src"]; src != "https://example.com/embed?url=v" {
		t.Errorf("data.src = %v, want embed URL", src)
	}
}

func TestEncodeSpecialTargetUser(t *testing.T) {
	withTarget, err := EncodeSpecial(SpecialPayload{
		Type:       SpecialMusicPrivate,
		Data:       Song{Name: "n", Artist: "a", URL: "u"},
		TargetUser: "alice",
	})
	if err != nil {
		t.Fatalf("EncodeSpecial() error: %v", err)
	}
	if !strings.Contains(withTarget, `"target_user":"alice"`) {
		t.Errorf("encoded %q missing target_user", withTarget)
	}

	withoutTarget, err := EncodeSpecial(SpecialPayload{
		Type: SpecialMusicGift,
		Data: Song{Name: "n", Artist: "a", URL: "u"},
	})
	if err != nil {
		t.Fatalf("EncodeSpecial() error: %v", err)
	}
	if strings.Contains(withoutTarget, "target_user") {
		t.Errorf("encoded %q should omit empty target_user", withoutTarget)
	}
}

func TestDecodeSpecialErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"plain text", "just a chat message"},
		{"malformed json", "SPECIAL:{not json"},
		{"empty payload", "SPECIAL:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeSpecial(tt.content); err == nil {
				t.Errorf("DecodeSpecial(%q) succeeded, want error", tt.content)
			}
		})
	}
}
