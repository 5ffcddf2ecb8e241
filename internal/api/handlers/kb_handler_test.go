package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/studyowl/studyowl/internal/chat"
)

func TestChatOptionsFromFormBoundsTemperature(t *testing.T) {
	defaults := chat.Options{TopK: 3, Temperature: 0, MaxTokens: 500}

	cases := []struct {
		name        string
		query       string
		wantTemp    float32
		wantChanged bool
	}{
		{"valid", "temperature=0.7", 0.7, true},
		{"lower bound", "temperature=0", 0, true},
		{"upper bound", "temperature=1", 1, true},
		{"above range ignored", "temperature=1.5", 0, false},
		{"negative ignored", "temperature=-0.2", 0, false},
		{"not a number ignored", "temperature=hot", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/kb/upload?"+tc.query, nil)
			opts, changed := chatOptionsFromForm(r, defaults)
			if changed != tc.wantChanged {
				t.Fatalf("changed = %v, want %v", changed, tc.wantChanged)
			}
			if opts.Temperature != tc.wantTemp {
				t.Fatalf("temperature = %v, want %v", opts.Temperature, tc.wantTemp)
			}
		})
	}
}

func TestChatOptionsFromFormOtherFields(t *testing.T) {
	defaults := chat.Options{TopK: 3, Temperature: 0, MaxTokens: 500}

	r := httptest.NewRequest("POST", "/api/kb/upload?top_k=5&max_tokens=800&system_prompt=be+brief", nil)
	opts, changed := chatOptionsFromForm(r, defaults)
	if !changed {
		t.Fatal("valid fields did not mark options as changed")
	}
	if opts.TopK != 5 || opts.MaxTokens != 800 || opts.SystemPrompt != "be brief" {
		t.Fatalf("options = %+v", opts)
	}

	r = httptest.NewRequest("POST", "/api/kb/upload", nil)
	if _, changed := chatOptionsFromForm(r, defaults); changed {
		t.Fatal("empty form marked options as changed")
	}
}
