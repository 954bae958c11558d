package ai

import (
	"context"
	"strings"
	"testing"
)

func TestGenerateTitle(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  string
	}{
		{"plain title", "Rocket Engine Design Basics", nil, "Rocket Engine Design Basics"},
		{"strips quotes and period", `"Market Trends Explained."`, nil, "Market Trends Explained"},
		{"caps at five words", "One Two Three Four Five Six Seven", nil, "One Two Three Four Five"},
		{"completion failure falls back", "", ErrTimeout, "Video Insight"},
		{"blank reply falls back", "   ", nil, "Video Insight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{fn: func([]ChatMessage) (string, error) {
				return tt.reply, tt.err
			}}
			got := GenerateTitle(context.Background(), completer, "summary body")
			if got != tt.want {
				t.Fatalf("GenerateTitle = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateTitleTruncatesLongContent(t *testing.T) {
	var gotContent string
	completer := &fakeCompleter{fn: func(messages []ChatMessage) (string, error) {
		gotContent = messages[len(messages)-1].Content
		return "A Title", nil
	}}

	GenerateTitle(context.Background(), completer, strings.Repeat("a", 5000))
	if len(gotContent) != 1500 {
		t.Fatalf("content sent to the model is %d bytes, want 1500", len(gotContent))
	}
}
