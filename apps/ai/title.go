package ai

import (
	"context"
	"strings"
)

// GenerateTitle asks the model for a three to five word title describing
// the given content. Falls back to a generic title on any failure so
// saving never breaks on a cosmetic call.
func GenerateTitle(ctx context.Context, completer Completer, content string) string {
	// the opening of the summary carries enough signal
	if len(content) > 1500 {
		content = content[:1500]
	}

	title, err := completer.Complete(ctx, []ChatMessage{
		{Role: "system", Content: titlePrompt},
		{Role: "user", Content: content},
	})
	if err != nil {
		return "Video Insight"
	}

	title = strings.TrimSpace(title)
	title = strings.Trim(title, "\"'“”")
	title = strings.TrimSuffix(title, ".")
	if title == "" {
		return "Video Insight"
	}

	// keep it to five words even if the model rambles
	words := strings.Fields(title)
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}
