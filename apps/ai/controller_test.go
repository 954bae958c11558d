package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vidbriefs/vidbriefs-backend/apps/conversation"
	"github.com/vidbriefs/vidbriefs-backend/lib/kv"
)

func TestSinglePassRecordsTranscriptInHistory(t *testing.T) {
	completer := &fakeCompleter{fn: func(messages []ChatMessage) (string, error) {
		return "the summary", nil
	}}
	pipeline := testPipeline(completer, nil)
	store := conversation.NewStore(kv.NewMemory())
	conv := store.Create("install-1", "https://youtu.be/abc")

	transcriptText := "five words of transcript text"
	result, err := summarizeIntoConversation(context.Background(), pipeline, store, conv, transcriptText, "what is it about?", Options{})
	if err != nil {
		t.Fatalf("summarizeIntoConversation: %v", err)
	}
	if result.Route != RouteSinglePass {
		t.Fatalf("route = %s, want single_pass", result.Route)
	}

	// the seeded persona must reach the LLM call
	call := completer.calls[0]
	if call[0].Role != conversation.RoleSystem || call[0].Content != conversation.DefaultPersona {
		t.Fatalf("first message of the LLM call should be the seeded persona, got %+v", call[0])
	}

	history, _ := store.History(conv.ID)
	wantRoles := []string{conversation.RoleSystem, conversation.RoleUser, conversation.RoleAssistant}
	if len(history) != len(wantRoles) {
		t.Fatalf("history holds %d messages, want %d", len(history), len(wantRoles))
	}
	userMessage := history[1]
	if !strings.Contains(userMessage.Content, transcriptText) {
		t.Fatalf("the stored user message should carry the transcript")
	}
	if !strings.Contains(userMessage.Content, "what is it about?") {
		t.Fatalf("the stored user message should carry the question")
	}
	if history[2].Content != "the summary" {
		t.Fatalf("the stored assistant message should carry the answer")
	}
}

func TestFollowUpHistoryCarriesTranscript(t *testing.T) {
	completer := &fakeCompleter{fn: func(messages []ChatMessage) (string, error) {
		return "the summary", nil
	}}
	pipeline := testPipeline(completer, nil)
	store := conversation.NewStore(kv.NewMemory())
	conv := store.Create("install-1", "https://youtu.be/abc")

	transcriptText := "the speaker explains rocket engines"
	if _, err := summarizeIntoConversation(context.Background(), pipeline, store, conv, transcriptText, "q", Options{}); err != nil {
		t.Fatalf("summarizeIntoConversation: %v", err)
	}

	// a follow-up sends the stored history, which must ground the model
	// in the video content
	history, _ := store.History(conv.ID)
	messages := toChatMessages(history)
	var found bool
	for _, message := range messages {
		if strings.Contains(message.Content, transcriptText) {
			found = true
		}
	}
	if !found {
		t.Fatalf("the follow-up history should contain the transcript")
	}
}

func TestChunkedPassStoresQuestionOnly(t *testing.T) {
	completer := &fakeCompleter{fn: func(messages []ChatMessage) (string, error) {
		if isReduceCall(messages) {
			return "combined answer", nil
		}
		return "extract", nil
	}}
	pipeline := testPipeline(completer, nil)
	store := conversation.NewStore(kv.NewMemory())
	conv := store.Create("install-1", "https://youtu.be/abc")

	result, err := summarizeIntoConversation(context.Background(), pipeline, store, conv, words(50), "what happened?", Options{})
	if err != nil {
		t.Fatalf("summarizeIntoConversation: %v", err)
	}
	if result.Route != RouteChunked {
		t.Fatalf("route = %s, want chunked", result.Route)
	}

	history, _ := store.History(conv.ID)
	if len(history) != 3 {
		t.Fatalf("history holds %d messages, want 3", len(history))
	}
	if history[1].Content != "what happened?" {
		t.Fatalf("the chunked path should store the bare question, got %q", history[1].Content)
	}
}

func TestFailedSummarizeLeavesNoTrace(t *testing.T) {
	completer := &fakeCompleter{fn: func(messages []ChatMessage) (string, error) {
		return "", ErrUnauthorized
	}}
	pipeline := testPipeline(completer, nil)
	backend := kv.NewMemory()
	store := conversation.NewStore(backend)
	conv := store.Create("install-1", "https://youtu.be/abc")

	_, err := summarizeIntoConversation(context.Background(), pipeline, store, conv, "five words of transcript text", "q", Options{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if _, ok := store.Get(conv.ID); ok {
		t.Fatalf("a failed request should remove the conversation")
	}
	if _, err := backend.Get("conversation:" + conv.ID); err != kv.ErrNotFound {
		t.Fatalf("a failed request should leave no persisted conversation, got %v", err)
	}
	if list := store.ListByInstallation("install-1"); len(list) != 0 {
		t.Fatalf("a failed request should leave no listed conversation, got %d", len(list))
	}
}
