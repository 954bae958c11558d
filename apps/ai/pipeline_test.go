package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeCompleter scripts completion behavior per call and records every
// request it receives.
type fakeCompleter struct {
	mu    sync.Mutex
	calls [][]ChatMessage
	fn    func(messages []ChatMessage) (string, error)
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	f.mu.Unlock()
	return f.fn(messages)
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func userContent(messages []ChatMessage) string {
	for _, m := range messages {
		if m.Role == "user" {
			return m.Content
		}
	}
	return ""
}

func isReduceCall(messages []ChatMessage) bool {
	return strings.Contains(userContent(messages), "extracts from consecutive parts")
}

// testPipeline builds a pipeline with small thresholds: under 10 words is a
// single pass, over 20 words is chunked in slices of 25, and the 10..20 band
// has no route.
func testPipeline(completer Completer, progress func(ProgressEvent)) *Pipeline {
	return NewPipeline(completer, PipelineConfig{
		SmallThreshold: 10,
		ChunkThreshold: 20,
		ChunkWords:     25,
		Progress:       progress,
	})
}

func TestSummarizeSinglePass(t *testing.T) {
	completer := &fakeCompleter{fn: func(messages []ChatMessage) (string, error) {
		return "the answer", nil
	}}
	pipeline := testPipeline(completer, nil)

	history := []ChatMessage{{Role: "system", Content: "persona"}}
	result, err := pipeline.Summarize(context.Background(), "c1", "five words of transcript text", "what is it about?", history, Options{})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if result.Answer != "the answer" {
		t.Fatalf("answer = %q", result.Answer)
	}
	if result.Route != RouteSinglePass {
		t.Fatalf("route = %s, want single_pass", result.Route)
	}
	if completer.callCount() != 1 {
		t.Fatalf("expected exactly one completion call, got %d", completer.callCount())
	}

	messages := completer.calls[0]
	if messages[0].Role != "system" || messages[0].Content != "persona" {
		t.Fatalf("history should precede the user message, got %+v", messages[0])
	}
	prompt := messages[len(messages)-1].Content
	if !strings.Contains(prompt, "five words of transcript text") {
		t.Fatalf("single-pass prompt should carry the full transcript")
	}
	if !strings.Contains(prompt, "what is it about?") {
		t.Fatalf("single-pass prompt should carry the question")
	}
	if result.UserMessage != prompt {
		t.Fatalf("single-pass UserMessage should be the composed prompt")
	}
}

func TestSummarizeChunkedFansOutAndReduces(t *testing.T) {
	completer := &fakeCompleter{}
	completer.fn = func(messages []ChatMessage) (string, error) {
		content := userContent(messages)
		if isReduceCall(messages) {
			return "combined answer", nil
		}
		if strings.Contains(content, "alpha") {
			return "EXTRACT-ALPHA", nil
		}
		return "EXTRACT-BRAVO", nil
	}
	pipeline := testPipeline(completer, nil)

	transcript := strings.Repeat("alpha ", 25) + strings.Repeat("bravo ", 25)
	result, err := pipeline.Summarize(context.Background(), "c1", transcript, "q", nil, Options{})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if result.Route != RouteChunked {
		t.Fatalf("route = %s, want chunked", result.Route)
	}
	if result.Answer != "combined answer" {
		t.Fatalf("answer = %q", result.Answer)
	}
	if result.ChunksTotal != 2 || result.ChunksFailed != 0 {
		t.Fatalf("chunks total/failed = %d/%d, want 2/0", result.ChunksTotal, result.ChunksFailed)
	}
	if result.UserMessage != "q" {
		t.Fatalf("chunked UserMessage should be the bare question, got %q", result.UserMessage)
	}
	// two chunk calls plus the reduce call
	if completer.callCount() != 3 {
		t.Fatalf("expected 3 completion calls, got %d", completer.callCount())
	}
}

func TestSummarizeReduceKeepsExtractOrder(t *testing.T) {
	var reducePrompt string
	completer := &fakeCompleter{}
	completer.fn = func(messages []ChatMessage) (string, error) {
		content := userContent(messages)
		if isReduceCall(messages) {
			reducePrompt = content
			return "combined", nil
		}
		// the first chunk finishes after the second
		if strings.Contains(content, "alpha") {
			time.Sleep(30 * time.Millisecond)
			return "EXTRACT-ALPHA", nil
		}
		return "EXTRACT-BRAVO", nil
	}
	pipeline := testPipeline(completer, nil)

	transcript := strings.Repeat("alpha ", 25) + strings.Repeat("bravo ", 25)
	if _, err := pipeline.Summarize(context.Background(), "c1", transcript, "q", nil, Options{}); err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	first := strings.Index(reducePrompt, "EXTRACT-ALPHA")
	second := strings.Index(reducePrompt, "EXTRACT-BRAVO")
	if first < 0 || second < 0 {
		t.Fatalf("reduce prompt is missing extracts: %q", reducePrompt)
	}
	if first > second {
		t.Fatalf("extracts are out of transcript order in the reduce prompt")
	}
}

func TestSummarizeRoutingErrorBand(t *testing.T) {
	completer := &fakeCompleter{fn: func([]ChatMessage) (string, error) {
		t.Error("no completion call expected for an unroutable transcript")
		return "", nil
	}}
	pipeline := testPipeline(completer, nil)

	_, err := pipeline.Summarize(context.Background(), "c1", words(15), "q", nil, Options{})

	var routingErr *RoutingError
	if !errors.As(err, &routingErr) {
		t.Fatalf("expected RoutingError, got %v", err)
	}
	if routingErr.Words != 15 {
		t.Fatalf("RoutingError.Words = %d, want 15", routingErr.Words)
	}
}

func TestSummarizeTotalFailure(t *testing.T) {
	completer := &fakeCompleter{fn: func(messages []ChatMessage) (string, error) {
		if isReduceCall(messages) {
			t.Error("reduce must not run when every chunk failed")
		}
		return "", ErrUnauthorized
	}}
	pipeline := testPipeline(completer, nil)

	_, err := pipeline.Summarize(context.Background(), "c1", words(50), "q", nil, Options{})

	var totalErr *TotalFailureError
	if !errors.As(err, &totalErr) {
		t.Fatalf("expected TotalFailureError, got %v", err)
	}
	if totalErr.Chunks != 2 {
		t.Fatalf("TotalFailureError.Chunks = %d, want 2", totalErr.Chunks)
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("total failure should unwrap to the underlying chunk error")
	}
}

func TestSummarizeSurvivesPartialChunkFailure(t *testing.T) {
	var reducePrompt string
	completer := &fakeCompleter{}
	completer.fn = func(messages []ChatMessage) (string, error) {
		content := userContent(messages)
		if isReduceCall(messages) {
			reducePrompt = content
			return "partial answer", nil
		}
		if strings.Contains(content, "alpha") {
			return "", ErrTimeout
		}
		return "EXTRACT-BRAVO", nil
	}
	pipeline := testPipeline(completer, nil)

	transcript := strings.Repeat("alpha ", 25) + strings.Repeat("bravo ", 25)
	result, err := pipeline.Summarize(context.Background(), "c1", transcript, "q", nil, Options{})
	if err != nil {
		t.Fatalf("one failed chunk out of two should not fail the pipeline: %v", err)
	}

	if result.ChunksTotal != 2 || result.ChunksFailed != 1 {
		t.Fatalf("chunks total/failed = %d/%d, want 2/1", result.ChunksTotal, result.ChunksFailed)
	}
	if strings.Contains(reducePrompt, "EXTRACT-ALPHA") {
		t.Fatalf("reduce prompt should not contain the failed chunk's extract")
	}
	if !strings.Contains(reducePrompt, "EXTRACT-BRAVO") {
		t.Fatalf("reduce prompt should contain the surviving extract")
	}
}

func TestSummarizeReduceFailure(t *testing.T) {
	completer := &fakeCompleter{fn: func(messages []ChatMessage) (string, error) {
		if isReduceCall(messages) {
			return "", ErrMalformedResponse
		}
		return "extract", nil
	}}
	pipeline := testPipeline(completer, nil)

	_, err := pipeline.Summarize(context.Background(), "c1", words(50), "q", nil, Options{})

	var reduceErr *ReduceFailureError
	if !errors.As(err, &reduceErr) {
		t.Fatalf("expected ReduceFailureError, got %v", err)
	}
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("reduce failure should unwrap to the underlying error")
	}
}

func TestSummarizeEmitsProgress(t *testing.T) {
	var mu sync.Mutex
	var stages []string
	progress := func(event ProgressEvent) {
		mu.Lock()
		stages = append(stages, event.Stage)
		mu.Unlock()
	}

	completer := &fakeCompleter{fn: func(messages []ChatMessage) (string, error) {
		return "ok", nil
	}}
	pipeline := testPipeline(completer, progress)

	if _, err := pipeline.Summarize(context.Background(), "c1", words(50), "q", nil, Options{}); err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	counts := make(map[string]int)
	for _, stage := range stages {
		counts[stage]++
	}
	if counts["routing"] != 1 {
		t.Fatalf("expected one routing event, got %d", counts["routing"])
	}
	if counts["chunk_completed"] != 2 {
		t.Fatalf("expected two chunk_completed events, got %d", counts["chunk_completed"])
	}
	if counts["reduce"] != 1 || counts["done"] != 1 {
		t.Fatalf("expected one reduce and one done event, got %d/%d", counts["reduce"], counts["done"])
	}
}
