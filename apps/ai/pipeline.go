package ai

import (
	"context"
	"fmt"
	"sync"

	"github.com/getevo/evo/v2/lib/log"
)

// Routing thresholds. The defaults make the middle band unreachable, the
// band stays a defined failure so misconfiguration surfaces loudly
// instead of silently picking a path.
const (
	DefaultSmallThreshold = 120000
	DefaultChunkThreshold = 12000
)

// Route is the pipeline path chosen for a transcript
type Route int

const (
	RouteSinglePass Route = iota + 1
	RouteChunked
)

func (r Route) String() string {
	switch r {
	case RouteSinglePass:
		return "single_pass"
	case RouteChunked:
		return "chunked"
	default:
		return "unknown"
	}
}

// RoutingError reports a transcript that fits neither path
type RoutingError struct {
	Words          int
	SmallThreshold int
	ChunkThreshold int
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("no route for transcript of %d words (small < %d, chunked > %d)", e.Words, e.SmallThreshold, e.ChunkThreshold)
}

// TotalFailureError means every chunk call failed
type TotalFailureError struct {
	Chunks  int
	LastErr error
}

func (e *TotalFailureError) Error() string {
	return fmt.Sprintf("all %d chunk calls failed: %v", e.Chunks, e.LastErr)
}

func (e *TotalFailureError) Unwrap() error { return e.LastErr }

// ReduceFailureError means the final synthesis call failed after the
// chunk calls had succeeded
type ReduceFailureError struct {
	Err error
}

func (e *ReduceFailureError) Error() string {
	return fmt.Sprintf("reduce call failed: %v", e.Err)
}

func (e *ReduceFailureError) Unwrap() error { return e.Err }

// ProgressEvent reports pipeline progress, published to the live feed
// during chunked passes
type ProgressEvent struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Stage          string `json:"stage"` // routing, chunk_completed, chunk_failed, reduce, done
	Route          string `json:"route,omitempty"`
	ChunkIndex     int    `json:"chunk_index,omitempty"`
	ChunksTotal    int    `json:"chunks_total,omitempty"`
	ChunksDone     int    `json:"chunks_done,omitempty"`
	ChunksFailed   int    `json:"chunks_failed,omitempty"`
}

// Result carries the answer plus partial-failure accounting. UserMessage
// is the user-side text the exchange should be recorded under: the
// composed transcript+question prompt on the single-pass path, where the
// whole exchange lives in the history, and the bare question on the
// chunked path, where chunk calls are stateless.
type Result struct {
	Answer       string `json:"answer"`
	UserMessage  string `json:"-"`
	Route        Route  `json:"-"`
	ChunksTotal  int    `json:"chunks_total,omitempty"`
	ChunksFailed int    `json:"chunks_failed,omitempty"`
}

// PipelineConfig tunes a pipeline, zero values take the defaults
type PipelineConfig struct {
	SmallThreshold int
	ChunkThreshold int
	ChunkWords     int
	Progress       func(ProgressEvent)
}

// Pipeline routes a transcript to a single LLM call or a concurrent
// chunked map-reduce depending on its word count
type Pipeline struct {
	completer      Completer
	smallThreshold int
	chunkThreshold int
	chunkWords     int
	progress       func(ProgressEvent)
}

// NewPipeline builds a pipeline around a Completer
func NewPipeline(completer Completer, config PipelineConfig) *Pipeline {
	if config.SmallThreshold <= 0 {
		config.SmallThreshold = DefaultSmallThreshold
	}
	if config.ChunkThreshold <= 0 {
		config.ChunkThreshold = DefaultChunkThreshold
	}
	if config.ChunkWords <= 0 {
		config.ChunkWords = DefaultChunkWords
	}
	return &Pipeline{
		completer:      completer,
		smallThreshold: config.SmallThreshold,
		chunkThreshold: config.ChunkThreshold,
		chunkWords:     config.ChunkWords,
		progress:       config.Progress,
	}
}

// Route decides the path for a transcript of the given word count
func (p *Pipeline) Route(words int) (Route, error) {
	if words < p.smallThreshold {
		return RouteSinglePass, nil
	}
	if words > p.chunkThreshold {
		return RouteChunked, nil
	}
	return 0, &RoutingError{Words: words, SmallThreshold: p.smallThreshold, ChunkThreshold: p.chunkThreshold}
}

func (p *Pipeline) emit(event ProgressEvent) {
	if p.progress != nil {
		p.progress(event)
	}
}

// Summarize answers a question about a transcript. history carries prior
// conversation messages and is only used on the single-pass path, chunk
// calls are stateless by design.
func (p *Pipeline) Summarize(ctx context.Context, conversationID, transcript, question string, history []ChatMessage, opts Options) (*Result, error) {
	words := CountWords(transcript)
	route, err := p.Route(words)
	if err != nil {
		return nil, err
	}

	instructions := BuildInstructions(opts)
	p.emit(ProgressEvent{ConversationID: conversationID, Stage: "routing", Route: route.String()})

	switch route {
	case RouteSinglePass:
		return p.singlePass(ctx, transcript, question, history, instructions)
	default:
		return p.chunkedPass(ctx, conversationID, transcript, question, instructions)
	}
}

func (p *Pipeline) singlePass(ctx context.Context, transcript, question string, history []ChatMessage, instructions string) (*Result, error) {
	prompt := BuildSinglePassPrompt(transcript, question, instructions)

	messages := make([]ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, ChatMessage{Role: "user", Content: prompt})

	answer, err := p.completer.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	return &Result{Answer: answer, UserMessage: prompt, Route: RouteSinglePass}, nil
}

func (p *Pipeline) chunkedPass(ctx context.Context, conversationID, transcript, question, instructions string) (*Result, error) {
	chunks := Split(transcript, p.chunkWords)
	total := len(chunks)

	// cancel the remaining in-flight calls as soon as the caller gives up
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type chunkResult struct {
		index   int
		extract string
		err     error
	}

	results := make(chan chunkResult, total)
	var wg sync.WaitGroup

	for _, chunk := range chunks {
		wg.Add(1)
		go func(chunk Chunk) {
			defer wg.Done()

			prompt, err := BuildChunkPrompt(chunk, total, question, instructions)
			if err != nil {
				results <- chunkResult{index: chunk.Index, err: err}
				return
			}

			extract, err := p.completer.Complete(callCtx, []ChatMessage{
				{Role: "system", Content: "You extract the relevant information from one part of a video transcript."},
				{Role: "user", Content: prompt},
			})
			results <- chunkResult{index: chunk.Index, extract: extract, err: err}
		}(chunk)
	}

	wg.Wait()
	close(results)

	extracts := make([]string, total)
	var failed int
	var lastErr error
	var done int

	for result := range results {
		if result.err != nil {
			failed++
			lastErr = result.err
			log.Warning("chunk %d/%d failed: %v", result.index+1, total, result.err)
			p.emit(ProgressEvent{ConversationID: conversationID, Stage: "chunk_failed", ChunkIndex: result.index, ChunksTotal: total, ChunksFailed: failed})
			continue
		}
		done++
		extracts[result.index] = result.extract
		p.emit(ProgressEvent{ConversationID: conversationID, Stage: "chunk_completed", ChunkIndex: result.index, ChunksTotal: total, ChunksDone: done})
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if failed == total {
		return nil, &TotalFailureError{Chunks: total, LastErr: lastErr}
	}

	// drop failed slots, keep index order
	surviving := make([]string, 0, total-failed)
	for _, extract := range extracts {
		if extract != "" {
			surviving = append(surviving, extract)
		}
	}

	p.emit(ProgressEvent{ConversationID: conversationID, Stage: "reduce", ChunksTotal: total, ChunksFailed: failed})

	reducePrompt, err := BuildReducePrompt(surviving, question, instructions)
	if err != nil {
		return nil, &ReduceFailureError{Err: err}
	}

	answer, err := p.completer.Complete(ctx, []ChatMessage{
		{Role: "system", Content: "You combine transcript extracts into one coherent answer."},
		{Role: "user", Content: reducePrompt},
	})
	if err != nil {
		return nil, &ReduceFailureError{Err: err}
	}

	p.emit(ProgressEvent{ConversationID: conversationID, Stage: "done", ChunksTotal: total, ChunksFailed: failed})

	return &Result{
		Answer:       answer,
		UserMessage:  question,
		Route:        RouteChunked,
		ChunksTotal:  total,
		ChunksFailed: failed,
	}, nil
}
