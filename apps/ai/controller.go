package ai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/go-playground/validator/v10"
	"github.com/vidbriefs/vidbriefs-backend/apps/auth"
	"github.com/vidbriefs/vidbriefs-backend/apps/conversation"
	"github.com/vidbriefs/vidbriefs-backend/apps/transcript"
	"github.com/vidbriefs/vidbriefs-backend/lib/response"
)

type Controller struct {
}

var validate = validator.New()

// DefaultQuestion is used when the caller asks for insights without a
// specific question
const DefaultQuestion = "Summarize the key insights of this video."

// InsightRequest is the payload for creating an insight
type InsightRequest struct {
	URL           string  `json:"url" validate:"required,url"`
	Question      string  `json:"question" validate:"max=2000"`
	Customization Options `json:"customization"`
}

// InsightResponse returns the generated answer and the conversation that
// now carries it
type InsightResponse struct {
	ConversationID string `json:"conversation_id"`
	Secret         string `json:"secret"`
	Title          string `json:"title"`
	Answer         string `json:"answer"`
	ChunksTotal    int    `json:"chunks_total,omitempty"`
	ChunksFailed   int    `json:"chunks_failed,omitempty"`
}

// FollowUpRequest is a follow-up question on an existing conversation
type FollowUpRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

// FollowUpResponse carries the assistant's answer
type FollowUpResponse struct {
	ConversationID string `json:"conversation_id"`
	Answer         string `json:"answer"`
}

// CreateInsightHandler handles POST /api/insights: fetch the transcript,
// route it through the summarization pipeline and record the exchange in
// a fresh conversation.
func (c Controller) CreateInsightHandler(request *evo.Request) any {
	installation, appErr := auth.Identify(request)
	if appErr != nil {
		return response.Error(*appErr)
	}

	if !installation.TermsAccepted() {
		return response.Error(response.ErrTermsNotAccepted)
	}

	var input InsightRequest
	if err := request.BodyParser(&input); err != nil {
		return response.Error(response.ErrInvalidInput)
	}
	if err := validate.Struct(input); err != nil {
		return response.Error(response.NewErrorWithDetails(response.ErrorCodeValidationError, "Invalid insight request", 400, err.Error()))
	}
	if input.Question == "" {
		input.Question = DefaultQuestion
	}

	identity := installation.ID.String()

	ctx, cancel := context.WithTimeout(context.Background(), requestBudget())
	defer cancel()

	allowed, err := ActivePolicy().IsAllowed(ctx, identity)
	if err != nil {
		log.Error("rate limit check failed for %s: %v", identity, err)
		return response.Error(response.ErrInternalError)
	}
	if !allowed {
		return response.Error(response.ErrRateLimited)
	}

	// the request counts once it is admitted, even if the pipeline
	// later fails, so retry storms cannot bypass the quota
	if err := ActivePolicy().RecordRequest(ctx, identity); err != nil {
		log.Warning("failed to record request for %s: %v", identity, err)
	}

	text, err := transcript.Default.Get(ctx, input.URL)
	if err != nil {
		var fetchErr *transcript.FetchError
		if errors.As(err, &fetchErr) {
			return response.Error(response.ErrFetchFailed(fetchErr.Reason))
		}
		return response.Error(response.ErrFetchFailed(err.Error()))
	}

	if input.Customization.Language == "" {
		input.Customization.Language = DetectLanguage(text)
	}

	conv := conversation.Default.Create(identity, input.URL)

	result, err := summarizeIntoConversation(ctx, Engine(), conversation.Default, conv, text, input.Question, input.Customization)
	if err != nil {
		return response.Error(mapPipelineError(err))
	}

	title := GenerateTitle(ctx, DefaultCompleter(), result.Answer)
	conversation.Default.SetTitle(conv.ID, title)

	return response.Created(InsightResponse{
		ConversationID: conv.ID,
		Secret:         conv.Secret,
		Title:          title,
		Answer:         result.Answer,
		ChunksTotal:    result.ChunksTotal,
		ChunksFailed:   result.ChunksFailed,
	})
}

// FollowUpHandler handles POST /api/insights/:conversation/messages: one
// LLM call with the full history, both sides appended and persisted.
func (c Controller) FollowUpHandler(request *evo.Request) any {
	installation, appErr := auth.Identify(request)
	if appErr != nil {
		return response.Error(*appErr)
	}

	conversationID := request.Param("conversation").String()
	conv, ok := conversation.Default.Get(conversationID)
	if !ok || conv.InstallationID != installation.ID.String() {
		return response.Error(response.ErrConversationNotFound)
	}

	var input FollowUpRequest
	if err := request.BodyParser(&input); err != nil {
		return response.Error(response.ErrInvalidInput)
	}
	if err := validate.Struct(input); err != nil {
		return response.Error(response.NewErrorWithDetails(response.ErrorCodeValidationError, "Invalid follow-up request", 400, err.Error()))
	}

	history, _ := conversation.Default.History(conversationID)
	messages := append(toChatMessages(history), ChatMessage{Role: "user", Content: input.Question})

	ctx, cancel := context.WithTimeout(context.Background(), requestBudget())
	defer cancel()

	answer, err := DefaultCompleter().Complete(ctx, messages)
	if err != nil {
		return response.Error(mapPipelineError(err))
	}

	conversation.Default.AppendUser(conversationID, input.Question)
	conversation.Default.AppendAssistant(conversationID, answer)

	return response.OK(FollowUpResponse{
		ConversationID: conversationID,
		Answer:         answer,
	})
}

// summarizeIntoConversation runs the pipeline over the conversation's
// stored history and records the exchange. The single-pass path stores the
// composed transcript+question user message, so follow-up calls carry the
// transcript; the chunked path stores the question alone, since its
// transcript never fits a history. A failed pipeline removes the
// conversation so the store keeps no trace of the request.
func summarizeIntoConversation(ctx context.Context, pipeline *Pipeline, store *conversation.Store, conv *conversation.Conversation, transcriptText, question string, opts Options) (*Result, error) {
	history, _ := store.History(conv.ID)

	result, err := pipeline.Summarize(ctx, conv.ID, transcriptText, question, toChatMessages(history), opts)
	if err != nil {
		store.Clear(conv.ID)
		return nil, err
	}

	store.AppendUser(conv.ID, result.UserMessage)
	store.AppendAssistant(conv.ID, result.Answer)
	return result, nil
}

func toChatMessages(history []conversation.Message) []ChatMessage {
	messages := make([]ChatMessage, 0, len(history)+1)
	for _, message := range history {
		messages = append(messages, ChatMessage{Role: message.Role, Content: message.Content})
	}
	return messages
}

// mapPipelineError converts pipeline and LLM failures into the response
// envelope, preserving their distinct codes
func mapPipelineError(err error) response.AppError {
	var routingErr *RoutingError
	var totalErr *TotalFailureError
	var reduceErr *ReduceFailureError

	switch {
	case errors.Is(err, ErrUnauthorized):
		return response.ErrSummarizationUnreachable()
	case errors.Is(err, ErrTimeout):
		return response.NewError(response.ErrorCodeTimeout, "The summarization service timed out", http.StatusGatewayTimeout)
	case errors.As(err, &routingErr):
		return response.NewErrorWithDetails(response.ErrorCodeRoutingError, "Transcript length fits no summarization path", http.StatusUnprocessableEntity, routingErr.Error())
	case errors.As(err, &totalErr):
		if errors.Is(totalErr.LastErr, ErrUnauthorized) {
			return response.ErrSummarizationUnreachable()
		}
		return response.NewErrorWithDetails(response.ErrorCodeTotalFailure, "Every transcript chunk failed to summarize", http.StatusBadGateway, totalErr.Error())
	case errors.As(err, &reduceErr):
		return response.NewErrorWithDetails(response.ErrorCodeReduceFailure, "Combining chunk summaries failed", http.StatusBadGateway, reduceErr.Error())
	case errors.Is(err, ErrMalformedResponse):
		return response.NewError(response.ErrorCodeMalformedResponse, "The summarization service returned an unreadable response", http.StatusBadGateway)
	case errors.Is(err, ErrNetwork):
		return response.NewErrorWithDetails(response.ErrorCodeInternalError, "The summarization service could not be reached", http.StatusBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return response.NewError(response.ErrorCodeTimeout, "The request ran out of time", http.StatusGatewayTimeout)
	default:
		return response.NewErrorWithDetails(response.ErrorCodeInternalError, "Summarization failed", http.StatusBadGateway, err.Error())
	}
}

// requestBudget bounds a whole insight request: fetch plus every LLM call
func requestBudget() time.Duration {
	// transcript extraction alone may take most of an hour on long videos
	return 3600 * time.Second
}
