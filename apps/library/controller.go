package library

import (
	"context"
	"encoding/json"
	"time"

	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/db"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/pagination"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vidbriefs/vidbriefs-backend/apps/ai"
	"github.com/vidbriefs/vidbriefs-backend/apps/auth"
	"github.com/vidbriefs/vidbriefs-backend/apps/conversation"
	"github.com/vidbriefs/vidbriefs-backend/apps/models"
	"github.com/vidbriefs/vidbriefs-backend/apps/webhook"
	"github.com/vidbriefs/vidbriefs-backend/lib/response"
)

type Controller struct {
}

var validate = validator.New()

// SaveRequest saves a conversation snapshot into the library
type SaveRequest struct {
	ConversationID string `json:"conversation_id" validate:"required,uuid4"`
	Title          string `json:"title" validate:"max=255"`
}

// SaveHandler handles POST /api/library: snapshot the conversation as an
// Insight. Saving the same conversation again updates the row in place.
func (c Controller) SaveHandler(request *evo.Request) any {
	installation, appErr := auth.Identify(request)
	if appErr != nil {
		return response.Error(*appErr)
	}

	var input SaveRequest
	if err := request.BodyParser(&input); err != nil {
		return response.Error(response.ErrInvalidInput)
	}
	if err := validate.Struct(input); err != nil {
		return response.Error(response.NewErrorWithDetails(response.ErrorCodeValidationError, "Invalid save request", 400, err.Error()))
	}

	conv, ok := conversation.Default.Get(input.ConversationID)
	if !ok || conv.InstallationID != installation.ID.String() {
		return response.Error(response.ErrConversationNotFound)
	}

	messages, hasHistory := conversation.Default.History(input.ConversationID)
	if !hasHistory || len(messages) == 0 {
		return response.Error(response.NewError(response.ErrorCodeInvalidInput, "Conversation has no messages to save", 400))
	}

	body := lastAssistantMessage(messages)
	if body == "" {
		return response.Error(response.NewError(response.ErrorCodeInvalidInput, "Conversation has no answer to save", 400))
	}

	title := input.Title
	if title == "" {
		title = conv.Title
	}
	if title == "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		title = ai.GenerateTitle(ctx, ai.DefaultCompleter(), body)
	}

	snapshot, err := json.Marshal(messages)
	if err != nil {
		return response.Error(response.ErrInternalError)
	}

	conversationID, err := uuid.Parse(input.ConversationID)
	if err != nil {
		return response.Error(response.ErrInvalidConversationID)
	}

	var insight models.Insight
	err = db.Where("conversation_id = ?", conversationID).First(&insight).Error
	if err == nil {
		insight.Title = title
		insight.Body = body
		insight.Messages = snapshot
		if err := db.Save(&insight).Error; err != nil {
			return response.Error(response.ErrDatabaseError)
		}
		go webhook.Broadcast(models.WebhookEventInsightUpdated, insightEventData(&insight))
		return response.OK(insight)
	}

	insight = models.Insight{
		ConversationID: conversationID,
		InstallationID: installation.ID,
		Title:          title,
		Body:           body,
		SourceURL:      conv.SourceURL,
		Messages:       snapshot,
	}
	if err := db.Create(&insight).Error; err != nil {
		return response.Error(response.ErrDatabaseError)
	}

	go webhook.Broadcast(models.WebhookEventInsightCreated, insightEventData(&insight))
	return response.Created(insight)
}

// ListHandler handles GET /api/library with page/size query parameters
func (c Controller) ListHandler(request *evo.Request) any {
	installation, appErr := auth.Identify(request)
	if appErr != nil {
		return response.Error(*appErr)
	}

	var insights []models.Insight
	query := db.Where("installation_id = ?", installation.ID).Order("updated_at DESC")

	p, err := pagination.New(query, request, &insights, pagination.Options{MaxSize: 100})
	if err != nil {
		return response.Error(response.ErrInternalError)
	}

	return response.OKWithMeta(insights, &response.Meta{
		Page:       p.CurrentPage,
		Limit:      p.Size,
		Total:      int64(p.Records),
		TotalPages: p.Pages,
	})
}

// GetHandler handles GET /api/library/:id
func (c Controller) GetHandler(request *evo.Request) any {
	installation, appErr := auth.Identify(request)
	if appErr != nil {
		return response.Error(*appErr)
	}

	insight, appErr := c.ownedInsight(request, installation.ID)
	if appErr != nil {
		return response.Error(*appErr)
	}

	return response.OK(insight)
}

// DeleteHandler handles DELETE /api/library/:id
func (c Controller) DeleteHandler(request *evo.Request) any {
	installation, appErr := auth.Identify(request)
	if appErr != nil {
		return response.Error(*appErr)
	}

	insight, appErr := c.ownedInsight(request, installation.ID)
	if appErr != nil {
		return response.Error(*appErr)
	}

	if err := db.Delete(insight).Error; err != nil {
		return response.Error(response.ErrDatabaseError)
	}

	go webhook.Broadcast(models.WebhookEventInsightDeleted, insightEventData(insight))
	return response.Message("Insight deleted")
}

// DeleteAllHandler handles DELETE /api/library: clears the caller's library
func (c Controller) DeleteAllHandler(request *evo.Request) any {
	installation, appErr := auth.Identify(request)
	if appErr != nil {
		return response.Error(*appErr)
	}

	result := db.Where("installation_id = ?", installation.ID).Delete(&models.Insight{})
	if result.Error != nil {
		return response.Error(response.ErrDatabaseError)
	}

	log.Info("cleared %d insights for installation %s", result.RowsAffected, installation.ID)
	return response.OK(map[string]any{"deleted": result.RowsAffected})
}

func (c Controller) ownedInsight(request *evo.Request, installationID uuid.UUID) (*models.Insight, *response.AppError) {
	id, err := uuid.Parse(request.Param("id").String())
	if err != nil {
		e := response.ErrInvalidInput
		return nil, &e
	}

	var insight models.Insight
	if err := db.Where("id = ? AND installation_id = ?", id, installationID).First(&insight).Error; err != nil {
		e := response.ErrInsightNotFound
		return nil, &e
	}
	return &insight, nil
}

func lastAssistantMessage(messages []conversation.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == conversation.RoleAssistant {
			return messages[i].Content
		}
	}
	return ""
}

func insightEventData(insight *models.Insight) map[string]any {
	return map[string]any{
		"insight_id":      insight.ID.String(),
		"conversation_id": insight.ConversationID.String(),
		"installation_id": insight.InstallationID.String(),
		"title":           insight.Title,
		"source_url":      insight.SourceURL,
	}
}
