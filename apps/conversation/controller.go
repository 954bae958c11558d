package conversation

import (
	"sort"

	"github.com/getevo/evo/v2"
	"github.com/vidbriefs/vidbriefs-backend/apps/auth"
	"github.com/vidbriefs/vidbriefs-backend/lib/response"
)

type Controller struct {
}

// ConversationSummary is the list view of a conversation, message bodies
// are omitted to keep the listing light
type ConversationSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	SourceURL    string `json:"source_url"`
	MessageCount int    `json:"message_count"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// ListHandler returns the caller's conversations, newest first
func (c Controller) ListHandler(request *evo.Request) any {
	installation, appErr := auth.Identify(request)
	if appErr != nil {
		return response.Error(*appErr)
	}

	conversations := Default.ListByInstallation(installation.ID.String())
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		summaries = append(summaries, ConversationSummary{
			ID:           conversation.ID,
			Title:        conversation.Title,
			SourceURL:    conversation.SourceURL,
			MessageCount: len(conversation.Messages),
			CreatedAt:    conversation.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			UpdatedAt:    conversation.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return response.List(summaries, len(summaries))
}

// GetHandler returns a single conversation with its full history
func (c Controller) GetHandler(request *evo.Request) any {
	installation, appErr := auth.Identify(request)
	if appErr != nil {
		return response.Error(*appErr)
	}

	id := request.Param("id").String()
	conversation, ok := Default.Get(id)
	if !ok || conversation.InstallationID != installation.ID.String() {
		return response.Error(response.ErrConversationNotFound)
	}

	return response.OK(conversation)
}

// DeleteHandler removes a single conversation
func (c Controller) DeleteHandler(request *evo.Request) any {
	installation, appErr := auth.Identify(request)
	if appErr != nil {
		return response.Error(*appErr)
	}

	id := request.Param("id").String()
	conversation, ok := Default.Get(id)
	if !ok || conversation.InstallationID != installation.ID.String() {
		return response.Error(response.ErrConversationNotFound)
	}

	Default.Clear(id)
	return response.Message("Conversation deleted")
}

// DeleteAllHandler removes every conversation of the caller
func (c Controller) DeleteAllHandler(request *evo.Request) any {
	installation, appErr := auth.Identify(request)
	if appErr != nil {
		return response.Error(*appErr)
	}

	count := Default.ClearByInstallation(installation.ID.String())
	return response.OK(map[string]any{"deleted": count})
}
