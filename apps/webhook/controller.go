package webhook

import (
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/db"
	"github.com/vidbriefs/vidbriefs-backend/apps/models"
	"github.com/vidbriefs/vidbriefs-backend/lib/response"
)

type Controller struct{}

// TestWebhook sends a test payload to the webhook
func (c Controller) TestWebhook(request *evo.Request) any {
	webhookID := request.Param("id").String()
	var webhook models.Webhook

	if err := db.First(&webhook, webhookID).Error; err != nil {
		return response.NotFound(request, "Webhook not found")
	}

	if err := Send(&webhook, models.WebhookEventWebhookTest, map[string]any{
		"message":    "This is a test webhook",
		"webhook_id": webhook.ID,
	}); err != nil {
		return response.InternalError(request, "Failed to send test webhook: "+err.Error())
	}

	return response.OK(map[string]any{
		"message": "Test webhook sent successfully",
	})
}
