package models

import (
	"time"

	"github.com/getevo/restify"
)

// Webhook event constants
const (
	WebhookEventInsightCreated = "insight.created"
	WebhookEventInsightUpdated = "insight.updated"
	WebhookEventInsightDeleted = "insight.deleted"
	WebhookEventWebhookTest    = "webhook.test"
)

// Webhook represents a webhook subscription
type Webhook struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	URL         string `gorm:"size:500;not null" json:"url"`
	Secret      string `gorm:"size:255" json:"-"` // Hidden from JSON responses for security
	Enabled     bool   `gorm:"default:1" json:"enabled"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Event subscriptions - boolean flags for each event type
	EventAll            bool `gorm:"default:0" json:"event_all"`
	EventInsightCreated bool `gorm:"default:0" json:"event_insight_created"`
	EventInsightUpdated bool `gorm:"default:0" json:"event_insight_updated"`
	EventInsightDeleted bool `gorm:"default:0" json:"event_insight_deleted"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	restify.API
}

// IsSubscribedTo checks if the webhook is subscribed to a specific event
func (w *Webhook) IsSubscribedTo(event string) bool {
	if w.EventAll {
		return true
	}

	// Test events always pass through
	if event == WebhookEventWebhookTest {
		return true
	}

	switch event {
	case WebhookEventInsightCreated:
		return w.EventInsightCreated
	case WebhookEventInsightUpdated:
		return w.EventInsightUpdated
	case WebhookEventInsightDeleted:
		return w.EventInsightDeleted
	default:
		return false
	}
}

// WebhookDelivery represents a webhook delivery attempt
type WebhookDelivery struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	WebhookID uint   `gorm:"not null;index;fk:webhooks" json:"webhook_id"`
	Event     string `gorm:"size:100;not null" json:"event"`
	Success   bool   `gorm:"not null" json:"success"`

	// Request details for debugging
	RequestURL     string `gorm:"size:500" json:"request_url,omitempty"`
	RequestBody    string `gorm:"type:text" json:"request_body,omitempty"`
	RequestHeaders string `gorm:"type:text" json:"request_headers,omitempty"`

	// Response details
	StatusCode int    `gorm:"default:0" json:"status_code"`
	Response   string `gorm:"type:text" json:"response,omitempty"`
	DurationMs int64  `gorm:"default:0" json:"duration_ms"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	// Relationships
	Webhook Webhook `gorm:"foreignKey:WebhookID;references:ID" json:"webhook,omitempty"`

	restify.API
}
