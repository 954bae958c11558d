package models

import (
	"time"

	"github.com/getevo/restify"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Insight is the durable snapshot of a summarized conversation saved to
// the user's library. The in-memory conversation is the working copy;
// the Insight row is the artifact that survives it.
type Insight struct {
	ID             uuid.UUID      `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	ConversationID uuid.UUID      `gorm:"column:conversation_id;type:char(36);uniqueIndex;not null" json:"conversation_id"`
	InstallationID uuid.UUID      `gorm:"column:installation_id;type:char(36);not null;index;fk:installations" json:"installation_id"`
	Title          string         `gorm:"column:title;size:255;not null" json:"title"`
	Body           string         `gorm:"column:body;type:text;not null" json:"body"`
	SourceURL      string         `gorm:"column:source_url;size:500" json:"source_url"`
	Messages       datatypes.JSON `gorm:"column:messages;type:json" json:"messages"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relationships
	Installation Installation `gorm:"foreignKey:InstallationID;references:ID" json:"installation,omitempty"`

	restify.API
}

func (Insight) TableName() string {
	return "insights"
}

// BeforeCreate hook to generate UUID for Insight
func (i *Insight) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
