package models

import (
	"time"

	"github.com/getevo/restify"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Installation represents a single app installation (device identity).
// It is the identity the rate limiter counts requests against and the
// owner of conversations and saved insights.
type Installation struct {
	ID              uuid.UUID  `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	Platform        string     `gorm:"column:platform;size:50" json:"platform"` // ios, android, web
	AppVersion      string     `gorm:"column:app_version;size:50" json:"app_version"`
	TermsAcceptedAt *time.Time `gorm:"column:terms_accepted_at" json:"terms_accepted_at"`
	LastSeenAt      time.Time  `gorm:"column:last_seen_at;autoUpdateTime" json:"last_seen_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	restify.API
}

func (Installation) TableName() string {
	return "installations"
}

// BeforeCreate hook to generate UUID for Installation
func (i *Installation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TermsAccepted reports whether this installation has accepted the terms
// of use. Insight creation is gated on it.
func (i *Installation) TermsAccepted() bool {
	return i.TermsAcceptedAt != nil
}
