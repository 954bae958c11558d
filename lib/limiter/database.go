package limiter

import (
	"context"
	"time"

	"github.com/getevo/evo/v2/lib/db"
)

// requestLogRow mirrors the request_logs table owned by apps/models. Only
// the columns this policy reads are declared.
type requestLogRow struct {
	ID        uint      `gorm:"primaryKey"`
	Identity  string    `gorm:"column:identity"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (requestLogRow) TableName() string {
	return "request_logs"
}

// DatabasePolicy enforces the sliding window against the request_logs
// table. It is the durable fallback when Redis is not configured.
type DatabasePolicy struct {
	config Config
}

// NewDatabasePolicy creates a database-backed rate limit policy
func NewDatabasePolicy(config Config) *DatabasePolicy {
	return &DatabasePolicy{config: config.normalized()}
}

// IsAllowed counts requests inside the window
func (p *DatabasePolicy) IsAllowed(ctx context.Context, identity string) (bool, error) {
	cutoff := time.Now().Add(-p.config.Window)

	var count int64
	err := db.Model(&requestLogRow{}).
		Where("identity = ? AND created_at > ?", identity, cutoff).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count < int64(p.config.MaxRequests), nil
}

// RecordRequest appends a request log row
func (p *DatabasePolicy) RecordRequest(ctx context.Context, identity string) error {
	return db.Create(&requestLogRow{Identity: identity, CreatedAt: time.Now()}).Error
}

var _ Policy = (*DatabasePolicy)(nil)
