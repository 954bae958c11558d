package models

import (
	"time"
)

// RequestLog records every accepted insight request per installation. The
// limiter's database policy counts these rows to enforce the sliding
// window, and the retention job prunes the ones that have aged out.
type RequestLog struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	Identity  string    `gorm:"column:identity;size:64;not null;index" json:"identity"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (RequestLog) TableName() string {
	return "request_logs"
}
