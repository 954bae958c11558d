package kv

import (
	"time"

	"github.com/getevo/evo/v2/lib/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is the database row backing the GORM-based Store.
type Entry struct {
	Key       string    `gorm:"column:entry_key;size:255;primaryKey" json:"key"`
	Value     []byte    `gorm:"column:value;type:longblob" json:"value"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Entry) TableName() string {
	return "kv_entries"
}

// Database is a Store persisted through the application database.
type Database struct{}

// NewDatabase creates a database-backed store. The Entry model must be
// registered for migration by the models app.
func NewDatabase() *Database {
	return &Database{}
}

func (d *Database) Get(key string) ([]byte, error) {
	var entry Entry
	err := db.Where("entry_key = ?", key).First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

func (d *Database) Set(key string, value []byte) error {
	entry := Entry{Key: key, Value: value}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (d *Database) Delete(key string) error {
	return db.Where("entry_key = ?", key).Delete(&Entry{}).Error
}
