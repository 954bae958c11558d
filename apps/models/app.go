package models

import (
	"github.com/getevo/evo/v2/lib/args"
	"github.com/getevo/evo/v2/lib/db"
	"github.com/vidbriefs/vidbriefs-backend/lib/kv"
)

type App struct{}

func (a App) Register() error {
	// Register all models with GORM
	db.UseModel(Installation{})
	db.UseModel(Insight{})
	db.UseModel(RequestLog{})
	db.UseModel(Webhook{})
	db.UseModel(WebhookDelivery{})

	// Settings model
	db.UseModel(Setting{})

	// Key-value entries backing the database KV store
	db.UseModel(kv.Entry{})

	return nil
}

func (a App) Router() error {
	return nil
}

func (a App) WhenReady() error {
	if args.Exists("--migration-do") {
		err := db.DoMigration()
		if err != nil {
			return err
		}
	}
	return nil
}

func (a App) Name() string {
	return "models"
}
