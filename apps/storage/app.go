package storage

import (
	"github.com/getevo/evo/v2/lib/log"
)

// App represents the transcript archive application
type App struct{}

func (app App) Register() error {
	if err := Initialize(); err != nil {
		log.Warning("Failed to initialize S3 storage: %v", err)
	}
	return nil
}

func (app App) Router() error {
	return nil
}

func (app App) WhenReady() error {
	return nil
}

// Name returns the application name
func (app App) Name() string {
	return "storage"
}
