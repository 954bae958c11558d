package auth

import (
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/application"
)

type App struct {
}

func (a App) Register() error {
	// Initialize JWT secret after settings are loaded
	InitializeJWTSecret()
	return nil
}

func (a App) Router() error {
	var controller Controller

	evo.Post("/api/install", controller.RegisterHandler)
	evo.Post("/api/install/terms", controller.AcceptTermsHandler)
	evo.Get("/api/install", controller.StatusHandler)

	return nil
}

func (a App) WhenReady() error {
	return nil
}

func (a App) Name() string {
	return "auth"
}

func (a App) Shutdown() error {
	return nil
}

var _ application.Application = (*App)(nil)
