package webhook

import (
	"github.com/getevo/evo/v2"
	"github.com/vidbriefs/vidbriefs-backend/apps/system"
)

type App struct {
}

func (a App) Register() error {
	return nil
}

func (a App) Router() error {
	var controller Controller
	var systemController system.Controller

	// webhook CRUD itself comes from restify on the Webhook model;
	// only the test fire needs a custom endpoint
	evo.Use("/api/webhooks", systemController.AdminMiddleware)
	evo.Post("/api/webhooks/:id/test", controller.TestWebhook)

	return nil
}

func (a App) WhenReady() error {
	return nil
}

func (a App) Name() string {
	return "webhook"
}
