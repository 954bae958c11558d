package library

import (
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/application"
)

type App struct {
}

func (a App) Register() error {
	return nil
}

func (a App) Router() error {
	var controller Controller

	evo.Post("/api/library", controller.SaveHandler)
	evo.Get("/api/library", controller.ListHandler)
	evo.Delete("/api/library", controller.DeleteAllHandler)
	evo.Get("/api/library/:id", controller.GetHandler)
	evo.Delete("/api/library/:id", controller.DeleteHandler)

	return nil
}

func (a App) WhenReady() error {
	return nil
}

func (a App) Name() string {
	return "library"
}

var _ application.Application = (*App)(nil)
