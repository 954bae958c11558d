package live

import (
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/application"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// App bridges pipeline progress events from NATS to websocket clients
type App struct{}

func (App) Register() error {
	return nil
}

func (App) Router() error {
	app := evo.GetFiber()

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/insights/:conversation/:secret", websocket.New(HandleWebSocket))

	return nil
}

func (App) WhenReady() error {
	return nil
}

// Name returns the app name
func (App) Name() string {
	return "live"
}

func (App) Shutdown() error {
	return nil
}

var _ application.Application = (*App)(nil)
