package conversation

import (
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/application"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
	redisapp "github.com/vidbriefs/vidbriefs-backend/apps/redis"
	"github.com/vidbriefs/vidbriefs-backend/lib/kv"
)

// Default is the process-wide conversation store
var Default *Store

type App struct {
}

func (a App) Register() error {
	return nil
}

func (a App) Router() error {
	var controller Controller

	evo.Get("/api/conversations", controller.ListHandler)
	evo.Delete("/api/conversations", controller.DeleteAllHandler)
	evo.Get("/api/conversations/:id", controller.GetHandler)
	evo.Delete("/api/conversations/:id", controller.DeleteHandler)

	return nil
}

// WhenReady picks the persistence backend once Redis and the database are up
func (a App) WhenReady() error {
	backend := settings.Get("CONVERSATION.BACKEND", "auto").String()

	switch backend {
	case "memory":
		Default = NewStore(kv.NewMemory())
		log.Info("conversation store using in-memory backend")
	case "redis":
		Default = NewStore(kv.NewRedis(redisapp.Client, "vidbriefs"))
		log.Info("conversation store using redis backend")
	case "database":
		Default = NewStore(kv.NewDatabase())
		log.Info("conversation store using database backend")
	default:
		if redisapp.IsAvailable() {
			Default = NewStore(kv.NewRedis(redisapp.Client, "vidbriefs"))
			log.Info("conversation store using redis backend")
		} else {
			Default = NewStore(kv.NewDatabase())
			log.Info("conversation store using database backend")
		}
	}
	return nil
}

func (a App) Name() string {
	return "conversation"
}

func (a App) Shutdown() error {
	return nil
}

var _ application.Application = (*App)(nil)
