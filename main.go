package main

import (
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/application"
	"github.com/vidbriefs/vidbriefs-backend/apps/ai"
	"github.com/vidbriefs/vidbriefs-backend/apps/auth"
	"github.com/vidbriefs/vidbriefs-backend/apps/conversation"
	"github.com/vidbriefs/vidbriefs-backend/apps/jobs"
	"github.com/vidbriefs/vidbriefs-backend/apps/library"
	"github.com/vidbriefs/vidbriefs-backend/apps/live"
	"github.com/vidbriefs/vidbriefs-backend/apps/models"
	"github.com/vidbriefs/vidbriefs-backend/apps/nats"
	"github.com/vidbriefs/vidbriefs-backend/apps/redis"
	"github.com/vidbriefs/vidbriefs-backend/apps/storage"
	"github.com/vidbriefs/vidbriefs-backend/apps/system"
	"github.com/vidbriefs/vidbriefs-backend/apps/transcript"
	"github.com/vidbriefs/vidbriefs-backend/apps/webhook"
)

func main() {
	evo.Setup()

	var apps = application.GetInstance()
	apps.Register(system.App{}, models.App{}, redis.App{}, nats.App{}, auth.App{}, storage.App{}, transcript.App{}, conversation.App{}, ai.App{}, library.App{}, webhook.App{}, live.App{}, jobs.App{})

	evo.Run()
}
