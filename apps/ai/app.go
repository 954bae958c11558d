package ai

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/application"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
	natsmsg "github.com/nats-io/nats.go"
	natsapp "github.com/vidbriefs/vidbriefs-backend/apps/nats"
	redisapp "github.com/vidbriefs/vidbriefs-backend/apps/redis"
	"github.com/vidbriefs/vidbriefs-backend/lib/limiter"
)

var (
	engine     *Pipeline
	policy     limiter.Policy
	engineLock sync.RWMutex
)

// Engine returns the process-wide summarization pipeline
func Engine() *Pipeline {
	engineLock.RLock()
	defer engineLock.RUnlock()
	return engine
}

// ActivePolicy returns the rate limit policy in effect
func ActivePolicy() limiter.Policy {
	engineLock.RLock()
	defer engineLock.RUnlock()
	return policy
}

// liveCompleter resolves the OpenAI client on every call so credential
// reloads take effect without rebuilding the pipeline
type liveCompleter struct{}

func (liveCompleter) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	c := GetClient()
	if c == nil {
		return "", ErrUnauthorized
	}
	return c.Complete(ctx, messages)
}

// DefaultCompleter exposes the live client as a Completer for callers
// outside the pipeline, like title generation
func DefaultCompleter() Completer {
	return liveCompleter{}
}

type App struct {
}

func (a App) Register() error {
	return nil
}

func (a App) Router() error {
	var controller Controller

	evo.Post("/api/insights", controller.CreateInsightHandler)
	evo.Post("/api/insights/:conversation/messages", controller.FollowUpHandler)

	return nil
}

func (a App) WhenReady() error {
	if err := InitClient(); err != nil {
		log.Warning("AI client not ready: %v", err)
	}

	config := PipelineConfig{
		SmallThreshold: int(settings.Get("SUMMARY.SMALL_THRESHOLD", DefaultSmallThreshold).Int64()),
		ChunkThreshold: int(settings.Get("SUMMARY.CHUNK_THRESHOLD", DefaultChunkThreshold).Int64()),
		ChunkWords:     int(settings.Get("SUMMARY.CHUNK_WORDS", DefaultChunkWords).Int64()),
		Progress:       publishProgress,
	}

	window, _ := settings.Get("LIMITER.WINDOW", "168h").Duration()
	limiterConfig := limiter.Config{
		MaxRequests: int(settings.Get("LIMITER.MAX_REQUESTS", limiter.DefaultMaxRequests).Int64()),
		Window:      window,
	}

	engineLock.Lock()
	engine = NewPipeline(liveCompleter{}, config)
	if redisapp.IsAvailable() {
		policy = limiter.NewRedisPolicy(redisapp.Client, limiterConfig)
		log.Info("rate limiting via redis sliding window")
	} else {
		policy = limiter.NewDatabasePolicy(limiterConfig)
		log.Info("rate limiting via database request log")
	}
	engineLock.Unlock()

	// operators can push new credentials without a restart
	if natsapp.IsConnected() {
		_, err := natsapp.Subscribe("settings.reload.ai", func(msg *natsmsg.Msg) {
			ReloadSettings()
		})
		if err != nil {
			log.Warning("failed to subscribe to settings reload: %v", err)
		}
	}

	return nil
}

// publishProgress bridges pipeline events to the live websocket feed
func publishProgress(event ProgressEvent) {
	if event.ConversationID == "" || !natsapp.IsConnected() {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := natsapp.Publish("insights.progress."+event.ConversationID, data); err != nil {
		log.Debug("failed to publish progress event: %v", err)
	}
}

func (a App) Name() string {
	return "ai"
}

func (a App) Shutdown() error {
	return nil
}

var _ application.Application = (*App)(nil)
