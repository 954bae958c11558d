package transcript

import (
	"github.com/getevo/evo/v2/lib/application"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
)

// Default is the process-wide transcript service
var Default *Service

type App struct{}

func (a App) Register() error {
	return nil
}

func (a App) Router() error {
	return nil
}

// WhenReady builds the fetcher from configuration
func (a App) WhenReady() error {
	timeout, _ := settings.Get("TRANSCRIPT.TIMEOUT", "3000s").Duration()
	cacheTTL, _ := settings.Get("TRANSCRIPT.CACHE_TTL", "24h").Duration()

	endpoints := map[Source]string{}
	if endpoint := settings.Get("TRANSCRIPT.YOUTUBE_ENDPOINT").String(); endpoint != "" {
		endpoints[SourceYouTube] = endpoint
	}
	if endpoint := settings.Get("TRANSCRIPT.TED_ENDPOINT").String(); endpoint != "" {
		endpoints[SourceTED] = endpoint
	}
	if len(endpoints) == 0 {
		log.Warning("no transcript extraction endpoints configured")
	}

	Default = NewService(NewFetcher(endpoints, timeout), cacheTTL)
	return nil
}

func (a App) Name() string {
	return "transcript"
}

func (a App) Shutdown() error {
	return nil
}

var _ application.Application = (*App)(nil)
