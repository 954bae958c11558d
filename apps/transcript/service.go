package transcript

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/getevo/evo/v2/lib/log"
	redisapp "github.com/vidbriefs/vidbriefs-backend/apps/redis"
	"github.com/vidbriefs/vidbriefs-backend/apps/storage"
)

// Service wraps the fetcher with a Redis cache and the S3 archive so a
// video transcript is only extracted once
type Service struct {
	fetcher  *Fetcher
	cacheTTL time.Duration
}

// NewService creates a transcript service around the given fetcher
func NewService(fetcher *Fetcher, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Service{fetcher: fetcher, cacheTTL: cacheTTL}
}

func cacheKey(videoURL string) string {
	sum := sha256.Sum256([]byte(videoURL))
	return "transcript:" + hex.EncodeToString(sum[:])
}

// Get returns a transcript for the video URL, checking the Redis cache
// and the S3 archive before hitting the extraction endpoint
func (s *Service) Get(ctx context.Context, videoURL string) (string, error) {
	key := cacheKey(videoURL)

	if redisapp.IsAvailable() {
		cached, err := redisapp.Client.Get(ctx, key).Result()
		if err == nil && cached != "" {
			return cached, nil
		}
	}

	if archived := storage.LoadArchivedTranscript(ctx, videoURL); archived != "" {
		s.cache(ctx, key, archived)
		return archived, nil
	}

	transcript, err := s.fetcher.Fetch(ctx, videoURL)
	if err != nil {
		return "", err
	}

	s.cache(ctx, key, transcript)
	storage.ArchiveTranscript(ctx, videoURL, transcript)

	return transcript, nil
}

func (s *Service) cache(ctx context.Context, key, transcript string) {
	if !redisapp.IsAvailable() {
		return
	}
	if err := redisapp.Client.Set(ctx, key, transcript, s.cacheTTL).Err(); err != nil {
		log.Debug("failed to cache transcript: %v", err)
	}
}
