package redis

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/getevo/evo/v2/lib/settings"
	"github.com/redis/go-redis/v9"
)

var (
	// Client is the universal Redis client that works with both single nodes and clusters
	Client redis.UniversalClient
	ctx    = context.Background()
)

// Config holds the Redis configuration
type Config struct {
	Addresses    []string      `json:"addresses"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	MaxRetries   int           `json:"max_retries"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	PoolSize     int           `json:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns"`
}

// Initialize creates a new Redis universal client connection
//
// Example config.yml:
//
//	REDIS:
//	  ADDRESS: "localhost:6379"
//	  PASSWORD: ""
//	  DB: 0
func Initialize() error {
	config := loadConfig()

	// Skip initialization if no addresses configured
	if len(config.Addresses) == 0 {
		log.Println("Redis not configured. Falling back to in-process rate limiting and database persistence.")
		return nil
	}

	opts := &redis.UniversalOptions{
		Addrs:        config.Addresses,
		Password:     config.Password,
		DB:           config.DB,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
	}

	Client = redis.NewUniversalClient(opts)

	// Test connection
	testCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Client.Ping(testCtx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v. Falling back to in-process rate limiting.", err)
		Client = nil
		return nil // Don't fail startup if Redis is unavailable
	}

	switch len(config.Addresses) {
	case 1:
		log.Printf("Redis connected (single node: %s)", config.Addresses[0])
	default:
		log.Printf("Redis Cluster connected (%d nodes)", len(config.Addresses))
	}

	return nil
}

// loadConfig reads Redis configuration from settings
func loadConfig() Config {
	config := Config{
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	}

	addr := settings.Get("REDIS.ADDRESS").String()
	if addr == "" {
		addr = settings.Get("REDIS_URL").String()
	}
	if addr != "" {
		for _, part := range strings.Split(addr, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				config.Addresses = append(config.Addresses, part)
			}
		}
	}

	config.Password = settings.Get("REDIS.PASSWORD").String()
	config.DB = settings.Get("REDIS.DB").Int()

	if poolSize := settings.Get("REDIS.POOL_SIZE").Int(); poolSize > 0 {
		config.PoolSize = poolSize
	}
	if minIdle := settings.Get("REDIS.MIN_IDLE_CONNS").Int(); minIdle > 0 {
		config.MinIdleConns = minIdle
	}
	if maxRetries := settings.Get("REDIS.MAX_RETRIES").Int(); maxRetries > 0 {
		config.MaxRetries = maxRetries
	}

	return config
}

// IsAvailable returns true if Redis client is connected
func IsAvailable() bool {
	if Client == nil {
		return false
	}
	return Client.Ping(ctx).Err() == nil
}

// Close gracefully closes the Redis connection
func Close() error {
	if Client != nil {
		return Client.Close()
	}
	return nil
}
