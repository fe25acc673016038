// Package vkpconfig loads the VKP core's bootstrap settings from the
// process environment, distinct from the Version Registry's own
// storage (which holds content, not process configuration).
package vkpconfig

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full set of environment-driven settings the core needs
// before it can run its first tick.
type Config struct {
	// Object store.
	ObjectStoreProvider string        `env:"VKP_OBJECTSTORE_PROVIDER" envDefault:"s3"`
	BucketName          string        `env:"VKP_BUCKET_NAME,required"`
	Region              string        `env:"VKP_REGION" envDefault:"us-east-1"`
	AzureServiceURL     string        `env:"VKP_AZURE_SERVICE_URL"`
	RetryMaxAttempts    int           `env:"VKP_RETRY_MAX_ATTEMPTS" envDefault:"3"`
	RetryDelay          time.Duration `env:"VKP_RETRY_DELAY" envDefault:"5s"`
	RateLimitPerSecond  float64       `env:"VKP_RATE_LIMIT_PER_SECOND" envDefault:"10"`

	// Version registry.
	RegistryDriver string `env:"VKP_REGISTRY_DRIVER" envDefault:"sqlite"`
	RegistryPath   string `env:"VKP_REGISTRY_PATH" envDefault:"./vkp-data/registry.db"`

	// Vector index.
	VectorIndexProvider string `env:"VKP_VECTORINDEX_PROVIDER" envDefault:"qdrant"`
	QdrantAddr          string `env:"VKP_QDRANT_ADDR" envDefault:"localhost:6334"`
	VectorSize          uint64 `env:"VKP_VECTOR_SIZE" envDefault:"1536"`

	// Response cache.
	CacheBackend  string        `env:"VKP_CACHE_BACKEND" envDefault:"memory"`
	RedisAddr     string        `env:"VKP_REDIS_ADDR" envDefault:"localhost:6379"`
	CacheCapacity int           `env:"VKP_CACHE_CAPACITY" envDefault:"10000"`
	CacheTTL      time.Duration `env:"VKP_CACHE_TTL" envDefault:"24h"`

	// Local state.
	PersistDir string `env:"VKP_PERSIST_DIR" envDefault:"./vkp-data"`

	// Scheduling.
	CronSchedule string `env:"VKP_CRON_SCHEDULE" envDefault:"*/15 * * * *"`
}

// Load parses Config from the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("vkpconfig: parse environment: %w", err)
	}
	return cfg, nil
}
