package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	redisstorage "github.com/gofiber/storage/redis"
	"github.com/redis/go-redis/v9"

	"github.com/fivedlabs/beatstore/internal/pkg/env"
)

// Catalog reads are never cached. Redis backs rate limiting and the health check only.

// Config holds the Redis/Dragonfly connection settings.
type Config struct {
	Host     string
	Port     int
	Password string
}

func LoadConfig() Config {
	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		port = 6379
	}
	return Config{
		Host:     env.GetEnv("CACHE_HOST", "localhost"),
		Port:     port,
		Password: env.GetEnv("CACHE_PASSWORD", ""),
	}
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewClient connects to the cache server. An unreachable server is logged, not fatal.
func NewClient(ctx context.Context, cfg Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       0,
	})

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Warnf("[Cache] could not connect to %s: %v", cfg.Addr(), err)
	} else {
		log.Infof("[Cache] connected to %s: %s", cfg.Addr(), pong)
	}
	return client
}

// NewLimiterStorage returns fiber storage for the rate limiter, using database 1
// so limiter keys never mix with anything else on database 0.
func NewLimiterStorage(cfg Config) fiber.Storage {
	return redisstorage.New(redisstorage.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		Database: 1,
		Reset:    false,
	})
}

// Pinger is the part of the client the health check needs.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

func Healthy(ctx context.Context, p Pinger) error {
	if p == nil {
		return fmt.Errorf("cache client not configured")
	}
	return p.Ping(ctx).Err()
}
