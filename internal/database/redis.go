package database

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Angalets/olimpollo-backend/internal/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type RedisDB struct {
	Client *redis.Client
}

// NewRedisDB conecta al L2 del caché de modificadores
func NewRedisDB(cfg config.RedisConfig, logger *zap.Logger) (*RedisDB, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Si se proporciona una contraseña separada, usarla
	if cfg.Password != "" {
		opt.Password = cfg.Password
	}
	opt.DB = cfg.DB

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("Redis connection established",
		zap.String("addr", opt.Addr),
		zap.Int("db", cfg.DB),
	)

	return &RedisDB{Client: client}, nil
}

func (r *RedisDB) Close() error {
	return r.Client.Close()
}

func (r *RedisDB) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// GetStats devuelve los contadores de INFO stats relevantes para el caché
func (r *RedisDB) GetStats(ctx context.Context) (map[string]string, error) {
	info, err := r.Client.Info(ctx, "stats").Result()
	if err != nil {
		return nil, err
	}
	return parseInfo(info, "keyspace_hits", "keyspace_misses", "evicted_keys", "expired_keys"), nil
}

func parseInfo(info string, keys ...string) map[string]string {
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}

	stats := make(map[string]string, len(keys))
	scanner := bufio.NewScanner(strings.NewReader(info))
	for scanner.Scan() {
		k, v, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if ok && wanted[k] {
			stats[k] = v
		}
	}
	return stats
}
