package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Angalets/olimpollo-backend/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const opcionKeyPrefix = "opcion:valor:"

// CacheStats estadísticas del caché
type CacheStats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	TotalRequests int64 `json:"total_requests"`
	TotalKeys     int   `json:"total_keys"`
}

type entrada struct {
	opcion *models.Opcion // nil: el token se buscó y no corresponde a ninguna opción
	expira time.Time
}

// OpcionCache caché de dos niveles del índice de modificadores por token.
// L1 es memoria local, L2 es Redis y es opcional (redisClient nil).
type OpcionCache struct {
	l1Cache map[string]entrada
	l1Mutex sync.RWMutex

	redisClient *redis.Client

	maxL1Size int
	ttl       time.Duration

	logger *zap.Logger

	statsMutex sync.RWMutex
	hits       int64
	misses     int64
}

// NewOpcionCache crea una nueva instancia del caché
func NewOpcionCache(redisClient *redis.Client, maxL1Size int, ttl time.Duration, logger *zap.Logger) *OpcionCache {
	return &OpcionCache{
		l1Cache:     make(map[string]entrada),
		redisClient: redisClient,
		maxL1Size:   maxL1Size,
		ttl:         ttl,
		logger:      logger,
	}
}

// Get busca un token. hit=false significa que hay que ir a la base de datos;
// hit=true con opción nil significa que el token ya se sabe sin regla.
func (c *OpcionCache) Get(ctx context.Context, token string) (*models.Opcion, bool) {
	key := models.NormalizarToken(token)

	if e, ok := c.getFromL1(key); ok {
		c.recordHit()
		return e.opcion, true
	}

	if opcion, ok := c.getFromL2(ctx, key); ok {
		c.setToL1(key, opcion)
		c.recordHit()
		c.logger.Debug("L2 cache hit", zap.String("token", key))
		return opcion, true
	}

	c.recordMiss()
	return nil, false
}

// Set guarda el resultado de la búsqueda en ambos niveles, incluido el "no encontrado"
func (c *OpcionCache) Set(ctx context.Context, token string, opcion *models.Opcion) error {
	key := models.NormalizarToken(token)
	c.setToL1(key, opcion)
	return c.setToL2(ctx, key, opcion)
}

// InvalidateAll vacía ambos niveles; se llama cuando cambian recetas u opciones
func (c *OpcionCache) InvalidateAll(ctx context.Context) error {
	c.l1Mutex.Lock()
	c.l1Cache = make(map[string]entrada)
	c.l1Mutex.Unlock()

	if c.redisClient == nil {
		return nil
	}

	iter := c.redisClient.Scan(ctx, 0, opcionKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan opcion keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.redisClient.Del(ctx, keys...).Err()
}

// GetStats retorna estadísticas del caché
func (c *OpcionCache) GetStats() CacheStats {
	c.statsMutex.RLock()
	defer c.statsMutex.RUnlock()

	c.l1Mutex.RLock()
	totalKeys := len(c.l1Cache)
	c.l1Mutex.RUnlock()

	return CacheStats{
		Hits:          c.hits,
		Misses:        c.misses,
		TotalRequests: c.hits + c.misses,
		TotalKeys:     totalKeys,
	}
}

// Stats estadísticas con tasa de aciertos
func (c *OpcionCache) Stats() map[string]interface{} {
	stats := c.GetStats()
	hitRate := 0.0
	if stats.TotalRequests > 0 {
		hitRate = float64(stats.Hits) / float64(stats.TotalRequests)
	}
	return map[string]interface{}{
		"hits":           stats.Hits,
		"misses":         stats.Misses,
		"total_requests": stats.TotalRequests,
		"total_keys":     stats.TotalKeys,
		"hit_rate":       hitRate,
		"redis":          c.redisClient != nil,
	}
}

// Run purga periódicamente las entradas vencidas del L1 hasta que ctx termine
func (c *OpcionCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := c.purgeExpired(now); n > 0 {
				c.logger.Debug("L1 cache cleanup", zap.Int("expired", n))
			}
		}
	}
}

func (c *OpcionCache) purgeExpired(now time.Time) int {
	c.l1Mutex.Lock()
	defer c.l1Mutex.Unlock()

	n := 0
	for key, e := range c.l1Cache {
		if now.After(e.expira) {
			delete(c.l1Cache, key)
			n++
		}
	}
	return n
}

func (c *OpcionCache) recordHit() {
	c.statsMutex.Lock()
	c.hits++
	c.statsMutex.Unlock()
}

func (c *OpcionCache) recordMiss() {
	c.statsMutex.Lock()
	c.misses++
	c.statsMutex.Unlock()
}

func (c *OpcionCache) getFromL1(key string) (entrada, bool) {
	c.l1Mutex.RLock()
	defer c.l1Mutex.RUnlock()

	e, ok := c.l1Cache[key]
	if !ok || time.Now().After(e.expira) {
		return entrada{}, false
	}
	return e, true
}

func (c *OpcionCache) setToL1(key string, opcion *models.Opcion) {
	c.l1Mutex.Lock()
	defer c.l1Mutex.Unlock()

	if _, exists := c.l1Cache[key]; !exists && len(c.l1Cache) >= c.maxL1Size {
		c.evictOne()
	}
	c.l1Cache[key] = entrada{opcion: opcion, expira: time.Now().Add(c.ttl)}
}

// evictOne elimina la entrada más próxima a vencer
func (c *OpcionCache) evictOne() {
	var (
		victim string
		oldest time.Time
	)
	for key, e := range c.l1Cache {
		if victim == "" || e.expira.Before(oldest) {
			victim, oldest = key, e.expira
		}
	}
	delete(c.l1Cache, victim)
}

func (c *OpcionCache) getFromL2(ctx context.Context, key string) (*models.Opcion, bool) {
	if c.redisClient == nil {
		return nil, false
	}

	data, err := c.redisClient.Get(ctx, opcionKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("⚠️ Redis no disponible para opciones", zap.Error(err))
		}
		return nil, false
	}

	var opcion *models.Opcion
	if err := json.Unmarshal(data, &opcion); err != nil {
		return nil, false
	}
	return opcion, true
}

func (c *OpcionCache) setToL2(ctx context.Context, key string, opcion *models.Opcion) error {
	if c.redisClient == nil {
		return nil
	}

	data, err := json.Marshal(opcion)
	if err != nil {
		return err
	}
	return c.redisClient.Set(ctx, opcionKeyPrefix+key, data, c.ttl).Err()
}
