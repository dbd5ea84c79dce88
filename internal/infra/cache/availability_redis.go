package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
)

// AvailabilityRedis keeps one hash per barber and date; each field is a
// rendering variant (e.g. a service id). Deleting the hash invalidates
// every variant at once.
type AvailabilityRedis struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ domain.AvailabilityCache = (*AvailabilityRedis)(nil)

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewAvailabilityRedis(rdb *redis.Client, ttl time.Duration) *AvailabilityRedis {
	return &AvailabilityRedis{rdb: rdb, ttl: ttl}
}

func availabilityKey(barberID uint, date string) string {
	return fmt.Sprintf("availability:%d:%s", barberID, date)
}

func (c *AvailabilityRedis) Get(ctx context.Context, barberID uint, date, variant string, dst any) bool {
	raw, err := c.rdb.HGet(ctx, availabilityKey(barberID, date), variant).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: get availability: %v", err)
		}
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		log.Printf("cache: decode availability: %v", err)
		return false
	}
	return true
}

func (c *AvailabilityRedis) Set(ctx context.Context, barberID uint, date, variant string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache: encode availability: %v", err)
		return
	}

	key := availabilityKey(barberID, date)
	_, err = c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, variant, raw)
		p.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		log.Printf("cache: set availability: %v", err)
	}
}

func (c *AvailabilityRedis) Invalidate(ctx context.Context, barberID uint, date string) {
	if err := c.rdb.Del(ctx, availabilityKey(barberID, date)).Err(); err != nil {
		log.Printf("cache: invalidate availability: %v", err)
	}
}
