// Package rating — cooldown_redis.go реализует CooldownStore через Redis.
package rating

import (
	"context"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCooldownStore хранит кулдауны в Redis с TTL.
type RedisCooldownStore struct {
	client *redis.Client
}

// NewRedisCooldownStore создаёт хранилище кулдаунов.
func NewRedisCooldownStore(client *redis.Client) *RedisCooldownStore {
	return &RedisCooldownStore{client: client}
}

// SetWithExpiry ставит ключ кулдауна с окном истечения.
func (s *RedisCooldownStore) SetWithExpiry(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, key, "1", ttl).Err()
}

// RemainingTTL возвращает оставшиеся секунды TTL ключа.
// Для отсутствующего или вечного ключа Redis отвечает -2/-1 — считаем, что кулдауна нет.
func (s *RedisCooldownStore) RemainingTTL(ctx context.Context, key string) (int64, error) {
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl <= 0 {
		return 0, nil
	}
	return ceilSeconds(ttl), nil
}

// ceilSeconds округляет остаток вверх: ключ с долей секунды
// всё ещё действующий кулдаун, а не истёкший.
func ceilSeconds(d time.Duration) int64 {
	return int64(math.Ceil(d.Seconds()))
}
