// Package rating — cooldown.go ограничивает частоту изменений рейтинга
// между одной и той же парой пользователей в одном чате.
package rating

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// CooldownStore — TTL-хранилище кулдаунов (Redis в проде, фейк в тестах).
type CooldownStore interface {
	SetWithExpiry(ctx context.Context, key string, ttl time.Duration) error
	RemainingTTL(ctx context.Context, key string) (int64, error)
}

// Cooldown — защита от быстрых повторных изменений рейтинга.
// Это не мьютекс: две конкурентные операции могут пройти проверку
// до записи кулдауна — допускаем, троттлинг здесь итоговый, не строгий.
type Cooldown struct {
	store  CooldownStore
	window time.Duration
}

// NewCooldown создаёт кулдаун-защиту с фиксированным окном.
func NewCooldown(store CooldownStore, window time.Duration) *Cooldown {
	return &Cooldown{store: store, window: window}
}

// Ключ в формате оригинальной схемы: "<target>-<initiator>-<chat>".
func cooldownKey(initiatorID, targetID, chatID int64) string {
	return fmt.Sprintf("%d-%d-%d", targetID, initiatorID, chatID)
}

// Check возвращает, сколько секунд осталось до конца кулдауна (0 — кулдауна нет).
func (c *Cooldown) Check(ctx context.Context, initiatorID, targetID, chatID int64) (int64, error) {
	remaining, err := c.store.RemainingTTL(ctx, cooldownKey(initiatorID, targetID, chatID))
	if err != nil {
		return 0, fmt.Errorf("проверка кулдауна: %w", err)
	}
	return remaining, nil
}

// RecordBestEffort ставит кулдаун после успешной записи рейтинга.
// Запись рейтинга — факт, кулдаун — лишь троттлинг: его сбой логируется,
// но никогда не проваливает операцию.
func (c *Cooldown) RecordBestEffort(ctx context.Context, initiatorID, targetID, chatID int64) {
	key := cooldownKey(initiatorID, targetID, chatID)
	if err := c.store.SetWithExpiry(ctx, key, c.window); err != nil {
		log.WithError(err).WithField("key", key).Error("Не удалось записать кулдаун рейтинга")
		return
	}
	log.WithField("key", key).Debug("Кулдаун рейтинга записан")
}
