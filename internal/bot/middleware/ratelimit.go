package middleware

import (
	"sync"
	"time"
)

// RateLimiter ограничивает частоту обработки сообщений одного пользователя
// скользящим окном. Это защита процесса от флуда, не бизнес-правило:
// кулдауны рейтинга живут отдельно и переживают рестарт.
type RateLimiter struct {
	mu     sync.Mutex
	seen   map[int64][]time.Time
	limit  int
	window time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter создаёт ограничитель: не более limit событий за window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		seen:   make(map[int64][]time.Time),
		limit:  limit,
		window: window,
		stopCh: make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Close останавливает фоновую горутину очистки.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow сообщает, можно ли обработать очередное событие пользователя.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	recent := rl.seen[userID][:0]
	for _, t := range rl.seen[userID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.limit {
		rl.seen[userID] = recent
		return false
	}

	rl.seen[userID] = append(recent, time.Now())
	return true
}

// cleanup периодически выбрасывает пользователей без свежих событий,
// иначе карта растёт на каждом новом user_id.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-rl.window)
			for userID, times := range rl.seen {
				fresh := false
				for _, t := range times {
					if t.After(cutoff) {
						fresh = true
						break
					}
				}
				if !fresh {
					delete(rl.seen, userID)
				}
			}
			rl.mu.Unlock()
		}
	}
}
