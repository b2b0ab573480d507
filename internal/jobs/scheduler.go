// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежедневный дайджест рейтинга.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/fallncrlss/comparty-bot/internal/config"
	"github.com/fallncrlss/comparty-bot/internal/features/chats"
	"github.com/fallncrlss/comparty-bot/internal/features/rating"
	"github.com/fallncrlss/comparty-bot/internal/telegram"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron          *cron.Cron
	cfg           *config.Config
	chatService   *chats.Service
	ratingService *rating.Service
	transport     *telegram.Transport
}

// NewScheduler создаёт планировщик задач с московским часовым поясом.
func NewScheduler(
	cfg *config.Config,
	chatService *chats.Service,
	ratingService *rating.Service,
	transport *telegram.Transport,
) *Scheduler {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		log.WithError(err).Warn("Не удалось загрузить Europe/Moscow, используем UTC+3")
		loc = time.FixedZone("MSK", 3*60*60)
	}

	return &Scheduler{
		cron:          cron.New(cron.WithLocation(loc)),
		cfg:           cfg,
		chatService:   chatService,
		ratingService: ratingService,
		transport:     transport,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.cfg.DigestCronEnabled {
		log.Info("Планировщик задач отключён настройками")
		return
	}

	s.cron.AddFunc(s.cfg.DigestCronSpec, func() {
		log.Info("[CRON] Ежедневный дайджест рейтинга")
		s.sendDigest(ctx)
	})

	s.cron.Start()
	log.WithField("spec", s.cfg.DigestCronSpec).Info("Планировщик задач запущен (Europe/Moscow)")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// sendDigest публикует топ рейтинга в каждом чате, где включён подсчёт.
func (s *Scheduler) sendDigest(ctx context.Context) {
	chatIDs, err := s.chatService.ListRatingEnabled(ctx)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка выборки чатов для дайджеста")
		return
	}

	for _, chatID := range chatIDs {
		top, err := s.ratingService.TopByScore(ctx, chatID)
		if err != nil {
			log.WithError(err).WithField("chat_id", chatID).Error("[CRON] Ошибка получения топа")
			continue
		}
		if len(top) == 0 {
			continue
		}
		if err := s.transport.SendMessage(ctx, chatID, rating.FormatTop(top)); err != nil {
			log.WithError(err).WithField("chat_id", chatID).Error("[CRON] Ошибка отправки дайджеста")
		}
	}
}
