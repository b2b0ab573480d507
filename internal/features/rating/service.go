// Package rating — service.go содержит бизнес-логику журнала рейтинга:
// регистрацию с базовым начислением, защищённый путь записи и отмену.
package rating

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/fallncrlss/comparty-bot/internal/common"
	"github.com/fallncrlss/comparty-bot/internal/config"
	"github.com/fallncrlss/comparty-bot/internal/features/members"
	"github.com/fallncrlss/comparty-bot/internal/metrics"
)

// Store — операции хранилища записей рейтинга.
type Store interface {
	CreateRecord(ctx context.Context, req RecordRequest) (uuid.UUID, error)
	FetchScore(ctx context.Context, userID, chatID int64) (decimal.Decimal, error)
	FetchTopByScore(ctx context.Context, chatID int64, limit int) ([]TopUser, error)
	DeleteRecord(ctx context.Context, id uuid.UUID) (bool, error)
}

// Registrar — регистрация пользователей и членств (реализуется members.Service).
type Registrar interface {
	EnsureUser(ctx context.Context, u members.User) (bool, error)
	EnsureChatUser(ctx context.Context, chatID, userID int64) (bool, error)
}

// Service управляет журналом рейтинга.
type Service struct {
	store    Store
	members  Registrar
	cooldown *Cooldown
	cfg      *config.Config
}

// NewService создаёт сервис рейтинга.
func NewService(store Store, registrar Registrar, cooldown *Cooldown, cfg *config.Config) *Service {
	return &Service{store: store, members: registrar, cooldown: cooldown, cfg: cfg}
}

// CreateUserIfAbsent идемпотентно регистрирует пользователя в чате.
// При первой регистрации начисляется базовый рейтинг (системная запись без
// инициатора); администраторам чата — с повышающим множителем.
// isAdmin вычисляется лениво: только когда членство создано впервые.
// Возвращает true, если членство было создано впервые.
func (s *Service) CreateUserIfAbsent(ctx context.Context, ident Identity, chatID int64, isAdmin func(context.Context) bool) (bool, error) {
	if ident.Synthetic {
		// Каналы не регистрируются как участники.
		return false, nil
	}

	if _, err := s.members.EnsureUser(ctx, members.User{
		ID:        ident.ID,
		Username:  ident.Username,
		FirstName: ident.FirstName,
		LastName:  ident.LastName,
	}); err != nil {
		return false, err
	}

	created, err := s.members.EnsureChatUser(ctx, chatID, ident.ID)
	if err != nil {
		return false, err
	}
	if !created {
		return false, nil
	}

	base := decimal.NewFromInt(s.cfg.RatingBase)
	if isAdmin != nil && isAdmin(ctx) {
		base = base.Mul(decimal.NewFromInt(s.cfg.RatingAdminBoost))
	}
	if _, err := s.store.CreateRecord(ctx, RecordRequest{
		ChatID:  chatID,
		UserID:  ident.ID,
		Amount:  base,
		Comment: "Начальное начисление рейтинга.",
	}); err != nil {
		return false, fmt.Errorf("базовое начисление рейтинга: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id": ident.ID,
		"chat_id": chatID,
		"amount":  base.StringFixed(2),
	}).Info("Начислен базовый рейтинг новому участнику")
	return true, nil
}

// ApplyTrigger — защищённый путь записи изменения рейтинга.
// Порядок строгий: самопроверка → проверка личности → рейтинг инициатора →
// валидация суммы → кулдаун → вставка записи → best-effort запись кулдауна.
// Возвращает идентификатор записи и применённую подписанную сумму.
func (s *Service) ApplyTrigger(
	ctx context.Context,
	initiator, target Identity,
	chatID int64,
	trig Trigger,
) (uuid.UUID, decimal.Decimal, error) {
	if initiator.ID == target.ID {
		metrics.RatingRejectedTotal.WithLabelValues("self").Inc()
		return uuid.Nil, decimal.Decimal{}, common.ErrSelfRating
	}
	if initiator.Synthetic {
		metrics.RatingRejectedTotal.WithLabelValues("channel").Inc()
		return uuid.Nil, decimal.Decimal{}, common.ErrChannelIdentity
	}

	score, err := s.store.FetchScore(ctx, initiator.ID, chatID)
	if err != nil {
		return uuid.Nil, decimal.Decimal{}, fmt.Errorf("рейтинг инициатора недоступен: %w", err)
	}

	amount, err := trig.ValidAmount(score)
	if err != nil {
		metrics.RatingRejectedTotal.WithLabelValues("power").Inc()
		return uuid.Nil, decimal.Decimal{}, err
	}

	remaining, err := s.cooldown.Check(ctx, initiator.ID, target.ID, chatID)
	if err != nil {
		return uuid.Nil, decimal.Decimal{}, err
	}
	if remaining > 0 {
		metrics.RatingRejectedTotal.WithLabelValues("cooldown").Inc()
		return uuid.Nil, decimal.Decimal{}, &common.CooldownError{Remaining: remaining}
	}

	byUserID := initiator.ID
	id, err := s.store.CreateRecord(ctx, RecordRequest{
		ChatID:   chatID,
		UserID:   target.ID,
		ByUserID: &byUserID,
		Amount:   amount,
	})
	if err != nil {
		return uuid.Nil, decimal.Decimal{}, err
	}

	// Запись рейтинга уже зафиксирована; сбой кулдауна её не откатывает.
	s.cooldown.RecordBestEffort(ctx, initiator.ID, target.ID, chatID)

	metrics.RatingRecordsTotal.Inc()
	log.WithFields(log.Fields{
		"record_id":  id,
		"chat_id":    chatID,
		"user_id":    target.ID,
		"by_user_id": initiator.ID,
		"amount":     amount.StringFixed(2),
	}).Info("Создана запись рейтинга")
	return id, amount, nil
}

// GetScore возвращает актуальный рейтинг пользователя в чате.
func (s *Service) GetScore(ctx context.Context, userID, chatID int64) (decimal.Decimal, error) {
	return s.store.FetchScore(ctx, userID, chatID)
}

// TopByScore возвращает топ пользователей чата по рейтингу.
func (s *Service) TopByScore(ctx context.Context, chatID int64) ([]TopUser, error) {
	return s.store.FetchTopByScore(ctx, chatID, s.cfg.RatingTopLimit)
}

// DeleteRecord жёстко удаляет запись рейтинга (путь отмены).
// Повторная отмена уже удалённой записи — не ошибка, а no-op.
func (s *Service) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.store.DeleteRecord(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		log.WithField("record_id", id).Info("Запись рейтинга уже удалена")
		return nil
	}
	metrics.RatingUndoTotal.Inc()
	log.WithField("record_id", id).Info("Запись рейтинга удалена по запросу инициатора")
	return nil
}
