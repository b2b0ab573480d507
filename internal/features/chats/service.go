// Package chats — service.go содержит бизнес-логику настроек чатов.
package chats

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Store — операции хранилища, нужные сервису чатов.
type Store interface {
	EnsureChat(ctx context.Context, chat Chat) (bool, error)
	EnsureSettings(ctx context.Context, chatID int64) (bool, error)
	GetSettings(ctx context.Context, chatID int64) (Settings, error)
	ReplaceSettings(ctx context.Context, s Settings) error
	ListRatingEnabled(ctx context.Context) ([]int64, error)
	MigrateChat(ctx context.Context, fromID, toID int64) error
}

// Service управляет чатами и их настройками.
type Service struct {
	store Store
}

// NewService создаёт сервис чатов.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateIfNotExists регистрирует чат и его настройки с дефолтами.
func (s *Service) CreateIfNotExists(ctx context.Context, chat Chat) error {
	created, err := s.store.EnsureChat(ctx, chat)
	if err != nil {
		return fmt.Errorf("регистрация чата: %w", err)
	}
	if created {
		log.WithFields(log.Fields{
			"chat_id": chat.ID,
			"title":   chat.Title,
		}).Info("Зарегистрирован новый чат")
	}

	created, err = s.store.EnsureSettings(ctx, chat.ID)
	if err != nil {
		return fmt.Errorf("создание настроек чата: %w", err)
	}
	if created {
		log.WithField("chat_id", chat.ID).Info("Созданы настройки чата по умолчанию")
	}
	return nil
}

// GetSettings возвращает актуальные настройки чата.
func (s *Service) GetSettings(ctx context.Context, chatID int64) (Settings, error) {
	settings, err := s.store.GetSettings(ctx, chatID)
	if err != nil {
		return Settings{}, fmt.Errorf("получение настроек чата: %w", err)
	}
	return settings, nil
}

// ChangeSettings атомарно заменяет настройки чата.
func (s *Service) ChangeSettings(ctx context.Context, settings Settings) error {
	if err := s.store.ReplaceSettings(ctx, settings); err != nil {
		return fmt.Errorf("изменение настроек чата: %w", err)
	}
	log.WithFields(log.Fields{
		"chat_id":            settings.ChatID,
		"is_rating_count":    settings.RatingEnabled,
		"commands_for_admin": settings.CommandsAdminOnly,
	}).Info("Настройки чата изменены")
	return nil
}

// ListRatingEnabled возвращает чаты с включённым подсчётом рейтинга.
func (s *Service) ListRatingEnabled(ctx context.Context) ([]int64, error) {
	return s.store.ListRatingEnabled(ctx)
}

// MigrateChat переносит данные чата на новый идентификатор.
func (s *Service) MigrateChat(ctx context.Context, fromID, toID int64) error {
	if err := s.store.MigrateChat(ctx, fromID, toID); err != nil {
		return fmt.Errorf("миграция чата: %w", err)
	}
	log.WithFields(log.Fields{"from": fromID, "to": toID}).Info("Чат мигрирован")
	return nil
}
