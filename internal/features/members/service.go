// Package members — service.go содержит бизнес-логику регистрации участников.
package members

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Store — операции хранилища, нужные сервису участников.
type Store interface {
	EnsureUser(ctx context.Context, u User) (bool, error)
	EnsureChatUser(ctx context.Context, chatID, userID int64) (bool, error)
}

// Service управляет регистрацией участников.
type Service struct {
	store Store
}

// NewService создаёт сервис участников.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// EnsureUser идемпотентно регистрирует пользователя.
func (s *Service) EnsureUser(ctx context.Context, u User) (bool, error) {
	created, err := s.store.EnsureUser(ctx, u)
	if err != nil {
		return false, fmt.Errorf("регистрация пользователя: %w", err)
	}
	if created {
		log.WithFields(log.Fields{
			"user_id":  u.ID,
			"username": u.Username,
		}).Info("Зарегистрирован новый пользователь")
	}
	return created, nil
}

// EnsureChatUser идемпотентно регистрирует членство в чате.
// Возвращает true, если пользователь появился в этом чате впервые.
func (s *Service) EnsureChatUser(ctx context.Context, chatID, userID int64) (bool, error) {
	created, err := s.store.EnsureChatUser(ctx, chatID, userID)
	if err != nil {
		return false, fmt.Errorf("регистрация членства в чате: %w", err)
	}
	if created {
		log.WithFields(log.Fields{
			"user_id": userID,
			"chat_id": chatID,
		}).Info("Зарегистрировано новое членство в чате")
	}
	return created, nil
}
