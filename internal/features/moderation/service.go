// Package moderation — service.go управляет конвейером проверок и эскалацией.
// Принуждение идёт от менее к более разрушительному (удалить сообщение →
// выгнать участника), а сбой любого шага деградирует в уведомление
// администраторов: молчаливый отказ запрещён.
package moderation

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/fallncrlss/comparty-bot/internal/features/rating"
	"github.com/fallncrlss/comparty-bot/internal/metrics"
)

// Transport — абстракция чат-платформы для конвейера.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	KickMember(ctx context.Context, chatID, userID int64) error
	AdminMentions(ctx context.Context, chatID int64) ([]string, error)
}

// Action — действие, предпринятое конвейером.
type Action int

const (
	ActionNone Action = iota
	ActionDeleteMessage
	ActionKickMember
)

// Verdict — результат обработки одного события. Не сохраняется.
type Verdict struct {
	Action           Action
	Reason           string
	EscalationFailed bool
}

// Service — конвейер модерации.
type Service struct {
	transport  Transport
	reputation Reputation
	links      LinkPolicy
	names      NamePolicy
}

// NewService создаёт конвейер модерации.
func NewService(transport Transport, reputation Reputation, links LinkPolicy, names NamePolicy) *Service {
	return &Service{transport: transport, reputation: reputation, links: links, names: names}
}

// CheckMessage прогоняет текстовое сообщение через стадии ссылок и контента.
func (s *Service) CheckMessage(ctx context.Context, chatID int64, messageID int, sender rating.Identity, text string) (Verdict, error) {
	// Стадия ссылок.
	if link, ok := s.links.Prohibited(text); ok {
		log.WithFields(log.Fields{
			"chat_id": chatID,
			"user_id": sender.ID,
			"link":    link,
		}).Info("Найдена запрещённая ссылка")
		return s.enforce(ctx, chatID, messageID, sender, "link",
			fmt.Sprintf("Пользователь %s был забанен за запрещённую ссылку в сообщении.", mention(sender)),
			"Обнаружена подозрительная ссылка, требуется внимание администрации.",
		)
	}

	// Стадии контента: только напоминание, без принуждения.
	if ContentAdvisory(text) {
		if err := s.transport.SendMessage(ctx, chatID, AdvisoryMessage); err != nil {
			log.WithError(err).WithField("chat_id", chatID).Error("Не удалось отправить напоминание о правилах")
			return Verdict{}, fmt.Errorf("отправка напоминания о правилах: %w", err)
		}
		metrics.ModerationEnforcementsTotal.WithLabelValues("content", "advisory").Inc()
	}

	return Verdict{}, nil
}

// CheckNewMember проверяет нового участника: репутация в CAS и имя.
// Стадии независимы: проверка имени выполняется и при чистом CAS-статусе.
func (s *Service) CheckNewMember(ctx context.Context, chatID int64, joinMessageID int, member rating.Identity) (Verdict, error) {
	flagged, err := s.reputation.Check(ctx, member.ID)
	if err != nil {
		return Verdict{}, fmt.Errorf("проверка репутации участника %d: %w", member.ID, err)
	}
	if flagged {
		if err := s.transport.KickMember(ctx, chatID, member.ID); err != nil {
			metrics.ModerationEnforcementsTotal.WithLabelValues("cas", "kick_failed").Inc()
			s.notifyAdmins(ctx, chatID,
				"Не удалось удалить участника из бан-листа CAS, требуется внимание администрации.")
			return Verdict{Action: ActionKickMember, Reason: "cas", EscalationFailed: true},
				fmt.Errorf("удаление участника %d по CAS: %w", member.ID, err)
		}
		metrics.ModerationEnforcementsTotal.WithLabelValues("cas", "kicked").Inc()
		log.WithFields(log.Fields{
			"chat_id": chatID,
			"user_id": member.ID,
		}).Info("Участник удалён по данным CAS")
		s.deleteJoinMessageBestEffort(ctx, chatID, joinMessageID)
		return Verdict{Action: ActionKickMember, Reason: "cas"}, nil
	}

	if s.names.Prohibited(member.FullName()) {
		if err := s.transport.KickMember(ctx, chatID, member.ID); err != nil {
			metrics.ModerationEnforcementsTotal.WithLabelValues("name", "kick_failed").Inc()
			s.notifyAdmins(ctx, chatID,
				"Не удалось удалить участника с запрещённым именем, требуется внимание администрации.")
			return Verdict{Action: ActionKickMember, Reason: "name", EscalationFailed: true},
				fmt.Errorf("удаление участника %d за имя: %w", member.ID, err)
		}
		metrics.ModerationEnforcementsTotal.WithLabelValues("name", "kicked").Inc()
		s.announce(ctx, chatID,
			fmt.Sprintf("Пользователь %s был забанен за запрещённое имя пользователя.", mention(member)))
		return Verdict{Action: ActionKickMember, Reason: "name"}, nil
	}

	return Verdict{}, nil
}

// enforce выполняет эскалацию для стадии ссылок: сначала удаление сообщения,
// потом удаление отправителя. Сбой удаления останавливает эскалацию —
// до кика дело не доходит.
func (s *Service) enforce(
	ctx context.Context,
	chatID int64,
	messageID int,
	sender rating.Identity,
	stage, announcement, fallback string,
) (Verdict, error) {
	if err := s.transport.DeleteMessage(ctx, chatID, messageID); err != nil {
		metrics.ModerationEnforcementsTotal.WithLabelValues(stage, "delete_failed").Inc()
		s.notifyAdmins(ctx, chatID, fallback)
		return Verdict{Action: ActionDeleteMessage, Reason: stage, EscalationFailed: true},
			fmt.Errorf("удаление сообщения %d: %w", messageID, err)
	}

	if err := s.transport.KickMember(ctx, chatID, sender.ID); err != nil {
		metrics.ModerationEnforcementsTotal.WithLabelValues(stage, "kick_failed").Inc()
		s.notifyAdmins(ctx, chatID, fallback)
		return Verdict{Action: ActionKickMember, Reason: stage, EscalationFailed: true},
			fmt.Errorf("удаление участника %d: %w", sender.ID, err)
	}

	metrics.ModerationEnforcementsTotal.WithLabelValues(stage, "kicked").Inc()
	log.WithFields(log.Fields{
		"chat_id": chatID,
		"user_id": sender.ID,
		"stage":   stage,
	}).Info("Участник удалён из чата")
	s.announce(ctx, chatID, announcement)
	return Verdict{Action: ActionKickMember, Reason: stage}, nil
}

// notifyAdmins — fallback-уведомление администраторов упоминанием.
func (s *Service) notifyAdmins(ctx context.Context, chatID int64, text string) {
	mentions, err := s.transport.AdminMentions(ctx, chatID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Не удалось получить администраторов для уведомления")
	}
	for _, m := range mentions {
		text += " " + m
	}
	if err := s.transport.SendMessage(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Не удалось уведомить администраторов")
	}
}

// announce — публичное объявление о принуждении. Сбой логируется.
func (s *Service) announce(ctx context.Context, chatID int64, text string) {
	if err := s.transport.SendMessage(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Не удалось объявить о действии модерации")
	}
}

// deleteJoinMessageBestEffort убирает сообщение о вступлении.
// Это наблюдаемость, не принуждение: сбой игнорируется после лога.
func (s *Service) deleteJoinMessageBestEffort(ctx context.Context, chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if err := s.transport.DeleteMessage(ctx, chatID, messageID); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"chat_id":    chatID,
			"message_id": messageID,
		}).Debug("Не удалось удалить сообщение о вступлении")
	}
}

// mention строит HTML-упоминание участника.
func mention(ident rating.Identity) string {
	if ident.Username != "" {
		return "@" + ident.Username
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, ident.ID, ident.FullName())
}
