// Package telegram адаптирует Bot API к интерфейсам, которые потребляет ядро:
// отправка, удаление сообщений, кик и ограничение участников, администраторы.
package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/fallncrlss/comparty-bot/internal/metrics"
)

// Transport — реализация чат-транспорта поверх tgbotapi.
type Transport struct {
	bot *tgbotapi.BotAPI
}

// NewTransport создаёт транспорт.
func NewTransport(bot *tgbotapi.BotAPI) *Transport {
	return &Transport{bot: bot}
}

// SendMessage отправляет HTML-сообщение в чат.
func (t *Transport) SendMessage(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		metrics.BotSendErrors.Inc()
		return fmt.Errorf("ошибка транспорта: отправка сообщения: %w", err)
	}
	return nil
}

// Reply отвечает на конкретное сообщение.
func (t *Transport) Reply(_ context.Context, chatID int64, messageID int, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = messageID
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		metrics.BotSendErrors.Inc()
		return fmt.Errorf("ошибка транспорта: ответ на сообщение: %w", err)
	}
	return nil
}

// DeleteMessage удаляет сообщение из чата.
func (t *Transport) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	del := tgbotapi.NewDeleteMessage(chatID, messageID)
	if _, err := t.bot.Request(del); err != nil {
		return fmt.Errorf("ошибка транспорта: удаление сообщения: %w", err)
	}
	return nil
}

// KickMember удаляет участника из чата.
func (t *Transport) KickMember(_ context.Context, chatID, userID int64) error {
	kick := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
	}
	if _, err := t.bot.Request(kick); err != nil {
		return fmt.Errorf("ошибка транспорта: удаление участника: %w", err)
	}
	return nil
}

// RestrictMember переводит участника в read-only до указанного времени.
func (t *Transport) RestrictMember(_ context.Context, chatID, userID int64, until time.Time) error {
	restrict := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
		UntilDate: until.Unix(),
		// Пустые разрешения: участник может только читать.
		Permissions: &tgbotapi.ChatPermissions{},
	}
	if _, err := t.bot.Request(restrict); err != nil {
		return fmt.Errorf("ошибка транспорта: ограничение участника: %w", err)
	}
	return nil
}

// ListAdministrators возвращает администраторов чата.
func (t *Transport) ListAdministrators(_ context.Context, chatID int64) ([]tgbotapi.ChatMember, error) {
	admins, err := t.bot.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка транспорта: список администраторов: %w", err)
	}
	return admins, nil
}

// AdminMentions возвращает HTML-упоминания администраторов чата (без ботов).
func (t *Transport) AdminMentions(ctx context.Context, chatID int64) ([]string, error) {
	admins, err := t.ListAdministrators(ctx, chatID)
	if err != nil {
		return nil, err
	}
	mentions := make([]string, 0, len(admins))
	for _, admin := range admins {
		if admin.User == nil || admin.User.IsBot {
			continue
		}
		mentions = append(mentions, UserMention(admin.User))
	}
	return mentions, nil
}

// IsAdmin сообщает, является ли пользователь администратором чата.
func (t *Transport) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	admins, err := t.ListAdministrators(ctx, chatID)
	if err != nil {
		return false, err
	}
	for _, admin := range admins {
		if admin.User != nil && admin.User.ID == userID {
			return true, nil
		}
	}
	return false, nil
}

// UserMention строит HTML-упоминание пользователя.
func UserMention(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, u.ID, name)
}
