// Package rating — handlers.go связывает рейтинг с Telegram: ответы на
// триггеры с кнопкой «Отменить», команды !me и !top, обработка отмены.
package rating

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/fallncrlss/comparty-bot/internal/common"
	"github.com/fallncrlss/comparty-bot/internal/config"
	"github.com/fallncrlss/comparty-bot/internal/metrics"
)

// Handler обрабатывает события рейтинга.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
	cfg     *config.Config
}

// NewHandler создаёт обработчик рейтинга.
func NewHandler(service *Service, bot *tgbotapi.BotAPI, cfg *config.Config) *Handler {
	return &Handler{service: service, bot: bot, cfg: cfg}
}

// IdentityFromMessage строит действующее лицо операции.
// Посты от имени канала или анонимного администратора получают
// синтетическую личность с идентификатором чата-отправителя.
func IdentityFromMessage(msg *tgbotapi.Message) Identity {
	if msg.SenderChat != nil {
		return Identity{
			ID:        msg.SenderChat.ID,
			FirstName: msg.SenderChat.Title,
			Synthetic: true,
		}
	}
	if msg.From == nil {
		// Сообщение без отправителя (служебные события): личность
		// помечается синтетической, рейтинг по ней не изменяется.
		return Identity{Synthetic: true}
	}
	return IdentityFromUser(msg.From)
}

// IdentityFromUser строит личность обычного пользователя.
func IdentityFromUser(u *tgbotapi.User) Identity {
	return Identity{
		ID:        u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// HandleTrigger обрабатывает триггер рейтинга в ответе на сообщение.
// Вызывающий гарантирует, что msg.ReplyToMessage и его автор не nil и не бот.
func (h *Handler) HandleTrigger(ctx context.Context, msg *tgbotapi.Message, trig Trigger) {
	chatID := msg.Chat.ID
	initiator := IdentityFromMessage(msg)
	target := IdentityFromUser(msg.ReplyToMessage.From)

	// Целевой пользователь мог ни разу не писать в чате — регистрируем.
	isAdmin := func(context.Context) bool { return h.isChatAdmin(chatID, target.ID) }
	if _, err := h.service.CreateUserIfAbsent(ctx, target, chatID, isAdmin); err != nil {
		log.WithError(err).WithField("user_id", target.ID).Error("Не удалось зарегистрировать целевого пользователя")
		h.reply(msg, "Невозможно изменить рейтинг", nil)
		return
	}

	recordID, applied, err := h.service.ApplyTrigger(ctx, initiator, target, chatID, trig)
	if err != nil {
		if common.IsUserError(err) {
			h.reply(msg, err.Error(), nil)
			return
		}
		log.WithError(err).WithFields(log.Fields{
			"chat_id":    chatID,
			"by_user_id": initiator.ID,
		}).Error("Ошибка изменения рейтинга")
		h.reply(msg, "Невозможно изменить рейтинг", nil)
		return
	}

	newScore, err := h.service.GetScore(ctx, target.ID, chatID)
	if err != nil {
		log.WithError(err).WithField("user_id", target.ID).Error("Не удалось получить новый рейтинг")
		h.reply(msg, "Невозможно изменить рейтинг", nil)
		return
	}

	text := fmt.Sprintf(
		"Пользователь <b>%s</b> изменил рейтинг <b>%s</b> до <b>%s</b> (%s%s)",
		initiator.FullName(),
		target.FullName(),
		newScore.StringFixed(2),
		trig.Sign(),
		applied.Abs().StringFixed(2),
	)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				"Отменить",
				fmt.Sprintf("%d %s", initiator.ID, recordID),
			),
		),
	)
	sent, ok := h.reply(msg, text, &keyboard)
	if !ok {
		return
	}

	// Отсоединённый таймер снимает кнопку «Отменить» по истечении окна.
	// Его сбой некритичен: сам колбэк остаётся валидным.
	h.scheduleKeyboardStrip(chatID, sent.MessageID)
}

// HandleMe — команда !me. Показывает рейтинг автора сообщения.
func (h *Handler) HandleMe(ctx context.Context, msg *tgbotapi.Message) {
	ident := IdentityFromMessage(msg)
	score, err := h.service.GetScore(ctx, ident.ID, msg.Chat.ID)
	if err != nil {
		log.WithError(err).WithField("user_id", ident.ID).Error("Ошибка получения рейтинга")
		h.reply(msg, "Не удалось получить рейтинг", nil)
		return
	}
	h.reply(msg, fmt.Sprintf(
		"Пользователь: <b>%s</b>\nРейтинг: <b>%s</b>",
		ident.FullName(), score.StringFixed(2),
	), nil)
}

// HandleTop — команда !top. Показывает топ пользователей чата по рейтингу.
func (h *Handler) HandleTop(ctx context.Context, msg *tgbotapi.Message) {
	top, err := h.service.TopByScore(ctx, msg.Chat.ID)
	if err != nil {
		log.WithError(err).WithField("chat_id", msg.Chat.ID).Error("Ошибка получения топа")
		h.reply(msg, "Не удалось получить топ пользователей", nil)
		return
	}
	h.reply(msg, FormatTop(top), nil)
}

// FormatTop форматирует топ пользователей для отправки в чат.
func FormatTop(top []TopUser) string {
	var b strings.Builder
	b.WriteString("Топ самых одобряемых пользователей данного чата:")
	for i, u := range top {
		fmt.Fprintf(&b, "\n%d. <b>%s</b> <b>%s</b>", i+1, u.FullName, u.Amount.StringFixed(2))
	}
	return b.String()
}

// HandleUndoCallback обрабатывает нажатие кнопки «Отменить».
// Отменить изменение может только его инициатор; чужое нажатие получает
// отказ без каких-либо других действий.
func (h *Handler) HandleUndoCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	parts := strings.Fields(cb.Data)
	if len(parts) != 2 {
		log.WithField("data", cb.Data).Error("Некорректные данные колбэка отмены")
		return
	}
	initiatorID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		log.WithError(err).WithField("data", cb.Data).Error("Некорректный идентификатор инициатора в колбэке")
		return
	}
	recordID, err := uuid.Parse(parts[1])
	if err != nil {
		// Повреждённый идентификатор записи: событие бросаем, процесс живёт.
		log.WithError(err).WithField("data", cb.Data).Error("Некорректный идентификатор записи рейтинга в колбэке")
		return
	}

	if cb.From == nil || cb.From.ID != initiatorID {
		h.answerAlert(cb.ID, common.ErrUndoNotAllowed.Error())
		return
	}

	if err := h.service.DeleteRecord(ctx, recordID); err != nil {
		log.WithError(err).WithField("record_id", recordID).Error("Ошибка отмены изменения рейтинга")
		h.answerAlert(cb.ID, "Не удалось отменить изменение рейтинга")
		return
	}

	h.answerAlert(cb.ID, "Изменение рейтинга отменено")

	if cb.Message != nil {
		del := tgbotapi.NewDeleteMessage(cb.Message.Chat.ID, cb.Message.MessageID)
		if _, err := h.bot.Request(del); err != nil {
			log.WithError(err).Warn("Не удалось удалить сообщение с подтверждением")
		}
	}
}

// scheduleKeyboardStrip снимает inline-клавиатуру по истечении окна отмены.
func (h *Handler) scheduleKeyboardStrip(chatID int64, messageID int) {
	time.AfterFunc(h.cfg.RatingUndoWindow(), func() {
		edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.InlineKeyboardMarkup{
			InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
		})
		if _, err := h.bot.Request(edit); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"chat_id":    chatID,
				"message_id": messageID,
			}).Warn("Не удалось снять кнопку отмены")
		}
	})
}

func (h *Handler) isChatAdmin(chatID, userID int64) bool {
	admins, err := h.bot.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Не удалось получить администраторов чата")
		return false
	}
	for _, admin := range admins {
		if admin.User != nil && admin.User.ID == userID {
			return true
		}
	}
	return false
}

func (h *Handler) reply(msg *tgbotapi.Message, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, bool) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ReplyToMessageID = msg.MessageID
	out.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		out.ReplyMarkup = keyboard
	}
	sent, err := h.bot.Send(out)
	if err != nil {
		metrics.BotSendErrors.Inc()
		log.WithError(err).WithField("chat_id", msg.Chat.ID).Error("Ошибка отправки сообщения")
		return tgbotapi.Message{}, false
	}
	return sent, true
}

func (h *Handler) answerAlert(callbackID, text string) {
	cb := tgbotapi.NewCallbackWithAlert(callbackID, text)
	if _, err := h.bot.Request(cb); err != nil {
		metrics.BotSendErrors.Inc()
		log.WithError(err).Error("Ошибка ответа на колбэк")
	}
}
