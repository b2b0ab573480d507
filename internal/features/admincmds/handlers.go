// Package admincmds — handlers.go обрабатывает административные команды.
package admincmds

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/fallncrlss/comparty-bot/internal/common"
	"github.com/fallncrlss/comparty-bot/internal/features/chats"
	"github.com/fallncrlss/comparty-bot/internal/telegram"
)

const replyRequiredText = "Используйте эту команду в ответ на сообщение!"

// HelpText — справка по командам бота.
const HelpText = `<b>Основные команды:</b>
<code>!help</code> – вывести данное сообщение

<code>!report</code> – уведомить всех администраторов чата

<code>!ban</code> – бан ответом на сообщение требуемого пользователя

<code>!ro [time]</code> – read-only mode ответом на сообщение требуемого пользователя на введённое время, пример, <code>!ro 1h</code>.
В качестве единиц возможно использовать <code>s</code> | <code>m</code> | <code>h</code> | <code>d</code> секунды, минуты, часы, дни соответственно.

<b>Настройка чата:</b>
<code>!settings</code> – текущие настройки чата

<code>!disable_rating_count</code> – отключить подсчёт рейтинга. При отключении данные не стираются

<code>!enable_rating_count</code> – включить подсчёт рейтинга (по умолчанию, включён)

<code>!enable_commands_for_admin_only</code> – команды доступны исключительно администраторам чата

<code>!disable_commands_for_admin_only</code> – команды доступны для всех участников (по умолчанию)

<b>Рейтинг:</b>
<code>!me</code> – вывести свой рейтинг

<code>!top</code> – вывести топ пользователей по рейтингу

<code>+</code> – добавить рейтинг ответом на сообщение требуемого пользователя.
Валидные способы: <code>+</code>, <code>+1</code>, <code>+1.23</code>, <code>спасибо</code>, <code>спс</code>, <code>благодарю</code>, <code>thanks</code>, <code>thx</code>, <code>thank you</code>, <code>👍</code>

<code>-</code> (minus) – уменьшить рейтинг ответом на сообщение требуемого пользователя.
Валидные способы: <code>-</code>, <code>-1</code>, <code>-1.23</code>, <code>👎</code>

Также этот бот:
- проверяет новых пользователей в чате в соответствии с <a href='https://cas.chat'>CAS</a> и общими ограничениями
- проверяет ссылки в соответствии с общими ограничениями`

// Handler обрабатывает административные команды.
type Handler struct {
	transport *telegram.Transport
	chats     *chats.Service
}

// NewHandler создаёт обработчик административных команд.
func NewHandler(transport *telegram.Transport, chatService *chats.Service) *Handler {
	return &Handler{transport: transport, chats: chatService}
}

// HandleHelp — команда !help.
func (h *Handler) HandleHelp(ctx context.Context, msg *tgbotapi.Message) {
	h.reply(ctx, msg, HelpText)
}

// HandleReport — команда !report: упоминает всех администраторов чата.
func (h *Handler) HandleReport(ctx context.Context, msg *tgbotapi.Message) {
	if msg.ReplyToMessage == nil {
		h.reply(ctx, msg, replyRequiredText)
		return
	}

	mentions, err := h.transport.AdminMentions(ctx, msg.Chat.ID)
	if err != nil {
		log.WithError(err).WithField("chat_id", msg.Chat.ID).Error("Не удалось получить администраторов для репорта")
		h.reply(ctx, msg, "Не удалось уведомить администраторов. Повторите попытку позже.")
		return
	}
	text := "Благодарим за репорт! Администрация разберётся в ситуации за кратчайшие сроки. " +
		strings.Join(mentions, " ")
	h.reply(ctx, msg, text)
}

// HandleBan — команда !ban: выгоняет автора процитированного сообщения.
func (h *Handler) HandleBan(ctx context.Context, msg *tgbotapi.Message) {
	if msg.ReplyToMessage == nil || msg.ReplyToMessage.From == nil {
		h.reply(ctx, msg, replyRequiredText)
		return
	}
	target := msg.ReplyToMessage.From

	if err := h.transport.KickMember(ctx, msg.Chat.ID, target.ID); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"chat_id": msg.Chat.ID,
			"user_id": target.ID,
		}).Error("Не удалось выгнать пользователя")
		h.reply(ctx, msg, "Невозможно выгнать пользователя. "+
			"Пожалуйста, убедитесь, что бот имеет соответствующие права и повторите попытку позже.")
		return
	}
	h.reply(ctx, msg, fmt.Sprintf("Пользователь %s выгнан из чата.", telegram.UserMention(target)))
}

// HandleMute — команда !ro <time>: переводит автора процитированного
// сообщения в read-only на заданный срок.
func (h *Handler) HandleMute(ctx context.Context, msg *tgbotapi.Message, arg string) {
	if msg.ReplyToMessage == nil || msg.ReplyToMessage.From == nil {
		h.reply(ctx, msg, replyRequiredText)
		return
	}
	target := msg.ReplyToMessage.From

	restrictTime, err := ParseRestrictTime(arg)
	if err != nil {
		h.reply(ctx, msg, "Некорректный срок. Пример: <code>!ro 1h</code>")
		return
	}

	until := restrictTime.ExpireAt(time.Unix(int64(msg.Date), 0))
	if err := h.transport.RestrictMember(ctx, msg.Chat.ID, target.ID, until); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"chat_id": msg.Chat.ID,
			"user_id": target.ID,
		}).Error("Не удалось ограничить пользователя")
		h.reply(ctx, msg, "Невозможно ограничить права пользователя. "+
			"Пожалуйста, убедитесь, что бот имеет соответствующие права и повторите попытку позже.")
		return
	}
	h.reply(ctx, msg, fmt.Sprintf(
		"Пользователь %s может только читать сообщения на протяжении <b>%s</b>.",
		telegram.UserMention(target), restrictTime,
	))
}

// HandleSettings — команда !settings: показывает текущие настройки чата.
func (h *Handler) HandleSettings(ctx context.Context, msg *tgbotapi.Message, settings chats.Settings) {
	text := fmt.Sprintf(`<b>Настройки чата:</b>
Подсчёт рейтинга: <b>%s</b>
Команды включены исключительно для админов: <b>%s</b>`,
		common.BoolToSwitch(settings.RatingEnabled),
		common.BoolToSwitch(settings.CommandsAdminOnly),
	)
	h.reply(ctx, msg, text)
}

// HandleChangeSettings атомарно заменяет настройки чата и подтверждает.
func (h *Handler) HandleChangeSettings(ctx context.Context, msg *tgbotapi.Message, settings chats.Settings) {
	if err := h.chats.ChangeSettings(ctx, settings); err != nil {
		log.WithError(err).WithField("chat_id", settings.ChatID).Error("Не удалось изменить настройки чата")
		h.reply(ctx, msg, "Не удалось изменить настройки чата")
		return
	}
	h.reply(ctx, msg, "Настройки чата обновлены")
}

func (h *Handler) reply(ctx context.Context, msg *tgbotapi.Message, text string) {
	if err := h.transport.Reply(ctx, msg.Chat.ID, msg.MessageID, text); err != nil {
		log.WithError(err).WithField("chat_id", msg.Chat.ID).Error("Ошибка отправки ответа")
	}
}
