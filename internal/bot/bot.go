// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go подключает обработчики событий и запускает polling.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/fallncrlss/comparty-bot/internal/bot/middleware"
	"github.com/fallncrlss/comparty-bot/internal/config"
	"github.com/fallncrlss/comparty-bot/internal/features/admincmds"
	"github.com/fallncrlss/comparty-bot/internal/features/chats"
	"github.com/fallncrlss/comparty-bot/internal/features/moderation"
	"github.com/fallncrlss/comparty-bot/internal/features/rating"
	"github.com/fallncrlss/comparty-bot/internal/telegram"
)

const ratingDisabledText = "Подсчёт рейтинга отключён в этом чате"

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api       *tgbotapi.BotAPI
	cfg       *config.Config
	transport *telegram.Transport

	chatService   *chats.Service
	ratingService *rating.Service
	moderation    *moderation.Service

	ratingHandler *rating.Handler
	adminHandler  *admincmds.Handler

	rateLimiter *middleware.RateLimiter

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	transport *telegram.Transport,
	chatService *chats.Service,
	ratingService *rating.Service,
	moderationService *moderation.Service,
	ratingHandler *rating.Handler,
	adminHandler *admincmds.Handler,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:           api,
		cfg:           cfg,
		transport:     transport,
		chatService:   chatService,
		ratingService: ratingService,
		moderation:    moderationService,
		ratingHandler: ratingHandler,
		adminHandler:  adminHandler,
		rateLimiter:   middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		inflight:      make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				b.rateLimiter.Close()
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.CallbackQuery != nil {
		b.ratingHandler.HandleUndoCallback(ctx, update.CallbackQuery)
		return
	}

	message := update.Message
	if message == nil || message.Chat == nil {
		return
	}

	// Миграция группы в супергруппу: переносим историю на новый идентификатор.
	if message.MigrateFromChatID != 0 {
		if err := b.chatService.MigrateChat(ctx, message.MigrateFromChatID, message.Chat.ID); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"from_chat_id": message.MigrateFromChatID,
				"to_chat_id":   message.Chat.ID,
			}).Error("Ошибка миграции чата")
		}
		return
	}

	if !message.Chat.IsGroup() && !message.Chat.IsSuperGroup() {
		return
	}

	chatID := message.Chat.ID
	if err := b.chatService.CreateIfNotExists(ctx, chats.Chat{ID: chatID, Title: message.Chat.Title}); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка регистрации чата")
		return
	}

	if message.NewChatMembers != nil {
		b.handleNewMembers(ctx, message)
		return
	}

	if message.Text == "" {
		return
	}

	middleware.LogMessage(message)

	if message.From != nil && !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("Сообщение отброшено антифлудом")
		return
	}

	if message.From == nil && message.SenderChat == nil {
		return
	}
	initiator := rating.IdentityFromMessage(message)

	isAdmin := func(ctx context.Context) bool { return b.isAdmin(ctx, chatID, initiator.ID) }
	if _, err := b.ratingService.CreateUserIfAbsent(ctx, initiator, chatID, isAdmin); err != nil {
		log.WithError(err).WithField("user_id", initiator.ID).Warn("Ошибка регистрации пользователя")
	}

	verdict, err := b.moderation.CheckMessage(ctx, chatID, message.MessageID, initiator, message.Text)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка модерации сообщения")
	}
	if verdict.Action != moderation.ActionNone {
		// Сообщение изъято модерацией: команды и триггеры не обрабатываются.
		return
	}

	if strings.HasPrefix(message.Text, "!") {
		b.routeCommand(ctx, message)
		return
	}

	b.handleRatingTrigger(ctx, message)
}

// routeCommand маршрутизирует команду вида "!..." к нужному обработчику.
// Административные команды доступны только администраторам; остальные могут
// быть закрыты для обычных участников настройкой чата.
func (b *Bot) routeCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	settings, err := b.chatService.GetSettings(ctx, chatID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка получения настроек чата")
		return
	}

	var userID int64
	if message.From != nil {
		userID = message.From.ID
	}
	isAdmin := b.isAdmin(ctx, chatID, userID)

	fields := strings.Fields(message.Text)
	cmd := strings.ToLower(fields[0])

	log.WithFields(log.Fields{
		"cmd":      cmd,
		"chat_id":  chatID,
		"user_id":  userID,
		"is_admin": isAdmin,
	}).Debug("Маршрутизация команды")

	if settings.CommandsAdminOnly && !isAdmin {
		return
	}

	switch cmd {
	case "!help":
		b.adminHandler.HandleHelp(ctx, message)

	case "!report":
		if isAdmin {
			b.adminHandler.HandleReport(ctx, message)
		}

	case "!ban":
		if isAdmin {
			b.adminHandler.HandleBan(ctx, message)
		}

	case "!ro":
		if isAdmin && len(fields) > 1 {
			b.adminHandler.HandleMute(ctx, message, fields[1])
		}

	case "!settings":
		if isAdmin {
			b.adminHandler.HandleSettings(ctx, message, settings)
		}

	case "!me":
		if !settings.RatingEnabled {
			b.replyText(message, ratingDisabledText)
			return
		}
		b.ratingHandler.HandleMe(ctx, message)

	case "!top":
		if !settings.RatingEnabled {
			b.replyText(message, ratingDisabledText)
			return
		}
		b.ratingHandler.HandleTop(ctx, message)

	case "!enable_rating_count":
		if isAdmin {
			settings.RatingEnabled = true
			b.adminHandler.HandleChangeSettings(ctx, message, settings)
		}

	case "!disable_rating_count":
		if isAdmin {
			settings.RatingEnabled = false
			b.adminHandler.HandleChangeSettings(ctx, message, settings)
		}

	case "!enable_commands_for_admin_only":
		if isAdmin {
			settings.CommandsAdminOnly = true
			b.adminHandler.HandleChangeSettings(ctx, message, settings)
		}

	case "!disable_commands_for_admin_only":
		if isAdmin {
			settings.CommandsAdminOnly = false
			b.adminHandler.HandleChangeSettings(ctx, message, settings)
		}
	}
}

// handleRatingTrigger распознаёт триггер рейтинга в ответе на сообщение.
func (b *Bot) handleRatingTrigger(ctx context.Context, message *tgbotapi.Message) {
	trig, ok := rating.ParseTrigger(message.Text)
	if !ok {
		return
	}
	if message.ReplyToMessage == nil || message.ReplyToMessage.From == nil {
		return
	}
	if message.ReplyToMessage.From.IsBot {
		return
	}

	settings, err := b.chatService.GetSettings(ctx, message.Chat.ID)
	if err != nil {
		log.WithError(err).WithField("chat_id", message.Chat.ID).Error("Ошибка получения настроек чата")
		return
	}
	if !settings.RatingEnabled {
		return
	}

	b.ratingHandler.HandleTrigger(ctx, message, trig)
}

// handleNewMembers обрабатывает вступление новых участников:
// модерация (репутация, имя), затем регистрация с базовым начислением.
func (b *Bot) handleNewMembers(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	for _, user := range message.NewChatMembers {
		if user.IsBot {
			continue
		}

		ident := rating.IdentityFromUser(&user)
		verdict, err := b.moderation.CheckNewMember(ctx, chatID, message.MessageID, ident)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"chat_id": chatID,
				"user_id": ident.ID,
			}).Error("Ошибка модерации нового участника")
		}
		if verdict.Action == moderation.ActionKickMember && !verdict.EscalationFailed {
			continue
		}

		if _, err := b.ratingService.CreateUserIfAbsent(ctx, ident, chatID, nil); err != nil {
			log.WithError(err).WithField("user_id", ident.ID).Warn("Ошибка регистрации нового участника")
		}
	}
}

func (b *Bot) isAdmin(ctx context.Context, chatID, userID int64) bool {
	if userID == 0 {
		return false
	}
	ok, err := b.transport.IsAdmin(ctx, chatID, userID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Не удалось проверить права администратора")
		return false
	}
	return ok
}

func (b *Bot) replyText(message *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(message.Chat.ID, text)
	out.ReplyToMessageID = message.MessageID
	if _, err := b.api.Send(out); err != nil {
		log.WithError(err).WithField("chat_id", message.Chat.ID).Error("Ошибка отправки сообщения")
	}
}
