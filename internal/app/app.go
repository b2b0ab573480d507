// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт пулы БД и Redis, репозитории, сервисы,
// обработчики и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/fallncrlss/comparty-bot/internal/bot"
	"github.com/fallncrlss/comparty-bot/internal/config"
	"github.com/fallncrlss/comparty-bot/internal/db/postgres"
	"github.com/fallncrlss/comparty-bot/internal/db/redis"
	"github.com/fallncrlss/comparty-bot/internal/features/admincmds"
	"github.com/fallncrlss/comparty-bot/internal/features/chats"
	"github.com/fallncrlss/comparty-bot/internal/features/members"
	"github.com/fallncrlss/comparty-bot/internal/features/moderation"
	"github.com/fallncrlss/comparty-bot/internal/features/rating"
	"github.com/fallncrlss/comparty-bot/internal/jobs"
	"github.com/fallncrlss/comparty-bot/internal/telegram"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	Redis     *goredis.Client
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Redis (кулдауны) ===
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
	}

	// === 3. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	transport := telegram.NewTransport(botAPI)

	// === 4. Репозитории ===
	memberRepo := members.NewRepository(pool)
	chatRepo := chats.NewRepository(pool)
	ratingRepo := rating.NewRepository(pool)

	// === 5. Сервисы ===
	memberService := members.NewService(memberRepo)
	chatService := chats.NewService(chatRepo)
	cooldown := rating.NewCooldown(rating.NewRedisCooldownStore(redisClient), cfg.RatingCooldown())
	ratingService := rating.NewService(ratingRepo, memberService, cooldown, cfg)
	moderationService := moderation.NewService(
		transport,
		moderation.NewCASClient(cfg.CASAPIURL),
		moderation.NewLinkPolicy(cfg.LinkStopwords),
		moderation.NewNamePolicy(cfg.NameStopwords),
	)

	// === 6. Обработчики ===
	ratingHandler := rating.NewHandler(ratingService, botAPI, cfg)
	adminHandler := admincmds.NewHandler(transport, chatService)

	// === 7. Собираем бота ===
	b := bot.New(
		botAPI, cfg, transport,
		chatService, ratingService, moderationService,
		ratingHandler, adminHandler,
	)

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(cfg, chatService, ratingService, transport)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		Redis:     redisClient,
		BotAPI:    botAPI,
	}, nil
}

// Close освобождает соединения приложения.
func (a *App) Close() {
	a.DB.Close()
	if err := a.Redis.Close(); err != nil {
		log.WithError(err).Warn("Ошибка закрытия Redis")
	}
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Users},
		{2, migration002Chats},
		{3, migration003RatingRecords},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    user_id BIGINT PRIMARY KEY,
    username VARCHAR(255),
    first_name VARCHAR(255) NOT NULL,
    last_name VARCHAR(255),
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
`

// Миграция чатов обновляет chat_id при апгрейде группы до супергруппы,
// поэтому все внешние ключи на chats каскадируют обновление.
var migration002Chats = `
CREATE TABLE IF NOT EXISTS chats (
    chat_id BIGINT PRIMARY KEY,
    title VARCHAR(255),
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS chat_settings (
    chat_id BIGINT PRIMARY KEY REFERENCES chats(chat_id) ON UPDATE CASCADE ON DELETE CASCADE,
    is_rating_count BOOLEAN NOT NULL DEFAULT TRUE,
    commands_for_admin_only BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS chat_users (
    chat_id BIGINT NOT NULL REFERENCES chats(chat_id) ON UPDATE CASCADE ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    joined_at TIMESTAMP DEFAULT NOW(),
    PRIMARY KEY (chat_id, user_id)
);
`

var migration003RatingRecords = `
CREATE TABLE IF NOT EXISTS rating_records (
    id UUID PRIMARY KEY,
    chat_id BIGINT NOT NULL REFERENCES chats(chat_id) ON UPDATE CASCADE ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    by_user_id BIGINT REFERENCES users(user_id),
    amount NUMERIC(12,2) NOT NULL,
    comment TEXT,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_rating_records_chat_user ON rating_records(chat_id, user_id);
CREATE INDEX IF NOT EXISTS idx_rating_records_created_at ON rating_records(created_at DESC);
`
