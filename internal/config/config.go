// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"comparty_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Redis (кулдауны рейтинга) ---
	RedisURL string `envconfig:"REDIS_URL" default:"redis://redis:6379/0"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`
	// Антифлуд: не более N сообщений одного пользователя за окно
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Rating ---
	// Окно кулдауна между изменениями рейтинга одной и той же пары пользователей (секунды)
	RatingCooldownSeconds int `envconfig:"RATING_COOLDOWN" default:"300"`
	// Базовое начисление рейтинга при первой регистрации в чате
	RatingBase int64 `envconfig:"RATING_BASE" default:"10"`
	// Множитель базового начисления для администраторов чата
	RatingAdminBoost int64 `envconfig:"RATING_ADMIN_BOOST" default:"2"`
	// Сколько секунд под сообщением висит кнопка «Отменить»
	RatingUndoWindowSeconds int `envconfig:"RATING_UNDO_WINDOW_SECONDS" default:"60"`
	// Размер топа для !top и ежедневного дайджеста
	RatingTopLimit int `envconfig:"RATING_TOP_LIMIT" default:"15"`

	// --- Moderation ---
	LinkStopwordsRaw string   `envconfig:"MODERATION_LINK_STOPWORDS" default:"bit.ly,tinyurl,clck.ru,goo.su"`
	LinkStopwords    []string `envconfig:"-"`
	NameStopwordsRaw string   `envconfig:"MODERATION_NAME_STOPWORDS" default:"porn,casino,казино,крипто,заработок"`
	NameStopwords    []string `envconfig:"-"`
	CASAPIURL        string   `envconfig:"CAS_API_URL" default:"https://api.cas.chat"`

	// --- Metrics ---
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	// --- Jobs ---
	DigestCronEnabled bool   `envconfig:"DIGEST_CRON_ENABLED" default:"false"`
	DigestCronSpec    string `envconfig:"DIGEST_CRON_SPEC" default:"0 12 * * *"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// RatingCooldown возвращает окно кулдауна как Duration.
func (c *Config) RatingCooldown() time.Duration {
	return time.Duration(c.RatingCooldownSeconds) * time.Second
}

// RatingUndoWindow возвращает время жизни кнопки «Отменить».
func (c *Config) RatingUndoWindow() time.Duration {
	return time.Duration(c.RatingUndoWindowSeconds) * time.Second
}

func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("некорректные RATE_LIMIT_REQUESTS/RATE_LIMIT_WINDOW")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.RatingCooldownSeconds <= 0 {
		return fmt.Errorf("RATING_COOLDOWN должен быть > 0")
	}
	if c.RatingBase <= 0 || c.RatingAdminBoost <= 0 {
		return fmt.Errorf("RATING_BASE и RATING_ADMIN_BOOST должны быть > 0")
	}
	if c.RatingTopLimit <= 0 {
		return fmt.Errorf("RATING_TOP_LIMIT должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	cfg.LinkStopwords = parseCSV(cfg.LinkStopwordsRaw)
	cfg.NameStopwords = parseCSV(cfg.NameStopwordsRaw)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseCSV(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
