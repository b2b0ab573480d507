// Package chats — repository.go выполняет операции с таблицами chats и chat_settings.
package chats

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с таблицами chats и chat_settings.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий чатов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureChat создаёт чат, если его ещё нет. Название обновляется при изменении.
func (r *Repository) EnsureChat(ctx context.Context, chat Chat) (bool, error) {
	query := `
		INSERT INTO chats (chat_id, title)
		VALUES ($1, $2)
		ON CONFLICT (chat_id) DO UPDATE SET title = EXCLUDED.title
		WHERE chats.title IS DISTINCT FROM EXCLUDED.title
	`
	tag, err := r.db.Exec(ctx, query, chat.ID, chat.Title)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// EnsureSettings создаёт настройки чата с дефолтами, если их ещё нет.
func (r *Repository) EnsureSettings(ctx context.Context, chatID int64) (bool, error) {
	query := `
		INSERT INTO chat_settings (chat_id, is_rating_count, commands_for_admin_only)
		VALUES ($1, TRUE, FALSE)
		ON CONFLICT (chat_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, chatID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetSettings возвращает настройки чата.
// Читается на каждой операции: кэширования нет намеренно,
// устаревшие настройки недопустимы.
func (r *Repository) GetSettings(ctx context.Context, chatID int64) (Settings, error) {
	query := `
		SELECT chat_id, is_rating_count, commands_for_admin_only
		FROM chat_settings WHERE chat_id = $1
	`
	var s Settings
	err := r.db.QueryRow(ctx, query, chatID).Scan(
		&s.ChatID, &s.RatingEnabled, &s.CommandsAdminOnly,
	)
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ReplaceSettings атомарно заменяет весь кортеж настроек чата.
func (r *Repository) ReplaceSettings(ctx context.Context, s Settings) error {
	query := `
		UPDATE chat_settings
		SET is_rating_count = $2, commands_for_admin_only = $3
		WHERE chat_id = $1
	`
	_, err := r.db.Exec(ctx, query, s.ChatID, s.RatingEnabled, s.CommandsAdminOnly)
	return err
}

// ListRatingEnabled возвращает идентификаторы чатов с включённым подсчётом рейтинга.
func (r *Repository) ListRatingEnabled(ctx context.Context) ([]int64, error) {
	query := `SELECT chat_id FROM chat_settings WHERE is_rating_count`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MigrateChat переносит чат и все связанные строки на новый идентификатор.
// Telegram присылает migrate_from/migrate_to при апгрейде группы до супергруппы.
func (r *Repository) MigrateChat(ctx context.Context, fromID, toID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Новый идентификатор мог успеть зарегистрироваться отдельным чатом
	// до обработки события миграции — такая пустая запись удаляется.
	if _, err := tx.Exec(ctx, `DELETE FROM chats WHERE chat_id = $1`, toID); err != nil {
		return err
	}
	// Дочерние таблицы переезжают каскадом (ON UPDATE CASCADE).
	if _, err := tx.Exec(ctx, `UPDATE chats SET chat_id = $2 WHERE chat_id = $1`, fromID, toID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
