// Package members — repository.go выполняет операции с таблицами users и chat_users.
package members

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с таблицами users и chat_users.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий участников.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureUser создаёт пользователя, если его ещё нет.
// Возвращает true, если строка была вставлена.
func (r *Repository) EnsureUser(ctx context.Context, u User) (bool, error) {
	query := `
		INSERT INTO users (user_id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, u.ID, u.Username, u.FirstName, u.LastName)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// EnsureChatUser регистрирует членство пользователя в чате.
// Возвращает true, если членство было создано впервые.
func (r *Repository) EnsureChatUser(ctx context.Context, chatID, userID int64) (bool, error) {
	query := `
		INSERT INTO chat_users (chat_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (chat_id, user_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, chatID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
