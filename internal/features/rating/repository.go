// Package rating — repository.go выполняет операции с таблицей rating_records.
package rating

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository работает с таблицей rating_records.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий рейтинга.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateRecord вставляет запись рейтинга и возвращает её идентификатор.
func (r *Repository) CreateRecord(ctx context.Context, req RecordRequest) (uuid.UUID, error) {
	query := `
		INSERT INTO rating_records (id, chat_id, user_id, by_user_id, amount, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	id := uuid.New()
	_, err := r.db.Exec(ctx, query,
		id, req.ChatID, req.UserID, req.ByUserID, req.Amount.StringFixed(2), req.Comment,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("вставка записи рейтинга: %w", err)
	}
	return id, nil
}

// FetchScore возвращает текущий рейтинг пользователя в чате.
// Рейтинг всегда пересчитывается суммой по записям — кэша нет,
// поэтому расхождение невозможно.
func (r *Repository) FetchScore(ctx context.Context, userID, chatID int64) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)::text
		FROM rating_records
		WHERE user_id = $1 AND chat_id = $2
	`
	var raw string
	if err := r.db.QueryRow(ctx, query, userID, chatID).Scan(&raw); err != nil {
		return decimal.Decimal{}, fmt.Errorf("подсчёт рейтинга: %w", err)
	}
	score, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("разбор суммы рейтинга %q: %w", raw, err)
	}
	return score, nil
}

// FetchTopByScore возвращает топ пользователей чата по убыванию рейтинга.
func (r *Repository) FetchTopByScore(ctx context.Context, chatID int64, limit int) ([]TopUser, error) {
	query := `
		SELECT TRIM(u.first_name || ' ' || COALESCE(u.last_name, '')) AS full_name,
		       SUM(rr.amount)::text AS rating_amount
		FROM rating_records rr
		JOIN users u ON u.user_id = rr.user_id
		WHERE rr.chat_id = $1
		GROUP BY u.user_id
		ORDER BY SUM(rr.amount) DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("выборка топа по рейтингу: %w", err)
	}
	defer rows.Close()

	var top []TopUser
	for rows.Next() {
		var (
			u   TopUser
			raw string
		)
		if err := rows.Scan(&u.FullName, &raw); err != nil {
			return nil, fmt.Errorf("чтение строки топа: %w", err)
		}
		if u.Amount, err = decimal.NewFromString(raw); err != nil {
			return nil, fmt.Errorf("разбор суммы рейтинга %q: %w", raw, err)
		}
		top = append(top, u)
	}
	return top, rows.Err()
}

// DeleteRecord жёстко удаляет запись рейтинга.
// Возвращает false, если записи уже нет.
func (r *Repository) DeleteRecord(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM rating_records WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("удаление записи рейтинга: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
