// Package rating реализует систему репутации: триггеры, «силу» инициатора,
// кулдауны, журнал изменений и отмену.
// models.go описывает структуры записей рейтинга и действующих лиц.
package rating

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record — неизменяемая запись об изменении рейтинга.
// Удаляется только через отмену инициатором.
type Record struct {
	ID        uuid.UUID       `db:"id"`
	ChatID    int64           `db:"chat_id"`
	UserID    int64           `db:"user_id"`
	ByUserID  *int64          `db:"by_user_id"` // NULL — системное начисление
	Amount    decimal.Decimal `db:"amount"`
	Comment   string          `db:"comment"`
	CreatedAt time.Time       `db:"created_at"`
}

// RecordRequest — данные для вставки новой записи рейтинга.
type RecordRequest struct {
	ChatID   int64
	UserID   int64
	ByUserID *int64
	Amount   decimal.Decimal
	Comment  string
}

// TopUser — строка из топа пользователей по рейтингу.
type TopUser struct {
	FullName string
	Amount   decimal.Decimal
}

// Identity — действующее лицо операции с рейтингом.
// Для постов от имени канала или анонимного администратора создаётся
// синтетическая личность с идентификатором чата-отправителя.
type Identity struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	Synthetic bool
}

// FullName возвращает отображаемое имя действующего лица.
func (i Identity) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}
