// Package rating — power.go ограничивает сумму изменения «силой» инициатора.
// Сила — квадратный корень из текущего рейтинга: новичок двигает рейтинг
// слабо, заслуженный участник — заметно, но никогда неограниченно.
package rating

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/fallncrlss/comparty-bot/internal/common"
)

// ValidAmount возвращает подписанную сумму изменения рейтинга для триггера
// при текущем рейтинге инициатора.
//
// Правила:
//   - отрицательный рейтинг → common.ErrNegativeRating;
//   - явная сумма больше силы → common.AmountExceedsPowerError;
//   - триггер без суммы переносит всю силу целиком;
//   - знак применяется последним: Decrease даёт отрицательную сумму.
func (t Trigger) ValidAmount(score decimal.Decimal) (decimal.Decimal, error) {
	if score.IsNegative() {
		return decimal.Decimal{}, common.ErrNegativeRating
	}

	power := decimal.NewFromFloat(math.Sqrt(score.InexactFloat64()))

	amount := power
	if t.HasAmount {
		if t.Amount.GreaterThan(power) {
			return decimal.Decimal{}, &common.AmountExceedsPowerError{Power: power}
		}
		amount = t.Amount
	}

	if t.Decrease {
		amount = amount.Neg()
	}
	return amount, nil
}
