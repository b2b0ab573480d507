// Package rating — trigger.go распознаёт в тексте сообщения намерение
// изменить рейтинг: словарные триггеры и явные суммы вида "+1.23".
package rating

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Словари триггеров. Сравнение строгое, по всему тексту сообщения.
var (
	increaseTokens = []string{"+", "спасибо", "спс", "благодарю", "thanks", "thx", "thank you", "👍"}
	decreaseTokens = []string{"-", "👎"}
)

// Trigger — распознанное намерение изменить рейтинг.
type Trigger struct {
	Decrease  bool
	Amount    decimal.Decimal
	HasAmount bool
}

// Sign возвращает знак триггера для отображения.
func (t Trigger) Sign() string {
	if t.Decrease {
		return "-"
	}
	return "+"
}

// ParseTrigger разбирает текст сообщения.
// Возвращает (триггер, true), если текст целиком является триггером,
// и (Trigger{}, false) для любого другого текста — это не ошибка.
func ParseTrigger(text string) (Trigger, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Trigger{}, false
	}

	for _, token := range increaseTokens {
		if text == token {
			return Trigger{}, true
		}
	}
	for _, token := range decreaseTokens {
		if text == token {
			return Trigger{Decrease: true}, true
		}
	}

	// Явная сумма: ведущий "+" или "-" и десятичный литерал,
	// округляемый вниз до двух знаков.
	if strings.HasPrefix(text, "+") || strings.HasPrefix(text, "-") {
		amount, err := decimal.NewFromString(text[1:])
		if err != nil || amount.IsNegative() {
			return Trigger{}, false
		}
		return Trigger{
			Decrease:  text[0] == '-',
			Amount:    amount.RoundFloor(2),
			HasAmount: true,
		}, true
	}

	return Trigger{}, false
}
