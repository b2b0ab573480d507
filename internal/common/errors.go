// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Ошибки рейтинга
var (
	// ErrSelfRating — попытка изменить рейтинг самому себе
	ErrSelfRating = errors.New("нельзя изменять рейтинг самому себе")
	// ErrChannelIdentity — рейтинг меняет канал или анонимный администратор
	ErrChannelIdentity = errors.New("каналы и анонимные администраторы не могут изменять рейтинг")
	// ErrNegativeRating — у инициатора отрицательный рейтинг
	ErrNegativeRating = errors.New("с отрицательным рейтингом изменение чужого рейтинга недоступно")
	// ErrUndoNotAllowed — отмену запросил не инициатор изменения
	ErrUndoNotAllowed = errors.New("это действие может совершить только инициатор данного действия")
)

// AmountExceedsPowerError — запрошенная сумма больше доступной «силы» инициатора.
type AmountExceedsPowerError struct {
	Power decimal.Decimal
}

func (e *AmountExceedsPowerError) Error() string {
	return fmt.Sprintf(
		"У вас недостаточное количество рейтинга для данной операции (максимум: %s)",
		e.Power.StringFixed(2),
	)
}

// CooldownError — инициатор слишком часто меняет рейтинг одного и того же пользователя.
type CooldownError struct {
	Remaining int64 // секунд до окончания кулдауна
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf(
		"Вы слишком часто инициируете изменение рейтинга. Подождите %ds",
		e.Remaining,
	)
}

// IsUserError сообщает, является ли ошибка «пользовательской»:
// такие ошибки отправляются ответом в чат и не логируются как сбои приложения.
func IsUserError(err error) bool {
	var exceeds *AmountExceedsPowerError
	var cooldown *CooldownError
	return errors.Is(err, ErrSelfRating) ||
		errors.Is(err, ErrChannelIdentity) ||
		errors.Is(err, ErrNegativeRating) ||
		errors.Is(err, ErrUndoNotAllowed) ||
		errors.As(err, &exceeds) ||
		errors.As(err, &cooldown)
}
