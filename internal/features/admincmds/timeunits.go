// Package admincmds реализует административные команды чата:
// !report, !ban, !ro, просмотр и переключение настроек.
// timeunits.go разбирает срок ограничения вида "30m", "1h", "2d".
package admincmds

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var timeUnitRe = regexp.MustCompile(`^(\d+)([smhd])$`)

// RestrictTime — срок read-only ограничения.
type RestrictTime struct {
	Amount int
	Unit   byte // 's' | 'm' | 'h' | 'd'
}

// ParseRestrictTime разбирает строку срока ограничения.
func ParseRestrictTime(s string) (RestrictTime, error) {
	m := timeUnitRe.FindStringSubmatch(s)
	if m == nil {
		return RestrictTime{}, fmt.Errorf("некорректный срок ограничения: %q", s)
	}
	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return RestrictTime{}, fmt.Errorf("некорректный срок ограничения: %q", s)
	}
	return RestrictTime{Amount: amount, Unit: m[2][0]}, nil
}

// Duration переводит срок в time.Duration.
func (t RestrictTime) Duration() time.Duration {
	switch t.Unit {
	case 'd':
		return time.Duration(t.Amount) * 24 * time.Hour
	case 'h':
		return time.Duration(t.Amount) * time.Hour
	case 'm':
		return time.Duration(t.Amount) * time.Minute
	default:
		return time.Duration(t.Amount) * time.Second
	}
}

// ExpireAt возвращает момент окончания ограничения, отсчитанный от from.
func (t RestrictTime) ExpireAt(from time.Time) time.Time {
	return from.Add(t.Duration())
}

func (t RestrictTime) String() string {
	return fmt.Sprintf("%d%c", t.Amount, t.Unit)
}
