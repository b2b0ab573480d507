// Package moderation — content.go содержит эвристики контента.
// Политика и оскорбления не наказываются: бот лишь напоминает правила
// и направляет конфликты в команду !report.
package moderation

import "strings"

var (
	politicsMarkers = []string{
		"политика", "выборы", "митинг", "президент", "оппозици",
		"politics", "election",
	}
	insultMarkers = []string{
		"дурак", "идиот", "дебил", "тупой", "придурок",
		"idiot", "stupid", "moron",
	}
)

// AdvisoryMessage — двуязычное напоминание о правилах общения.
const AdvisoryMessage = "Пожалуйста, соблюдайте правила общения: без политики и оскорблений. " +
	"Конфликтные ситуации направляйте администраторам командой !report.\n" +
	"Please keep the conversation civil: no politics or insults. " +
	"Report conflicts to the administrators via !report."

// ContentAdvisory возвращает true, если текст задевает политику
// или содержит оскорбления. Отсутствие срабатывания — обычный путь.
func ContentAdvisory(text string) bool {
	lowered := strings.ToLower(text)
	for _, marker := range politicsMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	for _, marker := range insultMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
