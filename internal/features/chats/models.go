// Package chats отвечает за чаты и их настройки (политика доступа к функциям).
// models.go описывает структуры таблиц chats и chat_settings.
package chats

// Chat — групповой чат, в котором работает бот.
type Chat struct {
	ID    int64  `db:"chat_id"`
	Title string `db:"title"`
}

// Settings — настройки чата. Кортеж всегда заменяется целиком,
// частичных обновлений нет.
type Settings struct {
	ChatID int64 `db:"chat_id"`
	// Подсчёт рейтинга включён (гейт для всего пути рейтинга)
	RatingEnabled bool `db:"is_rating_count"`
	// Команды доступны только администраторам чата
	CommandsAdminOnly bool `db:"commands_for_admin_only"`
}
