// Package members отвечает за регистрацию пользователей и их членство в чатах.
// models.go описывает структуры таблиц users и chat_users.
package members

import "strings"

// User — участник чата.
type User struct {
	ID        int64  `db:"user_id"`
	Username  string `db:"username"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
}

// FullName возвращает отображаемое имя пользователя.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ChatUser — факт членства пользователя в чате.
type ChatUser struct {
	ChatID int64 `db:"chat_id"`
	UserID int64 `db:"user_id"`
}
