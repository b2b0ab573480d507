// Package moderation — names.go проверяет отображаемые имена участников.
package moderation

import "strings"

// NamePolicy решает, запрещено ли отображаемое имя участника.
type NamePolicy struct {
	stopwords []string
}

// NewNamePolicy создаёт политику проверки имён.
func NewNamePolicy(stopwords []string) NamePolicy {
	return NamePolicy{stopwords: stopwords}
}

// Prohibited возвращает true, если имя содержит стоп-слово.
// Сравнение без учёта регистра.
func (p NamePolicy) Prohibited(fullName string) bool {
	lowered := strings.ToLower(fullName)
	for _, word := range p.stopwords {
		if strings.Contains(lowered, strings.ToLower(word)) {
			return true
		}
	}
	return false
}
