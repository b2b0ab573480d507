// Package moderation реализует конвейер анти-абьюз проверок:
// ссылки, новые участники, имена, эвристики контента.
// links.go находит URL в тексте и решает, запрещён ли он.
package moderation

import (
	"regexp"
	"strings"
)

// Порог «короткой ссылки»: URL такой длины почти наверняка сокращатель.
const shortLinkLimit = 6

var urlRe = regexp.MustCompile(`(http(s)?://.)?(www\.)?[-a-zA-Z0-9@:%._\+~#=]{2,256}\.[a-z]{2,6}\b([-a-zA-Z0-9@:%_\+.~#?&//=]*)`)

// FindURL возвращает первую URL-подобную подстроку текста.
func FindURL(text string) (string, bool) {
	url := urlRe.FindString(text)
	return url, url != ""
}

// LinkPolicy решает, является ли ссылка запрещённой.
type LinkPolicy struct {
	stopwords []string
}

// NewLinkPolicy создаёт политику проверки ссылок.
func NewLinkPolicy(stopwords []string) LinkPolicy {
	return LinkPolicy{stopwords: stopwords}
}

// Prohibited возвращает найденную запрещённую ссылку.
// Ссылка запрещена, если содержит стоп-слово или слишком коротка
// (эвристика обхода через сокращатели URL).
func (p LinkPolicy) Prohibited(text string) (string, bool) {
	url, ok := FindURL(text)
	if !ok {
		return "", false
	}
	if len(url) <= shortLinkLimit {
		return url, true
	}
	for _, word := range p.stopwords {
		if strings.Contains(url, word) {
			return url, true
		}
	}
	return "", false
}
