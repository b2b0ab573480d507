// Package common содержит общие утилиты, используемые во всём проекте.
package common

// BoolToSwitch переводит булево значение в человекочитаемое «Включён/Отключён».
// Используется при выводе настроек чата.
func BoolToSwitch(v bool) string {
	if v {
		return "Включён"
	}
	return "Отключён"
}
