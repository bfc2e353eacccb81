package models

import (
	"strings"
	"unicode"
)

// Normalize 将自由文本字段规整为可比较的形式：转小写并去掉所有空白。
// 例如 "5 mg" 与 "5MG" 规整后相等。
func Normalize(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, text)
}
