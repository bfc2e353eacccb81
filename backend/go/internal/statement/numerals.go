package statement

import (
	"strconv"
	"strings"
)

// severalCount 是“几”“些”“several”这类模糊数量的估计值。
const severalCount = 3

var cnDigits = map[rune]int{
	'零': 0, '〇': 0, '一': 1, '二': 2, '两': 2, '俩': 2, '三': 3,
	'四': 4, '五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

var enOnes = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
	"eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13,
	"fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18,
	"nineteen": 19,
}

var enTens = map[string]int{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// parseCount 把阿拉伯数字、中文数字（最大 99）、英文数词或模糊数量转换为整数。
func parseCount(raw string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	switch s {
	case "几", "些", "several":
		return severalCount, true
	}
	if n, ok := parseChineseNumber(s); ok {
		return n, true
	}
	return parseEnglishNumber(s)
}

// parseChineseNumber 支持 十、十一、二十、二十一 等形式。
func parseChineseNumber(s string) (int, bool) {
	if !strings.ContainsRune(s, '十') {
		runes := []rune(s)
		if len(runes) != 1 {
			return 0, false
		}
		n, ok := cnDigits[runes[0]]
		return n, ok
	}
	parts := strings.SplitN(s, "十", 2)
	tens, ones := 1, 0
	if parts[0] != "" {
		r := []rune(parts[0])
		n, ok := cnDigits[r[0]]
		if len(r) != 1 || !ok {
			return 0, false
		}
		tens = n
	}
	if parts[1] != "" {
		r := []rune(parts[1])
		n, ok := cnDigits[r[0]]
		if len(r) != 1 || !ok {
			return 0, false
		}
		ones = n
	}
	return tens*10 + ones, true
}

// parseEnglishNumber 支持 one … ninety-nine，允许用空格或连字符连接。
func parseEnglishNumber(s string) (int, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '-' })
	switch len(fields) {
	case 1:
		if n, ok := enOnes[fields[0]]; ok {
			return n, true
		}
		n, ok := enTens[fields[0]]
		return n, ok
	case 2:
		tens, ok := enTens[fields[0]]
		if !ok {
			return 0, false
		}
		ones, ok := enOnes[fields[1]]
		if !ok || ones > 9 {
			return 0, false
		}
		return tens + ones, true
	}
	return 0, false
}
