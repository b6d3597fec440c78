// Package sanitizer нормализует пользовательский ввод: телефоны и имена.
package sanitizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// MaxNameLength ограничение длины имени в рунах
const MaxNameLength = 100

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var reSpaces = regexp.MustCompile(`\s+`)

func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) > MaxNameLength {
		return strings.TrimSpace(string(runes[:MaxNameLength]))
	}
	return s
}

// SanitizeName убирает управляющие символы и лишние пробелы
func SanitizeName(input string) string {
	return Pipeline{dropControl, collapseSpaces, truncate}.Apply(input)
}

// NormalizePhone приводит номер к E.164. Номера без кода страны разбираются
// в регионе region. Пустая строка означает невалидный номер.
func NormalizePhone(phone, region string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(phone, region)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
