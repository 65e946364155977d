package i18n

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale is used for new sessions and for unknown locales.
const DefaultLocale = "uz"

var supported = []language.Tag{language.Uzbek, language.Russian, language.English}

// Supported returns the locale codes in picker order.
func Supported() []string {
	return []string{"uz", "ru", "en"}
}

// Normalize maps a locale code such as "ru" or "ru-RU" to a supported base
// code. It reports false for anything else.
func Normalize(code string) (string, bool) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	for _, s := range supported {
		sb, _ := s.Base()
		if sb == base {
			return sb.String(), true
		}
	}
	return "", false
}

// T returns the message for key in locale, falling back to the default locale
// and finally to the key itself.
func T(locale string, key Key) string {
	if tbl, ok := messages[strings.ToLower(locale)]; ok {
		if s, ok := tbl[key]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLocale][key]; ok {
		return s
	}
	return string(key)
}

// Tf formats the message for key with args.
func Tf(locale string, key Key, args ...any) string {
	return fmt.Sprintf(T(locale, key), args...)
}

// FormatPrice renders an amount rounded to whole units with locale digit
// grouping and the currency suffix.
func FormatPrice(locale string, amount decimal.Decimal) string {
	p := message.NewPrinter(tagFor(locale))
	return p.Sprintf("%d", amount.Round(0).IntPart()) + " " + T(locale, Currency)
}

func tagFor(locale string) language.Tag {
	if code, ok := Normalize(locale); ok {
		return language.MustParse(code)
	}
	return language.Uzbek
}
