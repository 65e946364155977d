package i18n

import "strings"

// Command is a free-text command recognized from the main reply keyboard.
type Command string

const (
	CommandMenu     Command = "menu"
	CommandSearch   Command = "search"
	CommandBasket   Command = "basket"
	CommandOrders   Command = "orders"
	CommandLanguage Command = "language"
)

var commandLabels = []struct {
	cmd Command
	key Key
}{
	{CommandMenu, MenuButton},
	{CommandSearch, SearchButton},
	{CommandBasket, BasketButton},
	{CommandOrders, OrdersButton},
	{CommandLanguage, LanguageButton},
}

// MatchCommand matches text case-insensitively and exactly against the
// labels of locale only. Labels of other locales are not recognized.
func MatchCommand(locale, text string) (Command, bool) {
	text = strings.TrimSpace(text)
	for _, c := range commandLabels {
		if strings.EqualFold(text, T(locale, c.key)) {
			return c.cmd, true
		}
	}
	return "", false
}

// IsCancel reports whether text is the cancel label of locale.
func IsCancel(locale, text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), T(locale, CancelButton))
}
