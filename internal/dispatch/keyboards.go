package dispatch

import (
	"strconv"

	"pharmacy-bot/internal/domain"
	"pharmacy-bot/internal/i18n"
	"pharmacy-bot/internal/usecase"
)

var languageLabels = map[string]string{
	"uz": "🇺🇿 O‘zbekcha",
	"ru": "🇷🇺 Русский",
	"en": "🇬🇧 English",
}

func button(text string, cb Callback) domain.Button {
	return domain.Button{Text: text, Token: cb.Token()}
}

func backRow(locale string) []domain.Button {
	return []domain.Button{button(i18n.T(locale, i18n.BackToMenu), Callback{Action: ActionMenu})}
}

func mainKeyboard(locale string) *domain.Keyboard {
	label := func(k i18n.Key) domain.ReplyButton { return domain.ReplyButton{Text: i18n.T(locale, k)} }
	return &domain.Keyboard{Reply: [][]domain.ReplyButton{
		{label(i18n.MenuButton), label(i18n.BasketButton)},
		{label(i18n.OrdersButton), label(i18n.SearchButton)},
		{label(i18n.LanguageButton)},
	}}
}

func languageKeyboard() *domain.Keyboard {
	row := make([]domain.Button, 0, len(i18n.Supported()))
	for _, code := range i18n.Supported() {
		row = append(row, button(languageLabels[code], Callback{Action: ActionChangeLanguage, Locale: code}))
	}
	return &domain.Keyboard{Inline: [][]domain.Button{row}}
}

func backKeyboard(locale string) *domain.Keyboard {
	return &domain.Keyboard{Inline: [][]domain.Button{backRow(locale)}}
}

func categoryKeyboard(cats []domain.Category, locale string) *domain.Keyboard {
	rows := make([][]domain.Button, 0, len(cats)+1)
	for _, c := range cats {
		rows = append(rows, []domain.Button{button(c.Name, Callback{Action: ActionCategory, ID: c.ID})})
	}
	return &domain.Keyboard{Inline: append(rows, backRow(locale))}
}

func productsKeyboard(products []domain.Product, locale string) *domain.Keyboard {
	rows := make([][]domain.Button, 0, len(products)+1)
	for _, p := range products {
		rows = append(rows, []domain.Button{button(p.Name, Callback{Action: ActionProduct, ID: p.ID})})
	}
	return &domain.Keyboard{Inline: append(rows, backRow(locale))}
}

func productKeyboard(productID int64, locale string) *domain.Keyboard {
	return &domain.Keyboard{Inline: [][]domain.Button{
		{button(i18n.T(locale, i18n.AddToBasket), Callback{Action: ActionAddToBasket, ID: productID})},
		backRow(locale),
	}}
}

// basketKeyboard renders -, count, +, remove per line. The count button
// re-renders the basket in place.
func basketKeyboard(v usecase.BasketView, locale string) *domain.Keyboard {
	rows := make([][]domain.Button, 0, len(v.Lines)+2)
	for _, l := range v.Lines {
		rows = append(rows, []domain.Button{
			button("-", Callback{Action: ActionDecrease, ID: l.ProductID}),
			button(strconv.Itoa(l.Quantity), Callback{Action: ActionViewBasket}),
			button("+", Callback{Action: ActionIncrease, ID: l.ProductID}),
			button("❌", Callback{Action: ActionRemove, ID: l.ProductID}),
		})
	}
	if !v.IsEmpty() {
		rows = append(rows, []domain.Button{
			button(i18n.T(locale, i18n.ClearBasket), Callback{Action: ActionClearBasket}),
			button(i18n.T(locale, i18n.Checkout), Callback{Action: ActionCheckout}),
		})
	}
	return &domain.Keyboard{Inline: append(rows, backRow(locale))}
}

// ordersKeyboard offers confirm and cancel for pending orders only.
func ordersKeyboard(orders []domain.Order, locale string) *domain.Keyboard {
	rows := make([][]domain.Button, 0, len(orders)+1)
	for _, o := range orders {
		if o.Status != domain.OrderPending {
			continue
		}
		label := "#" + shortID(o.ID)
		rows = append(rows, []domain.Button{
			button(label+" ✅", Callback{Action: ActionOrderStatus, OrderID: o.ID, Verb: VerbConfirm}),
			button(label+" ❌", Callback{Action: ActionOrderStatus, OrderID: o.ID, Verb: VerbCancel}),
		})
	}
	return &domain.Keyboard{Inline: append(rows, backRow(locale))}
}

func phoneKeyboard(locale string) *domain.Keyboard {
	return &domain.Keyboard{
		Reply: [][]domain.ReplyButton{
			{{Text: i18n.T(locale, i18n.SharePhone), RequestContact: true}},
			{{Text: i18n.T(locale, i18n.CancelButton)}},
		},
		OneTime: true,
	}
}

func locationKeyboard(locale string) *domain.Keyboard {
	return &domain.Keyboard{
		Reply: [][]domain.ReplyButton{
			{{Text: i18n.T(locale, i18n.ShareLocation), RequestLocation: true}},
			{{Text: i18n.T(locale, i18n.CancelButton)}},
		},
		OneTime: true,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
