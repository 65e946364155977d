package dispatch

import (
	"html"
	"strconv"
	"strings"

	"pharmacy-bot/internal/domain"
	"pharmacy-bot/internal/i18n"
	"pharmacy-bot/internal/usecase"
)

const orderTimeLayout = "02.01.2006 15:04"

func basketText(v usecase.BasketView, locale string) string {
	if v.IsEmpty() {
		return i18n.T(locale, i18n.EmptyBasket)
	}
	var b strings.Builder
	b.WriteString(i18n.T(locale, i18n.BasketSummary))
	for _, l := range v.Lines {
		if !l.Available {
			b.WriteString("\n\n💊 #" + strconv.FormatInt(l.ProductID, 10) + " (" + i18n.T(locale, i18n.Unavailable) + ")")
			b.WriteString("\n🔢 " + strconv.Itoa(l.Quantity))
			continue
		}
		b.WriteString("\n\n💊 " + l.Name)
		b.WriteString("\n🔢 " + strconv.Itoa(l.Quantity) + " x " + i18n.FormatPrice(locale, l.UnitPrice) +
			" = " + i18n.FormatPrice(locale, l.Subtotal))
	}
	b.WriteString("\n\n💰 " + i18n.Tf(locale, i18n.TotalPrice, i18n.FormatPrice(locale, v.Total)))
	return b.String()
}

func ordersText(orders []domain.Order, locale string) string {
	if len(orders) == 0 {
		return i18n.T(locale, i18n.NoOrders)
	}
	var b strings.Builder
	b.WriteString(i18n.T(locale, i18n.OrdersSummary))
	for _, o := range orders {
		b.WriteString("\n\n#" + shortID(o.ID))
		b.WriteString("\n💰 " + i18n.FormatPrice(locale, o.TotalPrice))
		b.WriteString("\n🕒 " + o.CreatedAt.Format(orderTimeLayout))
		b.WriteString("\n📊 " + i18n.T(locale, i18n.StatusKey(strings.ToLower(string(o.Status)))))
	}
	return b.String()
}

func categoryText(cat domain.Category, products []domain.Product, locale string) string {
	var b strings.Builder
	b.WriteString(i18n.T(locale, i18n.CategorySelected) + " " + cat.Name + "\n\n")
	if len(products) == 0 {
		b.WriteString(i18n.T(locale, i18n.NoProducts))
		return b.String()
	}
	b.WriteString(i18n.T(locale, i18n.ProductsList))
	for _, p := range products {
		b.WriteString("\n\n💊 " + p.Name + "\n💵 " + i18n.FormatPrice(locale, p.UnitPrice))
	}
	return b.String()
}

func searchText(products []domain.Product, locale string) string {
	var b strings.Builder
	b.WriteString(i18n.T(locale, i18n.SearchResults) + "\n\n")
	for _, p := range products {
		b.WriteString("💊 " + p.Name + "\n💵 " + i18n.FormatPrice(locale, p.UnitPrice) + "\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// productText is rendered with the HTML parse mode.
func productText(p domain.Product, locale string) string {
	text := i18n.Tf(locale, i18n.ProductDetails, html.EscapeString(p.Name), i18n.FormatPrice(locale, p.UnitPrice), p.AvailableQuantity)
	if d := strings.TrimSpace(p.Description); d != "" {
		text += "\n\n" + html.EscapeString(d)
	}
	return text
}
