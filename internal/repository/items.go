package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"pharmacy-bot/internal/domain"
)

func sAttr(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }

func nAttr(v int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

func timeAttr(t time.Time) types.AttributeValue { return sAttr(t.UTC().Format(time.RFC3339Nano)) }

func sessionItem(s domain.Session) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":       sAttr(userPK(s.UserID)),
		"SK":       sAttr(skSession),
		entityAttr: sAttr(skSession),
		"userId":   nAttr(s.UserID),
		"name":     sAttr(s.Name),
		"state":    sAttr(string(s.State)),
		"phone":    sAttr(s.Phone),
		"address":  sAttr(s.Address),
		"locale":   sAttr(s.Locale),
		"version":  nAttr(s.Version),
		"created":  timeAttr(s.CreatedAt),
		"updated":  timeAttr(s.UpdatedAt),
	}
}

func itemToSession(item map[string]types.AttributeValue) (domain.Session, error) {
	var (
		s   domain.Session
		err error
	)
	if s.UserID, err = int64Attr(item, "userId"); err != nil {
		return domain.Session{}, err
	}
	state, err := strAttr(item, "state")
	if err != nil {
		return domain.Session{}, err
	}
	s.State = domain.ConversationState(state)
	if s.Locale, err = strAttr(item, "locale"); err != nil {
		return domain.Session{}, err
	}
	if s.Version, err = int64Attr(item, "version"); err != nil {
		return domain.Session{}, err
	}
	s.Name = optStrAttr(item, "name")
	s.Phone = optStrAttr(item, "phone")
	s.Address = optStrAttr(item, "address")
	if s.CreatedAt, err = parseTimeAttr(item, "created"); err != nil {
		return domain.Session{}, err
	}
	if s.UpdatedAt, err = parseTimeAttr(item, "updated"); err != nil {
		return domain.Session{}, err
	}
	return s, nil
}

func basketItem(b domain.Basket) map[string]types.AttributeValue {
	lines := make([]types.AttributeValue, 0, len(b.Lines))
	for _, l := range b.Lines {
		lines = append(lines, &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"productId": nAttr(l.ProductID),
			"quantity":  nAttr(int64(l.Quantity)),
		}})
	}
	return map[string]types.AttributeValue{
		"PK":       sAttr(userPK(b.UserID)),
		"SK":       sAttr(skBasket),
		entityAttr: sAttr(skBasket),
		"userId":   nAttr(b.UserID),
		"lines":    &types.AttributeValueMemberL{Value: lines},
		"version":  nAttr(b.Version),
		"updated":  timeAttr(b.UpdatedAt),
	}
}

func itemToBasket(item map[string]types.AttributeValue) (domain.Basket, error) {
	var (
		b   domain.Basket
		err error
	)
	if b.UserID, err = int64Attr(item, "userId"); err != nil {
		return domain.Basket{}, err
	}
	if b.Version, err = int64Attr(item, "version"); err != nil {
		return domain.Basket{}, err
	}
	if b.UpdatedAt, err = parseTimeAttr(item, "updated"); err != nil {
		return domain.Basket{}, err
	}
	raw, err := listAttr(item, "lines")
	if err != nil {
		return domain.Basket{}, err
	}
	for i, v := range raw {
		m, ok := v.(*types.AttributeValueMemberM)
		if !ok {
			return domain.Basket{}, fmt.Errorf("repository: basket line %d is not a map", i)
		}
		pid, err := int64Attr(m.Value, "productId")
		if err != nil {
			return domain.Basket{}, err
		}
		qty, err := int64Attr(m.Value, "quantity")
		if err != nil {
			return domain.Basket{}, err
		}
		if qty < 1 {
			return domain.Basket{}, fmt.Errorf("repository: basket line %d has quantity %d", i, qty)
		}
		b.Lines = append(b.Lines, domain.BasketLine{ProductID: pid, Quantity: int(qty)})
	}
	return b, nil
}

func orderItem(o domain.Order) map[string]types.AttributeValue {
	lines := make([]types.AttributeValue, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"productId": nAttr(l.ProductID),
			"name":      sAttr(l.Name),
			"unitPrice": sAttr(l.UnitPrice.String()),
			"quantity":  nAttr(int64(l.Quantity)),
		}})
	}
	return map[string]types.AttributeValue{
		"PK":         sAttr(orderPK(o.ID)),
		"SK":         sAttr(skOrder),
		"GSI1PK":     sAttr(userPK(o.UserID)),
		"GSI1SK":     sAttr("ORDER#" + o.CreatedAt.UTC().Format(time.RFC3339Nano)),
		entityAttr:   sAttr(skOrder),
		"orderId":    sAttr(o.ID),
		"userId":     nAttr(o.UserID),
		"status":     sAttr(string(o.Status)),
		"lines":      &types.AttributeValueMemberL{Value: lines},
		"totalPrice": sAttr(o.TotalPrice.String()),
		"phone":      sAttr(o.Phone),
		"address":    sAttr(o.Address),
		"created":    timeAttr(o.CreatedAt),
		"updated":    timeAttr(o.UpdatedAt),
	}
}

func itemToOrder(item map[string]types.AttributeValue) (domain.Order, error) {
	var (
		o   domain.Order
		err error
	)
	if o.ID, err = strAttr(item, "orderId"); err != nil {
		return domain.Order{}, err
	}
	if o.UserID, err = int64Attr(item, "userId"); err != nil {
		return domain.Order{}, err
	}
	status, err := strAttr(item, "status")
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	if !o.Status.Valid() {
		return domain.Order{}, fmt.Errorf("repository: order %s has unknown status %q", o.ID, status)
	}
	if o.TotalPrice, err = decimalAttr(item, "totalPrice"); err != nil {
		return domain.Order{}, err
	}
	o.Phone = optStrAttr(item, "phone")
	o.Address = optStrAttr(item, "address")
	if o.CreatedAt, err = parseTimeAttr(item, "created"); err != nil {
		return domain.Order{}, err
	}
	if o.UpdatedAt, err = parseTimeAttr(item, "updated"); err != nil {
		return domain.Order{}, err
	}
	raw, err := listAttr(item, "lines")
	if err != nil {
		return domain.Order{}, err
	}
	for i, v := range raw {
		m, ok := v.(*types.AttributeValueMemberM)
		if !ok {
			return domain.Order{}, fmt.Errorf("repository: order line %d is not a map", i)
		}
		var l domain.OrderLine
		if l.ProductID, err = int64Attr(m.Value, "productId"); err != nil {
			return domain.Order{}, err
		}
		l.Name = optStrAttr(m.Value, "name")
		if l.UnitPrice, err = decimalAttr(m.Value, "unitPrice"); err != nil {
			return domain.Order{}, err
		}
		qty, err := int64Attr(m.Value, "quantity")
		if err != nil {
			return domain.Order{}, err
		}
		l.Quantity = int(qty)
		o.Lines = append(o.Lines, l)
	}
	return o, nil
}

func categoryItem(c domain.Category) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":         sAttr(pkCatalog),
		"SK":         sAttr(categorySK(c.ID)),
		entityAttr:   sAttr("CATEGORY"),
		"categoryId": nAttr(c.ID),
		"name":       sAttr(c.Name),
	}
}

func itemToCategory(item map[string]types.AttributeValue) (domain.Category, error) {
	id, err := int64Attr(item, "categoryId")
	if err != nil {
		return domain.Category{}, err
	}
	name, err := strAttr(item, "name")
	if err != nil {
		return domain.Category{}, err
	}
	return domain.Category{ID: id, Name: name}, nil
}

func productItem(p domain.Product) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":                sAttr(productPK(p.ID)),
		"SK":                sAttr(skProduct),
		"GSI1PK":            sAttr(categoryGSI(p.CategoryID)),
		"GSI1SK":            sAttr(fmt.Sprintf("PRODUCT#%012d", p.ID)),
		entityAttr:          sAttr(skProduct),
		"productId":         nAttr(p.ID),
		"categoryId":        nAttr(p.CategoryID),
		"name":              sAttr(p.Name),
		"nameLower":         sAttr(strings.ToLower(p.Name)),
		"description":       sAttr(p.Description),
		"imageUrl":          sAttr(p.ImageURL),
		"unitPrice":         sAttr(p.UnitPrice.String()),
		"availableQuantity": nAttr(int64(p.AvailableQuantity)),
	}
}

func itemToProduct(item map[string]types.AttributeValue) (domain.Product, error) {
	var (
		p   domain.Product
		err error
	)
	if p.ID, err = int64Attr(item, "productId"); err != nil {
		return domain.Product{}, err
	}
	if p.CategoryID, err = int64Attr(item, "categoryId"); err != nil {
		return domain.Product{}, err
	}
	if p.Name, err = strAttr(item, "name"); err != nil {
		return domain.Product{}, err
	}
	if p.UnitPrice, err = decimalAttr(item, "unitPrice"); err != nil {
		return domain.Product{}, err
	}
	p.Description = optStrAttr(item, "description")
	p.ImageURL = optStrAttr(item, "imageUrl")
	if _, ok := item["availableQuantity"]; ok {
		qty, err := int64Attr(item, "availableQuantity")
		if err != nil {
			return domain.Product{}, err
		}
		p.AvailableQuantity = int(qty)
	}
	return p, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func optStrAttr(item map[string]types.AttributeValue, key string) string {
	s, _ := strAttr(item, key)
	return s
}

func int64Attr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}

func decimalAttr(item map[string]types.AttributeValue, key string) (decimal.Decimal, error) {
	s, err := strAttr(item, key)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return d, nil
}

func parseTimeAttr(item map[string]types.AttributeValue, key string) (time.Time, error) {
	s, err := strAttr(item, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return t, nil
}

func listAttr(item map[string]types.AttributeValue, key string) ([]types.AttributeValue, error) {
	v, ok := item[key]
	if !ok {
		return nil, nil
	}
	l, ok := v.(*types.AttributeValueMemberL)
	if !ok {
		return nil, fmt.Errorf("repository: attribute %q is not a list", key)
	}
	return l.Value, nil
}
