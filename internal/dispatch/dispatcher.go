// Package dispatch routes inbound chat events to shop operations based on the
// user's conversational state, and renders the answer.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pharmacy-bot/internal/domain"
	"pharmacy-bot/internal/i18n"
	"pharmacy-bot/internal/locker"
	"pharmacy-bot/internal/usecase"
)

const defaultEventTimeout = 5 * time.Second

// Shop is the set of operations the dispatcher drives.
type Shop interface {
	EnsureSession(ctx context.Context, userID int64, name string) (domain.Session, bool, error)
	SetLocale(ctx context.Context, userID int64, locale string) (domain.Session, error)
	CancelCheckout(ctx context.Context, userID int64) (domain.Session, error)

	AddToBasket(ctx context.Context, userID, productID int64) (domain.Basket, error)
	IncreaseItem(ctx context.Context, userID, productID int64) (usecase.BasketView, error)
	DecreaseItem(ctx context.Context, userID, productID int64) (usecase.BasketView, error)
	RemoveItem(ctx context.Context, userID, productID int64) (usecase.BasketView, error)
	ClearBasket(ctx context.Context, userID int64) error
	ViewBasket(ctx context.Context, userID int64) (usecase.BasketView, error)

	Checkout(ctx context.Context, userID int64) (usecase.CheckoutResult, error)
	SubmitPhone(ctx context.Context, userID int64, phone string) (usecase.CheckoutResult, error)
	SubmitAddress(ctx context.Context, userID int64, loc domain.Location) (usecase.CheckoutResult, error)
	ChangeOrderStatus(ctx context.Context, userID int64, orderID string, to domain.OrderStatus) (domain.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]domain.Order, error)

	Categories(ctx context.Context) ([]domain.Category, error)
	CategoryProducts(ctx context.Context, categoryID int64) ([]domain.Product, error)
	Product(ctx context.Context, productID int64) (domain.Product, error)
	Search(ctx context.Context, query string) ([]domain.Product, error)
}

// Dispatcher turns one event into exactly one response. Events of one user
// are handled one at a time in arrival order.
type Dispatcher struct {
	shop         Shop
	locks        usecase.Locker
	eventTimeout time.Duration
	log          *slog.Logger
}

type Option func(*Dispatcher)

// WithEventTimeout bounds the wait for the user's previous event.
func WithEventTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.eventTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(disp *Dispatcher) {
		if l != nil {
			disp.log = l
		}
	}
}

func New(shop Shop, locks usecase.Locker, opts ...Option) (*Dispatcher, error) {
	if shop == nil {
		return nil, errors.New("dispatch: shop must not be nil")
	}
	if locks == nil {
		return nil, errors.New("dispatch: locker must not be nil")
	}
	d := &Dispatcher{
		shop:         shop,
		locks:        locks,
		eventTimeout: defaultEventTimeout,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// HandleEvent never fails: every error is rendered as a localized message.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev domain.Event) domain.Response {
	lctx, cancel := context.WithTimeout(ctx, d.eventTimeout)
	unlock, err := d.locks.Lock(lctx, locker.EventKey(ev.UserID))
	cancel()
	if err != nil {
		return d.failure(ctx, ev, i18n.DefaultLocale, err)
	}
	defer unlock()

	sess, created, err := d.shop.EnsureSession(ctx, ev.UserID, ev.FirstName)
	if err != nil {
		return d.failure(ctx, ev, i18n.DefaultLocale, err)
	}

	var resp domain.Response
	switch {
	case ev.Kind == domain.EventCallback:
		resp, err = d.handleCallback(ctx, sess, ev)
	case sess.State.CollectingContact():
		resp, err = d.handleContact(ctx, sess, ev)
	case ev.Kind == domain.EventText:
		resp, err = d.handleText(ctx, sess, created, ev)
	default:
		resp = send(i18n.T(sess.Locale, i18n.UnknownCommand), nil)
	}
	if err != nil {
		return d.failure(ctx, ev, sess.Locale, err)
	}
	return resp
}

func (d *Dispatcher) handleText(ctx context.Context, sess domain.Session, created bool, ev domain.Event) (domain.Response, error) {
	locale := sess.Locale
	text := strings.TrimSpace(ev.Text)

	switch text {
	case "/start":
		if created {
			return send(i18n.T(locale, i18n.SelectLanguage), languageKeyboard()), nil
		}
		return send(i18n.T(locale, i18n.WelcomeMessage), mainKeyboard(locale)), nil
	case "/language":
		return send(i18n.T(locale, i18n.SelectLanguage), languageKeyboard()), nil
	}
	if strings.HasPrefix(text, "/") {
		return send(i18n.T(locale, i18n.UnknownCommand), nil), nil
	}

	if cmd, ok := i18n.MatchCommand(locale, text); ok {
		switch cmd {
		case i18n.CommandMenu:
			return d.categories(ctx, ev, locale)
		case i18n.CommandSearch:
			return send(i18n.T(locale, i18n.EnterSearchQuery), backKeyboard(locale)), nil
		case i18n.CommandBasket:
			v, err := d.shop.ViewBasket(ctx, sess.UserID)
			if err != nil {
				return domain.Response{}, err
			}
			return send(basketText(v, locale), basketKeyboard(v, locale)), nil
		case i18n.CommandOrders:
			orders, err := d.shop.ListOrders(ctx, sess.UserID)
			if err != nil {
				return domain.Response{}, err
			}
			return send(ordersText(orders, locale), ordersKeyboard(orders, locale)), nil
		case i18n.CommandLanguage:
			return send(i18n.T(locale, i18n.SelectLanguage), languageKeyboard()), nil
		}
	}

	products, err := d.shop.Search(ctx, text)
	if err != nil {
		return domain.Response{}, err
	}
	if len(products) == 0 {
		return send(i18n.T(locale, i18n.NoResults), nil), nil
	}
	return send(searchText(products, locale), productsKeyboard(products, locale)), nil
}

// handleContact receives every non-callback event while checkout collects
// contact details.
func (d *Dispatcher) handleContact(ctx context.Context, sess domain.Session, ev domain.Event) (domain.Response, error) {
	locale := sess.Locale
	if ev.Kind == domain.EventText && i18n.IsCancel(locale, ev.Text) {
		if _, err := d.shop.CancelCheckout(ctx, sess.UserID); err != nil {
			return domain.Response{}, err
		}
		return send(i18n.T(locale, i18n.CheckoutCancelled), mainKeyboard(locale)), nil
	}

	var (
		res usecase.CheckoutResult
		err error
	)
	switch {
	case sess.State == domain.StateAwaitingPhone && ev.Kind == domain.EventContact:
		res, err = d.shop.SubmitPhone(ctx, sess.UserID, ev.Phone)
	case sess.State == domain.StateAwaitingAddress && ev.Kind == domain.EventLocation && ev.Location != nil:
		res, err = d.shop.SubmitAddress(ctx, sess.UserID, *ev.Location)
	default:
		err = &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "unexpected_payload"}
	}
	if usecase.Code(err) == usecase.ErrorInvalidInput {
		return send(i18n.T(locale, i18n.InvalidInput), promptKeyboard(sess.State, locale)), nil
	}
	if err != nil {
		return domain.Response{}, err
	}
	return checkoutResponse(res, locale), nil
}

func (d *Dispatcher) handleCallback(ctx context.Context, sess domain.Session, ev domain.Event) (domain.Response, error) {
	cb, err := ParseCallback(ev.Text)
	if err != nil {
		return domain.Response{}, err
	}
	locale := sess.Locale
	userID := sess.UserID

	switch cb.Action {
	case ActionAddToBasket:
		if _, err := d.shop.AddToBasket(ctx, userID, cb.ID); err != nil {
			return domain.Response{}, err
		}
		return edit(ev, i18n.T(locale, i18n.ProductAddedToBasket), backKeyboard(locale)), nil

	case ActionIncrease, ActionDecrease, ActionRemove, ActionViewBasket:
		var v usecase.BasketView
		switch cb.Action {
		case ActionIncrease:
			v, err = d.shop.IncreaseItem(ctx, userID, cb.ID)
		case ActionDecrease:
			v, err = d.shop.DecreaseItem(ctx, userID, cb.ID)
		case ActionRemove:
			v, err = d.shop.RemoveItem(ctx, userID, cb.ID)
		default:
			v, err = d.shop.ViewBasket(ctx, userID)
		}
		if err != nil {
			return domain.Response{}, err
		}
		return edit(ev, basketText(v, locale), basketKeyboard(v, locale)), nil

	case ActionClearBasket:
		if err := d.shop.ClearBasket(ctx, userID); err != nil {
			return domain.Response{}, err
		}
		return edit(ev, i18n.T(locale, i18n.BasketCleared), backKeyboard(locale)), nil

	case ActionCheckout:
		res, err := d.shop.Checkout(ctx, userID)
		if err != nil {
			return domain.Response{}, err
		}
		return checkoutResponse(res, locale), nil

	case ActionCategory:
		return d.category(ctx, ev, cb.ID, locale)

	case ActionProduct:
		p, err := d.shop.Product(ctx, cb.ID)
		if err != nil {
			return domain.Response{}, err
		}
		resp := send(productText(p, locale), productKeyboard(p.ID, locale))
		resp.ParseMode = "HTML"
		if p.ImageURL != "" {
			resp.Kind = domain.ResponseSendWithMedia
			resp.MediaURL = p.ImageURL
		}
		return resp, nil

	case ActionOrderStatus:
		to, key := domain.OrderConfirmed, i18n.OrderConfirmed
		if cb.Verb == VerbCancel {
			to, key = domain.OrderCancelled, i18n.OrderCancelled
		}
		if _, err := d.shop.ChangeOrderStatus(ctx, userID, cb.OrderID, to); err != nil {
			return domain.Response{}, err
		}
		return edit(ev, i18n.T(locale, key), backKeyboard(locale)), nil

	case ActionChangeLanguage:
		updated, err := d.shop.SetLocale(ctx, userID, cb.Locale)
		if err != nil {
			return domain.Response{}, err
		}
		// a reply keyboard cannot be attached to an edit
		return send(i18n.T(updated.Locale, i18n.LanguageChanged), mainKeyboard(updated.Locale)), nil

	case ActionMenu:
		return d.categories(ctx, ev, locale)
	}
	return domain.Response{}, ErrInvalidCallback
}

func (d *Dispatcher) categories(ctx context.Context, ev domain.Event, locale string) (domain.Response, error) {
	cats, err := d.shop.Categories(ctx)
	if err != nil {
		return domain.Response{}, err
	}
	return reply(ev, i18n.T(locale, i18n.MenuMessage), categoryKeyboard(cats, locale)), nil
}

func (d *Dispatcher) category(ctx context.Context, ev domain.Event, categoryID int64, locale string) (domain.Response, error) {
	cats, err := d.shop.Categories(ctx)
	if err != nil {
		return domain.Response{}, err
	}
	var (
		cat   domain.Category
		found bool
	)
	for _, c := range cats {
		if c.ID == categoryID {
			cat, found = c, true
			break
		}
	}
	if !found {
		return domain.Response{}, ErrInvalidCallback
	}
	products, err := d.shop.CategoryProducts(ctx, categoryID)
	if err != nil {
		return domain.Response{}, err
	}
	kb := backKeyboard(locale)
	if len(products) > 0 {
		kb = productsKeyboard(products, locale)
	}
	return edit(ev, categoryText(cat, products, locale), kb), nil
}

func checkoutResponse(res usecase.CheckoutResult, locale string) domain.Response {
	switch res.Step {
	case usecase.StepAwaitPhone:
		return send(i18n.T(locale, i18n.EnterPhone), phoneKeyboard(locale))
	case usecase.StepAwaitAddress:
		return send(i18n.T(locale, i18n.EnterAddress), locationKeyboard(locale))
	}
	return send(i18n.Tf(locale, i18n.OrderCreated, shortID(res.Order.ID), res.Order.Address), mainKeyboard(locale))
}

func promptKeyboard(state domain.ConversationState, locale string) *domain.Keyboard {
	if state == domain.StateAwaitingAddress {
		return locationKeyboard(locale)
	}
	return phoneKeyboard(locale)
}

func send(text string, kb *domain.Keyboard) domain.Response {
	return domain.Response{Kind: domain.ResponseSend, Text: text, Keyboard: kb}
}

// edit replaces the message a callback button was attached to.
func edit(ev domain.Event, text string, kb *domain.Keyboard) domain.Response {
	if ev.MessageID == 0 {
		return send(text, kb)
	}
	return domain.Response{Kind: domain.ResponseEdit, MessageID: ev.MessageID, Text: text, Keyboard: kb}
}

// reply edits for callbacks and sends for everything else.
func reply(ev domain.Event, text string, kb *domain.Keyboard) domain.Response {
	if ev.Kind == domain.EventCallback {
		return edit(ev, text, kb)
	}
	return send(text, kb)
}
