package dispatch

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"pharmacy-bot/internal/domain"
	"pharmacy-bot/internal/i18n"
	"pharmacy-bot/internal/locker"
	"pharmacy-bot/internal/repository/memstore"
	"pharmacy-bot/internal/usecase"
)

const user int64 = 501

type fixture struct {
	d       *Dispatcher
	shop    *usecase.Shop
	store   *memstore.Store
	catalog *memstore.Catalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog := memstore.NewCatalog()
	catalog.AddCategory(domain.Category{ID: 1, Name: "Painkillers"})
	catalog.AddCategory(domain.Category{ID: 2, Name: "Empty"})
	catalog.AddProduct(domain.Product{ID: 1, CategoryID: 1, Name: "Aspirin", UnitPrice: decimal.NewFromInt(10), AvailableQuantity: 3})
	catalog.AddProduct(domain.Product{ID: 2, CategoryID: 1, Name: "Ibuprofen", UnitPrice: decimal.NewFromInt(5), AvailableQuantity: 9})
	catalog.AddProduct(domain.Product{
		ID: 42, CategoryID: 1, Name: "Vitamin <C>", Description: "1000 mg & zinc",
		ImageURL: "https://img.example/42.png", UnitPrice: decimal.NewFromInt(3), AvailableQuantity: 1,
	})

	store := memstore.New()
	locks := locker.New()
	shop, err := usecase.NewShop(store, store, store, catalog, locks, usecase.Config{})
	require.NoError(t, err)
	d, err := New(shop, locks, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return &fixture{d: d, shop: shop, store: store, catalog: catalog}
}

func (f *fixture) text(t *testing.T, text string) domain.Response {
	t.Helper()
	return f.d.HandleEvent(context.Background(), domain.Event{UserID: user, FirstName: "Ann", Kind: domain.EventText, Text: text})
}

func (f *fixture) tap(t *testing.T, token string) domain.Response {
	t.Helper()
	return f.d.HandleEvent(context.Background(), domain.Event{UserID: user, Kind: domain.EventCallback, Text: token, MessageID: 77})
}

func (f *fixture) locale(t *testing.T, code string) {
	t.Helper()
	_, _, err := f.shop.EnsureSession(context.Background(), user, "Ann")
	require.NoError(t, err)
	_, err = f.shop.SetLocale(context.Background(), user, code)
	require.NoError(t, err)
}

func (f *fixture) state(t *testing.T) domain.ConversationState {
	t.Helper()
	sess, err := f.store.GetSession(context.Background(), user)
	require.NoError(t, err)
	return sess.State
}

func (f *fixture) quantity(t *testing.T, productID int64) int {
	t.Helper()
	b, err := f.store.GetBasket(context.Background(), user)
	require.NoError(t, err)
	return b.Quantity(productID)
}

func TestNew_ValidatesDependencies(t *testing.T) {
	_, err := New(nil, locker.New())
	require.Error(t, err)
	f := newFixture(t)
	_, err = New(f.shop, nil)
	require.Error(t, err)
}

func TestStart_FirstContactShowsLanguagePicker(t *testing.T) {
	f := newFixture(t)

	resp := f.text(t, "/start")
	require.Equal(t, domain.ResponseSend, resp.Kind)
	require.Equal(t, i18n.T("uz", i18n.SelectLanguage), resp.Text)
	require.Len(t, resp.Keyboard.Inline[0], 3)
	require.Equal(t, "lang_uz", resp.Keyboard.Inline[0][0].Token)

	resp = f.text(t, "/start")
	require.Equal(t, i18n.T("uz", i18n.WelcomeMessage), resp.Text)
	require.Equal(t, i18n.T("uz", i18n.MenuButton), resp.Keyboard.Reply[0][0].Text)
}

func TestChangeLanguage_RerendersMainKeyboard(t *testing.T) {
	f := newFixture(t)
	resp := f.tap(t, "lang_ru")
	require.Equal(t, domain.ResponseSend, resp.Kind)
	require.Equal(t, i18n.T("ru", i18n.LanguageChanged), resp.Text)
	require.Equal(t, i18n.T("ru", i18n.BasketButton), resp.Keyboard.Reply[0][1].Text)
}

func TestCommands_MatchCurrentLocaleOnly(t *testing.T) {
	f := newFixture(t)
	f.locale(t, "en")

	resp := f.text(t, i18n.T("en", i18n.BasketButton))
	require.Equal(t, i18n.T("en", i18n.EmptyBasket), resp.Text)

	// the Russian basket label is plain text for an English session, so it is a search
	resp = f.text(t, i18n.T("ru", i18n.BasketButton))
	require.Equal(t, i18n.T("en", i18n.NoResults), resp.Text)

	resp = f.text(t, i18n.T("en", i18n.SearchButton))
	require.Equal(t, i18n.T("en", i18n.EnterSearchQuery), resp.Text)

	resp = f.text(t, "/nope")
	require.Equal(t, i18n.T("en", i18n.UnknownCommand), resp.Text)
}

func TestSearch_FreeText(t *testing.T) {
	f := newFixture(t)
	f.locale(t, "en")

	resp := f.text(t, "aspi")
	require.Contains(t, resp.Text, "Aspirin")
	require.Contains(t, resp.Text, "10 so‘m")
	require.Equal(t, "product_1", resp.Keyboard.Inline[0][0].Token)
	require.Equal(t, "menu", resp.Keyboard.Inline[1][0].Token)
}

func TestMenuAndCategory(t *testing.T) {
	f := newFixture(t)
	f.locale(t, "en")

	resp := f.text(t, i18n.T("en", i18n.MenuButton))
	require.Equal(t, domain.ResponseSend, resp.Kind)
	require.Equal(t, "category_1", resp.Keyboard.Inline[0][0].Token)

	resp = f.tap(t, "menu")
	require.Equal(t, domain.ResponseEdit, resp.Kind)
	require.Equal(t, 77, resp.MessageID)
	require.Equal(t, i18n.T("en", i18n.MenuMessage), resp.Text)

	resp = f.tap(t, "category_1")
	require.Equal(t, domain.ResponseEdit, resp.Kind)
	require.Contains(t, resp.Text, "Painkillers")
	require.Contains(t, resp.Text, "Ibuprofen")
	require.Len(t, resp.Keyboard.Inline, 4)

	resp = f.tap(t, "category_2")
	require.Contains(t, resp.Text, i18n.T("en", i18n.NoProducts))

	resp = f.tap(t, "category_9")
	require.Equal(t, i18n.T("en", i18n.InvalidCallback), resp.Text)
}

func TestProductDetails_WithMedia(t *testing.T) {
	f := newFixture(t)
	f.locale(t, "en")

	resp := f.tap(t, "product_42")
	require.Equal(t, domain.ResponseSendWithMedia, resp.Kind)
	require.Equal(t, "https://img.example/42.png", resp.MediaURL)
	require.Equal(t, "HTML", resp.ParseMode)
	require.Contains(t, resp.Text, "Vitamin &lt;C&gt;")
	require.Contains(t, resp.Text, "1000 mg &amp; zinc")
	require.Equal(t, "add_to_basket_42", resp.Keyboard.Inline[0][0].Token)

	resp = f.tap(t, "product_1")
	require.Equal(t, domain.ResponseSend, resp.Kind)

	resp = f.tap(t, "product_404")
	require.Equal(t, domain.ResponseEdit, resp.Kind)
	require.Equal(t, i18n.T("en", i18n.ProductNotFound), resp.Text)
	require.NotNil(t, resp.Keyboard)
	require.Equal(t, "menu", resp.Keyboard.Inline[0][0].Token)
	require.Equal(t, i18n.T("en", i18n.BackToMenu), resp.Keyboard.Inline[0][0].Text)
}

func TestInvalidCallback_EditsInPlace(t *testing.T) {
	f := newFixture(t)
	for _, token := range []string{"IGNORE", "basket_increase_x", "order_1_confirm", "lang_de"} {
		resp := f.tap(t, token)
		require.Equal(t, domain.ResponseEdit, resp.Kind, token)
		require.Equal(t, 77, resp.MessageID)
		require.Equal(t, i18n.T("uz", i18n.InvalidCallback), resp.Text)
		require.Equal(t, [][]domain.Button{{{Text: i18n.T("uz", i18n.BackToMenu), Token: "menu"}}}, resp.Keyboard.Inline, token)
	}
}

func TestBasketCallbacks(t *testing.T) {
	f := newFixture(t)
	f.locale(t, "en")

	resp := f.tap(t, "add_to_basket_1")
	require.Equal(t, i18n.T("en", i18n.ProductAddedToBasket), resp.Text)
	f.tap(t, "add_to_basket_1")
	f.tap(t, "add_to_basket_2")

	resp = f.tap(t, "basket_view")
	require.Equal(t, domain.ResponseEdit, resp.Kind)
	require.Contains(t, resp.Text, "2 x 10 so‘m = 20 so‘m")
	require.Contains(t, resp.Text, "Total: 25 so‘m")
	row := resp.Keyboard.Inline[0]
	require.Equal(t, []string{"basket_decrease_1", "basket_view", "basket_increase_1", "basket_remove_1"},
		[]string{row[0].Token, row[1].Token, row[2].Token, row[3].Token})
	require.Equal(t, "2", row[1].Text)

	f.tap(t, "basket_decrease_2")
	require.Equal(t, 0, f.quantity(t, 2))

	resp = f.tap(t, "basket_decrease_2")
	require.Equal(t, domain.ResponseEdit, resp.Kind)

	resp = f.tap(t, "basket_clear")
	require.Equal(t, i18n.T("en", i18n.BasketCleared), resp.Text)
	require.Equal(t, 0, f.quantity(t, 1))

	resp = f.tap(t, "basket_checkout")
	require.Equal(t, i18n.T("en", i18n.EmptyBasket), resp.Text)
	require.Equal(t, domain.ResponseEdit, resp.Kind)
}

func TestCheckout_FullScenarioThroughEvents(t *testing.T) {
	f := newFixture(t)
	f.locale(t, "en")
	f.tap(t, "add_to_basket_1")
	f.tap(t, "add_to_basket_1")
	f.tap(t, "add_to_basket_2")

	resp := f.tap(t, "basket_checkout")
	require.Equal(t, domain.ResponseSend, resp.Kind)
	require.Equal(t, i18n.T("en", i18n.EnterPhone), resp.Text)
	require.True(t, resp.Keyboard.Reply[0][0].RequestContact)
	require.Equal(t, domain.StateAwaitingPhone, f.state(t))

	// free text is not a phone while awaiting one
	resp = f.text(t, "+998901234567")
	require.Equal(t, i18n.T("en", i18n.InvalidInput), resp.Text)
	require.Equal(t, domain.StateAwaitingPhone, f.state(t))

	resp = f.d.HandleEvent(context.Background(), domain.Event{UserID: user, Kind: domain.EventContact, Phone: "+998 90 123 45 67"})
	require.Equal(t, i18n.T("en", i18n.EnterAddress), resp.Text)
	require.True(t, resp.Keyboard.Reply[0][0].RequestLocation)
	require.Equal(t, domain.StateAwaitingAddress, f.state(t))

	resp = f.d.HandleEvent(context.Background(), domain.Event{
		UserID: user, Kind: domain.EventLocation, Location: &domain.Location{Latitude: 41.311081, Longitude: 69.240562},
	})
	require.Equal(t, domain.ResponseSend, resp.Kind)
	require.Contains(t, resp.Text, "41.311081, 69.240562")
	require.Equal(t, domain.StateIdle, f.state(t))

	orders, err := f.shop.ListOrders(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Lines, 2)
	require.True(t, orders[0].TotalPrice.Equal(decimal.NewFromInt(25)))
	require.Equal(t, domain.OrderPending, orders[0].Status)
	require.Equal(t, 0, f.quantity(t, 1))

	resp = f.text(t, i18n.T("en", i18n.OrdersButton))
	require.Contains(t, resp.Text, "Pending")
	require.Equal(t, "order_"+orders[0].ID+"_confirm", resp.Keyboard.Inline[0][0].Token)

	resp = f.tap(t, "order_"+orders[0].ID+"_confirm")
	require.Equal(t, i18n.T("en", i18n.OrderConfirmed), resp.Text)

	resp = f.tap(t, "order_"+orders[0].ID+"_cancel")
	require.Equal(t, i18n.T("en", i18n.InvalidStatusTransition), resp.Text)
}

func TestCallbackBypassesContactCollection(t *testing.T) {
	f := newFixture(t)
	sess, _, err := f.shop.EnsureSession(context.Background(), user, "Ann")
	require.NoError(t, err)
	sess.Phone = "+998901234567"
	_, err = f.store.SaveSession(context.Background(), sess)
	require.NoError(t, err)

	f.tap(t, "add_to_basket_42")
	f.tap(t, "basket_checkout")
	require.Equal(t, domain.StateAwaitingAddress, f.state(t))

	resp := f.tap(t, "basket_increase_42")
	require.Equal(t, domain.ResponseEdit, resp.Kind)
	require.Equal(t, 2, f.quantity(t, 42))
	require.Equal(t, domain.StateAwaitingAddress, f.state(t))
}

func TestCancelLabel_ReturnsToIdle(t *testing.T) {
	f := newFixture(t)
	f.locale(t, "ru")
	f.tap(t, "add_to_basket_1")
	f.tap(t, "basket_checkout")
	require.Equal(t, domain.StateAwaitingPhone, f.state(t))

	// a label of another locale is not the cancel label
	resp := f.text(t, i18n.T("en", i18n.CancelButton))
	require.Equal(t, i18n.T("ru", i18n.InvalidInput), resp.Text)

	resp = f.text(t, i18n.T("ru", i18n.CancelButton))
	require.Equal(t, i18n.T("ru", i18n.CheckoutCancelled), resp.Text)
	require.Equal(t, domain.StateIdle, f.state(t))
	require.Equal(t, 1, f.quantity(t, 1))
}

func TestForeignOrder_IsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.shop.AddToBasket(ctx, user+1, 1)
	require.NoError(t, err)
	order, err := f.shop.CreateFromBasket(ctx, user+1)
	require.NoError(t, err)

	resp := f.tap(t, "order_"+order.ID+"_cancel")
	require.Equal(t, i18n.T("uz", i18n.OrderNotFound), resp.Text)

	stored, err := f.shop.Order(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderPending, stored.Status)
}

func TestHandleEvent_SerializesOneUser(t *testing.T) {
	f := newFixture(t)
	const n = 20
	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			f.d.HandleEvent(context.Background(), domain.Event{
				UserID: user, Kind: domain.EventCallback, Text: "add_to_basket_1", MessageID: i + 1,
			})
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, n, f.quantity(t, 1))
}

type stuckLocker struct{}

func (stuckLocker) Lock(ctx context.Context, _ string) (func(), error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestHandleEvent_LockTimeoutAnswersError(t *testing.T) {
	f := newFixture(t)
	d, err := New(f.shop, stuckLocker{}, WithEventTimeout(10*time.Millisecond), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	resp := d.HandleEvent(context.Background(), domain.Event{UserID: user, Kind: domain.EventText, Text: "/start"})
	require.Equal(t, domain.ResponseSend, resp.Kind)
	require.Equal(t, i18n.T("uz", i18n.ErrorMessage), resp.Text)
}

func TestIdleStructuredPayload_IsUnknownCommand(t *testing.T) {
	f := newFixture(t)
	resp := f.d.HandleEvent(context.Background(), domain.Event{UserID: user, Kind: domain.EventContact, Phone: "+998901234567"})
	require.Equal(t, i18n.T("uz", i18n.UnknownCommand), resp.Text)
}

func TestBasketText_UnavailableLine(t *testing.T) {
	v := usecase.BasketView{Lines: []usecase.BasketLineView{
		{ProductID: 1, Name: "Aspirin", UnitPrice: decimal.NewFromInt(10), Quantity: 1, Subtotal: decimal.NewFromInt(10), Available: true},
		{ProductID: 9, Quantity: 2},
	}, Total: decimal.NewFromInt(10)}

	text := basketText(v, "en")
	require.Contains(t, text, "#"+strconv.Itoa(9)+" (unavailable)")
	require.Contains(t, text, "Total: 10 so‘m")
}
