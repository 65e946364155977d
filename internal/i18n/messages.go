// Package i18n holds the bot's message table and the localized command
// vocabulary for the supported locales.
package i18n

// Key identifies a localized message.
type Key string

const (
	WelcomeMessage          Key = "welcome_message"
	LanguageChanged         Key = "language_changed"
	SelectLanguage          Key = "select_language"
	LanguageButton          Key = "language_button"
	MenuButton              Key = "menu_button"
	BasketButton            Key = "basket_button"
	OrdersButton            Key = "orders_button"
	SearchButton            Key = "search_button"
	BackToMenu              Key = "back_to_menu"
	CancelButton            Key = "cancel_button"
	AddToBasket             Key = "add_to_basket"
	ClearBasket             Key = "clear_basket"
	Checkout                Key = "checkout"
	UnknownCommand          Key = "unknown_command"
	ErrorMessage            Key = "error_message"
	NoOrders                Key = "n_orders"
	MenuMessage             Key = "menu_message"
	EmptyBasket             Key = "empty_basket"
	EnterSearchQuery        Key = "enter_search_query"
	NoResults               Key = "no_results"
	SearchResults           Key = "search_results"
	OrderCreated            Key = "order_created"
	OrderConfirmed          Key = "order_confirmed"
	OrderCancelled          Key = "order_cancelled"
	InvalidCallback         Key = "invalid_callback"
	OrdersSummary           Key = "orders_summary"
	ProductAddedToBasket    Key = "product_added_to_basket"
	BasketCleared           Key = "basket_cleared"
	BasketSummary           Key = "basket_summary"
	TotalPrice              Key = "total_price"
	EnterPhone              Key = "enter_phone"
	EnterAddress            Key = "enter_address"
	SharePhone              Key = "share_phone"
	ShareLocation           Key = "share_location"
	InvalidInput            Key = "invalid_input"
	CheckoutCancelled       Key = "checkout_cancelled"
	ProductNotFound         Key = "product_not_found"
	OrderNotFound           Key = "order_not_found"
	InvalidStatusTransition Key = "invalid_status_transition"
	CategorySelected        Key = "category_selected"
	NoProducts              Key = "no_products"
	ProductsList            Key = "products_list"
	ProductDetails          Key = "product_details"
	Unavailable             Key = "unavailable"
	Currency                Key = "currency"
)

// StatusKey returns the message key for an order status label.
func StatusKey(status string) Key {
	return Key("order_status_" + status)
}

var messages = map[string]map[Key]string{
	"uz": {
		WelcomeMessage:          "Salom! Botimizga xush kelibsiz. 😊",
		LanguageChanged:         "✅ Til muvaffaqiyatli o‘zgartirildi!",
		SelectLanguage:          "🌐 Iltimos, tilni tanlang:",
		LanguageButton:          "🌐 Tilni o‘zgartirish",
		MenuButton:              "📁 Mahsulotlar",
		BasketButton:            "🛒 Savat",
		OrdersButton:            "📜 Mening buyurtmalarim",
		SearchButton:            "🔎 Qidiruv",
		BackToMenu:              "⬅️ Menyuga qaytish",
		CancelButton:            "❌ Bekor qilish",
		AddToBasket:             "🛒 Savatga qo‘shish",
		ClearBasket:             "Savatni tozalash",
		Checkout:                "Buyurtma berish",
		UnknownCommand:          "Kechirasiz, bu buyruq tan olinmadi.",
		ErrorMessage:            "❌ Kutilmagan xato yuz berdi. Iltimos, qayta urinib ko‘ring.",
		NoOrders:                "Sizda buyurtmalar yo‘q.",
		MenuMessage:             "Kategoriyalar ro‘yxati:",
		EmptyBasket:             "Sizning savatingiz bo‘sh.",
		EnterSearchQuery:        "Iltimos, qidiruv so‘rovini kiriting:",
		NoResults:               "Natijalar topilmadi.",
		SearchResults:           "Qidiruv natijalari:",
		OrderCreated:            "Buyurtma #%s muvaffaqiyatli yaratildi!\nManzil: %s",
		OrderConfirmed:          "Buyurtma tasdiqlandi.",
		OrderCancelled:          "Buyurtma bekor qilindi.",
		InvalidCallback:         "Noto‘g‘ri harakat.",
		OrdersSummary:           "Sizning buyurtmalaringiz:",
		ProductAddedToBasket:    "Mahsulot savatga qo‘shildi.",
		BasketCleared:           "Savat tozalandi.",
		BasketSummary:           "Sizning savatingiz:",
		TotalPrice:              "Jami: %s",
		EnterPhone:              "Iltimos, telefon raqamingizni baham ko'ring:",
		EnterAddress:            "Iltimos, manzilingizni baham ko'ring:",
		SharePhone:              "📞 Telefonni baham ko'rish",
		ShareLocation:           "📍 Manzilni baham ko'rish",
		InvalidInput:            "Noto'g'ri kiritish. Iltimos, qayta urinib ko'ring.",
		CheckoutCancelled:       "Buyurtma berish bekor qilindi.",
		ProductNotFound:         "Mahsulot topilmadi.",
		OrderNotFound:           "Buyurtma topilmadi.",
		InvalidStatusTransition: "Bu buyurtmani endi o‘zgartirib bo‘lmaydi.",
		CategorySelected:        "Kategoriya:",
		NoProducts:              "Bu kategoriyada mahsulotlar yo‘q.",
		ProductsList:            "Mahsulotlar:",
		ProductDetails:          "<b>%s</b>\nNarxi: %s\nMavjud: %d",
		Unavailable:             "mavjud emas",
		Currency:                "so‘m",
		StatusKey("pending"):    "Kutilmoqda",
		StatusKey("confirmed"):  "Tasdiqlangan",
		StatusKey("cancelled"):  "Bekor qilingan",
		StatusKey("delivered"):  "Yetkazilgan",
	},
	"ru": {
		WelcomeMessage:          "Привет! Добро пожаловать в наш бот. 😊",
		LanguageChanged:         "✅ Язык успешно изменен!",
		SelectLanguage:          "🌐 Пожалуйста, выберите язык:",
		LanguageButton:          "🌐 Изменить язык",
		MenuButton:              "📁 Продукты",
		BasketButton:            "🛒 Корзина",
		OrdersButton:            "📜 Мои заказы",
		SearchButton:            "🔎 Поиск",
		BackToMenu:              "⬅️ Вернуться в меню",
		CancelButton:            "❌ Отменить",
		AddToBasket:             "🛒 Добавить в корзину",
		ClearBasket:             "Очистить корзину",
		Checkout:                "Оформить заказ",
		UnknownCommand:          "Извините, эта команда непонятна.",
		ErrorMessage:            "❌ Произошла непредвиденная ошибка. Попробуйте снова.",
		NoOrders:                "У вас нет заказов.",
		MenuMessage:             "Список категорий:",
		EmptyBasket:             "Корзина пуста.",
		EnterSearchQuery:        "Пожалуйста, введите запрос для поиска:",
		NoResults:               "Результатов не найдено.",
		SearchResults:           "Результаты поиска:",
		OrderCreated:            "Заказ #%s успешно создан!\nАдрес: %s",
		OrderConfirmed:          "Заказ подтверждён.",
		OrderCancelled:          "Заказ отменён.",
		InvalidCallback:         "Некорректное действие.",
		OrdersSummary:           "Ваши заказы:",
		ProductAddedToBasket:    "Продукт добавлен в корзину.",
		BasketCleared:           "Корзина очищена.",
		BasketSummary:           "Ваша корзина:",
		TotalPrice:              "Итого: %s",
		EnterPhone:              "Пожалуйста, поделитесь своим номером телефона:",
		EnterAddress:            "Пожалуйста, поделитесь своим адресом:",
		SharePhone:              "📞 Поделиться телефоном",
		ShareLocation:           "📍 Поделиться местоположением",
		InvalidInput:            "Неверный ввод. Пожалуйста, попробуйте снова.",
		CheckoutCancelled:       "Оформление заказа отменено.",
		ProductNotFound:         "Продукт не найден.",
		OrderNotFound:           "Заказ не найден.",
		InvalidStatusTransition: "Этот заказ больше нельзя изменить.",
		CategorySelected:        "Категория:",
		NoProducts:              "В этой категории нет продуктов.",
		ProductsList:            "Продукты:",
		ProductDetails:          "<b>%s</b>\nЦена: %s\nВ наличии: %d",
		Unavailable:             "недоступен",
		Currency:                "сум",
		StatusKey("pending"):    "Ожидает",
		StatusKey("confirmed"):  "Подтверждён",
		StatusKey("cancelled"):  "Отменён",
		StatusKey("delivered"):  "Доставлен",
	},
	"en": {
		WelcomeMessage:          "Hello! Welcome to our bot. 😊",
		LanguageChanged:         "✅ Language successfully changed!",
		SelectLanguage:          "🌐 Please select your language:",
		LanguageButton:          "🌐 Change language",
		MenuButton:              "📁 Products",
		BasketButton:            "🛒 Basket",
		OrdersButton:            "📜 My orders",
		SearchButton:            "🔎 Search",
		BackToMenu:              "⬅️ Back to menu",
		CancelButton:            "❌ Cancel",
		AddToBasket:             "🛒 Add to basket",
		ClearBasket:             "Clear basket",
		Checkout:                "Checkout",
		UnknownCommand:          "Sorry, this command is not recognized.",
		ErrorMessage:            "❌ An unexpected error occurred. Please try again.",
		NoOrders:                "You have no orders.",
		MenuMessage:             "Category list:",
		EmptyBasket:             "Your basket is empty.",
		EnterSearchQuery:        "Please enter your search query:",
		NoResults:               "No results found.",
		SearchResults:           "Search results:",
		OrderCreated:            "Order #%s created successfully!\nAddress: %s",
		OrderConfirmed:          "Order confirmed.",
		OrderCancelled:          "Order cancelled.",
		InvalidCallback:         "Invalid action.",
		OrdersSummary:           "Your orders:",
		ProductAddedToBasket:    "Product added to basket.",
		BasketCleared:           "Basket cleared.",
		BasketSummary:           "Your basket:",
		TotalPrice:              "Total: %s",
		EnterPhone:              "Please share your phone number:",
		EnterAddress:            "Please share your address:",
		SharePhone:              "📞 Share Phone",
		ShareLocation:           "📍 Share Location",
		InvalidInput:            "Invalid input. Please try again.",
		CheckoutCancelled:       "Checkout cancelled.",
		ProductNotFound:         "Product not found.",
		OrderNotFound:           "Order not found.",
		InvalidStatusTransition: "This order can no longer be changed.",
		CategorySelected:        "Category:",
		NoProducts:              "There are no products in this category.",
		ProductsList:            "Products:",
		ProductDetails:          "<b>%s</b>\nPrice: %s\nIn stock: %d",
		Unavailable:             "unavailable",
		Currency:                "so‘m",
		StatusKey("pending"):    "Pending",
		StatusKey("confirmed"):  "Confirmed",
		StatusKey("cancelled"):  "Cancelled",
		StatusKey("delivered"):  "Delivered",
	},
}
