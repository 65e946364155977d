package telegram

import (
	"strings"

	"pharmacy-bot/internal/domain"
)

// Update is the subset of a webhook update the bot reacts to.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type Contact struct {
	PhoneNumber string `json:"phone_number"`
	UserID      int64  `json:"user_id,omitempty"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Message struct {
	MessageID int       `json:"message_id"`
	From      *User     `json:"from,omitempty"`
	Chat      Chat      `json:"chat"`
	Text      string    `json:"text,omitempty"`
	Contact   *Contact  `json:"contact,omitempty"`
	Location  *Location `json:"location,omitempty"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data"`
}

// Inbound is a decoded update: the event to dispatch plus where to answer.
type Inbound struct {
	Event           domain.Event
	ChatID          int64
	CallbackQueryID string
}

// Decode maps an update to an event. ok is false for updates the bot ignores,
// such as edited messages, stickers or a contact card of somebody else.
func Decode(u Update) (Inbound, bool) {
	if cq := u.CallbackQuery; cq != nil {
		if cq.Message == nil || cq.Data == "" {
			return Inbound{}, false
		}
		return Inbound{
			Event: domain.Event{
				UserID:    cq.From.ID,
				FirstName: cq.From.FirstName,
				Kind:      domain.EventCallback,
				Text:      cq.Data,
				MessageID: cq.Message.MessageID,
			},
			ChatID:          cq.Message.Chat.ID,
			CallbackQueryID: cq.ID,
		}, true
	}

	m := u.Message
	if m == nil || m.From == nil {
		return Inbound{}, false
	}
	ev := domain.Event{UserID: m.From.ID, FirstName: m.From.FirstName}
	switch {
	case m.Contact != nil:
		if m.Contact.UserID != 0 && m.Contact.UserID != m.From.ID {
			return Inbound{}, false
		}
		ev.Kind = domain.EventContact
		ev.Phone = m.Contact.PhoneNumber
	case m.Location != nil:
		ev.Kind = domain.EventLocation
		ev.Location = &domain.Location{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}
	case strings.TrimSpace(m.Text) != "":
		ev.Kind = domain.EventText
		ev.Text = m.Text
	default:
		return Inbound{}, false
	}
	return Inbound{Event: ev, ChatID: m.Chat.ID}, true
}
