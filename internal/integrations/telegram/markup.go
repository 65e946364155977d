package telegram

import "pharmacy-bot/internal/domain"

type inlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]inlineKeyboardButton `json:"inline_keyboard"`
}

type keyboardButton struct {
	Text            string `json:"text"`
	RequestContact  bool   `json:"request_contact,omitempty"`
	RequestLocation bool   `json:"request_location,omitempty"`
}

type replyKeyboardMarkup struct {
	Keyboard        [][]keyboardButton `json:"keyboard"`
	ResizeKeyboard  bool               `json:"resize_keyboard"`
	OneTimeKeyboard bool               `json:"one_time_keyboard,omitempty"`
}

type replyKeyboardRemove struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

// replyMarkup converts a layout to the Bot API shape. nil means no markup.
func replyMarkup(kb *domain.Keyboard) any {
	switch {
	case kb == nil:
		return nil
	case len(kb.Inline) > 0:
		return inlineMarkup(kb.Inline)
	case len(kb.Reply) > 0:
		rows := make([][]keyboardButton, len(kb.Reply))
		for i, row := range kb.Reply {
			rows[i] = make([]keyboardButton, len(row))
			for j, b := range row {
				rows[i][j] = keyboardButton{Text: b.Text, RequestContact: b.RequestContact, RequestLocation: b.RequestLocation}
			}
		}
		return replyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true, OneTimeKeyboard: kb.OneTime}
	case kb.RemoveReply:
		return replyKeyboardRemove{RemoveKeyboard: true}
	}
	return nil
}

func inlineMarkup(rows [][]domain.Button) *inlineKeyboardMarkup {
	out := make([][]inlineKeyboardButton, len(rows))
	for i, row := range rows {
		out[i] = make([]inlineKeyboardButton, len(row))
		for j, b := range row {
			out[i][j] = inlineKeyboardButton{Text: b.Text, CallbackData: b.Token}
		}
	}
	return &inlineKeyboardMarkup{InlineKeyboard: out}
}
