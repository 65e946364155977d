package domain

// ResponseKind tells the transport adapter how to deliver a Response.
type ResponseKind string

const (
	ResponseSend          ResponseKind = "send"
	ResponseEdit          ResponseKind = "edit"
	ResponseSendWithMedia ResponseKind = "send_with_media"
)

// Button is an inline button carrying a callback token.
type Button struct {
	Text  string
	Token string
}

// ReplyButton is a keyboard button that sends its label, or a structured
// contact/location payload when requested.
type ReplyButton struct {
	Text            string
	RequestContact  bool
	RequestLocation bool
}

// Keyboard is the button layout attached to a response. Inline and Reply are
// mutually exclusive; edits carry inline layouts only.
type Keyboard struct {
	Inline      [][]Button
	Reply       [][]ReplyButton
	OneTime     bool
	RemoveReply bool
}

// Response describes the message the bot answers with.
type Response struct {
	Kind      ResponseKind
	MessageID int
	Text      string
	ParseMode string
	MediaURL  string
	Keyboard  *Keyboard
}
