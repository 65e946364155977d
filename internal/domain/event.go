package domain

// EventKind distinguishes free text from structured payloads.
type EventKind string

const (
	EventText     EventKind = "text"
	EventCallback EventKind = "callback"
	EventContact  EventKind = "contact"
	EventLocation EventKind = "location"
)

// Location is a shared map point.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Event is one inbound chat event, already decoded from the transport.
type Event struct {
	UserID    int64
	FirstName string
	Kind      EventKind
	// Text holds the message text for EventText and the token for EventCallback.
	Text string
	// MessageID is the message a callback button was attached to.
	MessageID int
	Phone     string
	Location  *Location
}
