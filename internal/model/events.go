package model

// EventKind identifies what the user did in the chat
type EventKind string

const (
	EventCommand EventKind = "command" // slash command, e.g. /start
	EventText    EventKind = "text"    // free text message
	EventOption  EventKind = "option"  // pressed an inline option
)

// Event is one inbound transport event addressed to the conversation engine
type Event struct {
	Kind   EventKind
	UserID PlayerID

	// Identity hints supplied by the transport; either may be empty
	DisplayName string
	Handle      string

	Command string // command name without the leading slash
	Text    string
	Tag     string // option tag
}

// Option is one selectable entry of a rendered message.
// Exactly one of Tag and URL is set.
type Option struct {
	Label string
	Tag   string
	URL   string
}

// IsLink reports whether the option opens an external link
func (o Option) IsLink() bool {
	return o.URL != ""
}

// Render is an outbound "show this text with these options" command
type Render struct {
	Text    string
	Options []Option
	// Notice is a short transient hint, shown by transports that support it
	Notice string
}
