package habmodels

// ChatTarget locates a message that can be edited in place
type ChatTarget struct {
	ChatID    int64
	MessageID int
}

// Button is an inline keyboard button carrying callback data
type Button struct {
	Text string
	Data string
}

// Keyboard is an inline keyboard, one slice per row
type Keyboard [][]Button

// InboundKind distinguishes slash commands from inline button presses
type InboundKind int

const (
	InboundCommand InboundKind = iota
	InboundCallback
)

// Inbound is one authorized-or-not interaction received from the chat transport
type Inbound struct {
	Kind      InboundKind
	ChatID    int64
	UserID    int64
	UserName  string
	MessageID int
	// Command is the slash command without its leading slash
	Command string
	// Data is the callback data of a pressed button
	Data       string
	CallbackID string
}

// Target is the message the interaction arrived on
func (in Inbound) Target() ChatTarget {
	return ChatTarget{ChatID: in.ChatID, MessageID: in.MessageID}
}
