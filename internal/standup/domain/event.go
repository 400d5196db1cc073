package domain

// EventKind discriminates the canonical inbound event record.
type EventKind string

const (
	// EventMessage is a plain chat message delivered to the bot.
	EventMessage EventKind = "message"

	// EventAction is an interactive-component action (button, menu).
	EventAction EventKind = "action"

	// EventCommand is a slash-command submission.
	EventCommand EventKind = "command"
)

// Event is the canonical internal record every inbound payload shape is
// normalized into before any handler runs.
type Event struct {
	Kind EventKind

	// ExternalID is the sender's delivery identifier, used for dedup.
	ExternalID string

	WorkspaceID string
	UserID      string
	ChannelID   string

	// Command is the slash-command name ("/standup") for EventCommand.
	Command string

	// Text is the message body, command argument string or action value.
	Text string
}
