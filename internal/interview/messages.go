package interview

type EventKind int

const (
	EventText EventKind = iota
	EventPhoto
	EventCommand
	EventAction
)

// Event is one inbound interaction, whether typed text, an uploaded photo,
// a slash command or a menu selection.
type Event struct {
	Kind EventKind
	// Text holds the message text, the command name without slash, or the action data.
	Text string
	// PhotoPath is the local copy of an uploaded photo.
	PhotoPath string
	// Err is set when the transport failed to fetch the photo.
	Err error
}

func Text(s string) Event    { return Event{Kind: EventText, Text: s} }
func Action(s string) Event  { return Event{Kind: EventAction, Text: s} }
func Command(s string) Event { return Event{Kind: EventCommand, Text: s} }
func Photo(path string) Event {
	return Event{Kind: EventPhoto, PhotoPath: path}
}

type Button struct {
	Text string
	Data string
}

// Menu is a grid of inline buttons, one slice per row.
type Menu [][]Button

// Attachment is a file to send. Temporary files are removed by the
// transport once sent.
type Attachment struct {
	Path      string
	Name      string
	Temporary bool
}

// Message is one outbound reply.
type Message struct {
	Text string
	HTML bool
	Menu Menu
	// Replace edits the message whose button triggered the event instead
	// of sending a new one. Ignored for text events.
	Replace bool
	File    *Attachment
}

func reply(text string) Message {
	return Message{Text: text}
}

func replace(text string) Message {
	return Message{Text: text, Replace: true}
}
