package mailbox

import "time"

// Message is one fetched mail message, reduced to what the pipeline
// consumes. Body holds the text/plain part when present, otherwise the
// HTML part stripped to plain text.
type Message struct {
	UID     uint32
	Subject string
	From    string
	Date    time.Time
	Body    string
}
