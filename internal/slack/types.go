// Package slack is the chat transport adapter: it receives channel
// messages over the RTM websocket, posts replies through the Web API, and
// downloads private file attachments.
package slack

// Message is an RTM message event.
type Message struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
	Channel string `json:"channel"`
	User    string `json:"user"`
	Text    string `json:"text"`
	File    *File  `json:"file,omitempty"`
}

// File carries the private download URL of an attachment.
type File struct {
	URLPrivate string `json:"url_private"`
}

// Channel identifies a channel the bot is a member of.
type Channel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsMember bool   `json:"is_member"`
}
