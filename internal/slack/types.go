package slack

// Field is one row of an attachment. Title and Value are both optional: the
// backup formatter emits title-only and value-only rows. Short hints the
// client to render the field in a half-width column; rendering order follows
// slice order, which formatters treat as part of their contract.
type Field struct {
	Title string `json:"title,omitempty"`
	Value string `json:"value,omitempty"`
	Short bool   `json:"short,omitempty"`
}

// Attachment is the formatted notification body rendered by the chat client.
// Every member is optional on the wire; formatters populate the subset their
// event family uses.
type Attachment struct {
	Color    string   `json:"color,omitempty"`
	Fallback string   `json:"fallback,omitempty"`
	Title    string   `json:"title,omitempty"`
	Text     string   `json:"text,omitempty"`
	MrkdwnIn []string `json:"mrkdwn_in,omitempty"`
	Fields   []Field  `json:"fields,omitempty"`
}

// Result is the outcome of one delivery attempt. Code carries the remote HTTP
// status code, or 0 when the request never produced a response. Info carries
// the response headers rendered as text, or the transport error message.
// Callers judge success by inspecting Code; a populated Result is returned for
// failures as well as successes.
type Result struct {
	Code int    `json:"code"`
	Info string `json:"info"`
}
