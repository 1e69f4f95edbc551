package slack

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// shortFieldLimit is the rendered-value length below which a default-formatted
// field is marked short (two to a row in the Slack layout).
const shortFieldLimit = 25

// FormatDefault renders any message no other formatter claimed. Structured
// payloads become one field per top-level key, in document order; opaque text
// becomes a single unlabeled field.
func FormatDefault(message map[string]any, raw string, subject string) Attachment {
	title := "Message"
	if subject != "" {
		title = subject
	}

	att := Attachment{
		Fallback: "A new message",
		Text:     "AWS notification",
		Title:    title,
		MrkdwnIn: []string{"value"},
	}

	var fields []Field
	if message != nil {
		for _, key := range documentOrderKeys(raw) {
			value := display(message[key])
			fields = append(fields, Field{
				Title: key,
				Value: backtick(value),
				Short: utf8.RuneCountInString(value) < shortFieldLimit,
			})
		}
	} else {
		fields = append(fields, Field{Value: raw})
	}

	if len(fields) > 0 {
		att.Fields = fields
	}
	return att
}

// documentOrderKeys returns the top-level keys of a JSON object in the order
// they appear in the document, keeping the first occurrence of any duplicate.
// A decoded map loses this ordering, so the raw text is walked token by token.
// Returns nil when text is not a JSON object.
func documentOrderKeys(text string) []string {
	dec := json.NewDecoder(strings.NewReader(text))

	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var keys []string
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil
		}
		var skipped json.RawMessage
		if err := dec.Decode(&skipped); err != nil {
			return nil
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}
