package slack

import (
	"strings"
)

// FormatBackupEvent renders an AWS Backup notice as a Slack attachment. Backup
// publishes plain text rather than structured data, so the title is the text
// before the first period and the identifiers are pulled out with the field
// extractor. Each extracted field becomes a label row followed by a value row.
func FormatBackupEvent(message string) Attachment {
	title, _, _ := strings.Cut(message, ".")
	if strings.Contains(title, "failed") {
		title = "⚠️ " + title
	}
	if strings.Contains(title, "completed") {
		title = "✅ " + title
	}

	fields := []Field{{Title: title}}
	for _, f := range ExtractFields(message, backupFieldPatterns) {
		fields = append(fields,
			Field{Value: f.Name},
			Field{Value: backtick(f.Value)},
		)
	}

	return Attachment{Fields: fields}
}
