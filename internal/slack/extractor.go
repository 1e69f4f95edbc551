package slack

import (
	"regexp"
	"strings"
)

// FieldPattern pairs a field name with the expression that locates it in a
// semi-structured text message.
type FieldPattern struct {
	Name    string
	Pattern *regexp.Regexp
}

// ExtractedField is one field pulled out of a text message. Fields preserve
// the pattern order they were extracted in.
type ExtractedField struct {
	Name  string
	Value string
}

// backupFieldPatterns locates the identifiers AWS Backup embeds in its
// completion notices. Pattern order matters: the rightmost-anchored patterns
// run first so that removing their matches cannot truncate text a later,
// looser pattern still needs.
var backupFieldPatterns = []FieldPattern{
	{Name: "BackupJob ID", Pattern: regexp.MustCompile(`(BackupJob ID : ).*`)},
	{Name: "Resource ARN", Pattern: regexp.MustCompile(`(Resource ARN : ).*[.]`)},
	{Name: "Recovery point ARN", Pattern: regexp.MustCompile(`(Recovery point ARN: ).*[.]`)},
}

// ExtractFields scans text with each pattern in order. For every pattern that
// matches, the value recorded is the last space-delimited segment of the
// match, with one trailing period stripped; every occurrence of the matched
// substring is then removed from the working text before the next pattern
// runs, so one field's text can never be re-matched by a later pattern.
// Patterns that do not match are simply absent from the result.
func ExtractFields(text string, patterns []FieldPattern) []ExtractedField {
	var fields []ExtractedField

	for _, p := range patterns {
		loc := p.Pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		match := text[loc[0]:loc[1]]

		segments := strings.Split(match, " ")
		value := strings.TrimSuffix(segments[len(segments)-1], ".")
		fields = append(fields, ExtractedField{Name: p.Name, Value: value})

		text = strings.ReplaceAll(text, match, "")
	}

	return fields
}
