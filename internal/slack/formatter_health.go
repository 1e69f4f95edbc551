package slack

import (
	"fmt"
	"strings"

	"slackrelay/internal/types"
)

// unknownSentinel stands in for Health event fields the payload omits.
const unknownSentinel = "<unknown>"

// FormatHealthEvent renders an AWS Health event as a Slack attachment. The
// link field points at the Personal Health Dashboard for the originating
// region rather than at the individual event.
func FormatHealthEvent(message map[string]any, region string) (Attachment, error) {
	detail, err := requireMap(message, "detail")
	if err != nil {
		return Attachment{}, err
	}

	category, err := requireValue(detail, "eventTypeCategory")
	if err != nil {
		return Attachment{}, err
	}
	color, err := HealthCategoryColor(display(category))
	if err != nil {
		return Attachment{}, err
	}

	description, err := healthEventDescription(detail)
	if err != nil {
		return Attachment{}, err
	}

	service := valueOr(detail, "service", unknownSentinel)
	text := fmt.Sprintf("New AWS Health Event for %s", display(service))

	resources := unknownSentinel
	if list, ok := message["resources"].([]any); ok {
		rendered := make([]string, 0, len(list))
		for _, r := range list {
			rendered = append(rendered, display(r))
		}
		resources = strings.Join(rendered, ", ")
	}

	return Attachment{
		Color:    color,
		Text:     text,
		Fallback: text,
		Fields: []Field{
			{Title: "Affected Service", Value: backtick(service), Short: true},
			{Title: "Affected Region", Value: backtick(message["region"]), Short: true},
			{Title: "Code", Value: backtick(detail["eventTypeCode"])},
			{Title: "Event Description", Value: backtick(description)},
			{Title: "Affected Resources", Value: backtick(resources)},
			{Title: "Start Time", Value: backtick(valueOr(detail, "startTime", unknownSentinel)), Short: true},
			{Title: "End Time", Value: backtick(valueOr(detail, "endTime", unknownSentinel)), Short: true},
			{Title: "Link to Event", Value: fmt.Sprintf("https://phd.aws.amazon.com/phd/home?region=%s#/dashboard/open-issues", region)},
		},
	}, nil
}

// healthEventDescription digs out detail.eventDescription[0].latestDescription,
// the only deeply nested field the Health formatter requires.
func healthEventDescription(detail map[string]any) (any, error) {
	v, err := requireValue(detail, "eventDescription")
	if err != nil {
		return nil, err
	}
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, types.NewAppErrorWithDetails(types.ErrCodePayloadMissingField,
			`payload field "eventDescription" is not a non-empty array`, nil,
			map[string]any{"field": "eventDescription"})
	}
	entry, ok := list[0].(map[string]any)
	if !ok {
		return nil, types.NewAppErrorWithDetails(types.ErrCodePayloadMissingField,
			`payload field "eventDescription[0]" is not an object`, nil,
			map[string]any{"field": "eventDescription[0]"})
	}
	return requireValue(entry, "latestDescription")
}
