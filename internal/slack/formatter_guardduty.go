package slack

import (
	"fmt"
)

// FormatGuardDutyFinding renders a GuardDuty finding as a Slack attachment.
// The numeric severity score is bucketed into a Low/Medium/High tier that
// drives both the attachment color and the Severity field.
func FormatGuardDutyFinding(message map[string]any, region string) (Attachment, error) {
	guarddutyURL, err := consoleURL(region, serviceGuardDuty)
	if err != nil {
		return Attachment{}, err
	}

	detail, err := requireMap(message, "detail")
	if err != nil {
		return Attachment{}, err
	}
	service, _ := detail["service"].(map[string]any)

	score, err := requireNumber(detail, "severity")
	if err != nil {
		return Attachment{}, err
	}
	tier := SeverityTier(score)
	color, err := FindingSeverityColor(tier)
	if err != nil {
		return Attachment{}, err
	}

	description, err := requireValue(detail, "description")
	if err != nil {
		return Attachment{}, err
	}
	findingType, err := requireValue(detail, "type")
	if err != nil {
		return Attachment{}, err
	}
	accountID, err := requireValue(detail, "accountId")
	if err != nil {
		return Attachment{}, err
	}
	findingID, err := requireValue(detail, "id")
	if err != nil {
		return Attachment{}, err
	}
	firstSeen, err := requireValue(service, "eventFirstSeen")
	if err != nil {
		return Attachment{}, err
	}
	lastSeen, err := requireValue(service, "eventLastSeen")
	if err != nil {
		return Attachment{}, err
	}
	count, err := requireValue(service, "count")
	if err != nil {
		return Attachment{}, err
	}

	title := display(detail["title"])

	return Attachment{
		Color:    color,
		Fallback: fmt.Sprintf("GuardDuty Finding: %s", title),
		Fields: []Field{
			{Title: "Description", Value: backtick(description)},
			{Title: "Finding Type", Value: backtick(findingType)},
			{Title: "First Seen", Value: backtick(firstSeen), Short: true},
			{Title: "Last Seen", Value: backtick(lastSeen), Short: true},
			{Title: "Severity", Value: backtick(tier), Short: true},
			{Title: "Account ID", Value: backtick(accountID), Short: true},
			{Title: "Count", Value: backtick(count), Short: true},
			{Title: "Link to Finding", Value: fmt.Sprintf("%s#/findings?search=id%%3D%s", guarddutyURL, display(findingID))},
		},
		Text: fmt.Sprintf("AWS GuardDuty Finding - %s", title),
	}, nil
}
