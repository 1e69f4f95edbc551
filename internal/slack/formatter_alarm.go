package slack

import (
	"fmt"
	"net/url"
)

// FormatCloudWatchAlarm renders a CloudWatch alarm state change as a Slack
// attachment. The attachment color tracks the alarm's new state and the final
// field deep-links to the alarm in the console for the originating region.
func FormatCloudWatchAlarm(message map[string]any, region string) (Attachment, error) {
	cloudwatchURL, err := consoleURL(region, serviceCloudWatch)
	if err != nil {
		return Attachment{}, err
	}

	name, err := requireValue(message, "AlarmName")
	if err != nil {
		return Attachment{}, err
	}
	alarmName := display(name)

	newState, err := requireValue(message, "NewStateValue")
	if err != nil {
		return Attachment{}, err
	}
	color, err := AlarmStateColor(display(newState))
	if err != nil {
		return Attachment{}, err
	}

	description, err := requireValue(message, "AlarmDescription")
	if err != nil {
		return Attachment{}, err
	}
	reason, err := requireValue(message, "NewStateReason")
	if err != nil {
		return Attachment{}, err
	}
	oldState, err := requireValue(message, "OldStateValue")
	if err != nil {
		return Attachment{}, err
	}

	return Attachment{
		Color:    color,
		Fallback: fmt.Sprintf("Alarm %s triggered", alarmName),
		Fields: []Field{
			{Title: "Alarm Name", Value: backtick(name), Short: true},
			{Title: "Alarm Description", Value: backtick(description)},
			{Title: "Alarm reason", Value: backtick(reason)},
			{Title: "Old State", Value: backtick(oldState), Short: true},
			{Title: "Current State", Value: backtick(newState), Short: true},
			{Title: "Link to Alarm", Value: fmt.Sprintf("%s#alarm:alarmFilter=ANY;name=%s", cloudwatchURL, url.PathEscape(alarmName))},
		},
		Text: fmt.Sprintf("AWS CloudWatch notification - %s", alarmName),
	}, nil
}
