package slack

import (
	"encoding/json"

	"slackrelay/internal/config"
	"slackrelay/internal/types"
)

// BackupSubject is the exact subject line AWS Backup stamps on its SNS
// notifications. The match is verbatim and case-sensitive.
const BackupSubject = "Notification from AWS Backup"

// Input carries one notification through classification. Data is the decoded
// form of Raw when Raw parses as a JSON object, nil otherwise.
type Input struct {
	Data    map[string]any
	Raw     string
	Region  string
	Subject string
}

// classification is the outcome of one rule: either a formatted attachment,
// or a payload fragment merged verbatim into the send envelope.
type classification struct {
	attachment *Attachment
	merge      map[string]any
}

// rule pairs a cheap structural predicate with the formatter it selects.
type rule struct {
	name  string
	match func(Input) bool
	build func(Input) (classification, error)
}

// classifierRules is evaluated in order and the first match wins. The order
// is part of the contract: rules with strong signatures (exact discriminator
// values) run before progressively weaker ones, ending in a catch-all, so a
// payload that structurally satisfies several rules routes deterministically.
var classifierRules = []rule{
	{
		name: "cloudwatch_alarm",
		match: func(in Input) bool {
			_, ok := in.Data["AlarmName"]
			return ok
		},
		build: func(in Input) (classification, error) {
			att, err := FormatCloudWatchAlarm(in.Data, in.Region)
			if err != nil {
				return classification{}, err
			}
			return classification{attachment: &att}, nil
		},
	},
	{
		name: "guardduty_finding",
		match: func(in Input) bool {
			return in.Data["detail-type"] == "GuardDuty Finding"
		},
		build: func(in Input) (classification, error) {
			// EventBridge events carry their own region; it wins over the
			// topic-derived one.
			region, err := requireValue(in.Data, "region")
			if err != nil {
				return classification{}, err
			}
			att, err := FormatGuardDutyFinding(in.Data, display(region))
			if err != nil {
				return classification{}, err
			}
			return classification{attachment: &att}, nil
		},
	},
	{
		name: "health_event",
		match: func(in Input) bool {
			return in.Data["detail-type"] == "AWS Health Event"
		},
		build: func(in Input) (classification, error) {
			region, err := requireValue(in.Data, "region")
			if err != nil {
				return classification{}, err
			}
			att, err := FormatHealthEvent(in.Data, display(region))
			if err != nil {
				return classification{}, err
			}
			return classification{attachment: &att}, nil
		},
	},
	{
		name: "backup_notification",
		match: func(in Input) bool {
			return in.Subject == BackupSubject
		},
		build: func(in Input) (classification, error) {
			att := FormatBackupEvent(in.Raw)
			return classification{attachment: &att}, nil
		},
	},
	{
		name: "s3_object_event",
		match: func(in Input) bool {
			return firstRecordEventSource(in.Data) == "aws:s3"
		},
		build: func(in Input) (classification, error) {
			att, err := FormatS3ObjectEvent(in.Data)
			if err != nil {
				return classification{}, err
			}
			return classification{attachment: &att}, nil
		},
	},
	{
		name: "preformatted",
		match: func(in Input) bool {
			if in.Data == nil {
				return false
			}
			_, hasAttachments := in.Data["attachments"]
			_, hasText := in.Data["text"]
			return hasAttachments || hasText
		},
		build: func(in Input) (classification, error) {
			return classification{merge: in.Data}, nil
		},
	},
	{
		name:  "default",
		match: func(Input) bool { return true },
		build: func(in Input) (classification, error) {
			att := FormatDefault(in.Data, in.Raw, in.Subject)
			return classification{attachment: &att}, nil
		},
	},
}

// firstRecordEventSource peeks at Records[0].eventSource without failing on
// payloads that lack that shape.
func firstRecordEventSource(data map[string]any) string {
	records, ok := data["Records"].([]any)
	if !ok || len(records) == 0 {
		return ""
	}
	first, ok := records[0].(map[string]any)
	if !ok {
		return ""
	}
	source, _ := first["eventSource"].(string)
	return source
}

// DecodeMessage parses a message body as a JSON object. It returns nil when
// the text is not valid JSON or decodes to something other than an object;
// callers treat nil as opaque text. Decode failure is expected here, not an
// error: plenty of upstream services publish plain-text messages.
func DecodeMessage(message string) map[string]any {
	var data map[string]any
	if err := json.Unmarshal([]byte(message), &data); err != nil {
		return nil
	}
	return data
}

// MessageBuilder classifies inbound notifications and assembles the Slack
// send payload around the resulting attachment.
type MessageBuilder struct {
	channel  string
	username string
	emoji    string
	logger   types.Logger
}

// NewMessageBuilder creates a MessageBuilder stamped with the destination
// identity from configuration.
func NewMessageBuilder(cfg config.SlackConfig, logger types.Logger) *MessageBuilder {
	return &MessageBuilder{
		channel:  cfg.Channel,
		username: cfg.Username,
		emoji:    cfg.Emoji,
		logger:   logger,
	}
}

// Build classifies one notification and returns the complete payload for the
// webhook POST. A formatting failure aborts the build rather than emitting a
// partial message.
func (b *MessageBuilder) Build(message, region, subject string) (map[string]any, error) {
	in := Input{
		Data:    DecodeMessage(message),
		Raw:     message,
		Region:  region,
		Subject: subject,
	}

	payload := map[string]any{
		"channel":    b.channel,
		"username":   b.username,
		"icon_emoji": b.emoji,
	}

	for _, r := range classifierRules {
		if !r.match(in) {
			continue
		}

		b.logger.Info("notification classified", "rule", r.name, "region", region)

		c, err := r.build(in)
		if err != nil {
			return nil, err
		}
		if c.attachment != nil {
			payload["attachments"] = []Attachment{*c.attachment}
		}
		for k, v := range c.merge {
			payload[k] = v
		}
		return payload, nil
	}

	// The catch-all rule matches everything, so this is unreachable.
	return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "no classifier rule matched", nil)
}
