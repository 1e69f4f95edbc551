// Package event models the inbound Lambda payload: an SNS delivery envelope
// carrying one or more records. Each record normally wraps the notification in
// an Sns block; S3 buckets configured to invoke the function directly deliver
// bare object-event records instead, which are handled via a fallback path.
package event

import (
	"encoding/json"
	"strings"

	"slackrelay/internal/types"
)

// FallbackSubject is substituted when a record arrives without an Sns block.
// S3 direct notifications carry no subject of their own.
const FallbackSubject = "New Amazon S3 Object Event Notification"

// Envelope is the top-level Lambda event shape.
type Envelope struct {
	Records []Record `json:"Records"`
}

// Record is a single entry of the envelope. For SNS deliveries the Sns block
// is populated; for S3 direct notifications it is absent and the record body
// itself is the message. The raw JSON of the record is retained so the
// fallback path can forward it verbatim.
type Record struct {
	EventSource string     `json:"EventSource"`
	AWSRegion   string     `json:"awsRegion"`
	Sns         *SNSEntity `json:"Sns"`

	raw json.RawMessage
}

// SNSEntity is the SNS message wrapper inside a record.
type SNSEntity struct {
	MessageID string `json:"MessageId"`
	TopicArn  string `json:"TopicArn"`
	Subject   string `json:"Subject"`
	Message   string `json:"Message"`
	Timestamp string `json:"Timestamp"`
}

// UnmarshalJSON decodes the record and keeps a copy of its raw JSON for the
// fallback path.
func (r *Record) UnmarshalJSON(data []byte) error {
	type alias Record
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = Record(a)
	r.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Raw returns the record's original JSON.
func (r *Record) Raw() json.RawMessage {
	return r.raw
}

// Notification is the per-record unit of work consumed by the formatting
// pipeline.
type Notification struct {
	Subject string
	Message string
	Region  string
}

// Notification flattens the record into the (subject, message, region) triple.
// SNS records take the subject and message from the Sns block and the region
// from the topic ARN; bare records forward their own JSON as the message with
// the fixed fallback subject.
func (r *Record) Notification() Notification {
	if r.Sns != nil {
		return Notification{
			Subject: r.Sns.Subject,
			Message: r.Sns.Message,
			Region:  regionFromTopicArn(r.Sns.TopicArn),
		}
	}
	return Notification{
		Subject: FallbackSubject,
		Message: string(r.raw),
		Region:  r.AWSRegion,
	}
}

// Parse decodes a raw Lambda event into an Envelope. An event without records
// is rejected: the function has nothing to deliver and a silent success would
// mask a mis-wired trigger.
func Parse(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, types.NewAppError(types.ErrCodeEnvelopeMalformed, "event is not a Records envelope", err)
	}
	if len(env.Records) == 0 {
		return nil, types.NewAppError(types.ErrCodeEnvelopeNoRecords, "event carries no records", nil)
	}
	return &env, nil
}

// regionFromTopicArn extracts the region segment of an SNS topic ARN
// (arn:aws:sns:REGION:account:topic). A malformed ARN yields an empty region
// rather than an error; only console links depend on it.
func regionFromTopicArn(arn string) string {
	parts := strings.Split(arn, ":")
	if len(parts) < 4 {
		return ""
	}
	return parts[3]
}
