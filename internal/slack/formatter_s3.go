package slack

import (
	"fmt"

	"slackrelay/internal/types"
)

// FormatS3ObjectEvent renders an S3 object notification as a Slack
// attachment. Only the first record in the notification is rendered. Beyond
// the core fields, each optional sub-object present on the record (object
// size, glacier restore data, replication data, intelligent-tiering data,
// lifecycle data) contributes its own field group; any subset may appear.
func FormatS3ObjectEvent(message map[string]any) (Attachment, error) {
	recordsVal, err := requireValue(message, "Records")
	if err != nil {
		return Attachment{}, err
	}
	records, ok := recordsVal.([]any)
	if !ok || len(records) == 0 {
		return Attachment{}, types.NewAppErrorWithDetails(types.ErrCodePayloadMissingField,
			`payload field "Records" is not a non-empty array`, nil,
			map[string]any{"field": "Records"})
	}
	record, ok := records[0].(map[string]any)
	if !ok {
		return Attachment{}, types.NewAppErrorWithDetails(types.ErrCodePayloadMissingField,
			`payload field "Records[0]" is not an object`, nil,
			map[string]any{"field": "Records[0]"})
	}

	eventName, err := requireValue(record, "eventName")
	if err != nil {
		return Attachment{}, err
	}
	eventTime, err := requireValue(record, "eventTime")
	if err != nil {
		return Attachment{}, err
	}
	region, err := requireValue(record, "awsRegion")
	if err != nil {
		return Attachment{}, err
	}

	s3Data, err := requireMap(record, "s3")
	if err != nil {
		return Attachment{}, err
	}
	bucket, err := requireMap(s3Data, "bucket")
	if err != nil {
		return Attachment{}, err
	}
	bucketName, err := requireValue(bucket, "name")
	if err != nil {
		return Attachment{}, err
	}
	object, err := requireMap(s3Data, "object")
	if err != nil {
		return Attachment{}, err
	}
	objectKey, err := requireValue(object, "key")
	if err != nil {
		return Attachment{}, err
	}

	requestParams, err := requireMap(record, "requestParameters")
	if err != nil {
		return Attachment{}, err
	}
	sourceIP, err := requireValue(requestParams, "sourceIPAddress")
	if err != nil {
		return Attachment{}, err
	}
	userIdentity, err := requireMap(record, "userIdentity")
	if err != nil {
		return Attachment{}, err
	}
	principalID, err := requireValue(userIdentity, "principalId")
	if err != nil {
		return Attachment{}, err
	}

	color, err := StorageEventColor(display(eventName))
	if err != nil {
		return Attachment{}, err
	}

	objectURL := fmt.Sprintf("https://s3.console.aws.amazon.com/s3/object/%s?region=%s&prefix=%s",
		display(bucketName), display(region), display(objectKey))

	att := Attachment{
		Color:    color,
		Fallback: fmt.Sprintf("Alarm %s triggered", display(eventName)),
		Fields: []Field{
			{Title: "Event Name", Value: backtick(eventName), Short: true},
			{Title: "Event Time", Value: backtick(eventTime), Short: true},
			{Title: "Region", Value: backtick(region), Short: true},
			{Title: "Bucket Name", Value: backtick(bucketName), Short: true},
			{Title: "Object Key", Value: backtick(objectKey)},
			{Title: "Object URL", Value: fmt.Sprintf("<%s|Link>", objectURL)},
			{Title: "Source IP Address", Value: backtick(sourceIP), Short: true},
			{Title: "User Identity", Value: backtick(lastSegment(display(principalID), ":")), Short: true},
		},
		Text: "*New Amazon S3 Object Notification Event*",
	}

	if size, ok := object["size"]; ok {
		att.Fields = append(att.Fields, Field{Title: "Object Size (Bytes)", Value: backtick(size)})
	}

	if _, ok := record["glacierEventData"]; ok {
		glacier, err := requireMap(record, "glacierEventData")
		if err != nil {
			return Attachment{}, err
		}
		restore, err := requireMap(glacier, "restoreEventData")
		if err != nil {
			return Attachment{}, err
		}
		expiry, err := requireValue(restore, "lifecycleRestorationExpiryTime")
		if err != nil {
			return Attachment{}, err
		}
		storageClass, err := requireValue(restore, "lifecycleRestoreStorageClass")
		if err != nil {
			return Attachment{}, err
		}
		att.Fields = append(att.Fields,
			Field{Title: "Lifecycle Restoration Expiry Time", Value: backtick(expiry)},
			Field{Title: "Lifecycle Restore Storage Class", Value: backtick(storageClass)},
		)
	}

	if _, ok := record["replicationEventData"]; ok {
		replication, err := requireMap(record, "replicationEventData")
		if err != nil {
			return Attachment{}, err
		}
		ruleName, err := requireValue(replication, "replicationRuleId")
		if err != nil {
			return Attachment{}, err
		}
		destination, err := requireValue(replication, "destinationBucket")
		if err != nil {
			return Attachment{}, err
		}
		requestTime, err := requireValue(replication, "requestTime")
		if err != nil {
			return Attachment{}, err
		}
		operation, err := requireValue(replication, "s3Operation")
		if err != nil {
			return Attachment{}, err
		}
		failureReason, err := requireValue(replication, "failureReason")
		if err != nil {
			return Attachment{}, err
		}
		att.Fields = append(att.Fields,
			Field{Title: "Replication Rule Name", Value: backtick(ruleName), Short: true},
			Field{Title: "Destination Bucket", Value: backtick(lastSegment(display(destination), ":")), Short: true},
			Field{Title: "Request Time", Value: backtick(requestTime)},
			Field{Title: "Operation", Value: backtick(operation), Short: true},
			Field{Title: "Failure Reason", Value: backtick(failureReason)},
		)
	}

	if _, ok := record["intelligentTieringEventData"]; ok {
		tiering, err := requireMap(record, "intelligentTieringEventData")
		if err != nil {
			return Attachment{}, err
		}
		tieringName, err := requireValue(tiering, "tieringId")
		if err != nil {
			return Attachment{}, err
		}
		tieringStatus, err := requireValue(tiering, "tieringStatus")
		if err != nil {
			return Attachment{}, err
		}
		att.Fields = append(att.Fields,
			Field{Title: "Tiering Name", Value: backtick(tieringName), Short: true},
			Field{Title: "Tiering Status", Value: backtick(tieringStatus), Short: true},
		)
	}

	if _, ok := record["lifecycleEventData"]; ok {
		lifecycle, err := requireMap(record, "lifecycleEventData")
		if err != nil {
			return Attachment{}, err
		}
		transitionDays, err := requireValue(lifecycle, "lifecycleTransitionAgeDays")
		if err != nil {
			return Attachment{}, err
		}
		transitionClass, err := requireValue(lifecycle, "lifecycleTransitionStorageClass")
		if err != nil {
			return Attachment{}, err
		}
		att.Fields = append(att.Fields,
			Field{Title: "Lifecycle Transition Age Days", Value: backtick(transitionDays), Short: true},
			Field{Title: "Lifecycle Transition Storage Class", Value: backtick(transitionClass), Short: true},
		)
	}

	return att, nil
}
