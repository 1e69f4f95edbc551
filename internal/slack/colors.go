package slack

import (
	"fmt"
	"strings"

	"slackrelay/internal/types"
)

// Display colors understood by the Slack attachment API. ColorGray is the
// literal hex Slack renders for low-priority notices; the other three are
// Slack's named palette entries.
const (
	ColorGood    = "good"
	ColorWarning = "warning"
	ColorDanger  = "danger"
	ColorGray    = "#777777"
)

// alarmStateColors maps a CloudWatch alarm state to its display color.
var alarmStateColors = map[string]string{
	"OK":                ColorGood,
	"INSUFFICIENT_DATA": ColorWarning,
	"ALARM":             ColorDanger,
}

// findingSeverityColors maps a GuardDuty severity tier to its display color.
var findingSeverityColors = map[string]string{
	"Low":    ColorGray,
	"Medium": ColorWarning,
	"High":   ColorDanger,
}

// healthCategoryColors maps an AWS Health eventTypeCategory to its display
// color. The possible values are issue, accountNotification, and
// scheduledChange.
var healthCategoryColors = map[string]string{
	"accountNotification": ColorGray,
	"scheduledChange":     ColorWarning,
	"issue":               ColorDanger,
}

// storageEventColors maps an S3 notification event name (with ":" replaced by
// "_") to its display color.
//
// https://docs.aws.amazon.com/AmazonS3/latest/userguide/notification-how-to-event-types-and-destinations.html
var storageEventColors = map[string]string{
	"TestEvent":                             ColorGood,
	"ObjectCreated_Put":                     ColorGood,
	"ObjectCreated_Post":                    ColorGood,
	"ObjectCreated_Copy":                    ColorGood,
	"ObjectCreated_CompleteMultipartUpload": ColorGood,
	"ObjectRemoved_Delete":                  ColorDanger,
	"ObjectRemoved_DeleteMarkerCreated":     ColorDanger,
	"ObjectRestore_Post":                    ColorGood,
	"ObjectRestore_Completed":               ColorGood,
	"ObjectRestore_Delete":                  ColorDanger,
	"ReducedRedundancyLostObject":           ColorDanger,

	"Replication_OperationFailedReplication":        ColorDanger,
	"Replication_OperationMissedThreshold":          ColorDanger,
	"Replication_OperationReplicatedAfterThreshold": ColorWarning,
	"Replication_OperationNotTracked":               ColorDanger,

	"LifecycleExpiration_Delete":              ColorDanger,
	"LifecycleExpiration_DeleteMarkerCreated": ColorDanger,
	"LifecycleTransition":                     ColorWarning,
	"IntelligentTiering":                      ColorWarning,
	"ObjectTagging_Put":                       ColorWarning,
	"ObjectTagging_Delete":                    ColorWarning,
	"ObjectAcl_Put":                           ColorWarning,
}

// lookupColor resolves key in table. An unrecognized key is a loud failure:
// silently falling back to a default color would hide new upstream event
// types behind a misleading severity.
func lookupColor(table map[string]string, kind, key string) (string, error) {
	color, ok := table[key]
	if !ok {
		return "", types.NewAppErrorWithDetails(
			types.ErrCodeEnumUnknownKey,
			fmt.Sprintf("unknown %s %q", kind, key),
			nil,
			map[string]any{"kind": kind, "key": key},
		)
	}
	return color, nil
}

// AlarmStateColor maps a CloudWatch alarm state (OK, INSUFFICIENT_DATA,
// ALARM) to its display color.
func AlarmStateColor(state string) (string, error) {
	return lookupColor(alarmStateColors, "alarm state", state)
}

// SeverityTier buckets a GuardDuty numeric severity score into its named
// tier. The thresholds are fixed by GuardDuty's published severity levels.
func SeverityTier(score float64) string {
	switch {
	case score < 4.0:
		return "Low"
	case score < 7.0:
		return "Medium"
	default:
		return "High"
	}
}

// FindingSeverityColor maps a GuardDuty severity tier (Low, Medium, High) to
// its display color.
func FindingSeverityColor(tier string) (string, error) {
	return lookupColor(findingSeverityColors, "finding severity", tier)
}

// HealthCategoryColor maps an AWS Health eventTypeCategory to its display
// color.
func HealthCategoryColor(category string) (string, error) {
	return lookupColor(healthCategoryColors, "health event category", category)
}

// StorageEventColor maps an S3 notification event name to its display color.
// Event names arrive colon-delimited (e.g. "ObjectCreated:Put") and are
// normalized to the underscore form the table is keyed by.
func StorageEventColor(eventName string) (string, error) {
	return lookupColor(storageEventColors, "storage event", strings.ReplaceAll(eventName, ":", "_"))
}
