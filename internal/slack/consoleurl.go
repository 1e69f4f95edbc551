package slack

import (
	"fmt"
	"strings"

	"slackrelay/internal/types"
)

// AWS services we build console deep links for.
const (
	serviceCloudWatch = "cloudwatch"
	serviceGuardDuty  = "guardduty"
)

// consoleURL returns the AWS console base URL for a service in a region,
// switching to the GovCloud console domain for us-gov partitions.
func consoleURL(region, service string) (string, error) {
	switch service {
	case serviceCloudWatch, serviceGuardDuty:
	default:
		return "", types.NewAppErrorWithDetails(types.ErrCodeConsoleUnsupported,
			fmt.Sprintf("no console URL mapping for service %q", service), nil,
			map[string]any{"service": service, "region": region})
	}

	if strings.HasPrefix(region, "us-gov-") {
		return fmt.Sprintf("https://console.amazonaws-us-gov.com/%s/home?region=%s", service, region), nil
	}
	return fmt.Sprintf("https://console.aws.amazon.com/%s/home?region=%s", service, region), nil
}
