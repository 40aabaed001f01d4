package campaign

import (
	"fmt"
	"time"
)

// scheduleInputLayout is the local fixed format accepted on the command line.
const scheduleInputLayout = "2006-01-02 15:04:05"

// scheduleOutputLayout is the format the SendGrid scheduling API expects.
// The input is treated as already UTC; no timezone conversion is performed.
const scheduleOutputLayout = "2006-01-02T15:04:05Z"

// ParseScheduleTime converts a "YYYY-MM-DD HH:MM:SS" schedule string into
// the UTC ISO 8601 form with a literal Z suffix.
func ParseScheduleTime(value string) (string, error) {
	t, err := time.Parse(scheduleInputLayout, value)
	if err != nil {
		return "", &ValidationError{
			Reason: fmt.Sprintf("invalid schedule time %q: expected format YYYY-MM-DD HH:MM:SS", value),
		}
	}
	return t.Format(scheduleOutputLayout), nil
}
