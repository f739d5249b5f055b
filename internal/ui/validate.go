package ui

import (
	"strings"
)

// User-facing messages.
const (
	msgMissingFields    = "Please fill in all fields."
	msgSameLocation     = "Start and end locations must be different."
	msgTimeout          = "Request timed out. Please check your connection and try again."
	msgCalculateFailed  = "Failed to calculate alarm. Please try again."
	msgSuggestionFailed = "Failed to fetch suggestions"
	msgAlarmNotSet      = "Could not set the alarm for %s. Set it manually."
)

// Form holds the raw field values.
type Form struct {
	Start        string
	End          string
	ArrivalTime  string
	GettingReady string
}

// ValidationError blocks submission. Its message is shown to the user.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks that every field is filled and that the two locations
// differ. Missing fields are reported first.
func Validate(f Form) error {
	start := strings.TrimSpace(f.Start)
	end := strings.TrimSpace(f.End)
	if start == "" || end == "" || strings.TrimSpace(f.ArrivalTime) == "" || strings.TrimSpace(f.GettingReady) == "" {
		return &ValidationError{Message: msgMissingFields}
	}
	if start == end {
		return &ValidationError{Message: msgSameLocation}
	}
	return nil
}
