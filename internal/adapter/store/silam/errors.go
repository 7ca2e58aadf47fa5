package silam

import "fmt"

// StatusError is returned when the data server answers with a non-success status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("silam: unexpected status %d from %s", e.StatusCode, e.URL)
}

// DecodeError reports a missing or malformed field in a NetCDF response.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("silam: field %s: %s", e.Field, e.Reason)
}
