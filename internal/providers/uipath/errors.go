package uipath

import "encoding/json"

// SubmitError is returned when a queue item could not be added.
// StatusCode is 0 for transport failures. Response holds the service's
// error body when it was JSON.
type SubmitError struct {
	StatusCode int
	Message    string
	Response   json.RawMessage
	Err        error
}

func (e *SubmitError) Error() string { return e.Message }
func (e *SubmitError) Unwrap() error { return e.Err }
