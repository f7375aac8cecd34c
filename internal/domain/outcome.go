package domain

import "encoding/json"

// NotAvailable is recorded as the queue item id when Orchestrator does not return one.
const NotAvailable = "N/A"

// Success is one employee that made it into the queue.
type Success struct {
	Employee    Employee `json:"employee"`
	QueueItemID string   `json:"queueItemId"`
}

// Failure is one employee the queue rejected or never received.
// Response carries the service's JSON error body when there was one.
type Failure struct {
	Employee Employee        `json:"employee"`
	Error    string          `json:"error"`
	Response json.RawMessage `json:"response,omitempty"`
}

// Summary is the body of a 200 handler response.
type Summary struct {
	TotalEmployees  int       `json:"totalEmployees"`
	QueueItemsAdded int       `json:"queueItemsAdded"`
	Failed          int       `json:"failed"`
	Failures        []Failure `json:"failures"`
}

// NewSummary builds the summary; failures is never serialized as null.
func NewSummary(total int, successes []Success, failures []Failure) Summary {
	if failures == nil {
		failures = []Failure{}
	}
	return Summary{
		TotalEmployees:  total,
		QueueItemsAdded: len(successes),
		Failed:          len(failures),
		Failures:        failures,
	}
}

// ErrorBody is the body of a 500 handler response.
type ErrorBody struct {
	Error string `json:"error"`
}
