package uipath

import (
	"encoding/json"
	"fmt"
	"time"

	"queue-hires/internal/domain"
)

// AddQueueItemRequest is everything one submission needs besides the client settings.
// Nil optional fields are left out of the envelope.
type AddQueueItemRequest struct {
	QueueName string
	Content   domain.Employee
	Priority  domain.Priority
	Reference *string
	DeferDate *time.Time
	DueDate   *time.Time
}

type addQueueItemBody struct {
	ItemData itemData `json:"itemData"`
}

type itemData struct {
	Name            string          `json:"Name"`
	Priority        domain.Priority `json:"Priority"`
	SpecificContent domain.Employee `json:"SpecificContent"`
	Reference       *string         `json:"Reference,omitempty"`
	DeferDate       *time.Time      `json:"DeferDate,omitempty"`
	DueDate         *time.Time      `json:"DueDate,omitempty"`
}

func newBody(req AddQueueItemRequest) addQueueItemBody {
	body := addQueueItemBody{
		ItemData: itemData{
			Name:            req.QueueName,
			Priority:        req.Priority,
			SpecificContent: req.Content,
		},
	}
	if req.Reference != nil && *req.Reference != "" {
		body.ItemData.Reference = req.Reference
	}
	if req.DeferDate != nil && !req.DeferDate.IsZero() {
		body.ItemData.DeferDate = req.DeferDate
	}
	if req.DueDate != nil && !req.DueDate.IsZero() {
		body.ItemData.DueDate = req.DueDate
	}
	return body
}

// QueueItem is the part of the created item we use. Raw keeps the full response.
type QueueItem struct {
	ID     any    `json:"Id"`
	Key    string `json:"Key,omitempty"`
	Status string `json:"Status,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// IDString returns the item id, or domain.NotAvailable when the service sent none.
func (q *QueueItem) IDString() string {
	if q == nil {
		return domain.NotAvailable
	}
	switch v := q.ID.(type) {
	case nil:
		return domain.NotAvailable
	case json.Number:
		return v.String()
	case string:
		if v == "" {
			return domain.NotAvailable
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}
