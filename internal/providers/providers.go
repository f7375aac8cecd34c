package providers

import (
	"context"

	"queue-hires/internal/providers/uipath"
)

// EmployeeSource returns the raw employees payload as text.
type EmployeeSource interface {
	FetchBody(ctx context.Context) (string, error)
}

// QueueSubmitter adds one item to an Orchestrator queue.
type QueueSubmitter interface {
	AddQueueItem(ctx context.Context, req uipath.AddQueueItemRequest) (*uipath.QueueItem, error)
}

// EmployeeSourceFunc adapts a function to EmployeeSource.
type EmployeeSourceFunc func(ctx context.Context) (string, error)

func (f EmployeeSourceFunc) FetchBody(ctx context.Context) (string, error) { return f(ctx) }

// QueueSubmitterFunc adapts a function to QueueSubmitter.
type QueueSubmitterFunc func(ctx context.Context, req uipath.AddQueueItemRequest) (*uipath.QueueItem, error)

func (f QueueSubmitterFunc) AddQueueItem(ctx context.Context, req uipath.AddQueueItemRequest) (*uipath.QueueItem, error) {
	return f(ctx, req)
}
