package uipath

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// DryRun logs the envelope it would have posted and never calls Orchestrator.
type DryRun struct {
	Logger *zap.Logger
}

func NewDryRun(logger *zap.Logger) *DryRun {
	return &DryRun{Logger: logger}
}

func (d *DryRun) AddQueueItem(_ context.Context, req AddQueueItemRequest) (*QueueItem, error) {
	b, err := json.Marshal(newBody(req))
	if err != nil {
		return nil, &SubmitError{Message: err.Error(), Err: err}
	}
	if d.Logger != nil {
		d.Logger.Info("[DRY-RUN] would add queue item", zap.ByteString("payload", b))
	}
	return &QueueItem{}, nil
}
