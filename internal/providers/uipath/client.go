package uipath

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"queue-hires/internal/httpx"
)

const (
	contentTypeJSON   = "application/json"
	addQueueItemPath  = "/odata/Queues/UiPathODataSvc.AddQueueItem"
	organizationUnitH = "X-UIPATH-OrganizationUnitId"
)

// Client talks to one Orchestrator tenant, e.g.
// https://cloud.uipath.com/<org>/<tenant>.
type Client struct {
	BaseURL     string
	BearerToken string
	// FolderID is sent as X-UIPATH-OrganizationUnitId when set.
	FolderID *int64
	HTTP     *http.Client
	Retry    httpx.RetryConfig
	Logger   *zap.Logger
}

func New(baseURL, token string, folderID *int64, timeout time.Duration) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		BearerToken: token,
		FolderID:    folderID,
		HTTP:        httpx.NewClient(timeout),
		Retry:       httpx.SingleAttempt(),
		Logger:      zap.NewNop(),
	}
}

// AddQueueItem posts one item to the queue and returns the created item.
func (c *Client) AddQueueItem(ctx context.Context, req AddQueueItemRequest) (*QueueItem, error) {
	if c.BearerToken == "" {
		return nil, &SubmitError{Message: "uipath: missing bearer token"}
	}

	b, err := json.Marshal(newBody(req))
	if err != nil {
		return nil, &SubmitError{Message: fmt.Sprintf("uipath: marshal queue item: %v", err), Err: err}
	}

	_, body, err := httpx.DoWithRetry(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+addQueueItemPath, bytes.NewReader(b))
			if err != nil {
				return nil, err
			}
			r.Header.Set("Content-Type", contentTypeJSON)
			r.Header.Set("Authorization", "Bearer "+c.BearerToken)
			if c.FolderID != nil {
				r.Header.Set(organizationUnitH, strconv.FormatInt(*c.FolderID, 10))
			}
			return r, nil
		},
		c.Retry,
	)
	if err != nil {
		return nil, toSubmitError(err)
	}

	item, err := decodeQueueItem(body)
	if err != nil {
		return nil, &SubmitError{Message: fmt.Sprintf("uipath: decode queue item: %v", err), Err: err}
	}

	c.logger().Debug("queue item added",
		zap.String("queue", req.QueueName),
		zap.String("queue_item_id", item.IDString()),
	)
	return item, nil
}

func toSubmitError(err error) *SubmitError {
	var herr *httpx.HTTPError
	if errors.As(err, &herr) {
		se := &SubmitError{
			StatusCode: herr.StatusCode,
			Message:    herr.Error(),
			Err:        err,
		}
		if trimmed := bytes.TrimSpace(herr.Body); len(trimmed) > 0 && json.Valid(trimmed) {
			se.Response = json.RawMessage(trimmed)
		}
		return se
	}
	return &SubmitError{Message: err.Error(), Err: err}
}

// decodeQueueItem requires a JSON object; a literal null or a bare scalar
// means no item came back.
func decodeQueueItem(body []byte) (*QueueItem, error) {
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("response is not a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var item QueueItem
	if err := dec.Decode(&item); err != nil {
		return nil, err
	}
	item.Raw = json.RawMessage(body)
	return &item, nil
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
