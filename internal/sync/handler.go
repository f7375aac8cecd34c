package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"queue-hires/internal/domain"
	"queue-hires/internal/mappers"
	"queue-hires/internal/metrics"
	"queue-hires/internal/providers"
	"queue-hires/internal/providers/uipath"
	"queue-hires/internal/ratelimiter"
)

// Response is the invocation result, shaped like an API Gateway proxy response.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// Result is the full outcome of one run. Only the counts and failures
// end up in the response body; the rest feeds the run report.
type Result struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Employees  []domain.Employee
	Successes  []domain.Success
	Failures   []domain.Failure
	// Error is set when the run ended with a 500.
	Error string
}

type Deps struct {
	Source    providers.EmployeeSource
	Queue     providers.QueueSubmitter
	QueueName string
	Limiter   *ratelimiter.Limiter
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

// Handler moves the source employees into the Orchestrator queue, one at a time.
type Handler struct {
	source    providers.EmployeeSource
	queue     providers.QueueSubmitter
	queueName string
	limiter   *ratelimiter.Limiter
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		source:    d.Source,
		queue:     d.Queue,
		queueName: d.QueueName,
		limiter:   d.Limiter,
		metrics:   d.Metrics,
		logger:    d.Logger,
		now:       d.Now,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

func (h *Handler) Handle(ctx context.Context) Response {
	_, resp := h.Run(ctx)
	return resp
}

// Run executes one invocation: fetch, normalize, then submit each employee in
// source order. A failed submission is recorded and the loop moves on.
func (h *Handler) Run(ctx context.Context) (Result, Response) {
	res := Result{StartedAt: h.now()}

	body, err := h.source.FetchBody(ctx)
	if err != nil {
		h.logger.Error("fetch employees failed", zap.Error(err))
		return h.fail(res, err.Error())
	}

	employees, err := mappers.NormalizeEmployees(body)
	var shapeErr *mappers.ShapeError
	if errors.As(err, &shapeErr) {
		h.logger.Warn("source returned no data array", zap.String("message", shapeErr.Message))
		return h.fail(res, shapeErr.Message)
	}
	if err != nil {
		h.logger.Error("parse employees failed", zap.Error(err))
		return h.fail(res, err.Error())
	}

	res.Employees = employees
	h.metrics.ObserveFetched(len(employees))
	h.logger.Info("fetched employees",
		zap.Int("count", len(employees)),
		zap.Any("priorities", lo.CountValuesBy(employees, func(e domain.Employee) domain.Priority {
			return domain.Classify(e.SalaryValue())
		})),
	)

	for i, emp := range employees {
		priority := domain.Classify(emp.SalaryValue())
		lg := h.logger.With(
			zap.String("employee_id", emp.IDString()),
			zap.String("priority", string(priority)),
			zap.String("progress", fmt.Sprintf("%d/%d", i+1, len(employees))),
		)

		item, err := h.submit(ctx, emp, priority)
		if err != nil {
			failure := domain.Failure{Employee: emp, Error: err.Error()}
			var submitErr *uipath.SubmitError
			if errors.As(err, &submitErr) {
				failure.Response = submitErr.Response
			}
			res.Failures = append(res.Failures, failure)
			lg.Warn("add queue item failed", zap.Error(err))
			continue
		}

		success := domain.Success{Employee: emp, QueueItemID: item.IDString()}
		res.Successes = append(res.Successes, success)
		lg.Info("queue item added", zap.String("queue_item_id", success.QueueItemID))
	}

	summary := domain.NewSummary(len(employees), res.Successes, res.Failures)
	h.logger.Info("sync summary",
		zap.Int("total", summary.TotalEmployees),
		zap.Int("added", summary.QueueItemsAdded),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", h.now().Sub(res.StartedAt)),
	)

	resp, err := jsonResponse(http.StatusOK, summary)
	if err != nil {
		return h.fail(res, err.Error())
	}
	return h.finish(res, resp)
}

func (h *Handler) submit(ctx context.Context, emp domain.Employee, priority domain.Priority) (*uipath.QueueItem, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req := uipath.AddQueueItemRequest{
		QueueName: h.queueName,
		Content:   emp,
		Priority:  priority,
	}
	if ref, ok := emp.Reference(); ok {
		req.Reference = &ref
	}

	start := h.now()
	item, err := h.queue.AddQueueItem(ctx, req)
	h.metrics.ObserveSubmit(priority, h.now().Sub(start), err)
	return item, err
}

func (h *Handler) fail(res Result, message string) (Result, Response) {
	res.Error = message
	resp, err := jsonResponse(http.StatusInternalServerError, domain.ErrorBody{Error: message})
	if err != nil {
		resp = Response{StatusCode: http.StatusInternalServerError, Headers: jsonHeaders(), Body: `{"error":"internal error"}`}
	}
	return h.finish(res, resp)
}

func (h *Handler) finish(res Result, resp Response) (Result, Response) {
	res.FinishedAt = h.now()
	h.metrics.ObserveRun(fmt.Sprint(resp.StatusCode), res.FinishedAt)
	return res, resp
}

func jsonResponse(status int, v any) (Response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Response{}, fmt.Errorf("encode response: %w", err)
	}
	return Response{StatusCode: status, Headers: jsonHeaders(), Body: string(b)}, nil
}

func jsonHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}
