package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"queue-hires/internal/domain"
	"queue-hires/internal/metrics"
	"queue-hires/internal/providers"
	"queue-hires/internal/providers/employees"
	"queue-hires/internal/providers/uipath"
	"queue-hires/internal/ratelimiter"
)

const oneEmployee = `{"data":[{"id":1,"employee_name":"A","employee_salary":50000,"employee_age":30}]}`

type summaryBody struct {
	TotalEmployees  int              `json:"totalEmployees"`
	QueueItemsAdded int              `json:"queueItemsAdded"`
	Failed          int              `json:"failed"`
	Failures        []map[string]any `json:"failures"`
}

func sourceServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// queueServer answers each AddQueueItem call with reply(n), n starting at 1.
func queueServer(t *testing.T, reply func(n int32, w http.ResponseWriter, body []byte)) *httptest.Server {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		reply(atomic.AddInt32(&calls, 1), w, b)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestHandler(sourceURL, queueURL string, m *metrics.Metrics) *Handler {
	return NewHandler(Deps{
		Source:    employees.New(sourceURL, 0),
		Queue:     uipath.New(queueURL, "token", nil, 0),
		QueueName: "New Hires",
		Limiter:   ratelimiter.New(0),
		Metrics:   m,
	})
}

func decodeSummary(t *testing.T, resp Response) summaryBody {
	t.Helper()
	var s summaryBody
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &s))
	return s
}

func TestHandleSingleEmployeeSuccess(t *testing.T) {
	src := sourceServer(t, oneEmployee)
	queue := queueServer(t, func(_ int32, w http.ResponseWriter, _ []byte) {
		_, _ = w.Write([]byte(`{"Id":"Q1"}`))
	})

	h := newTestHandler(src.URL, queue.URL, nil)
	res, resp := h.Run(context.Background())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.JSONEq(t, `{"totalEmployees":1,"queueItemsAdded":1,"failed":0,"failures":[]}`, resp.Body)

	require.Len(t, res.Successes, 1)
	assert.Equal(t, "Q1", res.Successes[0].QueueItemID)
	assert.Empty(t, res.Error)
}

func TestHandleTooManyAttempts(t *testing.T) {
	src := sourceServer(t, `{"message":"Too Many Attempts"}`)
	var called int32
	queue := queueServer(t, func(_ int32, w http.ResponseWriter, _ []byte) {
		atomic.AddInt32(&called, 1)
	})

	resp := newTestHandler(src.URL, queue.URL, nil).Handle(context.Background())

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Too Many Attempts"}`, resp.Body)
	assert.Zero(t, atomic.LoadInt32(&called))
}

func TestHandleNoDataArrayFallback(t *testing.T) {
	src := sourceServer(t, `{"status":"error"}`)
	resp := newTestHandler(src.URL, "http://127.0.0.1:1", nil).Handle(context.Background())

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"No data array returned"}`, resp.Body)
}

func TestHandleEmptyData(t *testing.T) {
	src := sourceServer(t, `{"data":[]}`)
	resp := newTestHandler(src.URL, "http://127.0.0.1:1", nil).Handle(context.Background())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"totalEmployees":0,"queueItemsAdded":0,"failed":0,"failures":[]}`, resp.Body)
}

func TestHandleFailureIsIsolatedAndOrdered(t *testing.T) {
	src := sourceServer(t, `{"data":[
		{"id":1,"employee_name":"A","employee_salary":50000,"employee_age":30},
		{"id":2,"employee_name":"B","employee_salary":350000,"employee_age":40},
		{"id":3,"employee_name":"C","employee_salary":150000,"employee_age":50}
	]}`)
	queue := queueServer(t, func(n int32, w http.ResponseWriter, _ []byte) {
		if n == 2 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Queue does not exist."}`))
			return
		}
		_, _ = w.Write([]byte(fmt.Sprintf(`{"Id":%d}`, 100+n)))
	})

	res, resp := newTestHandler(src.URL, queue.URL, nil).Run(context.Background())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	s := decodeSummary(t, resp)
	assert.Equal(t, 3, s.TotalEmployees)
	assert.Equal(t, 2, s.QueueItemsAdded)
	assert.Equal(t, 1, s.Failed)
	require.Len(t, s.Failures, 1)

	failure := s.Failures[0]
	assert.Equal(t, 2.0, failure["employee"].(map[string]any)["id"])
	assert.Equal(t, `HTTP 400: {"message":"Queue does not exist."}`, failure["error"])
	assert.Equal(t, map[string]any{"message": "Queue does not exist."}, failure["response"])

	require.Len(t, res.Successes, 2)
	assert.Equal(t, "101", res.Successes[0].QueueItemID)
	assert.Equal(t, "103", res.Successes[1].QueueItemID)
}

func TestHandleSubmitsClassifiedEnvelope(t *testing.T) {
	src := sourceServer(t, `{"data":[
		{"id":1,"employee_salary":300000},
		{"id":2,"employee_salary":100000},
		{"id":3,"employee_salary":100001},
		{"employee_name":"no id"}
	]}`)

	var got []map[string]any
	queue := queueServer(t, func(_ int32, w http.ResponseWriter, body []byte) {
		var env struct {
			ItemData map[string]any `json:"itemData"`
		}
		_ = json.Unmarshal(body, &env)
		got = append(got, env.ItemData)
		_, _ = w.Write([]byte(`{}`))
	})

	res, resp := newTestHandler(src.URL, queue.URL, nil).Run(context.Background())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, got, 4)

	assert.Equal(t, "High", got[0]["Priority"])
	assert.Equal(t, "emp-1", got[0]["Reference"])
	assert.Equal(t, "New Hires", got[0]["Name"])
	assert.Equal(t, "Low", got[1]["Priority"])
	assert.Equal(t, "Normal", got[2]["Priority"])
	assert.Equal(t, "Normal", got[3]["Priority"])
	assert.NotContains(t, got[3], "Reference")
	assert.NotContains(t, got[0], "DeferDate")
	assert.NotContains(t, got[0], "DueDate")

	for _, s := range res.Successes {
		assert.Equal(t, domain.NotAvailable, s.QueueItemID)
	}
}

func TestHandleSourceTransportError(t *testing.T) {
	const msg = "dial tcp 127.0.0.1:1: connect: connection refused"
	h := NewHandler(Deps{
		Source: providers.EmployeeSourceFunc(func(ctx context.Context) (string, error) {
			return "", errors.New(msg)
		}),
		Queue: providers.QueueSubmitterFunc(func(ctx context.Context, req uipath.AddQueueItemRequest) (*uipath.QueueItem, error) {
			t.Fatal("queue must not be called")
			return nil, nil
		}),
	})

	res, resp := h.Run(context.Background())
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"`+msg+`"}`, resp.Body)
	assert.Equal(t, msg, res.Error)
}

func TestHandleSourceUnreachableCarriesRawError(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srcURL := src.URL
	src.Close()

	_, directErr := employees.New(srcURL, 0).FetchBody(context.Background())
	require.Error(t, directErr)

	res, resp := newTestHandler(srcURL, "http://127.0.0.1:1", nil).Run(context.Background())
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, directErr.Error(), res.Error)
	assert.NotContains(t, res.Error, "employees:")
}

func TestHandleMalformedJSON(t *testing.T) {
	src := sourceServer(t, `<html>Too Many Requests</html>`)
	resp := newTestHandler(src.URL, "http://127.0.0.1:1", nil).Handle(context.Background())

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body domain.ErrorBody
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Contains(t, body.Error, "not valid JSON")
}

func TestHandleQueueTransportFailureIsRecorded(t *testing.T) {
	src := sourceServer(t, oneEmployee)
	queue := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	queueURL := queue.URL
	queue.Close()

	resp := newTestHandler(src.URL, queueURL, nil).Handle(context.Background())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	s := decodeSummary(t, resp)
	assert.Equal(t, 0, s.QueueItemsAdded)
	assert.Equal(t, 1, s.Failed)
	assert.NotContains(t, s.Failures[0], "response")
}

func TestHandleDeterministicCounts(t *testing.T) {
	src := sourceServer(t, `{"data":[{"id":1},{"id":2},{"id":3}]}`)
	queue := queueServer(t, func(n int32, w http.ResponseWriter, _ []byte) {
		_, _ = w.Write([]byte(fmt.Sprintf(`{"Id":%d}`, n)))
	})
	h := newTestHandler(src.URL, queue.URL, nil)

	first := decodeSummary(t, h.Handle(context.Background()))
	second := decodeSummary(t, h.Handle(context.Background()))

	assert.Equal(t, first, second)
	assert.Equal(t, 3, first.QueueItemsAdded)
}

func TestHandleRecordsMetrics(t *testing.T) {
	src := sourceServer(t, `{"data":[{"id":1,"employee_salary":400000},{"id":2,"employee_salary":10}]}`)
	queue := queueServer(t, func(n int32, w http.ResponseWriter, _ []byte) {
		if n == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"Id":1}`))
	})

	m := metrics.New(prometheus.NewRegistry())
	newTestHandler(src.URL, queue.URL, m).Handle(context.Background())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EmployeesFetched))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueueItemsAdded.WithLabelValues("High")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueueItemsFailed.WithLabelValues("Low")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("200")))
}

func TestHandleCancelledContextFailsItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := NewHandler(Deps{
		Source: providers.EmployeeSourceFunc(func(context.Context) (string, error) {
			return `{"data":[{"id":1},{"id":2}]}`, nil
		}),
		Queue: providers.QueueSubmitterFunc(func(ctx context.Context, req uipath.AddQueueItemRequest) (*uipath.QueueItem, error) {
			return &uipath.QueueItem{ID: "x"}, nil
		}),
		Limiter: ratelimiter.New(0),
	})

	res, resp := h.Run(ctx)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, res.Failures, 2)
	assert.Contains(t, res.Failures[0].Error, "rate limiter")
}

func TestHandleLogsSummary(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	src := sourceServer(t, oneEmployee)
	queue := queueServer(t, func(_ int32, w http.ResponseWriter, _ []byte) {
		_, _ = w.Write([]byte(`{"Id":"Q1"}`))
	})

	h := NewHandler(Deps{
		Source:    employees.New(src.URL, 0),
		Queue:     uipath.New(queue.URL, "token", nil, 0),
		QueueName: "New Hires",
		Logger:    zap.New(core),
	})
	h.Handle(context.Background())

	summary := logs.FilterMessage("sync summary").All()
	require.Len(t, summary, 1)
	fields := summary[0].ContextMap()
	assert.Equal(t, int64(1), fields["total"])
	assert.Equal(t, int64(1), fields["added"])
	assert.Equal(t, int64(0), fields["failed"])

	added := logs.FilterMessage("queue item added").All()
	require.Len(t, added, 1)
	assert.Equal(t, "Q1", added[0].ContextMap()["queue_item_id"])
	assert.Equal(t, "Low", added[0].ContextMap()["priority"])
}

func TestHandleNullFieldsReachQueueAsNull(t *testing.T) {
	src := sourceServer(t, `{"data":[{"id":1,"employee_name":"A","employee_salary":null,"employee_age":null}]}`)

	var got []byte
	queue := queueServer(t, func(_ int32, w http.ResponseWriter, body []byte) {
		got = body
		_, _ = w.Write([]byte(`{"Id":9}`))
	})

	resp := newTestHandler(src.URL, queue.URL, nil).Handle(context.Background())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env struct {
		ItemData struct {
			Priority        string          `json:"Priority"`
			SpecificContent json.RawMessage `json:"SpecificContent"`
		} `json:"itemData"`
	}
	require.NoError(t, json.Unmarshal(got, &env))
	assert.Equal(t, "Low", env.ItemData.Priority)
	assert.JSONEq(t, `{"id":1,"name":"A","salary":null,"age":null}`, string(env.ItemData.SpecificContent))
}

func TestHandleNullQueueResponseIsFailure(t *testing.T) {
	src := sourceServer(t, oneEmployee)
	queue := queueServer(t, func(_ int32, w http.ResponseWriter, _ []byte) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`null`))
	})

	res, resp := newTestHandler(src.URL, queue.URL, nil).Run(context.Background())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	s := decodeSummary(t, resp)
	assert.Equal(t, 0, s.QueueItemsAdded)
	assert.Equal(t, 1, s.Failed)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0].Error, "not a JSON object")
}
