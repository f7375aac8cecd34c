package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/andybalholm/brotli"

	"queue-hires/internal/domain"
	"queue-hires/internal/sync"
)

// Report is the archived record of one run. Unlike the handler response it
// also lists the successes with their queue item ids.
type Report struct {
	RunID           string           `json:"runId"`
	StartedAt       time.Time        `json:"startedAt"`
	FinishedAt      time.Time        `json:"finishedAt"`
	StatusCode      int              `json:"statusCode"`
	Error           string           `json:"error,omitempty"`
	TotalEmployees  int              `json:"totalEmployees"`
	QueueItemsAdded int              `json:"queueItemsAdded"`
	Failed          int              `json:"failed"`
	Successes       []domain.Success `json:"successes"`
	Failures        []domain.Failure `json:"failures"`
}

func NewReport(runID string, res sync.Result, resp sync.Response) Report {
	r := Report{
		RunID:           runID,
		StartedAt:       res.StartedAt.UTC(),
		FinishedAt:      res.FinishedAt.UTC(),
		StatusCode:      resp.StatusCode,
		Error:           res.Error,
		TotalEmployees:  len(res.Employees),
		QueueItemsAdded: len(res.Successes),
		Failed:          len(res.Failures),
		Successes:       res.Successes,
		Failures:        res.Failures,
	}
	if r.Successes == nil {
		r.Successes = []domain.Success{}
	}
	if r.Failures == nil {
		r.Failures = []domain.Failure{}
	}
	return r
}

// FileName is queue-hires_<start>_<run id>.json, with .br appended when compressed.
func (r Report) FileName(compress bool) string {
	name := fmt.Sprintf("queue-hires_%s_%s.json", r.StartedAt.UTC().Format("20060102T150405Z"), r.RunID)
	if compress {
		name += ".br"
	}
	return name
}

// Encode renders the report as indented JSON, brotli-compressed when asked.
func Encode(r Report, compress bool) ([]byte, error) {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: encode report: %w", err)
	}
	if !compress {
		return raw, nil
	}

	var buf bytes.Buffer
	bw := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := bw.Write(raw); err != nil {
		return nil, fmt.Errorf("export: compress report: %w", err)
	}
	if err := bw.Close(); err != nil {
		return nil, fmt.Errorf("export: compress report: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode.
func Decode(b []byte, compressed bool) (Report, error) {
	var r Report
	var src io.Reader = bytes.NewReader(b)
	if compressed {
		src = brotli.NewReader(src)
	}
	if err := json.NewDecoder(src).Decode(&r); err != nil {
		return Report{}, fmt.Errorf("export: decode report: %w", err)
	}
	return r, nil
}
