package employees

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"queue-hires/internal/httpx"
)

// DefaultURL is the public dummy employees API the job was built against.
const DefaultURL = "https://dummy.restapiexample.com/api/v1/employees"

// Fixed request headers. No Accept-Encoding: the body is read as plain text.
const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	acceptJSON     = "application/json"
	acceptLanguage = "en-US,en;q=0.5"
)

type Client struct {
	URL    string
	HTTP   *http.Client
	Retry  httpx.RetryConfig
	Logger *zap.Logger
}

func New(url string, timeout time.Duration) *Client {
	return &Client{
		URL:    url,
		HTTP:   httpx.NewClient(timeout),
		Retry:  httpx.SingleAttempt(),
		Logger: zap.NewNop(),
	}
}

// FetchBody performs one GET and returns the whole body as text.
// The status code is not interpreted here: a non-2xx body is returned as-is
// and left for the normalizer to reject. Only transport failures are errors.
func (c *Client) FetchBody(ctx context.Context) (string, error) {
	resp, body, err := httpx.DoWithRetry(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
			if err != nil {
				return nil, err
			}
			r.Header.Set("User-Agent", userAgent)
			r.Header.Set("Accept", acceptJSON)
			r.Header.Set("Accept-Language", acceptLanguage)
			return r, nil
		},
		c.Retry,
	)

	var herr *httpx.HTTPError
	if errors.As(err, &herr) {
		c.logger().Warn("source returned non-2xx status",
			zap.String("url", c.URL),
			zap.Int("status", herr.StatusCode),
		)
		return string(herr.Body), nil
	}
	if err != nil {
		return "", err
	}

	c.logger().Debug("source fetched",
		zap.String("url", c.URL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
	)
	return string(body), nil
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
