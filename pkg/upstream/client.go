// Package upstream is the HTTP transport toward the marketplace API. Every
// call goes through a clone of one configured colly collector so requests
// share the same transport, timeout and domain allow-list.
package upstream

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const userAgent = "deal-scout/1.0 (+https://github.com/deal-scout)"

type Client struct {
	Collector *colly.Collector
}

// Response is a raw upstream reply. Non-2xx replies are returned as
// responses, not errors, so callers can forward the body.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// New returns a client restricted to allowedHosts. An empty list allows any
// host.
func New(timeout time.Duration, allowedHosts ...string) *Client {
	opts := []colly.CollectorOption{
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	}
	if len(allowedHosts) > 0 {
		opts = append(opts, colly.AllowedDomains(allowedHosts...))
	}

	c := colly.NewCollector(opts...)
	c.WithTransport(otelhttp.NewTransport(http.DefaultTransport))
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}

	return &Client{Collector: c}
}

// Do performs a single synchronous request. It never retries.
// There is no context: the collector's request timeout bounds the call,
// and cancelling the inbound request does not abort it.
func (c *Client) Do(method, rawURL string, body io.Reader, hdr http.Header) (*Response, error) {
	collector := c.Collector.Clone()

	var resp *Response
	collector.OnResponse(func(r *colly.Response) {
		resp = &Response{StatusCode: r.StatusCode, Body: r.Body}
	})

	if err := collector.Request(method, rawURL, body, nil, hdr); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%s %s: no response", method, rawURL)
	}

	return resp, nil
}
