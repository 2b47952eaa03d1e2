package api

import (
	"context"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// ThrottledClient is the shared outbound transport. Requests whose URL starts
// with one of the filter prefixes pass through a token bucket enforcing the
// hosting service's request budget; everything else goes out unthrottled.
// It is safe for concurrent use: callers racing for the bucket are serialized
// by the limiter itself.
type ThrottledClient struct {
	client    *fasthttp.Client
	limiter   *rate.Limiter
	filters   []string
	authToken string
}

// NewThrottledClient builds a transport limited to ratePerSec requests per
// second for the filtered prefixes. An empty authToken disables the
// Authorization header.
func NewThrottledClient(ratePerSec float64, filters []string, authToken string) *ThrottledClient {
	return &ThrottledClient{
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         30 * time.Second,
			WriteTimeout:        30 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), 1),
		filters:   filters,
		authToken: authToken,
	}
}

// Do executes the request, waiting for a rate token first when the URL is
// covered by a filter prefix. The wait respects ctx cancellation.
func (c *ThrottledClient) Do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if c.authToken != "" {
		req.Header.Set("Authorization", "Token "+c.authToken)
	}
	if c.throttled(req.URI().String()) {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if deadline, ok := ctx.Deadline(); ok {
		return c.client.DoDeadline(req, resp, deadline)
	}
	return c.client.Do(req, resp)
}

func (c *ThrottledClient) throttled(url string) bool {
	for _, prefix := range c.filters {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}
