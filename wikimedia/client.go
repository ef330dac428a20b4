// Package wikimedia fetches page views, edit histories and category
// listings from the Wikimedia APIs and Wikipedia itself.
package wikimedia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/dustin/go-wikiindex"
)

// Defaults for a Client talking to English Wikipedia.
var (
	DefaultUserAgent  = "go-wikiindex/1.0 (https://github.com/dustin/go-wikiindex)"
	DefaultRESTBase   = "https://wikimedia.org/api/rest_v1"
	DefaultActionBase = "https://en.wikipedia.org/w/api.php"
	DefaultSiteBase   = "https://en.wikipedia.org"
	DefaultProject    = "en.wikipedia"
	DefaultViewStart  = time.Date(2015, 7, 1, 0, 0, 0, 0, time.UTC)
	DefaultViewEnd    = time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC)
	DefaultEditsSince = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

	DefaultRequestsPerSecond = 50.0
	Timeout                  = 30 * time.Second
)

// A StatusError is a response with an unexpected HTTP status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %v", e.Code, e.URL)
}

// A Client talks to the Wikimedia APIs.  It implements
// wikiindex.ViewSource, wikiindex.EditSource and
// wikiindex.CategorySource and is safe for concurrent use.
type Client struct {
	hc         *http.Client
	userAgent  string
	restBase   string
	actionBase string
	siteBase   string
	project    string
	viewStart  time.Time
	viewEnd    time.Time
	since      time.Time
	limiter    *rate.Limiter
	log        zerolog.Logger
}

var (
	_ wikiindex.ViewSource     = (*Client)(nil)
	_ wikiindex.EditSource     = (*Client)(nil)
	_ wikiindex.CategorySource = (*Client)(nil)
)

// An Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithUserAgent sets the User-Agent sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithRESTBase sets the base of the REST API used for page views.
func WithRESTBase(u string) Option {
	return func(c *Client) { c.restBase = u }
}

// WithActionBase sets the action API endpoint used for revisions.
func WithActionBase(u string) Option {
	return func(c *Client) { c.actionBase = u }
}

// WithSiteBase sets the site relative category links resolve against.
func WithSiteBase(u string) Option {
	return func(c *Client) { c.siteBase = u }
}

// WithProject sets the page view project, e.g. "de.wikipedia".
func WithProject(p string) Option {
	return func(c *Client) { c.project = p }
}

// WithViewWindow sets the months whose views are fetched.
func WithViewWindow(start, end time.Time) Option {
	return func(c *Client) { c.viewStart, c.viewEnd = start, end }
}

// WithEditsSince sets the oldest edit fetched.
func WithEditsSince(t time.Time) Option {
	return func(c *Client) { c.since = t }
}

// WithRateLimit caps requests per second.  Zero or less means no cap.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the client's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient makes a Client for English Wikipedia, adjusted by opts.
func NewClient(opts ...Option) *Client {
	c := &Client{
		hc:         &http.Client{Timeout: Timeout},
		userAgent:  DefaultUserAgent,
		restBase:   DefaultRESTBase,
		actionBase: DefaultActionBase,
		siteBase:   DefaultSiteBase,
		project:    DefaultProject,
		viewStart:  DefaultViewStart,
		viewEnd:    DefaultViewEnd,
		since:      DefaultEditsSince,
		log:        wikiindex.Logger(),
	}
	WithRateLimit(DefaultRequestsPerSecond)(c)
	for _, o := range opts {
		o(c)
	}
	return c
}

// get fetches u, paced by the limiter.  Client errors other than 429
// are permanent so a task pool doesn't retry them.
func (c *Client) get(ctx context.Context, u string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		io.Copy(io.Discard, res.Body)
		res.Body.Close()
		serr := &StatusError{URL: u, Code: res.StatusCode}
		c.log.Debug().Err(serr).Msg("Request failed")
		if res.StatusCode >= 400 && res.StatusCode < 500 && res.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(serr)
		}
		return nil, serr
	}
	return res.Body, nil
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	body, err := c.get(ctx, u)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decoding %v: %w", u, err)
	}
	return nil
}

// IsNotFound is true if err came from a 404 response.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
