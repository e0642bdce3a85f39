package quest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// UserHeader carries the caller identity that owns threads.
const UserHeader = "X-User-ID"

// Client talks to a Quest server over HTTP. Safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	userID    string
	userAgent string
	obs       *observer
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("quest: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("quest: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("quest: unsupported scheme %q", base.Scheme)
	}

	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	return &Client{
		base:      base,
		http:      hc,
		userID:    cfg.userID,
		userAgent: cfg.userAgent,
		obs:       obs,
	}, nil
}

// Search runs one turn and calls fn for each frame as it arrives. fn may be nil.
// The returned Answer holds whatever was received, even on error.
func (c *Client) Search(ctx context.Context, req SearchRequest, fn func(Frame) error) (ans *Answer, err error) {
	defer func(start time.Time) { c.obs.observe("search", start, err) }(time.Now())

	q := url.Values{}
	switch {
	case req.Query != "":
		q.Set("q", req.Query)
		if req.ThreadID != "" {
			q.Set("thread_id", req.ThreadID)
		}
	case req.ArticleID != "":
		q.Set("article_id", req.ArticleID)
	default:
		return nil, ErrMissingQuery
	}

	resp, err := c.do(ctx, "/search", q)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return readStream(resp.Body, c.obs, fn)
}

// Thread fetches a stored thread.
func (c *Client) Thread(ctx context.Context, id string) (t *Thread, err error) {
	defer func(start time.Time) { c.obs.observe("thread", start, err) }(time.Now())

	if id == "" {
		return nil, fmt.Errorf("%w: empty thread id", ErrInvalidInput)
	}
	t = &Thread{}
	if err := c.getJSON(ctx, "/threads/"+url.PathEscape(id), nil, t); err != nil {
		return nil, err
	}
	return t, nil
}

// NewsFeed returns the digest of every topic plus local weather.
func (c *Client) NewsFeed(ctx context.Context) (d *Digest, err error) {
	defer func(start time.Time) { c.obs.observe("news_feed", start, err) }(time.Now())

	d = &Digest{}
	if err := c.getJSON(ctx, "/news/feed", nil, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Topics lists the topics accepted by NewsByTopic.
func (c *Client) Topics(ctx context.Context) (topics []string, err error) {
	defer func(start time.Time) { c.obs.observe("news_topics", start, err) }(time.Now())

	var body struct {
		Topics []string `json:"topics"`
	}
	if err := c.getJSON(ctx, "/news/topics", nil, &body); err != nil {
		return nil, err
	}
	return body.Topics, nil
}

// NewsByTopic returns the newest crawled articles of one topic.
func (c *Client) NewsByTopic(ctx context.Context, topic string) (articles []*Article, err error) {
	defer func(start time.Time) { c.obs.observe("news_by_topic", start, err) }(time.Now())

	if topic == "" {
		return nil, fmt.Errorf("%w: empty topic", ErrInvalidInput)
	}
	var body struct {
		Articles []*Article `json:"articles"`
	}
	if err := c.getJSON(ctx, "/news/"+url.PathEscape(strings.ToUpper(topic)), nil, &body); err != nil {
		return nil, err
	}
	return body.Articles, nil
}

// Health returns the server's health report. A degraded server answers 503
// with a report body; that is returned without error.
func (c *Client) Health(ctx context.Context) (rep *HealthReport, err error) {
	defer func(start time.Time) { c.obs.observe("health", start, err) }(time.Now())

	resp, err := c.send(ctx, "/health", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, decodeError(resp)
	}
	rep = &HealthReport{}
	if err := json.NewDecoder(resp.Body).Decode(rep); err != nil {
		return nil, fmt.Errorf("quest: decode health: %w", err)
	}
	return rep, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	resp, err := c.do(ctx, path, q)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("quest: decode %s: %w", path, err)
	}
	return nil
}

// do sends a GET and turns any non-2xx answer into an *APIError.
func (c *Client) do(ctx context.Context, path string, q url.Values) (*http.Response, error) {
	resp, err := c.send(ctx, path, q)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, path string, q url.Values) (*http.Response, error) {
	u := *c.base
	u.Path += path
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("quest: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/x-ndjson")
	req.Header.Set("User-Agent", c.userAgent)
	if c.userID != "" {
		req.Header.Set(UserHeader, c.userID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quest: %s %s: %w", req.Method, path, err)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}
