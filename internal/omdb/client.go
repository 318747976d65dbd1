package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"reelbox/internal/domain"
)

const (
	DefaultBaseURL   = "https://www.omdbapi.com/"
	DefaultRateLimit = 5.0
	defaultUserAgent = "reelbox/0.1"
	requestTimeout   = 10 * time.Second
)

// ErrNotConfigured is returned when the client has no API key.
var ErrNotConfigured = errors.New("omdb api key not configured")

// APIError is a response that arrived successfully but reports failure
// (Response == "False"), or an HTTP error status.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Options configure a Client.
type Options struct {
	APIKey  string
	BaseURL string
	// RateLimit caps outgoing requests per second; zero uses DefaultRateLimit.
	RateLimit  float64
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// Client talks to the OMDb HTTP API.
type Client struct {
	baseURL   *url.URL
	apiKey    string
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	log       logrus.FieldLogger
}

// NewClient builds a Client from opts.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", raw)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	limit := opts.RateLimit
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		baseURL:   base,
		apiKey:    opts.APIKey,
		http:      httpClient,
		limiter:   rate.NewLimiter(rate.Limit(limit), 1),
		userAgent: defaultUserAgent,
		log:       logger.WithField("component", "omdb"),
	}, nil
}

// Search returns one page of titles matching params.
func (c *Client) Search(ctx context.Context, params domain.SearchParams) (domain.SearchResponse, error) {
	params, err := params.Normalize()
	if err != nil {
		return domain.SearchResponse{}, err
	}
	if params.Query == "" {
		return domain.SearchResponse{}, fmt.Errorf("search query is empty")
	}

	values := url.Values{}
	values.Set("s", params.Query)
	values.Set("page", strconv.Itoa(params.Page))
	if params.Type != "" {
		values.Set("type", params.Type)
	}
	if params.Year > 0 {
		values.Set("y", strconv.Itoa(params.Year))
	}

	var payload domain.SearchResponse
	var envelope envelope
	if err := c.get(ctx, "search", values, &payload, &envelope); err != nil {
		return domain.SearchResponse{}, err
	}
	if err := envelope.check("search", "Failed to fetch movies"); err != nil {
		return domain.SearchResponse{}, err
	}
	return payload, nil
}

// Details returns the full record of a title. An empty plot asks for the
// full plot.
func (c *Client) Details(ctx context.Context, id string, plot string) (domain.MovieDetails, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.MovieDetails{}, fmt.Errorf("title id is empty")
	}
	if plot == "" {
		plot = "full"
	}

	values := url.Values{}
	values.Set("i", id)
	values.Set("plot", plot)

	var payload domain.MovieDetails
	var envelope envelope
	if err := c.get(ctx, "details", values, &payload, &envelope); err != nil {
		return domain.MovieDetails{}, err
	}
	if err := envelope.check("details", "Failed to fetch movie details"); err != nil {
		return domain.MovieDetails{}, err
	}
	return payload, nil
}

// envelope carries the success flag OMDb puts on every payload.
type envelope struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func (e envelope) check(op, fallback string) error {
	if !strings.EqualFold(e.Response, "False") {
		return nil
	}
	msg := strings.TrimSpace(e.Error)
	if msg == "" {
		msg = fallback
	}
	return &APIError{Op: op, Message: msg}
}

func (c *Client) get(ctx context.Context, op string, values url.Values, dest any, env *envelope) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: wait for rate limiter: %w", op, err)
	}

	values.Set("apikey", c.apiKey)
	reqURL := *c.baseURL
	reqURL.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	log := c.log.WithField("op", op)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("Request failed")
		return fmt.Errorf("%s: execute request: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	log = log.WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if resp.StatusCode >= 400 {
		log.Warn("Upstream returned error status")
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if err := json.Unmarshal(body, env); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	log.Debug("Request completed")
	return nil
}
