package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/harrisonrobin/todosync/pkg/model"
	"golang.org/x/oauth2"
)

const (
	apiBase        = "api/v4/"
	todosEndpoint  = "todos"
	nextPageHeader = "X-Next-Page"

	defaultPerPage = 100
	maxPages       = 1000
	maxErrorBody   = 4 << 10
)

// APIError is a non-2xx response from the GitLab API.
type APIError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gitlab: GET %s: %d %s: %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Client reads the todo list of the user owning the access token.
type Client struct {
	http    *http.Client
	base    *url.URL
	perPage int
	logger  *slog.Logger

	// IncludeDone makes Fetch return done todos as well as pending ones.
	IncludeDone bool
}

type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	perPage    int
	logger     *slog.Logger
}

// WithHTTPClient sets the base client the authenticated transport wraps.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

func WithPerPage(n int) Option {
	return func(o *clientOptions) { o.perPage = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// NewClient creates a client for the GitLab instance at host. The personal
// access token is sent as an OAuth2 bearer token, which GitLab accepts in
// place of the PRIVATE-TOKEN header.
func NewClient(host, token string, opts ...Option) (*Client, error) {
	o := clientOptions{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		perPage:    defaultPerPage,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	hostURL, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid gitlab host %q: %w", host, err)
	}
	if hostURL.Scheme == "" || hostURL.Host == "" {
		return nil, fmt.Errorf("invalid gitlab host %q: scheme and host are required", host)
	}
	if hostURL.Path == "" || hostURL.Path[len(hostURL.Path)-1] != '/' {
		hostURL.Path += "/"
	}
	base, err := hostURL.Parse(apiBase)
	if err != nil {
		return nil, err
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, o.httpClient)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})

	return &Client{
		http:        oauth2.NewClient(ctx, src),
		base:        base,
		perPage:     o.perPage,
		logger:      o.logger,
		IncludeDone: true,
	}, nil
}

func (c *Client) FetchPending(ctx context.Context) ([]Todo, error) {
	return c.fetchState(ctx, StatePending)
}

func (c *Client) FetchDone(ctx context.Context) ([]Todo, error) {
	return c.fetchState(ctx, StateDone)
}

// FetchAll returns pending todos followed by done ones.
func (c *Client) FetchAll(ctx context.Context) ([]Todo, error) {
	pending, err := c.FetchPending(ctx)
	if err != nil {
		return nil, err
	}
	done, err := c.FetchDone(ctx)
	if err != nil {
		return nil, err
	}
	return append(pending, done...), nil
}

// Fetch returns the complete todo snapshot, or an error and nothing.
func (c *Client) Fetch(ctx context.Context) ([]model.RemoteTodo, error) {
	var (
		todos []Todo
		err   error
	)
	if c.IncludeDone {
		todos, err = c.FetchAll(ctx)
	} else {
		todos, err = c.FetchPending(ctx)
	}
	if err != nil {
		return nil, err
	}
	return RemoteTodos(todos), nil
}

func (c *Client) fetchState(ctx context.Context, state string) ([]Todo, error) {
	var all []Todo
	page := "1"
	for n := 0; page != ""; n++ {
		if n == maxPages {
			return nil, fmt.Errorf("gitlab: more than %d pages of %s todos", maxPages, state)
		}
		todos, next, err := c.fetchPage(ctx, state, page)
		if err != nil {
			return nil, err
		}
		all = append(all, todos...)
		if next == page {
			return nil, fmt.Errorf("gitlab: pagination did not advance past page %s", page)
		}
		page = next
	}
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, state, page string) ([]Todo, string, error) {
	u := c.base.JoinPath(todosEndpoint)
	q := u.Query()
	q.Set("state", state)
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page", page)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("gitlab: GET %s: %w", u.Redacted(), err)
	}
	defer resp.Body.Close()
	c.logger.Debug("gitlab request", "url", u.Redacted(), "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, "", &APIError{URL: u.Redacted(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var todos []Todo
	if err := json.NewDecoder(resp.Body).Decode(&todos); err != nil {
		return nil, "", fmt.Errorf("gitlab: failed to decode todos page %s: %w", page, err)
	}
	return todos, resp.Header.Get(nextPageHeader), nil
}
