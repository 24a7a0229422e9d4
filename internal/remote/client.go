// Package remote talks to a threadline server over its JSON API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/sujalbistaa/threadline/internal/logging"
	"github.com/sujalbistaa/threadline/internal/models"
)

// AdminTokenHeader carries the shared admin secret.
const AdminTokenHeader = "X-Admin-Token"

var (
	ErrBadRequest   = errors.New("remote rejected request")
	ErrUnauthorized = errors.New("remote refused admin capability")
	ErrNotFound     = errors.New("remote resource not found")
	// ErrUnavailable covers transport errors, timeouts, 5xx responses,
	// undecodable bodies and an open circuit.
	ErrUnavailable = errors.New("remote unavailable")
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	AdminToken string
	Timeout    time.Duration
	// BreakerFailures is the number of consecutive availability failures
	// that opens the circuit. Zero uses the default.
	BreakerFailures uint32
	// BreakerCooldown is how long the circuit stays open. Zero uses the
	// default.
	BreakerCooldown time.Duration
}

// Client is a threadline API client.
type Client struct {
	baseURL    string
	adminToken string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid remote URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid remote URL %q: scheme must be http or https", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 3
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	logger = logging.OrNop(logger)
	c := &Client{
		baseURL:    base.String(),
		adminToken: cfg.AdminToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "remote-store",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("name", name), zap.Stringer("from", from), zap.Stringer("to", to))
		},
		// Only availability problems count against the remote. A 400 or 401
		// means the server is up and answering.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrUnavailable)
		},
	})
	return c, nil
}

func (c *Client) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := c.do(ctx, http.MethodGet, "/posts", nil, false, &posts); err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	for i := range posts {
		posts[i].Normalize()
	}
	return posts, nil
}

func (c *Client) CreatePost(ctx context.Context, title, body string) (models.Post, error) {
	var post models.Post
	in := models.CreatePostInput{Title: title, Message: body}
	if err := c.do(ctx, http.MethodPost, "/posts", in, true, &post); err != nil {
		return models.Post{}, err
	}
	post.Normalize()
	return post, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) (int, error) {
	var res models.DeleteResult
	if err := c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id), nil, true, &res); err != nil {
		return 0, err
	}
	return res.Deleted, nil
}

func (c *Client) AddComment(ctx context.Context, postID, body, parentID, author string) (models.Comment, error) {
	var comment models.Comment
	in := models.AddCommentInput{Message: body, ParentID: parentID, Author: author}
	path := "/posts/" + url.PathEscape(postID) + "/comments"
	if err := c.do(ctx, http.MethodPost, path, in, false, &comment); err != nil {
		return models.Comment{}, err
	}
	comment.Normalize()
	return comment, nil
}

func (c *Client) DeleteComment(ctx context.Context, postID, commentID string) (int, error) {
	var res models.DeleteResult
	path := "/posts/" + url.PathEscape(postID) + "/comments/" + url.PathEscape(commentID)
	if err := c.do(ctx, http.MethodDelete, path, nil, true, &res); err != nil {
		return 0, err
	}
	return res.Deleted, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, admin bool, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, in, admin, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in any, admin bool, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin && c.adminToken != "" {
		req.Header.Set(AdminTokenHeader, c.adminToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s response: %v", ErrUnavailable, method, path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var payload models.ErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)
	msg := payload.Error
	if msg == "" {
		msg = resp.Status
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, msg)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, msg)
	}
}
