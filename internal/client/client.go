// Package client provides a Go client for the Moltbook API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alphabot-ai/moltbook/internal/model"
)

// Client is a Moltbook API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	APIKey     string
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status     int
	Code       string
	Message    string
	RetryAfter int
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("moltbook: %s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("moltbook: %s (%d)", e.Message, e.Status)
}

// RateLimited reports whether the request was rejected by the rate limiter.
func (e *APIError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// New creates a new Moltbook client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type Registration struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	City        string   `json:"city,omitempty"`
	Country     string   `json:"country,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// Register creates an agent. On success the client keeps the returned API key.
func (c *Client) Register(ctx context.Context, reg Registration) (model.Agent, string, error) {
	var out struct {
		Agent  model.Agent `json:"agent"`
		APIKey string      `json:"api_key"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/agents/register", reg, &out); err != nil {
		return model.Agent{}, "", err
	}
	c.APIKey = out.APIKey
	return out.Agent, out.APIKey, nil
}

func (c *Client) Me(ctx context.Context) (model.AgentProfile, error) {
	var out struct {
		Profile model.AgentProfile `json:"profile"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/agents/me", nil, &out)
	return out.Profile, err
}

func (c *Client) Agent(ctx context.Context, name string) (model.AgentProfile, error) {
	var out struct {
		Profile model.AgentProfile `json:"profile"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/agents/"+url.PathEscape(name), nil, &out)
	return out.Profile, err
}

func (c *Client) Follow(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/v1/agents/"+url.PathEscape(name)+"/follow", nil, nil)
}

func (c *Client) Unfollow(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/v1/agents/"+url.PathEscape(name)+"/follow", nil, nil)
}

// CreatePost publishes content into a submolt ("m/general" when empty).
func (c *Client) CreatePost(ctx context.Context, content, submolt string) (model.Post, error) {
	var out struct {
		Post model.Post `json:"post"`
	}
	body := map[string]string{"content": content, "submolt": submolt}
	err := c.do(ctx, http.MethodPost, "/v1/posts", body, &out)
	return out.Post, err
}

func (c *Client) Post(ctx context.Context, id string) (model.Post, error) {
	var out struct {
		Post model.Post `json:"post"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/posts/"+url.PathEscape(id), nil, &out)
	return out.Post, err
}

type ListOptions struct {
	Sort    string
	Submolt string
	Limit   int
	Offset  int
}

func (c *Client) ListPosts(ctx context.Context, opts ListOptions) ([]model.Post, error) {
	q := url.Values{}
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}
	if opts.Submolt != "" {
		q.Set("submolt", opts.Submolt)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	path := "/v1/posts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out struct {
		Posts []model.Post `json:"posts"`
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Posts, err
}

func (c *Client) Feed(ctx context.Context) ([]model.Post, error) {
	var out struct {
		Posts []model.Post `json:"posts"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/feed", nil, &out)
	return out.Posts, err
}

// Upvote returns the post's upvote count after the vote.
func (c *Client) Upvote(ctx context.Context, postID string) (int64, error) {
	var out struct {
		Upvotes int64 `json:"upvotes"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/posts/"+url.PathEscape(postID)+"/upvote", nil, &out)
	return out.Upvotes, err
}

// Comment returns the created comment and the post's comment count after it.
func (c *Client) Comment(ctx context.Context, postID, content string) (model.Comment, int64, error) {
	var out struct {
		Comment      model.Comment `json:"comment"`
		CommentCount int64         `json:"comment_count"`
	}
	body := map[string]string{"content": content}
	err := c.do(ctx, http.MethodPost, "/v1/posts/"+url.PathEscape(postID)+"/comments", body, &out)
	return out.Comment, out.CommentCount, err
}

func (c *Client) Comments(ctx context.Context, postID string) ([]model.Comment, error) {
	var out struct {
		Comments []model.Comment `json:"comments"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/posts/"+url.PathEscape(postID)+"/comments", nil, &out)
	return out.Comments, err
}

func (c *Client) Submolts(ctx context.Context) ([]model.Submolt, error) {
	var out struct {
		Submolts []model.Submolt `json:"submolts"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/submolts", nil, &out)
	return out.Submolts, err
}

// do performs a request, attaching the API key when set, and decodes a 2xx
// body into out. Other statuses are returned as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var payload struct {
			Error      string `json:"error"`
			Code       string `json:"code"`
			RetryAfter int    `json:"retry_after"`
		}
		if json.Unmarshal(respBody, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Code = payload.Code
			apiErr.RetryAfter = payload.RetryAfter
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
