// Package client talks to the todo REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ytakahashi/todo-app/internal/models"
)

// APIError is returned for every non-2xx reply.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) List(ctx context.Context) ([]models.Todo, error) {
	var todos []models.Todo
	if err := c.do(ctx, http.MethodGet, "/todos", nil, &todos); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

func (c *Client) Create(ctx context.Context, text string) (*models.Todo, error) {
	var todo models.Todo
	body := map[string]string{"todo": text}
	if err := c.do(ctx, http.MethodPost, "/todos", body, &todo); err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	return &todo, nil
}

// SetStatus sends the status currently shown for id; the server stores its
// negation.
func (c *Client) SetStatus(ctx context.Context, id string, current bool) (*models.UpdateResult, error) {
	var res models.UpdateOneResponse
	body := map[string]bool{"status": current}
	if err := c.do(ctx, http.MethodPut, "/todos/"+url.PathEscape(id), body, &res); err != nil {
		return nil, fmt.Errorf("update todo status: %w", err)
	}
	return &res.UpdatedTodo, nil
}

func (c *Client) SetText(ctx context.Context, id, text string) (*models.UpdateResult, error) {
	var res models.UpdateOneResponse
	body := map[string]string{"todo": text}
	if err := c.do(ctx, http.MethodPut, "/todos/"+url.PathEscape(id), body, &res); err != nil {
		return nil, fmt.Errorf("update todo text: %w", err)
	}
	return &res.UpdatedTodo, nil
}

func (c *Client) Delete(ctx context.Context, id string) (*models.DeleteResult, error) {
	var res models.DeleteOneResponse
	if err := c.do(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, &res); err != nil {
		return nil, fmt.Errorf("delete todo: %w", err)
	}
	return &res.DeletedTodo, nil
}

func (c *Client) UpdateMany(ctx context.Context, ids []string, status bool) (*models.UpdateManyResponse, error) {
	var res models.UpdateManyResponse
	body := struct {
		IDs    []string `json:"ids"`
		Status bool     `json:"status"`
	}{IDs: ids, Status: status}
	if err := c.do(ctx, http.MethodPut, "/todos", body, &res); err != nil {
		return nil, fmt.Errorf("update todos: %w", err)
	}
	return &res, nil
}

func (c *Client) DeleteMany(ctx context.Context, ids []string) (*models.DeleteManyResponse, error) {
	var res models.DeleteManyResponse
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	if err := c.do(ctx, http.MethodDelete, "/todos", body, &res); err != nil {
		return nil, fmt.Errorf("delete todos: %w", err)
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var body models.ErrorResponse
		if json.Unmarshal(data, &body) == nil && body.Msg != "" {
			apiErr.Message = body.Msg
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
