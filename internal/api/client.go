// Package api is the client for the content site backend: the article catalog
// and the contact inbox.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medical-bots/internal/models"
)

const defaultTimeout = 10 * time.Second

// ErrNotFound is returned by GetArticle when the backend answers 404.
var ErrNotFound = errors.New("api: article not found")

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: %s %s: status %d", e.Method, e.Path, e.Code)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client (and its timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.httpClient = &http.Client{Timeout: d} }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// GetArticles fetches the whole catalog.
func (c *Client) GetArticles(ctx context.Context) ([]models.Article, error) {
	var res []models.Article
	if err := c.do(ctx, http.MethodGet, "/articles", nil, &res); err != nil {
		return nil, fmt.Errorf("get articles: %w", err)
	}
	return res, nil
}

func (c *Client) GetArticle(ctx context.Context, id int) (*models.Article, error) {
	var a models.Article
	err := c.do(ctx, http.MethodGet, "/articles/"+strconv.Itoa(id), nil, &a)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get article %d: %w", id, err)
	}
	return &a, nil
}

// SearchArticles fetches the catalog and keeps articles whose title, excerpt,
// category, intro or any section mention query, ignoring case.
func (c *Client) SearchArticles(ctx context.Context, query string) ([]models.Article, error) {
	all, err := c.GetArticles(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(all, query), nil
}

// ByCategory fetches the catalog and keeps one category.
func (c *Client) ByCategory(ctx context.Context, category string) ([]models.Article, error) {
	all, err := c.GetArticles(ctx)
	if err != nil {
		return nil, err
	}
	var res []models.Article
	for _, a := range all {
		if strings.EqualFold(a.Category, category) {
			res = append(res, a)
		}
	}
	return res, nil
}

func (c *Client) SendContact(ctx context.Context, msg models.ContactMessage) error {
	if err := c.do(ctx, http.MethodPost, "/contact", msg, nil); err != nil {
		return fmt.Errorf("send contact: %w", err)
	}
	return nil
}

// Filter is the local keyword match used by SearchArticles.
func Filter(articles []models.Article, query string) []models.Article {
	q := strings.ToLower(strings.TrimSpace(query))
	var res []models.Article
	for _, a := range articles {
		if matches(&a, q) {
			res = append(res, a)
		}
	}
	return res
}

func matches(a *models.Article, q string) bool {
	has := func(s string) bool { return strings.Contains(strings.ToLower(s), q) }
	if has(a.Title) || has(a.Excerpt) || has(a.Category) || has(a.Content.Intro) {
		return true
	}
	for _, s := range a.Content.Sections {
		if has(s.Heading) || has(s.Text) {
			return true
		}
	}
	return false
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
