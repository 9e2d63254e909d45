package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"timely/internal/core/model/response"
)

// Client is a Go consumer of the HTTP API. The session cookie set on login
// is kept in a jar, so one client instance behaves like one signed-in user.
type Client struct {
	BaseURL    string
	httpClient *http.Client
	cache      *taskCache
}

// APIError carries the decoded error envelope of a non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Errors     []response.ValidationError
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("api error %d (%s): %s: %s", e.StatusCode, e.Code, e.Errors[0].Field, e.Errors[0].Message)
	}

	return fmt.Sprintf("api error %d (%s)", e.StatusCode, e.Code)
}

type Option func(*Client)

// WithHTTPClient swaps the underlying http client. A cookie jar is attached
// when the given client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCacheTTL controls how long a fetched task page is served from memory.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = newTaskCache(ttl)
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		BaseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      newTaskCache(defaultCacheTTL),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)

		if err != nil {
			return nil, err
		}

		c.httpClient.Jar = jar
	}

	return c, nil
}

type User struct {
	UUID      string    `json:"uuid"`
	FirstName string    `json:"name"`
	LastName  string    `json:"lastName"`
	Age       int       `json:"age"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Task struct {
	UUID      string    `json:"uuid"`
	Title     string    `json:"title"`
	Details   string    `json:"details"`
	Date      string    `json:"date"`
	Hour      string    `json:"hour"`
	Status    string    `json:"status"`
	Trashed   bool      `json:"trashed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskPage is one cursor page of active tasks.
type TaskPage struct {
	Tasks      []Task
	HasNext    bool
	NextCursor string
}

type RegisterParams struct {
	FirstName string `json:"name"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type TaskParams struct {
	Title   string `json:"title,omitempty"`
	Details string `json:"details,omitempty"`
	Date    string `json:"date,omitempty"`
	Hour    string `json:"hour,omitempty"`
	Status  string `json:"status,omitempty"`
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *Client) Register(ctx context.Context, params RegisterParams) (*User, error) {
	var user User

	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", params, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var session struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}

	body := map[string]string{"email": email, "password": password}

	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &session); err != nil {
		return nil, err
	}

	c.cache.Invalidate()

	return &session.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	c.cache.Invalidate()
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Verify confirms the stored session is still accepted by the server.
func (c *Client) Verify(ctx context.Context) (*User, error) {
	var user User

	if err := c.doJSON(ctx, http.MethodGet, "/auth/verify", nil, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	body := map[string]string{"token": token, "password": password}
	return c.doJSON(ctx, http.MethodPost, "/auth/reset-password", body, nil)
}

// ListTasks returns one page of active tasks. The first page is cached
// until a mutation or the TTL invalidates it.
func (c *Client) ListTasks(ctx context.Context, limit int, cursor string) (*TaskPage, error) {
	cacheable := cursor == ""

	if cacheable {
		if page, ok := c.cache.Get(limit); ok {
			return page, nil
		}
	}

	path := "/tasks?limit=" + strconv.Itoa(limit)

	if cursor != "" {
		path += "&cursor=" + url.QueryEscape(cursor)
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var cursorResp response.CursorResponse

	if err := json.NewDecoder(resp.Body).Decode(&cursorResp); err != nil {
		return nil, err
	}

	page := &TaskPage{
		HasNext:    cursorResp.Pagination.HasNext,
		NextCursor: cursorResp.Pagination.NextCursor,
	}

	if err := json.Unmarshal(cursorResp.Data, &page.Tasks); err != nil {
		return nil, err
	}

	if cacheable {
		c.cache.Put(limit, page)
	}

	return page, nil
}

func (c *Client) ListTrash(ctx context.Context) ([]Task, error) {
	var tasks []Task

	if err := c.doJSON(ctx, http.MethodGet, "/tasks/deleted", nil, &tasks); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, params TaskParams) (*Task, error) {
	var task Task

	if err := c.doJSON(ctx, http.MethodPost, "/tasks", params, &task); err != nil {
		return nil, err
	}

	c.cache.Invalidate()

	return &task, nil
}

func (c *Client) UpdateTask(ctx context.Context, uid string, params TaskParams) (*Task, error) {
	var task Task

	if err := c.doJSON(ctx, http.MethodPut, "/tasks/"+uid, params, &task); err != nil {
		return nil, err
	}

	c.cache.Invalidate()

	return &task, nil
}

func (c *Client) TrashTask(ctx context.Context, uid string) (*Task, error) {
	var task Task

	if err := c.doJSON(ctx, http.MethodDelete, "/tasks/"+uid, nil, &task); err != nil {
		return nil, err
	}

	c.cache.Invalidate()

	return &task, nil
}

func (c *Client) RestoreTask(ctx context.Context, uid string) (*Task, error) {
	var task Task

	if err := c.doJSON(ctx, http.MethodPost, "/tasks/"+uid+"/restore", nil, &task); err != nil {
		return nil, err
	}

	c.cache.Invalidate()

	return &task, nil
}

func (c *Client) PurgeTask(ctx context.Context, uid string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/tasks/"+uid+"/permanent", nil, nil); err != nil {
		return err
	}

	c.cache.Invalidate()

	return nil
}

// Refresh drops any locally cached task pages.
func (c *Client) Refresh() {
	c.cache.Invalidate()
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)

		if err != nil {
			return nil, err
		}

		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)

	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// doJSON performs the request and decodes the "data" field of the success
// envelope into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.do(ctx, method, path, body)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	var env envelope

	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return err
	}

	if env.Data == nil {
		return nil
	}

	return json.Unmarshal(env.Data, out)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Code: "UNKNOWN"}

	var parsed response.ErrorResponse

	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil {
		if parsed.Error.Code != "" {
			apiErr.Code = parsed.Error.Code
		}
		apiErr.Errors = parsed.Error.Errors
	}

	return apiErr
}
