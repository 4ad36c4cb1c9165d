// Package auditapi is the HTTP client of the audit store API.
package auditapi

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
	"sync"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"

	"go.uber.org/zap"
)

const DefaultTimeout = 30 * time.Second

var (
	ErrNotFound     = errors.New("audit store: not found")
	ErrConflict     = errors.New("audit store: conflict")
	ErrUnauthorized = errors.New("audit store: unauthorized")
)

// APIError is a non-2xx answer of the audit store.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("audit store: status %d", e.Status)
	}
	return fmt.Sprintf("audit store: %s (%d): %s", e.Code, e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}

// Client talks to the audit store on behalf of one signed-in user.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger

	mu    sync.RWMutex
	token string

	catMu      sync.Mutex
	categories []entities.AuditCategory
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.Named("auditapi"),
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	} `json:"user"`
}

// Login signs in and keeps the bearer token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (entities.Identity, error) {
	var out sessionResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &out); err != nil {
		return entities.Identity{}, err
	}
	if out.Token == "" {
		return entities.Identity{}, fmt.Errorf("auditapi: login returned no token")
	}
	c.SetToken(out.Token)
	return entities.Identity{ID: out.User.ID, Role: entities.Role(out.User.Role)}, nil
}

type createRequest struct {
	DateExecution     string                         `json:"date_execution"`
	Address           string                         `json:"address"`
	Categories        []entities.AuditCategory       `json:"categories"`
	CorrectiveActions []entities.CorrectiveActionRow `json:"corrective_actions"`
	Status            entities.AuditStatus           `json:"status"`
}

func (c *Client) Create(ctx context.Context, a entities.Audit) (entities.Audit, error) {
	body := createRequest{
		DateExecution:     a.DateExecution,
		Address:           a.Address,
		Categories:        a.Categories,
		CorrectiveActions: a.CorrectiveActions,
		Status:            a.Status,
	}
	var out entities.Audit
	if err := c.do(ctx, http.MethodPost, "/audits", body, &out); err != nil {
		return entities.Audit{}, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id string) (entities.Audit, error) {
	var out entities.Audit
	if err := c.do(ctx, http.MethodGet, "/audits/"+url.PathEscape(id), nil, &out); err != nil {
		return entities.Audit{}, err
	}
	return out, nil
}

func (c *Client) List(ctx context.Context) ([]entities.Audit, error) {
	var out []entities.Audit
	if err := c.do(ctx, http.MethodGet, "/audits", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, id string, patch entities.AuditPatch) (entities.Audit, error) {
	var out entities.Audit
	if err := c.do(ctx, http.MethodPut, "/audits/"+url.PathEscape(id), patch, &out); err != nil {
		return entities.Audit{}, err
	}
	return out, nil
}

// Delete removes an audit. An audit that is already gone counts as deleted.
func (c *Client) Delete(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/audits/"+url.PathEscape(id), nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

type catalogResponse struct {
	Categories []entities.AuditCategory `json:"categories"`
}

// LoadCategories returns the blank checklist. The first successful answer is
// kept for the life of the client.
func (c *Client) LoadCategories(ctx context.Context) ([]entities.AuditCategory, error) {
	c.catMu.Lock()
	defer c.catMu.Unlock()
	if c.categories != nil {
		return entities.CloneCategories(c.categories), nil
	}
	var out catalogResponse
	if err := c.do(ctx, http.MethodGet, "/catalog", nil, &out); err != nil {
		return nil, err
	}
	if len(out.Categories) == 0 {
		return nil, fmt.Errorf("auditapi: empty catalog")
	}
	c.categories = out.Categories
	return entities.CloneCategories(out.Categories), nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("auditapi: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("auditapi: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("auditapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("request done",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("auditapi: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Code, apiErr.Message = payload.Code, payload.Message
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("auditapi: decode response: %w", err)
	}
	return nil
}
