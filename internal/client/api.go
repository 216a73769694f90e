// Package client talks to the postboard API and keeps the local session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/postboard/apiserver/types"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Field   string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// SignupRequest is the signup form.
type SignupRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
}

// AuthResponse is the body of a successful signup or login.
type AuthResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	UserID  string     `json:"userId"`
	Token   string     `json:"token"`
	User    types.User `json:"user"`
}

// APIClient is a thin JSON client for the auth and user endpoints.
type APIClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewAPIClient creates a client for baseURL (e.g. http://localhost:8080/api).
// Every call is bounded by timeout.
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &APIClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *APIClient) Signup(ctx context.Context, req SignupRequest) (AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/signup", "", req, &resp)
	return resp, err
}

func (c *APIClient) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	return resp, err
}

func (c *APIClient) Profile(ctx context.Context, token string) (types.User, error) {
	var resp struct {
		User types.User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/auth/profile", token, nil, &resp)
	return resp.User, err
}

func (c *APIClient) AllUsers(ctx context.Context, token string) ([]types.User, error) {
	var resp struct {
		Users []types.User `json:"users"`
	}
	err := c.do(ctx, http.MethodGet, "/users/allUsers", token, nil, &resp)
	return resp.Users, err
}

func (c *APIClient) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Field = payload.Field
			apiErr.Message = payload.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
