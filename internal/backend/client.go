package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RequestIDHeader is propagated from the incoming request to backend calls
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID attaches a request ID that outgoing backend calls will carry
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Client represents an HTTP client for the backend API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a backend client. A zero timeout leaves the transport default in place.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// BaseURL returns the backend origin requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Forward describes a pass-through request. Body and ContentType are sent unmodified.
type Forward struct {
	Method      string
	Path        string
	Token       string
	ContentType string
	Body        io.Reader
}

// Forward sends a raw request and hands back the backend response untouched.
// The caller must close the response body.
func (c *Client) Forward(ctx context.Context, f Forward) (*http.Response, error) {
	req, err := c.newRequest(ctx, f.Method, f.Path, f.Token, f.Body)
	if err != nil {
		return nil, err
	}
	if f.ContentType != "" {
		req.Header.Set("Content-Type", f.ContentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnreachableError{Op: f.Method + " " + f.Path, Err: err}
	}
	return resp, nil
}

// Register creates an account
func (c *Client) Register(ctx context.Context, in RegisterRequest) (*UserResponse, error) {
	var out UserResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a token and the user's profile
func (c *Client) Login(ctx context.Context, in LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword asks the backend to issue a reset token for email
func (c *Client) ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResponse, error) {
	var out ForgotPasswordResponse
	body := map[string]string{"email": email}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/forgot-password", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword redeems a reset token
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (*MessageResponse, error) {
	var out MessageResponse
	body := map[string]string{"token": token, "newPassword": newPassword}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/reset-password", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile changes the authenticated user's name and email
func (c *Client) UpdateProfile(ctx context.Context, token string, in ProfileRequest) (*UserResponse, error) {
	var out UserResponse
	if err := c.doJSON(ctx, http.MethodPut, "/api/auth/profile", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns every user record
func (c *Client) ListUsers(ctx context.Context, token string) ([]User, error) {
	var out UsersResponse
	if err := c.do(ctx, http.MethodGet, "/api/admin/users", token, nil, "", &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetUser returns one user record
func (c *Client) GetUser(ctx context.Context, token, id string) (*User, error) {
	var out UserResponse
	if err := c.do(ctx, http.MethodGet, userPath(id), token, nil, "", &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, &APIError{Status: http.StatusNotFound, Message: "User not found"}
	}
	return out.Data, nil
}

// CreateUser creates a user from a multipart form
func (c *Client) CreateUser(ctx context.Context, token string, form UserForm) (*UserResponse, error) {
	return c.sendUserForm(ctx, http.MethodPost, "/api/admin/users", token, form)
}

// UpdateUser updates a user from a multipart form
func (c *Client) UpdateUser(ctx context.Context, token, id string, form UserForm) (*UserResponse, error) {
	return c.sendUserForm(ctx, http.MethodPut, userPath(id), token, form)
}

// DeleteUser deletes a user by ID
func (c *Client) DeleteUser(ctx context.Context, token, id string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, http.MethodDelete, userPath(id), token, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) sendUserForm(ctx context.Context, method, path, token string, form UserForm) (*UserResponse, error) {
	body, contentType, err := EncodeUserForm(form)
	if err != nil {
		return nil, err
	}

	var out UserResponse
	if err := c.do(ctx, method, path, token, body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EncodeUserForm renders form as multipart/form-data and returns the body and its content type
func EncodeUserForm(form UserForm) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := []struct{ key, value string }{
		{"name", form.Name},
		{"email", form.Email},
		{"role", form.Role},
	}
	if form.Password != "" {
		fields = append(fields, struct{ key, value string }{"password", form.Password})
	}
	for _, f := range fields {
		if err := mw.WriteField(f.key, f.value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", f.key, err)
		}
	}

	if form.Image != nil && form.Image.Content != nil {
		part, err := mw.CreateFormFile("image", form.Image.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create image part: %w", err)
		}
		if _, err := io.Copy(part, form.Image.Content); err != nil {
			return nil, "", fmt.Errorf("failed to copy image: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	jsonData, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, method, path, token, bytes.NewReader(jsonData), "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out any) error {
	resp, err := c.Forward(ctx, Forward{
		Method:      method,
		Path:        path,
		Token:       token,
		ContentType: contentType,
		Body:        body,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UnreachableError{Op: method + " " + path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}
	if rejected := envelopeRejection(resp.StatusCode, data); rejected != nil {
		return rejected
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := requestIDFrom(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}
	return req, nil
}

func userPath(id string) string {
	return "/api/admin/users/" + url.PathEscape(id)
}
