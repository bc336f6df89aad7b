package testhelpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/matchpoint-dev/matchpoint/internal/config"
	"github.com/matchpoint-dev/matchpoint/internal/logger"
	"github.com/matchpoint-dev/matchpoint/internal/server"
)

// Web is a running web front end talking to a real backend, plus a browser-like client
type Web struct {
	URL        string
	BackendURL string
	client     *http.Client
}

// StartWeb starts the web front end against $TEST_BACKEND_URL. The test is
// skipped when the variable is unset.
func StartWeb(t *testing.T) *Web {
	t.Helper()

	backendURL := strings.TrimRight(os.Getenv("TEST_BACKEND_URL"), "/")
	if backendURL == "" {
		t.Skip("TEST_BACKEND_URL not set")
	}

	cfg := &config.Config{
		Env: "development",
		Server: config.ServerConfig{
			Port:      "0",
			PublicURL: "http://localhost:8080",
		},
		Backend: config.BackendConfig{URL: backendURL, Timeout: 30 * time.Second},
		Reset:   config.ResetConfig{ExposeLinks: true},
	}

	srv, err := server.New(cfg, logger.New(io.Discard, "json"), "e2e")
	require.NoError(t, err, "Failed to create server")

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &Web{
		URL:        ts.URL,
		BackendURL: backendURL,
		client: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
			// Redirects are asserted, not followed
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Response is a fully read HTTP response
type Response struct {
	Status   int
	Location string
	Body     string
}

// Get fetches a page with the current cookies
func (w *Web) Get(t *testing.T, path string) Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, w.URL+path, nil)
	require.NoError(t, err, "Failed to create request")
	return w.do(t, req)
}

// PostForm submits an urlencoded form with the current cookies
func (w *Web) PostForm(t *testing.T, path string, values url.Values) Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, w.URL+path, strings.NewReader(values.Encode()))
	require.NoError(t, err, "Failed to create request")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return w.do(t, req)
}

// APICall sends a JSON request through the proxy routes and decodes the JSON answer
func (w *Web) APICall(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, w.URL+path, reqBody)
	require.NoError(t, err, "Failed to create request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp := w.do(t, req)

	var result map[string]interface{}
	err = json.Unmarshal([]byte(resp.Body), &result)
	require.NoError(t, err, "Failed to unmarshal response: %s", resp.Body)

	return resp.Status, result
}

// Cookie returns the value of a cookie the client currently holds
func (w *Web) Cookie(t *testing.T, name string) string {
	t.Helper()

	u, err := url.Parse(w.URL)
	require.NoError(t, err)
	for _, c := range w.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (w *Web) do(t *testing.T, req *http.Request) Response {
	t.Helper()

	resp, err := w.client.Do(req)
	require.NoError(t, err, "Request failed: %s %s", req.Method, req.URL.Path)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "Failed to read response body")

	return Response{
		Status:   resp.StatusCode,
		Location: resp.Header.Get("Location"),
		Body:     string(respBody),
	}
}
