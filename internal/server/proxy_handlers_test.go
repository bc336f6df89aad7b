package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxy_NoTokenIsUnauthorized(t *testing.T) {
	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/admin/users"},
		{http.MethodPost, "/api/admin/users"},
		{http.MethodGet, "/api/admin/users/abc"},
		{http.MethodPut, "/api/admin/users/abc"},
		{http.MethodDelete, "/api/admin/users/abc"},
		{http.MethodDelete, "/api/admin/users/undefined"},
		{http.MethodPut, "/api/auth/profile"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			s, calls := newTestServer(t, nil)

			rec := serve(s, httptest.NewRequest(rt.method, rt.path, strings.NewReader(`{}`)))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "Unauthorized", body["message"])
			assert.Equal(t, int32(0), calls.Load(), "backend must not be called without a token")
		})
	}
}

func TestProxy_MissingUserID(t *testing.T) {
	for _, path := range []string{"/api/admin/users/undefined", "/api/admin/users/"} {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			t.Run(method+" "+path, func(t *testing.T) {
				s, calls := newTestServer(t, nil)

				r := httptest.NewRequest(method, path, nil)
				r.Header.Set("Authorization", "Bearer tok")
				rec := serve(s, r)

				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Equal(t, "Missing user id", decodeBody(t, rec)["message"])
				assert.Equal(t, int32(0), calls.Load())
			})
		}
	}
}

func TestProxy_RelaysBackendResponseVerbatim(t *testing.T) {
	s, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/admin/users/abc", r.URL.Path)
		assert.Equal(t, "Bearer tok-a1", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"User not found"}`))
	})

	r := withCookies(httptest.NewRequest(http.MethodGet, "/api/admin/users/abc", nil), sessionCookies(t, adminUser))
	rec := serve(s, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"success":false,"message":"User not found"}`, rec.Body.String())
	assert.Equal(t, int32(1), calls.Load())
}

func TestProxy_CookieWinsOverHeader(t *testing.T) {
	s, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-a1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
	})

	r := withCookies(httptest.NewRequest(http.MethodGet, "/api/admin/users", nil), sessionCookies(t, adminUser))
	r.Header.Set("Authorization", "Bearer header-token")
	rec := serve(s, r)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProxy_DeleteWithBearerHeader(t *testing.T) {
	s, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "Bearer cli-token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"message": "User deleted"})
	})

	r := httptest.NewRequest(http.MethodDelete, "/api/admin/users/abc", nil)
	r.Header.Set("Authorization", "Bearer cli-token")
	rec := serve(s, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User deleted", decodeBody(t, rec)["message"])
}

func TestProxy_ForwardsMultipartUntouched(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "Bob"))
	require.NoError(t, mw.WriteField("role", "user"))
	part, err := mw.CreateFormFile("image", "avatar.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())

	s, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, mw.FormDataContentType(), r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Bob", r.FormValue("name"))

		f, _, err := r.FormFile("image")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "png-bytes", string(data))

		writeJSON(w, http.StatusCreated, map[string]any{"message": "User created"})
	})

	r := withCookies(httptest.NewRequest(http.MethodPost, "/api/admin/users", &body), sessionCookies(t, adminUser))
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rec := serve(s, r)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestProxy_BackendUnreachable(t *testing.T) {
	s := newServerFor(t, testConfig("http://127.0.0.1:1"))

	r := withCookies(httptest.NewRequest(http.MethodGet, "/api/admin/users", nil), sessionCookies(t, adminUser))
	rec := serve(s, r)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, msgBackendUnavailable, body["message"])
	assert.NotEmpty(t, body["details"])
}

func TestProxyProfile(t *testing.T) {
	t.Run("requires name and email", func(t *testing.T) {
		s, calls := newTestServer(t, nil)

		r := httptest.NewRequest(http.MethodPut, "/api/auth/profile", strings.NewReader(`{"name":"Ann"}`))
		r.Header.Set("Authorization", "Bearer tok")
		r.Header.Set("Content-Type", "application/json")
		rec := serve(s, r)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Name and email are required", decodeBody(t, rec)["message"])
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("forwards", func(t *testing.T) {
		s, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/api/auth/profile", r.URL.Path)
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var got ProfileUpdate
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, ProfileUpdate{Name: "Ann", Email: "ann@example.com"}, got)

			writeJSON(w, http.StatusOK, map[string]any{"message": "Profile updated"})
		})

		r := httptest.NewRequest(http.MethodPut, "/api/auth/profile", strings.NewReader(`{"name":"Ann","email":"ann@example.com"}`))
		r.Header.Set("Authorization", "Bearer tok")
		r.Header.Set("Content-Type", "application/json")
		rec := serve(s, r)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestProxyResetPassword(t *testing.T) {
	t.Run("requires token and password", func(t *testing.T) {
		s, calls := newTestServer(t, nil)

		r := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password", strings.NewReader(`{"token":"abc"}`))
		r.Header.Set("Content-Type", "application/json")
		rec := serve(s, r)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("forwards without a session", func(t *testing.T) {
		s, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))

			var got PasswordReset
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, PasswordReset{Token: "abc", NewPassword: "secret1"}, got)

			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Token expired"})
		})

		r := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password", strings.NewReader(`{"token":"abc","newPassword":"secret1"}`))
		r.Header.Set("Content-Type", "application/json")
		rec := serve(s, r)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Token expired", decodeBody(t, rec)["message"])
	})
}

func TestProxy_CORSPreflight(t *testing.T) {
	s, calls := newTestServer(t, nil)

	r := httptest.NewRequest(http.MethodOptions, "/api/admin/users", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(s, r)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, int32(0), calls.Load())
}

func TestProxy_CORSDefaultsToPublicURL(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Server.CORSOrigins = nil
	s := newServerFor(t, cfg)

	allowed := httptest.NewRequest(http.MethodOptions, "/api/admin/users", nil)
	allowed.Header.Set("Origin", "http://localhost:8080")
	allowed.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(s, allowed)
	assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))

	other := httptest.NewRequest(http.MethodOptions, "/api/admin/users", nil)
	other.Header.Set("Origin", "http://localhost:3000")
	other.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = serve(s, other)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
