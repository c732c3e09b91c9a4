package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/storyloom/internal/app"
	"github.com/templui/storyloom/internal/config"
)

// client keeps cookies between requests and sends the CSRF token like the browser script does.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T) *client {
	t.Helper()

	cfg := &config.Config{
		AppName:               "Storyloom",
		AppEnv:                "development",
		AppURL:                "http://localhost:8090",
		DBDriver:              "sqlite",
		DBConnection:          filepath.Join(t.TempDir(), "storyloom.db"),
		JWTSecret:             "test-secret",
		JWTExpiry:             time.Hour,
		EmailFrom:             "noreply@example.com",
		CapabilityMaxAttempts: 1,
		CapabilityTimeout:     time.Second,
		VideoTimeout:          time.Second,
	}

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	c := &client{t: t, handler: SetupRoutes(a), cookies: make(map[string]*http.Cookie)}
	res := c.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, c.cookies, "csrf_token")
	return c
}

func (c *client) do(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	c.t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	if token, ok := c.cookies["csrf_token"]; ok {
		req.Header.Set("X-CSRF-Token", token.Value)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Value == "" {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}
	return rec
}

func (c *client) json(method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := c.do(method, path, "application/json", reader)

	var out map[string]any
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func (c *client) register(username string) {
	c.t.Helper()

	form := url.Values{
		"username": {username},
		"email":    {username + "@example.com"},
		"password": {"lantern-river-42"},
	}
	rec := c.do(http.MethodPost, "/auth/register", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.Equal(c.t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(c.t, "/submit", rec.Header().Get("Location"))
	require.Contains(c.t, c.cookies, "auth_token")
}

func TestHealthAndCapabilities(t *testing.T) {
	c := newClient(t)

	rec, body := c.json(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, body = c.json(http.MethodGet, "/api/capabilities", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	caps, ok := body["capabilities"].([]any)
	require.True(t, ok)
	assert.Len(t, caps, 11)

	rec = c.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storyloom_http_requests_total")
}

func TestStoryLifecycle(t *testing.T) {
	c := newClient(t)
	c.register("mei")

	rec, body := c.json(http.MethodPost, "/api/stories", `{
		"title": "Lanterns on the River",
		"content": "Every autumn the village floats *lanterns* downstream.",
		"region": "Asia",
		"theme": "Festivals",
		"tags": "Lights, River",
		"generate_image": true
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []any{"lights", "river"}, body["tags"])
	warnings, _ := body["warnings"].([]any)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Illustration skipped")

	story := body["story"].(map[string]any)
	id := story["id"].(string)

	page := c.do(http.MethodGet, "/stories/"+id, "", nil)
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Lanterns on the River")
	assert.Contains(t, page.Body.String(), "<em>lanterns</em>")

	rec, body = c.json(http.MethodPost, "/api/stories/"+id+"/like", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["liked"])
	assert.Equal(t, float64(1), body["count"])

	rec, body = c.json(http.MethodPost, "/api/stories/"+id+"/comments", `{"content": "Beautiful"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, body = c.json(http.MethodPost, "/api/stories/"+id+"/reactions", `{"emoji": "two words"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])

	export := c.do(http.MethodGet, "/api/stories/"+id+"/export?format=md", "", nil)
	assert.Equal(t, http.StatusOK, export.Code)
	assert.Contains(t, export.Header().Get("Content-Disposition"), ".md")
	assert.Contains(t, export.Body.String(), "Lanterns on the River")

	rec, body = c.json(http.MethodGet, "/api/users/mei/badges", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	badges, _ := body["badges"].([]any)
	assert.Len(t, badges, 1)

	rec, _ = c.json(http.MethodDelete, "/api/stories/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = c.json(http.MethodGet, "/api/stories/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestSubmitValidationErrors(t *testing.T) {
	c := newClient(t)
	c.register("amara")

	rec, body := c.json(http.MethodPost, "/api/stories", `{"title": "", "content": "x", "region": "Africa"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "title")
}

func TestGenerationUnavailable(t *testing.T) {
	c := newClient(t)
	c.register("lucia")

	rec, body := c.json(http.MethodPost, "/api/generate/story", `{"region": "Americas", "theme": "Music"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestProtectedRoutes(t *testing.T) {
	c := newClient(t)

	rec, body := c.json(http.MethodPost, "/api/stories/abc/like", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])

	page := c.do(http.MethodGet, "/submit", "", nil)
	assert.Equal(t, http.StatusSeeOther, page.Code)

	rec, _ = c.json(http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	page = c.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, page.Code)
}

func TestLoginFailure(t *testing.T) {
	c := newClient(t)
	c.register("noa")
	c.do(http.MethodPost, "/auth/logout", "", nil)
	require.NotContains(t, c.cookies, "auth_token")

	form := url.Values{"identifier": {"noa"}, "password": {"wrong-password-1"}}
	rec := c.do(http.MethodPost, "/auth/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid username/email or password")

	form.Set("password", "lantern-river-42")
	form.Set("next", "/u/noa")
	rec = c.do(http.MethodPost, "/auth/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/u/noa", rec.Header().Get("Location"))
}

func TestRegisterDuplicate(t *testing.T) {
	c := newClient(t)
	c.register("amara")
	c.do(http.MethodPost, "/auth/logout", "", nil)
	require.NotContains(t, c.cookies, "auth_token")

	form := url.Values{
		"username": {"Amara"},
		"email":    {"second@example.com"},
		"password": {"lantern-river-42"},
	}
	rec := c.do(http.MethodPost, "/auth/register", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username is already taken")
	assert.NotContains(t, c.cookies, "auth_token")

	form.Set("username", "zola")
	form.Set("email", "AMARA@example.com")
	rec = c.do(http.MethodPost, "/auth/register", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email is already registered")
	assert.Contains(t, rec.Body.String(), `value="zola"`)
}
