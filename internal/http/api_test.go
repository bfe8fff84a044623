package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warroom-server/internal/domain"
	"warroom-server/internal/service"
)

type fakeAccounts struct {
	users    map[string]string // username -> password
	expiries map[string]string
	admin    string
	extended map[string]int
}

func (f *fakeAccounts) Register(ctx context.Context, username, password string) error {
	if _, ok := f.users[username]; ok {
		return service.ErrDuplicateUsername
	}
	f.users[username] = password
	return nil
}

func (f *fakeAccounts) Login(ctx context.Context, username, password string) (domain.Identity, error) {
	if username == f.admin && password == "bosspw" {
		return domain.Identity{Username: username, Admin: true}, nil
	}
	if pw, ok := f.users[username]; ok && pw == password {
		return domain.Identity{Username: username}, nil
	}
	return domain.Identity{}, service.ErrInvalidCredentials
}

func (f *fakeAccounts) CheckSubscription(ctx context.Context, username string) domain.Membership {
	if username == f.admin {
		return domain.Membership{Active: true, Label: domain.LabelPermanent}
	}
	expiry, ok := f.expiries[username]
	if !ok {
		return domain.Membership{Label: domain.LabelNoAccount}
	}
	return domain.Membership{Active: expiry >= "2026-08-31", Label: expiry}
}

func (f *fakeAccounts) Extend(ctx context.Context, username string, days int) error {
	if _, ok := f.users[username]; !ok {
		return service.ErrUserNotFound
	}
	f.extended[username] += days
	return nil
}

func (f *fakeAccounts) CountActive(ctx context.Context) int { return len(f.expiries) }

func (f *fakeAccounts) ListUsers(ctx context.Context) []domain.User {
	var out []domain.User
	for name, expiry := range f.expiries {
		out = append(out, domain.User{Username: name, Expiry: expiry})
	}
	return out
}

func (f *fakeAccounts) IsAdmin(username string) bool { return username == f.admin }

type fakeContent struct {
	posts []domain.Post
	live  domain.LiveTable
}

func (f *fakeContent) Publish(ctx context.Context, title, content string, imageURLs []string) error {
	if title == "" {
		return service.ErrEmptyTitle
	}
	f.posts = append(f.posts, domain.Post{Title: title, Content: content, Images: imageURLs})
	return nil
}

func (f *fakeContent) ListPosts(ctx context.Context) []domain.Post { return f.posts }

func (f *fakeContent) ListPostPreviews(ctx context.Context) []domain.PostPreview {
	var out []domain.PostPreview
	for _, p := range f.posts {
		out = append(out, domain.PostPreview{Date: p.Date, Title: p.Title})
	}
	return out
}

func (f *fakeContent) LiveTable(ctx context.Context) domain.LiveTable { return f.live }

func newTestRouter(t *testing.T) (*gin.Engine, *fakeAccounts, *fakeContent) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	accounts := &fakeAccounts{
		users:    map[string]string{"alice": "pw1", "vip": "pw2"},
		expiries: map[string]string{"alice": "2026-08-30", "vip": "2026-12-31"},
		admin:    "boss",
		extended: map[string]int{},
	}
	content := &fakeContent{
		posts: []domain.Post{{Date: "2026-08-31 09:00", Title: "T", Content: "C"}},
		live:  domain.LiveTable{Headers: []string{"名稱"}, Rows: [][]string{{"台積電"}}},
	}

	logger := logrus.New()
	logger.SetOutput(bytes.NewBuffer(nil))

	handler := NewHandler(accounts, content, nil, "test-secret", time.Hour, "https://pay.example/qz", logger)
	router := gin.New()
	handler.RegisterRoutes(router)
	return router, accounts, content
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func loginToken(t *testing.T, router *gin.Engine, username, password string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRegisterEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{"username": "carol", "password": "pw3"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "pw1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{"username": "carol"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := loginToken(t, router, "alice", "pw1")
	assert.NotEmpty(t, token)
}

func TestSubscriptionEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/subscription", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := loginToken(t, router, "alice", "pw1")
	rec = doJSON(t, router, http.MethodGet, "/api/subscription", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["active"])
	assert.Equal(t, "https://pay.example/qz", resp["payment_url"], "expired members get the payment link")
}

func TestPostsLockedForExpiredMember(t *testing.T) {
	router, _, _ := newTestRouter(t)

	token := loginToken(t, router, "alice", "pw1")
	rec := doJSON(t, router, http.MethodGet, "/api/posts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["locked"])
	assert.NotContains(t, rec.Body.String(), `"content"`, "previews must not leak post bodies")
}

func TestPostsForActiveMember(t *testing.T) {
	router, _, _ := newTestRouter(t)

	token := loginToken(t, router, "vip", "pw2")
	rec := doJSON(t, router, http.MethodGet, "/api/posts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Posts []PostResponse `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, "T", resp.Posts[0].Title)
	assert.Equal(t, "C", resp.Posts[0].Content)
}

func TestLiveEndpointGating(t *testing.T) {
	router, _, _ := newTestRouter(t)

	expired := loginToken(t, router, "alice", "pw1")
	rec := doJSON(t, router, http.MethodGet, "/api/live", expired, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	active := loginToken(t, router, "vip", "pw2")
	rec = doJSON(t, router, http.MethodGet, "/api/live", active, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "台積電")
}

func TestAdminEndpointsRequireAdmin(t *testing.T) {
	router, accounts, _ := newTestRouter(t)

	member := loginToken(t, router, "vip", "pw2")
	rec := doJSON(t, router, http.MethodPost, "/api/admin/members/alice/extend", member, gin.H{"days": 30})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := loginToken(t, router, "boss", "bosspw")
	rec = doJSON(t, router, http.MethodPost, "/api/admin/members/alice/extend", admin, gin.H{"days": 30})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, accounts.extended["alice"])

	rec = doJSON(t, router, http.MethodPost, "/api/admin/members/nobody/extend", admin, gin.H{"days": 30})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/admin/members", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "active_count")
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/subscription", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
