package router

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NaiduPavan213/MindMile/internal/auth"
	"github.com/NaiduPavan213/MindMile/internal/post"
	postentity "github.com/NaiduPavan213/MindMile/internal/post/entity"
	"github.com/NaiduPavan213/MindMile/internal/user"
	userentity "github.com/NaiduPavan213/MindMile/internal/user/entity"
)

// In-memory implementations of the repository contracts so the whole HTTP
// surface can be exercised without a database.

type memUsers struct {
	byEmail map[string]*userentity.User
	byID    map[string]*userentity.User
	seq     int
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]*userentity.User{}, byID: map[string]*userentity.User{}}
}

func (m *memUsers) Create(_ context.Context, u *userentity.User) error {
	m.seq++
	u.ID = fmt.Sprintf("user-%d", m.seq)
	u.CreatedAt = time.Now()
	cp := *u
	m.byEmail[u.Email] = &cp
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*userentity.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*userentity.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

type memPosts struct {
	posts []postentity.Post
}

func (m *memPosts) Create(_ context.Context, p *postentity.Post) error {
	p.ID = fmt.Sprintf("post-%d", len(m.posts)+1)
	p.CreatedAt = time.Now()
	m.posts = append(m.posts, *p)
	return nil
}

func (m *memPosts) List(_ context.Context, visibility, authorID string, limit int) ([]postentity.Post, error) {
	var out []postentity.Post
	for i := len(m.posts) - 1; i >= 0; i-- {
		p := m.posts[i]
		if visibility != "" && p.Visibility != visibility {
			continue
		}
		if authorID != "" && p.AuthorID != authorID {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func newTestServer() http.Handler {
	logger := zap.NewNop().Sugar()
	tokens := auth.NewService(auth.Config{Secret: "test-secret", TTL: time.Hour})
	users := newMemUsers()
	userSvc := user.NewService(nil, users, user.BcryptHasher{Cost: 4})
	userHandler := user.NewHandler(userSvc, tokens, logger)
	postSvc := post.NewService(nil, &memPosts{}, users, logger)
	postHandler := post.NewHandler(postSvc, logger)
	return RegisterRoutes(logger, tokens, userHandler, postHandler)
}

func TestHealth(t *testing.T) {
	srv := newTestServer()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/posts", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCreatePostRequiresAuth(t *testing.T) {
	srv := newTestServer()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing authorization token")
}

func TestRegisterPublishRead(t *testing.T) {
	srv := newTestServer()

	// register
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"name":"Ada","email":"ada@example.com","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var reg user.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	require.NotEmpty(t, reg.Token)

	// publish
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("body", "hello from ada"))
	require.NoError(t, w.Close())
	req = httptest.NewRequest(http.MethodPost, "/api/posts", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authorName":"Ada"`)

	// read back without auth via the public feed
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello from ada")

	// and via the author listing
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/author/"+reg.User.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello from ada")
}
