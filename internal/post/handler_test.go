package post

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NaiduPavan213/MindMile/internal/auth"
	userentity "github.com/NaiduPavan213/MindMile/internal/user/entity"
)

type filePart struct {
	name string
	mime string
	data []byte
}

func multipartBody(t *testing.T, fields map[string]string, files []filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, uploadField, f.name))
		hdr.Set("Content-Type", f.mime)
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

type createResponse struct {
	OK      bool            `json:"ok"`
	Message string          `json:"message"`
	Post    json.RawMessage `json:"post"`
}

type listResponse struct {
	OK    bool              `json:"ok"`
	Posts []json.RawMessage `json:"posts"`
}

type postView struct {
	ID         string `json:"id"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
	Body       string `json:"body"`
	Visibility string `json:"visibility"`
	Media      []struct {
		Data        []byte `json:"data"`
		ContentType string `json:"contentType"`
		Kind        string `json:"kind"`
	} `json:"media"`
	Tags []string `json:"tags"`
}

func newTestHandler(store *fakeStore, dir *fakeDirectory) *Handler {
	return NewHandler(newTestService(store, dir), zap.NewNop().Sugar())
}

func doCreate(h *Handler, userID string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	return rec
}

func TestCreatePostHappyPath(t *testing.T) {
	store := &fakeStore{}
	dir := &fakeDirectory{users: map[string]*userentity.User{"u1": {ID: "u1", Name: "Ada"}}}
	h := newTestHandler(store, dir)

	body, ct := multipartBody(t, map[string]string{"body": "hello", "visibility": "private"}, nil)
	rec := doCreate(h, "u1", body, ct)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)

	var p postView
	require.NoError(t, json.Unmarshal(resp.Post, &p))
	assert.Equal(t, "u1", p.AuthorID)
	assert.Equal(t, "private", p.Visibility)
	assert.Equal(t, "hello", p.Body)
	assert.Empty(t, p.Media)
}

func TestCreatePostOversizedImageRejected(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store, &fakeDirectory{})

	big := make([]byte, 6<<20)
	body, ct := multipartBody(t, nil, []filePart{{name: "big.png", mime: "image/png", data: big}})
	rec := doCreate(h, "u1", body, ct)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.Equal(t, "Image exceeds 5MB limit", resp.Message)
	assert.Empty(t, store.posts, "no post persisted on rejection")
}

func TestCreatePostUnsupportedTypeRejected(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store, &fakeDirectory{})

	body, ct := multipartBody(t, nil, []filePart{
		{name: "ok.png", mime: "image/png", data: []byte("fine")},
		{name: "doc.pdf", mime: "application/pdf", data: []byte("nope")},
	})
	rec := doCreate(h, "u1", body, ct)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Unsupported file type", resp.Message)
	assert.Empty(t, store.posts)
}

func TestCreatePostTooManyFiles(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store, &fakeDirectory{})

	var files []filePart
	for i := 0; i < MaxUploadsPerPost+1; i++ {
		files = append(files, filePart{name: fmt.Sprintf("f%d.png", i), mime: "image/png", data: []byte("x")})
	}
	body, ct := multipartBody(t, nil, files)
	rec := doCreate(h, "u1", body, ct)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.posts)
}

func TestCreateWithoutAuthNeverTouchesStore(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store, &fakeDirectory{})
	tokens := auth.NewService(auth.Config{Secret: "test-secret", TTL: time.Hour})
	gate := auth.RequireAuth(tokens, zap.NewNop().Sugar())(http.HandlerFunc(h.Create))

	body, ct := multipartBody(t, map[string]string{"body": "hi"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, store.posts, "repository must not be called")
}

func TestMediaRoundTripThroughListMine(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store, &fakeDirectory{})

	payloads := []filePart{
		{name: "1.png", mime: "image/png", data: []byte{0x89, 0x50, 0x4e, 0x47, 0x01}},
		{name: "2.mp4", mime: "video/mp4", data: []byte{0x00, 0x00, 0x00, 0x18, 0x66}},
		{name: "3.webp", mime: "image/webp", data: []byte{0x52, 0x49, 0x46, 0x46}},
	}
	body, ct := multipartBody(t, map[string]string{"body": "with media"}, payloads)
	rec := doCreate(h, "u1", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/posts/me", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), "u1"))
	listRec := httptest.NewRecorder()
	h.ListMine(listRec, req)
	require.Equal(t, http.StatusOK, listRec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &resp))
	require.Len(t, resp.Posts, 1)

	var p postView
	require.NoError(t, json.Unmarshal(resp.Posts[0], &p))
	require.Len(t, p.Media, len(payloads))
	for i, want := range payloads {
		assert.Equal(t, want.data, p.Media[i].Data, "payload %d byte-for-byte", i)
		assert.Equal(t, want.mime, p.Media[i].ContentType)
	}
	assert.Equal(t, "image", p.Media[0].Kind)
	assert.Equal(t, "video", p.Media[1].Kind)
}

func TestListPublicEndpoint(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store, &fakeDirectory{})

	for _, vis := range []string{"public", "private"} {
		body, ct := multipartBody(t, map[string]string{"body": vis, "visibility": vis}, nil)
		rec := doCreate(h, "u1", body, ct)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	rec := httptest.NewRecorder()
	h.ListPublic(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	require.Len(t, resp.Posts, 1)
	var p postView
	require.NoError(t, json.Unmarshal(resp.Posts[0], &p))
	assert.Equal(t, "public", p.Visibility)
}

func TestListPublicEmptyIsArray(t *testing.T) {
	h := newTestHandler(&fakeStore{}, &fakeDirectory{})
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	rec := httptest.NewRecorder()
	h.ListPublic(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"posts":[]`)
}

func TestListMineEmptyIsArray(t *testing.T) {
	h := newTestHandler(&fakeStore{}, &fakeDirectory{})
	req := httptest.NewRequest(http.MethodGet, "/api/posts/me", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	h.ListMine(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"posts":[]`)
}

func TestListByAuthorEndpoint(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store, &fakeDirectory{})

	body, ct := multipartBody(t, map[string]string{"body": "mine", "visibility": "public"}, nil)
	require.Equal(t, http.StatusCreated, doCreate(h, "author-1", body, ct).Code)
	body, ct = multipartBody(t, map[string]string{"body": "theirs", "visibility": "public"}, nil)
	require.Equal(t, http.StatusCreated, doCreate(h, "author-2", body, ct).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/posts/author/author-1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "author-1"})
	rec := httptest.NewRecorder()
	h.ListByAuthor(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Posts, 1)
	var p postView
	require.NoError(t, json.Unmarshal(resp.Posts[0], &p))
	assert.Equal(t, "author-1", p.AuthorID)
}

func TestCreateBogusVisibilityCoerced(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(store, &fakeDirectory{})

	body, ct := multipartBody(t, map[string]string{"visibility": "bogus"}, nil)
	rec := doCreate(h, "u1", body, ct)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	var p postView
	require.NoError(t, json.Unmarshal(resp.Post, &p))
	assert.Equal(t, "public", p.Visibility)
}
