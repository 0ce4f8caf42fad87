package post

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/NaiduPavan213/MindMile/internal/auth"
	"github.com/NaiduPavan213/MindMile/internal/post/entity"
)

// uploadField is the multipart field name carrying the binary file parts.
const uploadField = "files"

// maxMultipartMemory bounds how much of a parsed form is held in memory
// before spilling to temp files; it is not an upload size limit.
const maxMultipartMemory = 32 << 20

// Handler exposes the post endpoints: authenticated create plus the three
// feed listings.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /api/posts: a multipart submission with optional
// title/body/tags/visibility fields and up to MaxUploadsPerPost file parts
// under the "files" field. The auth middleware runs upstream.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		h.fail(w, http.StatusUnauthorized, "Missing authorization token")
		return
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}
	files := r.MultipartForm.File[uploadField]
	if len(files) > MaxUploadsPerPost {
		h.fail(w, http.StatusBadRequest, "Too many files")
		return
	}

	uploads := make([]Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			h.fail(w, http.StatusBadRequest, "Unreadable file upload")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.fail(w, http.StatusBadRequest, "Unreadable file upload")
			return
		}
		uploads = append(uploads, Upload{
			Data:        data,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		})
	}

	in := CreateInput{
		Title:      r.FormValue("title"),
		Body:       r.FormValue("body"),
		Tags:       r.MultipartForm.Value["tags"],
		Visibility: r.FormValue("visibility"),
		Uploads:    uploads,
	}
	p, err := h.svc.Create(r.Context(), userID, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedMediaType):
			h.fail(w, http.StatusBadRequest, "Unsupported file type")
		case errors.Is(err, ErrImageTooLarge):
			h.fail(w, http.StatusBadRequest, "Image exceeds 5MB limit")
		case errors.Is(err, ErrVideoTooLarge):
			h.fail(w, http.StatusBadRequest, "Video exceeds 50MB limit")
		default:
			h.logger.Errorw("create post failed", "author_id", userID, "err", err)
			h.fail(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "post": p})
}

// ListPublic handles GET /api/posts: recent public posts, unauthenticated.
func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListPublic(r.Context())
	if err != nil {
		h.logger.Errorw("list public posts failed", "err", err)
		h.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writePosts(w, posts)
}

// ListMine handles GET /api/posts/me: all of the acting user's posts.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		h.fail(w, http.StatusUnauthorized, "Missing authorization token")
		return
	}
	posts, err := h.svc.ListMine(r.Context(), userID)
	if err != nil {
		h.logger.Errorw("list my posts failed", "user_id", userID, "err", err)
		h.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writePosts(w, posts)
}

// ListByAuthor handles GET /api/posts/author/{id}: public posts of one author.
func (h *Handler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID := mux.Vars(r)["id"]
	posts, err := h.svc.ListByAuthor(r.Context(), authorID)
	if err != nil {
		h.logger.Errorw("list author posts failed", "author_id", authorID, "err", err)
		h.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writePosts(w, posts)
}

func (h *Handler) writePosts(w http.ResponseWriter, posts []entity.Post) {
	// a nil slice would serialize as null; clients always get an array
	if posts == nil {
		posts = []entity.Post{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "posts": posts})
}

func (h *Handler) fail(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"ok": false, "message": message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
