package post

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/NaiduPavan213/MindMile/internal/post/entity"
	postrepo "github.com/NaiduPavan213/MindMile/internal/post/repo"
	userentity "github.com/NaiduPavan213/MindMile/internal/user/entity"
	userrepo "github.com/NaiduPavan213/MindMile/internal/user/repo"
)

// PublicFeedLimit caps the unauthenticated public listing.
const PublicFeedLimit = 50

// Store is the post persistence contract. Satisfied by repo.PostRepo; tests
// substitute an in-memory fake. Create assigns the id and creation timestamp;
// List returns newest first, limit 0 meaning no cap.
type Store interface {
	Create(ctx context.Context, p *entity.Post) error
	List(ctx context.Context, visibility, authorID string, limit int) ([]entity.Post, error)
}

// UserDirectory is the read-only slice of the user repository the post
// service needs: display-name resolution for denormalization and feed
// normalization. Lookups failing here never fail a publish.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*userentity.User, error)
}

// Service orchestrates post publishing and feed reads. It is stateless per
// request; consistency of concurrent writes is owned by the store.
type Service struct {
	store  Store
	users  UserDirectory
	logger *zap.SugaredLogger
}

func NewService(db *sqlx.DB, store Store, users UserDirectory, logger *zap.SugaredLogger) *Service {
	if store == nil {
		store = postrepo.NewPostRepo(db)
	}
	if users == nil {
		users = userrepo.NewUserRepo(db)
	}
	return &Service{store: store, users: users, logger: logger}
}

// CreateInput is the decoded multipart submission for a new post. Tags holds
// the raw form values: either one comma-delimited string or a structured
// list, normalized by NormalizeTags.
type CreateInput struct {
	Title      string
	Body       string
	Tags       []string
	Visibility string
	Uploads    []Upload
}

// Create publishes a post for the acting user. The author's display name is
// captured as a denormalized copy; when the lookup fails for any reason the
// post is published with the name left empty rather than failing the request.
// Media validation is the only hard-fail step before persistence.
func (s *Service) Create(ctx context.Context, authorID string, in CreateInput) (*entity.Post, error) {
	authorName := ""
	if u, err := s.users.GetByID(ctx, authorID); err == nil {
		authorName = u.Name
	} else {
		s.logger.Debugw("author lookup failed, publishing without name", "author_id", authorID, "err", err)
	}

	media, err := ValidateUploads(in.Uploads)
	if err != nil {
		return nil, err
	}

	p := &entity.Post{
		AuthorID:   authorID,
		AuthorName: authorName,
		Title:      strings.TrimSpace(in.Title),
		Body:       StripScripts(in.Body),
		Media:      media,
		Tags:       NormalizeTags(in.Tags),
		Visibility: NormalizeVisibility(in.Visibility),
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

// ListPublic returns the newest public posts, capped at PublicFeedLimit.
func (s *Service) ListPublic(ctx context.Context) ([]entity.Post, error) {
	posts, err := s.store.List(ctx, entity.VisibilityPublic, "", PublicFeedLimit)
	if err != nil {
		return nil, err
	}
	s.fillAuthorNames(ctx, posts)
	return posts, nil
}

// ListMine returns all posts by the acting user, any visibility, no cap.
func (s *Service) ListMine(ctx context.Context, userID string) ([]entity.Post, error) {
	posts, err := s.store.List(ctx, "", userID, 0)
	if err != nil {
		return nil, err
	}
	s.fillAuthorNames(ctx, posts)
	return posts, nil
}

// ListByAuthor returns the public posts of one author, newest first.
func (s *Service) ListByAuthor(ctx context.Context, authorID string) ([]entity.Post, error) {
	posts, err := s.store.List(ctx, entity.VisibilityPublic, authorID, 0)
	if err != nil {
		return nil, err
	}
	s.fillAuthorNames(ctx, posts)
	return posts, nil
}

// fillAuthorNames normalizes the display field on read: the denormalized name
// when present, else the author's current name, else "Unknown". Lookups are
// memoized per call so each author is resolved at most once.
func (s *Service) fillAuthorNames(ctx context.Context, posts []entity.Post) {
	resolved := map[string]string{}
	for i := range posts {
		if posts[i].AuthorName != "" {
			continue
		}
		name, ok := resolved[posts[i].AuthorID]
		if !ok {
			name = "Unknown"
			if u, err := s.users.GetByID(ctx, posts[i].AuthorID); err == nil && u.Name != "" {
				name = u.Name
			}
			resolved[posts[i].AuthorID] = name
		}
		posts[i].AuthorName = name
	}
}

// NormalizeVisibility coerces anything outside the known enum to public.
func NormalizeVisibility(v string) string {
	switch v {
	case entity.VisibilityPublic, entity.VisibilityPrivate, entity.VisibilityCourse:
		return v
	default:
		return entity.VisibilityPublic
	}
}

// NormalizeTags flattens form values into a clean tag set: every value is
// split on commas, trimmed, and empty entries dropped. Accepts both a single
// delimited string and a repeated structured field.
func NormalizeTags(values []string) []string {
	tags := make([]string, 0, len(values))
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

var scriptBlockRe = regexp.MustCompile(`(?is)<script.*?>.*?</script>`)

// StripScripts removes embedded script-tag blocks from free text. This is a
// defensive baseline, not a full HTML sanitizer.
func StripScripts(s string) string {
	return scriptBlockRe.ReplaceAllString(s, "")
}
