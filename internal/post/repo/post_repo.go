package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/NaiduPavan213/MindMile/internal/post/entity"
	"github.com/NaiduPavan213/MindMile/pkg/utilities"
)

// PostRepo provides data access for posts and their media using sqlx. Media
// rows live in a child table keyed by (post_id, position) so the upload order
// survives the round trip.
type PostRepo struct {
	db *sqlx.DB
}

func NewPostRepo(db *sqlx.DB) *PostRepo { return &PostRepo{db: db} }

// EnsureTable creates the posts tables if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *PostRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS posts (
  id TEXT PRIMARY KEY,
  author_id TEXT NOT NULL,
  author_name TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL DEFAULT '',
  body TEXT NOT NULL DEFAULT '',
  tags TEXT[] NOT NULL DEFAULT '{}',
  visibility TEXT NOT NULL DEFAULT 'public',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_posts_visibility_created ON posts(visibility, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id);
CREATE TABLE IF NOT EXISTS post_media (
  post_id TEXT NOT NULL REFERENCES posts(id),
  position INT NOT NULL,
  data BYTEA NOT NULL,
  content_type TEXT NOT NULL,
  kind TEXT NOT NULL,
  PRIMARY KEY (post_id, position)
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create persists a post and its media in one transaction. The id is
// assigned here (KSUID) and the creation timestamp by the database; both are
// written back into p.
func (r *PostRepo) Create(ctx context.Context, p *entity.Post) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	p.ID = utilities.NewKSUID()
	const insertPost = `INSERT INTO posts (id, author_id, author_name, title, body, tags, visibility)
	                    VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`
	if err := tx.QueryRowxContext(ctx, insertPost,
		p.ID, p.AuthorID, p.AuthorName, p.Title, p.Body,
		pq.Array(p.Tags), p.Visibility,
	).Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	const insertMedia = `INSERT INTO post_media (post_id, position, data, content_type, kind)
	                     VALUES ($1, $2, $3, $4, $5)`
	for i, m := range p.Media {
		if _, err := tx.ExecContext(ctx, insertMedia, p.ID, i, m.Data, m.ContentType, m.Kind); err != nil {
			return fmt.Errorf("insert media %d: %w", i, err)
		}
	}
	return tx.Commit()
}

type postRow struct {
	ID         string         `db:"id"`
	AuthorID   string         `db:"author_id"`
	AuthorName string         `db:"author_name"`
	Title      string         `db:"title"`
	Body       string         `db:"body"`
	Tags       pq.StringArray `db:"tags"`
	Visibility string         `db:"visibility"`
	CreatedAt  time.Time      `db:"created_at"`
}

type mediaRow struct {
	PostID      string `db:"post_id"`
	Position    int    `db:"position"`
	Data        []byte `db:"data"`
	ContentType string `db:"content_type"`
	Kind        string `db:"kind"`
}

// List returns posts newest first, optionally filtered by visibility and/or
// author and capped at limit (0 = no cap), with media loaded in upload order.
func (r *PostRepo) List(ctx context.Context, visibility, authorID string, limit int) ([]entity.Post, error) {
	q := `SELECT id, author_id, author_name, title, body, tags, visibility, created_at FROM posts`
	var args []any
	var where []string
	if visibility != "" {
		args = append(args, visibility)
		where = append(where, fmt.Sprintf("visibility = $%d", len(args)))
	}
	if authorID != "" {
		args = append(args, authorID)
		where = append(where, fmt.Sprintf("author_id = $%d", len(args)))
	}
	for i, w := range where {
		if i == 0 {
			q += " WHERE " + w
		} else {
			q += " AND " + w
		}
	}
	q += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("select posts: %w", err)
	}

	posts := make([]entity.Post, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		tags := []string(row.Tags)
		if tags == nil {
			tags = []string{}
		}
		posts = append(posts, entity.Post{
			ID:         row.ID,
			AuthorID:   row.AuthorID,
			AuthorName: row.AuthorName,
			Title:      row.Title,
			Body:       row.Body,
			Media:      []entity.Media{},
			Tags:       tags,
			Visibility: row.Visibility,
			CreatedAt:  row.CreatedAt,
		})
		ids = append(ids, row.ID)
	}
	if len(ids) == 0 {
		return posts, nil
	}

	const mq = `SELECT post_id, position, data, content_type, kind
	            FROM post_media WHERE post_id = ANY($1) ORDER BY post_id, position`
	var media []mediaRow
	if err := r.db.SelectContext(ctx, &media, mq, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("select media: %w", err)
	}
	byPost := make(map[string][]entity.Media, len(ids))
	for _, m := range media {
		byPost[m.PostID] = append(byPost[m.PostID], entity.Media{
			Data:        m.Data,
			ContentType: m.ContentType,
			Kind:        m.Kind,
		})
	}
	for i := range posts {
		if ms, ok := byPost[posts[i].ID]; ok {
			posts[i].Media = ms
		}
	}
	return posts, nil
}
