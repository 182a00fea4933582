// Package postgres is implementation of storage interface.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/yatube-net/yatube/internal/entities"
	"github.com/yatube-net/yatube/internal/storage"
)

var log = logrus.WithField("layer", "storage").WithField("package", "postgres")

const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

type pg struct {
	ext sqlx.ExtContext
}

type userDTO struct {
	Username     string    `db:"username"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type groupDTO struct {
	ID          int64  `db:"id"`
	Title       string `db:"title"`
	Slug        string `db:"slug"`
	Description string `db:"description"`
}

type postDTO struct {
	ID        int64         `db:"id"`
	Text      string        `db:"text"`
	Author    string        `db:"author"`
	GroupID   sql.NullInt64 `db:"group_id"`
	Image     string        `db:"image"`
	CreatedAt time.Time     `db:"created_at"`
}

type commentDTO struct {
	ID        int64     `db:"id"`
	PostID    int64     `db:"post_id"`
	Author    string    `db:"author"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}

// New creates new instance of pg.
func New(db *sql.DB) storage.Storage {
	return pg{
		ext: sqlx.NewDb(db, "postgres"),
	}
}

func (s pg) Ping(ctx context.Context) error {
	db, ok := s.ext.(*sqlx.DB)
	if !ok {
		return nil
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping: %w", err)
	}

	return nil
}

func (s pg) CreateUser(ctx context.Context, u *entities.User) error {
	dto := userDTO{
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	}

	query, args, err := sqlx.Named(`
			INSERT INTO account(username, first_name, last_name, email, password_hash)
			VALUES(:username, :first_name, :last_name, :email, :password_hash)
			RETURNING created_at
		`, dto)
	if err != nil {
		return fmt.Errorf("failed to bind: %w", err)
	}

	if err := sqlx.GetContext(ctx, s.ext, &u.CreatedAt, s.ext.Rebind(query), args...); err != nil {
		return wrapError(err)
	}

	return nil
}

func (s pg) GetUser(ctx context.Context, username string) (*entities.User, error) {
	var u userDTO

	if err := sqlx.GetContext(ctx, s.ext, &u, `
			SELECT username, first_name, last_name, email, password_hash, created_at
			FROM account
			WHERE username = $1
		`, username,
	); err != nil {
		return nil, wrapError(err)
	}

	return &entities.User{
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}, nil
}

func (s pg) CreateGroup(ctx context.Context, g *entities.Group) error {
	if err := sqlx.GetContext(ctx, s.ext, &g.ID, `
			INSERT INTO "group"(title, slug, description) VALUES($1, $2, $3)
			RETURNING id
		`, g.Title, g.Slug, g.Description,
	); err != nil {
		return wrapError(err)
	}

	return nil
}

func (s pg) GetGroup(ctx context.Context, slug string) (*entities.Group, error) {
	var g groupDTO

	if err := sqlx.GetContext(ctx, s.ext, &g,
		`SELECT id, title, slug, description FROM "group" WHERE slug = $1`, slug,
	); err != nil {
		return nil, wrapError(err)
	}

	return toGroup(g), nil
}

func (s pg) GetGroupByID(ctx context.Context, id int64) (*entities.Group, error) {
	var g groupDTO

	if err := sqlx.GetContext(ctx, s.ext, &g,
		`SELECT id, title, slug, description FROM "group" WHERE id = $1`, id,
	); err != nil {
		return nil, wrapError(err)
	}

	return toGroup(g), nil
}

func (s pg) ListGroups(ctx context.Context, ids []int64) ([]*entities.Group, error) {
	var (
		g   []groupDTO
		err error
	)

	if len(ids) == 0 {
		err = sqlx.SelectContext(ctx, s.ext, &g, `SELECT id, title, slug, description FROM "group" ORDER BY title`)
	} else {
		err = sqlx.SelectContext(ctx, s.ext, &g,
			`SELECT id, title, slug, description FROM "group" WHERE id = ANY($1) ORDER BY title`,
			pq.Int64Array(int64sUnique(ids)),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	out := make([]*entities.Group, len(g))
	for i, v := range g {
		out[i] = toGroup(v)
	}

	return out, nil
}

func (s pg) CreatePost(ctx context.Context, p *entities.Post) error {
	var res struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}

	if err := sqlx.GetContext(ctx, s.ext, &res, `
			INSERT INTO post(text, author, group_id, image)
			VALUES($1, $2, $3, $4)
			RETURNING id, created_at
		`, p.Text, p.Author, nullInt64(p.GroupID), p.Image,
	); err != nil {
		return wrapError(err)
	}

	p.ID, p.CreatedAt = res.ID, res.CreatedAt

	return nil
}

func (s pg) GetPost(ctx context.Context, id int64) (*entities.Post, error) {
	var p postDTO

	if err := sqlx.GetContext(ctx, s.ext, &p, `
			SELECT id, text, author, group_id, image, created_at
			FROM post
			WHERE id = $1
		`, id,
	); err != nil {
		return nil, wrapError(err)
	}

	return toPost(p), nil
}

func (s pg) UpdatePost(ctx context.Context, p *entities.Post) error {
	res, err := s.ext.ExecContext(ctx,
		`UPDATE post SET text=$2, group_id=$3, image=$4 WHERE id=$1`,
		p.ID, p.Text, nullInt64(p.GroupID), p.Image,
	)
	if err != nil {
		return wrapError(err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) ListPosts(ctx context.Context, params *storage.ListPostsParams) ([]*entities.Post, error) {
	where, args := postsWhere(params.PostsFilter)

	query := fmt.Sprintf(`
			SELECT id, text, author, group_id, image, created_at
			FROM post
			%s
			ORDER BY created_at DESC, id DESC
			LIMIT ? OFFSET ?
		`, where)
	args = append(args, params.Limit, params.Offset)

	var p []postDTO

	if err := sqlx.SelectContext(ctx, s.ext, &p, s.ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	out := make([]*entities.Post, len(p))
	for i, v := range p {
		out[i] = toPost(v)
	}

	return out, nil
}

func (s pg) CountPosts(ctx context.Context, f storage.PostsFilter) (int, error) {
	where, args := postsWhere(f)

	var c int

	if err := sqlx.GetContext(ctx, s.ext, &c, s.ext.Rebind(`SELECT COUNT(*) FROM post `+where), args...); err != nil {
		return 0, fmt.Errorf("failed to query: %w", err)
	}

	return c, nil
}

func (s pg) CreateComment(ctx context.Context, c *entities.Comment) error {
	var res struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}

	if err := sqlx.GetContext(ctx, s.ext, &res, `
			INSERT INTO comment(post_id, author, text) VALUES($1, $2, $3)
			RETURNING id, created_at
		`, c.PostID, c.Author, c.Text,
	); err != nil {
		return wrapError(err)
	}

	c.ID, c.CreatedAt = res.ID, res.CreatedAt

	return nil
}

func (s pg) ListComments(ctx context.Context, postID int64) ([]*entities.Comment, error) {
	var c []commentDTO

	if err := sqlx.SelectContext(ctx, s.ext, &c, `
			SELECT id, post_id, author, text, created_at
			FROM comment
			WHERE post_id = $1
			ORDER BY created_at, id
		`, postID,
	); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	out := make([]*entities.Comment, len(c))
	for i, v := range c {
		out[i] = &entities.Comment{
			ID:        v.ID,
			PostID:    v.PostID,
			Author:    v.Author,
			Text:      v.Text,
			CreatedAt: v.CreatedAt,
		}
	}

	return out, nil
}

func (s pg) Follow(ctx context.Context, follower, followee string) error {
	if _, err := s.ext.ExecContext(ctx,
		`
			INSERT INTO follow(follower, followee) VALUES($1, $2) ON CONFLICT DO NOTHING
		`, follower, followee,
	); err != nil {
		return wrapError(err)
	}

	return nil
}

func (s pg) Unfollow(ctx context.Context, follower, followee string) error {
	res, err := s.ext.ExecContext(ctx,
		`
			DELETE FROM follow WHERE follower=$1 AND followee=$2
		`, follower, followee,
	)
	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) IsFollowing(ctx context.Context, follower, followee string) (bool, error) {
	var ok bool

	if err := sqlx.GetContext(ctx, s.ext, &ok,
		`SELECT EXISTS(SELECT 1 FROM follow WHERE follower=$1 AND followee=$2)`,
		follower, followee,
	); err != nil {
		return false, fmt.Errorf("failed to query: %w", err)
	}

	return ok, nil
}

func (s pg) ListBannedWords(ctx context.Context) ([]entities.BannedWord, error) {
	var w []string

	if err := sqlx.SelectContext(ctx, s.ext, &w, `SELECT word FROM banned_word`); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	out := make([]entities.BannedWord, len(w))
	for i, v := range w {
		out[i] = entities.BannedWord(v)
	}

	return out, nil
}

func (s pg) AddBannedWord(ctx context.Context, w entities.BannedWord) error {
	if _, err := s.ext.ExecContext(ctx,
		`INSERT INTO banned_word(word) VALUES($1)`, strings.ToLower(string(w)),
	); err != nil {
		return wrapError(err)
	}

	return nil
}

func postsWhere(f storage.PostsFilter) (string, []interface{}) {
	var (
		cond []string
		args []interface{}
	)

	if f.GroupID != nil {
		cond = append(cond, "group_id = ?")
		args = append(args, *f.GroupID)
	}

	if f.Author != nil {
		cond = append(cond, "author = ?")
		args = append(args, *f.Author)
	}

	if f.FollowedBy != nil {
		cond = append(cond, "author IN (SELECT followee FROM follow WHERE follower = ?)")
		args = append(args, *f.FollowedBy)
	}

	if len(cond) == 0 {
		return "", nil
	}

	return "WHERE " + strings.Join(cond, " AND "), args
}

func wrapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case foreignKeyViolation:
			return storage.ErrNotFound
		case uniqueViolation:
			return storage.ErrAlreadyExists
		}
		log.WithError(err).WithField("code", pqErr.Code).Debug("unexpected postgres error")
	}

	return fmt.Errorf("failed to exec: %w", err)
}

func toGroup(g groupDTO) *entities.Group {
	return &entities.Group{
		ID:          g.ID,
		Title:       g.Title,
		Slug:        g.Slug,
		Description: g.Description,
	}
}

func toPost(p postDTO) *entities.Post {
	out := entities.Post{
		ID:        p.ID,
		Text:      p.Text,
		Author:    p.Author,
		Image:     p.Image,
		CreatedAt: p.CreatedAt,
	}

	if p.GroupID.Valid {
		id := p.GroupID.Int64
		out.GroupID = &id
	}

	return &out
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64sUnique(s []int64) []int64 {
	m := make(map[int64]struct{}, len(s))
	out := make([]int64, 0, len(s))

	for _, v := range s {
		if _, ok := m[v]; !ok {
			m[v] = struct{}{}
			out = append(out, v)
		}
	}

	return out
}
