// Package feed builds paginated post feeds.
package feed

import (
	"context"
	"fmt"

	"github.com/yatube-net/yatube/internal/entities"
	"github.com/yatube-net/yatube/internal/policy"
	"github.com/yatube-net/yatube/internal/storage"
)

// PageSize is a count of posts on a page.
const PageSize = 10

// Page is a page of posts ordered by creation time descending.
type Page struct {
	Posts    []*entities.Post
	Number   int
	NumPages int
	Count    int
}

// HasNext ...
func (p Page) HasNext() bool {
	return p.Number < p.NumPages
}

// HasPrevious ...
func (p Page) HasPrevious() bool {
	return p.Number > 1
}

// Engine builds feeds over storage.
type Engine struct {
	s storage.Storage
}

// New creates new instance of Engine.
func New(s storage.Storage) *Engine {
	return &Engine{s: s}
}

// Global returns page of all posts.
func (e *Engine) Global(ctx context.Context, page int) (*Page, error) {
	return e.paginate(ctx, storage.PostsFilter{}, page)
}

// Group returns page of group's posts.
func (e *Engine) Group(ctx context.Context, slug string, page int) (*entities.Group, *Page, error) {
	g, err := e.s.GetGroup(ctx, slug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get group: %w", err)
	}

	p, err := e.paginate(ctx, storage.PostsFilter{GroupID: &g.ID}, page)
	if err != nil {
		return nil, nil, err
	}

	return g, p, nil
}

// Profile returns page of author's posts.
func (e *Engine) Profile(ctx context.Context, username string, page int) (*entities.User, *Page, error) {
	u, err := e.s.GetUser(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	p, err := e.paginate(ctx, storage.PostsFilter{Author: &u.Username}, page)
	if err != nil {
		return nil, nil, err
	}

	return u, p, nil
}

// Following returns page of posts written by authors the actor follows.
func (e *Engine) Following(ctx context.Context, a entities.Actor, page int) (*Page, error) {
	if !policy.CanViewFollowFeed(a) {
		return nil, policy.ErrUnauthenticated
	}

	return e.paginate(ctx, storage.PostsFilter{FollowedBy: &a.Username}, page)
}

// paginate treats page numbers below 1 as the first page; pages after the last one are empty.
func (e *Engine) paginate(ctx context.Context, f storage.PostsFilter, number int) (*Page, error) {
	if number < 1 {
		number = 1
	}

	count, err := e.s.CountPosts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	p := &Page{
		Posts:    []*entities.Post{},
		Number:   number,
		NumPages: NumPages(count),
		Count:    count,
	}

	if number > p.NumPages {
		return p, nil
	}

	offset := (number - 1) * PageSize
	if offset >= count {
		return p, nil
	}

	posts, err := e.s.ListPosts(ctx, &storage.ListPostsParams{
		PostsFilter: f,
		Limit:       PageSize,
		Offset:      offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	p.Posts = posts

	return p, nil
}

// NumPages returns count of pages for count posts. There is always at least one page.
func NumPages(count int) int {
	if count <= 0 {
		return 1
	}

	return (count + PageSize - 1) / PageSize
}
