// Package storage contains a storage interface.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/yatube-net/yatube/internal/entities"
)

//go:generate mockgen -destination=./mock/storage.go -package=mock -source=storage.go

// ErrNotFound ...
var ErrNotFound = fmt.Errorf("not found")

// ErrAlreadyExists ...
var ErrAlreadyExists = fmt.Errorf("already exists")

// Storage provides methods for interacting with database.
type Storage interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *entities.User) error
	GetUser(ctx context.Context, username string) (*entities.User, error)

	CreateGroup(ctx context.Context, g *entities.Group) error
	GetGroup(ctx context.Context, slug string) (*entities.Group, error)
	GetGroupByID(ctx context.Context, id int64) (*entities.Group, error)
	// ListGroups returns groups with passed ids, or all groups if ids is empty.
	ListGroups(ctx context.Context, ids []int64) ([]*entities.Group, error)

	CreatePost(ctx context.Context, p *entities.Post) error
	GetPost(ctx context.Context, id int64) (*entities.Post, error)
	UpdatePost(ctx context.Context, p *entities.Post) error
	ListPosts(ctx context.Context, p *ListPostsParams) ([]*entities.Post, error)
	CountPosts(ctx context.Context, f PostsFilter) (int, error)

	CreateComment(ctx context.Context, c *entities.Comment) error
	ListComments(ctx context.Context, postID int64) ([]*entities.Comment, error)

	Follow(ctx context.Context, follower, followee string) error
	Unfollow(ctx context.Context, follower, followee string) error
	IsFollowing(ctx context.Context, follower, followee string) (bool, error)

	ListBannedWords(ctx context.Context) ([]entities.BannedWord, error)
	AddBannedWord(ctx context.Context, w entities.BannedWord) error
}

// PostsFilter limits posts to the ones matching all non-nil fields.
type PostsFilter struct {
	GroupID    *int64
	Author     *string
	FollowedBy *string
}

// ListPostsParams ...
// Posts are always ordered by creation time descending.
type ListPostsParams struct {
	PostsFilter
	Limit  int
	Offset int
}

// IsNotFound ...
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
