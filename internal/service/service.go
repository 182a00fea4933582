// Package service contains interface for service business-logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/yatube-net/yatube/internal/entities"
	"github.com/yatube-net/yatube/internal/feed"
)

// ValidationError is returned when submitted form is invalid.
type ValidationError struct {
	Field   string
	Message string
	// Cause is an underlying validation error, e.g. *moderation.ValidationError.
	Cause error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError ...
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError ...
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Service ...
type Service interface {
	Index(ctx context.Context, page int) (*feed.Page, error)
	GroupPosts(ctx context.Context, slug string, page int) (*entities.Group, *feed.Page, error)
	Profile(ctx context.Context, a entities.Actor, username string, page int) (*Profile, error)
	FollowIndex(ctx context.Context, a entities.Actor, page int) (*feed.Page, error)

	GetPost(ctx context.Context, id int64) (*PostDetail, error)
	GetPostForEdit(ctx context.Context, a entities.Actor, id int64) (*entities.Post, error)
	CreatePost(ctx context.Context, a entities.Actor, f PostForm) (*entities.Post, error)
	EditPost(ctx context.Context, a entities.Actor, id int64, f PostForm) (*entities.Post, error)
	AddComment(ctx context.Context, a entities.Actor, postID int64, text string) (*entities.Comment, error)
	// ValidateComment returns cleaned comment text or ValidationError.
	ValidateComment(ctx context.Context, text string) (string, error)

	Follow(ctx context.Context, a entities.Actor, author string) error
	Unfollow(ctx context.Context, a entities.Actor, author string) error

	// Groups returns groups by ids or all groups if ids is empty.
	Groups(ctx context.Context, ids ...int64) ([]*entities.Group, error)
}

// Profile ...
type Profile struct {
	Author    *entities.User
	Page      *feed.Page
	Following bool
}

// PostDetail ...
type PostDetail struct {
	Post             *entities.Post
	Group            *entities.Group
	Author           *entities.User
	AuthorPostsCount int
	Comments         []*entities.Comment
}

// PostForm contains author writable fields of a post.
type PostForm struct {
	Text    string
	GroupID *int64
	// Image is optional. On edit nil keeps the current image.
	Image *Upload
}

// Upload is an uploaded file.
type Upload struct {
	Filename string
	Body     io.Reader
}
