// Package impl is implementation of service interface.
package impl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yatube-net/yatube/internal/blob"
	"github.com/yatube-net/yatube/internal/entities"
	"github.com/yatube-net/yatube/internal/feed"
	"github.com/yatube-net/yatube/internal/follow"
	"github.com/yatube-net/yatube/internal/moderation"
	"github.com/yatube-net/yatube/internal/policy"
	"github.com/yatube-net/yatube/internal/service"
	"github.com/yatube-net/yatube/internal/storage"
)

var log = logrus.WithField("layer", "service").WithField("package", "impl")

const imagesDir = "posts"

// sniffLen is a count of bytes http.DetectContentType looks at.
const sniffLen = 512

type srv struct {
	s storage.Storage
	b blob.Store
	e *feed.Engine
	f *follow.Manager
}

// New creates new instance of service.
func New(s storage.Storage, b blob.Store) service.Service {
	return srv{
		s: s,
		b: b,
		e: feed.New(s),
		f: follow.New(s),
	}
}

func (s srv) Index(ctx context.Context, page int) (*feed.Page, error) {
	return s.e.Global(ctx, page)
}

func (s srv) GroupPosts(ctx context.Context, slug string, page int) (*entities.Group, *feed.Page, error) {
	return s.e.Group(ctx, slug, page)
}

func (s srv) Profile(ctx context.Context, a entities.Actor, username string, page int) (*service.Profile, error) {
	u, p, err := s.e.Profile(ctx, username, page)
	if err != nil {
		return nil, err
	}

	following, err := s.f.IsFollowing(ctx, a, u.Username)
	if err != nil {
		return nil, err
	}

	return &service.Profile{
		Author:    u,
		Page:      p,
		Following: following,
	}, nil
}

func (s srv) FollowIndex(ctx context.Context, a entities.Actor, page int) (*feed.Page, error) {
	return s.e.Following(ctx, a, page)
}

func (s srv) GetPost(ctx context.Context, id int64) (*service.PostDetail, error) {
	p, err := s.s.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	out := service.PostDetail{Post: p}

	if p.GroupID != nil {
		if out.Group, err = s.s.GetGroupByID(ctx, *p.GroupID); err != nil {
			return nil, fmt.Errorf("failed to get group: %w", err)
		}
	}

	if out.Author, err = s.s.GetUser(ctx, p.Author); err != nil {
		return nil, fmt.Errorf("failed to get author: %w", err)
	}

	if out.AuthorPostsCount, err = s.s.CountPosts(ctx, storage.PostsFilter{Author: &p.Author}); err != nil {
		return nil, fmt.Errorf("failed to count author's posts: %w", err)
	}

	if out.Comments, err = s.s.ListComments(ctx, p.ID); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return &out, nil
}

func (s srv) GetPostForEdit(ctx context.Context, a entities.Actor, id int64) (*entities.Post, error) {
	if err := policy.Authenticated(a).Err(); err != nil {
		return nil, err
	}

	p, err := s.s.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	if err := policy.Edit(a, p).Err(); err != nil {
		return nil, err
	}

	return p, nil
}

func (s srv) CreatePost(ctx context.Context, a entities.Actor, f service.PostForm) (*entities.Post, error) {
	if !policy.CanCreatePost(a) {
		return nil, policy.ErrUnauthenticated
	}

	p := entities.Post{Author: a.Username}

	if err := s.applyForm(ctx, &p, f); err != nil {
		return nil, err
	}

	if err := s.s.CreatePost(ctx, &p); err != nil {
		return nil, fmt.Errorf("failed to create post on s side: %w", err)
	}

	log.WithField("id", p.ID).WithField("author", p.Author).Debug("post created")

	return &p, nil
}

func (s srv) EditPost(ctx context.Context, a entities.Actor, id int64, f service.PostForm) (*entities.Post, error) {
	p, err := s.GetPostForEdit(ctx, a, id)
	if err != nil {
		return nil, err
	}

	if err := s.applyForm(ctx, p, f); err != nil {
		return nil, err
	}

	if err := s.s.UpdatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update post on s side: %w", err)
	}

	return p, nil
}

func (s srv) AddComment(ctx context.Context, a entities.Actor, postID int64, text string) (*entities.Comment, error) {
	if !policy.CanComment(a) {
		return nil, policy.ErrUnauthenticated
	}

	if _, err := s.s.GetPost(ctx, postID); err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	text, err := s.ValidateComment(ctx, text)
	if err != nil {
		return nil, err
	}

	c := entities.Comment{
		PostID: postID,
		Author: a.Username,
		Text:   text,
	}

	if err := s.s.CreateComment(ctx, &c); err != nil {
		return nil, fmt.Errorf("failed to create comment on s side: %w", err)
	}

	return &c, nil
}

func (s srv) ValidateComment(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", service.NewValidationError("text", "this field is required")
	}

	words, err := s.s.ListBannedWords(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list banned words: %w", err)
	}

	if text, err = moderation.Validate(text, words); err != nil {
		return "", &service.ValidationError{Field: "text", Message: err.Error(), Cause: err}
	}

	return text, nil
}

func (s srv) Follow(ctx context.Context, a entities.Actor, author string) error {
	return s.f.Follow(ctx, a, author)
}

func (s srv) Unfollow(ctx context.Context, a entities.Actor, author string) error {
	return s.f.Unfollow(ctx, a, author)
}

func (s srv) Groups(ctx context.Context, ids ...int64) ([]*entities.Group, error) {
	g, err := s.s.ListGroups(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	return g, nil
}

// applyForm validates the form and copies it to the post. Post is not changed on error.
func (s srv) applyForm(ctx context.Context, p *entities.Post, f service.PostForm) error {
	text := strings.TrimSpace(f.Text)
	if text == "" {
		return service.NewValidationError("text", "this field is required")
	}

	if f.GroupID != nil {
		if _, err := s.s.GetGroupByID(ctx, *f.GroupID); err != nil {
			if storage.IsNotFound(err) {
				return service.NewValidationError("group", "select a valid choice")
			}
			return fmt.Errorf("failed to get group: %w", err)
		}
	}

	image := p.Image
	if f.Image != nil {
		ref, err := s.upload(ctx, f.Image)
		if err != nil {
			return err
		}
		image = ref
	}

	p.Text, p.GroupID, p.Image = text, f.GroupID, image

	return nil
}

func (s srv) upload(ctx context.Context, u *service.Upload) (string, error) {
	head := make([]byte, sniffLen)

	n, err := io.ReadFull(u.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	head = head[:n]

	// extension follows the content, the client's filename is not trusted
	contentType := http.DetectContentType(head)
	ext, ok := blob.ImageExtension(contentType)
	if n == 0 || !ok {
		log.WithField("filename", u.Filename).WithField("content_type", contentType).Debug("upload rejected")
		return "", service.NewValidationError("image", "upload a valid image")
	}

	ref, err := s.b.Put(ctx, blob.NewKey(imagesDir, ext), contentType, io.MultiReader(bytes.NewReader(head), u.Body))
	if err != nil {
		return "", fmt.Errorf("failed to put image: %w", err)
	}

	return ref, nil
}
