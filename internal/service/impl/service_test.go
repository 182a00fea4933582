package impl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/ioutil"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatube-net/yatube/internal/entities"
	"github.com/yatube-net/yatube/internal/moderation"
	"github.com/yatube-net/yatube/internal/policy"
	"github.com/yatube-net/yatube/internal/service"
	"github.com/yatube-net/yatube/internal/storage"
	"github.com/yatube-net/yatube/internal/storage/mock"
)

var (
	ctx    = context.Background()
	author = entities.Actor{Username: "auth"}
	reader = entities.Actor{Username: "reader"}

	smallGIF = []byte{
		0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
		0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
		0x0A, 0x00, 0x3B,
	}
)

type blobStub struct {
	key         string
	contentType string
	content     []byte
}

func (b *blobStub) Put(_ context.Context, key string, contentType string, r io.Reader) (string, error) {
	content, err := ioutil.ReadAll(r)
	if err != nil {
		return "", err
	}

	b.key, b.contentType, b.content = key, contentType, content

	return "/media/" + key, nil
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestSrv_CreatePost(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock.NewMockStorage(ctrl)
	srv := New(s, &blobStub{})

	s.EXPECT().CreatePost(gomock.Any(), &entities.Post{Author: "auth", Text: "Hello"}).DoAndReturn(
		func(_ context.Context, p *entities.Post) error {
			p.ID, p.CreatedAt = 1, time.Now()
			return nil
		},
	)

	p, err := srv.CreatePost(ctx, author, service.PostForm{Text: "  Hello "})
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.ID)
	assert.Equal(t, "auth", p.Author)
	assert.Equal(t, "Hello", p.Text)
	assert.Nil(t, p.GroupID)
	assert.Empty(t, p.Image)
}

func TestSrv_CreatePost_WithGroupAndImage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock.NewMockStorage(ctrl)
	b := &blobStub{}
	srv := New(s, b)

	s.EXPECT().GetGroupByID(gomock.Any(), int64(2)).Return(&entities.Group{ID: 2, Slug: "test"}, nil)
	s.EXPECT().CreatePost(gomock.Any(), gomock.Any()).Return(nil)

	p, err := srv.CreatePost(ctx, author, service.PostForm{
		Text:    "Text",
		GroupID: int64Ptr(2),
		Image:   &service.Upload{Filename: "small.gif", Body: bytes.NewReader(smallGIF)},
	})
	require.NoError(t, err)
	assert.True(t, p.InGroup(2))
	assert.Equal(t, "/media/"+b.key, p.Image)
	assert.Equal(t, "image/gif", b.contentType)
	assert.Equal(t, smallGIF, b.content)
}

func TestSrv_CreatePost_ImageExtension(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock.NewMockStorage(ctrl)
	b := &blobStub{}
	srv := New(s, b)

	s.EXPECT().CreatePost(gomock.Any(), gomock.Any()).Return(nil)

	body := append(append([]byte{}, smallGIF...), []byte("<html><script>alert(1)</script></html>")...)

	p, err := srv.CreatePost(ctx, author, service.PostForm{
		Text:  "Text",
		Image: &service.Upload{Filename: "evil.html", Body: bytes.NewReader(body)},
	})
	require.NoError(t, err)
	assert.Equal(t, "image/gif", b.contentType)
	assert.True(t, strings.HasPrefix(b.key, "posts/"))
	assert.Equal(t, ".gif", path.Ext(b.key))
	assert.Equal(t, ".gif", path.Ext(p.Image))
}

func TestSrv_CreatePost_Errors(t *testing.T) {
	tt := []struct {
		name  string
		actor entities.Actor
		form  service.PostForm
		setup func(s *mock.MockStorage)

		validation bool
		err        error
	}{
		{
			name:  "anonymous",
			actor: entities.Anonymous,
			form:  service.PostForm{Text: "Text"},
			err:   policy.ErrUnauthenticated,
		},
		{
			name:       "empty text",
			actor:      author,
			form:       service.PostForm{Text: "   "},
			validation: true,
		},
		{
			name:  "unknown group",
			actor: author,
			form:  service.PostForm{Text: "Text", GroupID: int64Ptr(42)},
			setup: func(s *mock.MockStorage) {
				s.EXPECT().GetGroupByID(gomock.Any(), int64(42)).Return(nil, storage.ErrNotFound)
			},
			validation: true,
		},
		{
			name:  "not an image",
			actor: author,
			form: service.PostForm{
				Text:  "Text",
				Image: &service.Upload{Filename: "file.txt", Body: bytes.NewReader([]byte("plain text"))},
			},
			validation: true,
		},
		{
			name:  "empty image",
			actor: author,
			form: service.PostForm{
				Text:  "Text",
				Image: &service.Upload{Filename: "file.gif", Body: bytes.NewReader(nil)},
			},
			validation: true,
		},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s := mock.NewMockStorage(ctrl)
			srv := New(s, &blobStub{})

			if tc.setup != nil {
				tc.setup(s)
			}

			_, err := srv.CreatePost(ctx, tc.actor, tc.form)
			require.Error(t, err)

			if tc.validation {
				require.True(t, service.IsValidationError(err))
			} else {
				require.True(t, errors.Is(err, tc.err))
			}
		})
	}
}

func TestSrv_EditPost(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock.NewMockStorage(ctrl)
	srv := New(s, &blobStub{})

	s.EXPECT().GetPost(gomock.Any(), int64(1)).Return(&entities.Post{
		ID: 1, Author: "auth", Text: "old", GroupID: int64Ptr(2), Image: "/media/posts/a.gif",
	}, nil)
	s.EXPECT().UpdatePost(gomock.Any(), &entities.Post{
		ID: 1, Author: "auth", Text: "new", Image: "/media/posts/a.gif",
	}).Return(nil)

	p, err := srv.EditPost(ctx, author, 1, service.PostForm{Text: "new"})
	require.NoError(t, err)
	assert.Equal(t, "new", p.Text)
	assert.Nil(t, p.GroupID)
	assert.Equal(t, "/media/posts/a.gif", p.Image)
}

func TestSrv_EditPost_Denied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock.NewMockStorage(ctrl)
	srv := New(s, &blobStub{})

	_, err := srv.EditPost(ctx, entities.Anonymous, 1, service.PostForm{Text: "new"})
	require.Equal(t, policy.ErrUnauthenticated, err)

	s.EXPECT().GetPost(gomock.Any(), int64(1)).Return(&entities.Post{ID: 1, Author: "auth", Text: "old"}, nil)

	_, err = srv.EditPost(ctx, reader, 1, service.PostForm{Text: "new"})
	require.Equal(t, policy.ErrForbidden, err)

	s.EXPECT().GetPost(gomock.Any(), int64(2)).Return(nil, storage.ErrNotFound)

	_, err = srv.EditPost(ctx, author, 2, service.PostForm{Text: "new"})
	require.True(t, storage.IsNotFound(err))
}

func TestSrv_AddComment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock.NewMockStorage(ctrl)
	srv := New(s, &blobStub{})

	s.EXPECT().GetPost(gomock.Any(), int64(1)).Return(&entities.Post{ID: 1, Author: "auth"}, nil).Times(2)
	s.EXPECT().ListBannedWords(gomock.Any()).Return([]entities.BannedWord{"spam"}, nil).Times(2)
	s.EXPECT().CreateComment(gomock.Any(), &entities.Comment{PostID: 1, Author: "reader", Text: "Nice Post"}).Return(nil)

	c, err := srv.AddComment(ctx, reader, 1, "Nice Post")
	require.NoError(t, err)
	assert.Equal(t, "Nice Post", c.Text)

	_, err = srv.AddComment(ctx, reader, 1, "this is Spam content")
	require.True(t, service.IsValidationError(err))
	assert.Contains(t, err.Error(), "text contains banned word spam")
}

func TestSrv_AddComment_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock.NewMockStorage(ctrl)
	srv := New(s, &blobStub{})

	_, err := srv.AddComment(ctx, entities.Anonymous, 1, "text")
	require.Equal(t, policy.ErrUnauthenticated, err)

	s.EXPECT().GetPost(gomock.Any(), int64(2)).Return(nil, storage.ErrNotFound)

	_, err = srv.AddComment(ctx, reader, 2, "text")
	require.True(t, storage.IsNotFound(err))

	s.EXPECT().GetPost(gomock.Any(), int64(1)).Return(&entities.Post{ID: 1, Author: "auth"}, nil)

	_, err = srv.AddComment(ctx, reader, 1, " ")
	require.True(t, service.IsValidationError(err))
}

func TestSrv_GetPost(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock.NewMockStorage(ctrl)
	srv := New(s, &blobStub{})

	post := &entities.Post{ID: 1, Author: "auth", Text: "text", GroupID: int64Ptr(2)}
	comments := []*entities.Comment{{ID: 1, PostID: 1, Author: "reader", Text: "comment"}}
	username := "auth"

	s.EXPECT().GetPost(gomock.Any(), int64(1)).Return(post, nil)
	s.EXPECT().GetGroupByID(gomock.Any(), int64(2)).Return(&entities.Group{ID: 2, Slug: "test"}, nil)
	s.EXPECT().GetUser(gomock.Any(), "auth").Return(&entities.User{Username: "auth"}, nil)
	s.EXPECT().CountPosts(gomock.Any(), storage.PostsFilter{Author: &username}).Return(3, nil)
	s.EXPECT().ListComments(gomock.Any(), int64(1)).Return(comments, nil)

	d, err := srv.GetPost(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, post, d.Post)
	assert.Equal(t, "test", d.Group.Slug)
	assert.Equal(t, 3, d.AuthorPostsCount)
	assert.Equal(t, comments, d.Comments)

	s.EXPECT().GetPost(gomock.Any(), int64(2)).Return(nil, storage.ErrNotFound)

	_, err = srv.GetPost(ctx, 2)
	require.True(t, storage.IsNotFound(err))
}

func TestSrv_Profile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock.NewMockStorage(ctrl)
	srv := New(s, &blobStub{})

	username := "auth"

	s.EXPECT().GetUser(gomock.Any(), "auth").Return(&entities.User{Username: "auth"}, nil)
	s.EXPECT().CountPosts(gomock.Any(), storage.PostsFilter{Author: &username}).Return(0, nil)
	s.EXPECT().IsFollowing(gomock.Any(), "reader", "auth").Return(true, nil)

	p, err := srv.Profile(ctx, reader, "auth", 1)
	require.NoError(t, err)
	assert.True(t, p.Following)
	assert.Equal(t, "auth", p.Author.Username)
}

func TestSrv_Groups(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock.NewMockStorage(ctrl)
	srv := New(s, &blobStub{})

	s.EXPECT().ListGroups(gomock.Any(), []int64(nil)).Return([]*entities.Group{{ID: 1}}, nil)

	g, err := srv.Groups(ctx)
	require.NoError(t, err)
	require.Len(t, g, 1)

	s.EXPECT().ListGroups(gomock.Any(), gomock.Any()).Return(nil, context.Canceled)

	_, err = srv.Groups(ctx, 1)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestSrv_ValidateComment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock.NewMockStorage(ctrl)
	srv := New(s, &blobStub{})

	s.EXPECT().ListBannedWords(gomock.Any()).Return([]entities.BannedWord{"spam"}, nil).Times(2)

	text, err := srv.ValidateComment(ctx, "  Fine Text ")
	require.NoError(t, err)
	assert.Equal(t, "Fine Text", text)

	_, err = srv.ValidateComment(ctx, "SPAMMER")
	require.True(t, service.IsValidationError(err))

	var banned *moderation.ValidationError
	require.True(t, errors.As(err, &banned))
	assert.Equal(t, entities.BannedWord("spam"), banned.Word)

	var v *service.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "text", v.Field)

	s.EXPECT().ListBannedWords(gomock.Any()).Return(nil, context.Canceled)

	_, err = srv.ValidateComment(ctx, "text")
	require.True(t, errors.Is(err, context.Canceled))
}
