package follow

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/yatube-net/yatube/internal/entities"
	"github.com/yatube-net/yatube/internal/policy"
	"github.com/yatube-net/yatube/internal/storage"
	"github.com/yatube-net/yatube/internal/storage/mock"
)

var (
	ctx  = context.Background()
	user = entities.Actor{Username: "user"}
)

func TestManager_Follow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock.NewMockStorage(ctrl)
	m := New(s)

	s.EXPECT().GetUser(gomock.Any(), "author").Return(&entities.User{Username: "author"}, nil).Times(2)
	s.EXPECT().Follow(gomock.Any(), "user", "author").Return(nil).Times(2)

	require.NoError(t, m.Follow(ctx, user, "author"))
	require.NoError(t, m.Follow(ctx, user, "author"))
}

func TestManager_Follow_Self(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock.NewMockStorage(ctrl)
	m := New(s)

	s.EXPECT().GetUser(gomock.Any(), "user").Return(&entities.User{Username: "user"}, nil)

	require.NoError(t, m.Follow(ctx, user, "user"))
}

func TestManager_Follow_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock.NewMockStorage(ctrl)
	m := New(s)

	require.Equal(t, policy.ErrUnauthenticated, m.Follow(ctx, entities.Anonymous, "author"))

	s.EXPECT().GetUser(gomock.Any(), "nobody").Return(nil, storage.ErrNotFound)
	require.True(t, storage.IsNotFound(m.Follow(ctx, user, "nobody")))
}

func TestManager_Unfollow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock.NewMockStorage(ctrl)
	m := New(s)

	require.Equal(t, policy.ErrUnauthenticated, m.Unfollow(ctx, entities.Anonymous, "author"))

	s.EXPECT().GetUser(gomock.Any(), "author").Return(&entities.User{Username: "author"}, nil).Times(2)
	s.EXPECT().Unfollow(gomock.Any(), "user", "author").Return(nil)
	require.NoError(t, m.Unfollow(ctx, user, "author"))

	s.EXPECT().Unfollow(gomock.Any(), "user", "author").Return(storage.ErrNotFound)
	require.True(t, storage.IsNotFound(m.Unfollow(ctx, user, "author")))
}

func TestManager_IsFollowing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock.NewMockStorage(ctrl)
	m := New(s)

	ok, err := m.IsFollowing(ctx, entities.Anonymous, "author")
	require.NoError(t, err)
	require.False(t, ok)

	s.EXPECT().IsFollowing(gomock.Any(), "user", "author").Return(true, nil)

	ok, err = m.IsFollowing(ctx, user, "author")
	require.NoError(t, err)
	require.True(t, ok)
}
