package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/yatube-net/yatube/internal/entities"
	"github.com/yatube-net/yatube/internal/storage"
	"github.com/yatube-net/yatube/internal/storage/mock"
)

const testFixture = `
{
  "groups": [
    {"title": "Cats", "slug": "cats", "description": "about cats"},
    {"title": "Dogs", "slug": "dogs", "description": "about dogs"}
  ],
  "banned_words": ["spam", "Scam"]
}`

func Test_load(t *testing.T) {
	var f fixture
	require.NoError(t, json.Unmarshal([]byte(testFixture), &f))

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s := mock.NewMockStorage(ctrl)

	gomock.InOrder(
		s.EXPECT().CreateGroup(gomock.Any(), &entities.Group{Title: "Cats", Slug: "cats", Description: "about cats"}).Return(nil),
		s.EXPECT().CreateGroup(gomock.Any(), &entities.Group{Title: "Dogs", Slug: "dogs", Description: "about dogs"}).Return(storage.ErrAlreadyExists),
		s.EXPECT().AddBannedWord(gomock.Any(), entities.BannedWord("spam")).Return(storage.ErrAlreadyExists),
		s.EXPECT().AddBannedWord(gomock.Any(), entities.BannedWord("Scam")).Return(nil),
	)

	require.NoError(t, load(context.Background(), s, f))
}

func Test_load_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s := mock.NewMockStorage(ctrl)

	s.EXPECT().AddBannedWord(gomock.Any(), entities.BannedWord("spam")).Return(errors.New("test"))

	require.Error(t, load(context.Background(), s, fixture{BannedWords: []string{"spam"}}))
}
