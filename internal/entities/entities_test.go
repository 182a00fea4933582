package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPost_String(t *testing.T) {
	tt := []struct {
		name string
		text string
		want string
	}{
		{name: "short", text: "Hello", want: "Hello"},
		{name: "exact", text: "123456789012345", want: "123456789012345"},
		{name: "long", text: "A long test post text", want: "A long test pos"},
		{name: "multibyte", text: "Длинный тестовый пост", want: "Длинный тестовы"},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Post{Text: tc.text}.String())
			assert.Equal(t, tc.want, Comment{Text: tc.text}.String())
		})
	}
}

func TestPost_InGroup(t *testing.T) {
	id := int64(2)

	require.False(t, Post{}.InGroup(2))
	require.True(t, Post{GroupID: &id}.InGroup(2))
	require.False(t, Post{GroupID: &id}.InGroup(3))
}

func TestActor(t *testing.T) {
	require.False(t, Anonymous.IsAuthenticated())
	require.False(t, Anonymous.Is(""))

	a := Actor{Username: "auth"}
	require.True(t, a.IsAuthenticated())
	require.True(t, a.Is("auth"))
	require.False(t, a.Is("author"))
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "auth follows author", Follow{User: "auth", Author: "author"}.String())
	assert.Equal(t, "Test group", Group{Title: "Test group", Slug: "test"}.String())
	assert.Equal(t, "word", BannedWord("word").String())
	assert.Equal(t, "auth", User{Username: "auth"}.String())
}

func TestUser_FullName(t *testing.T) {
	assert.Equal(t, "auth", User{Username: "auth"}.FullName())
	assert.Equal(t, "Leo", User{Username: "auth", FirstName: "Leo"}.FullName())
	assert.Equal(t, "Tolstoy", User{Username: "auth", LastName: "Tolstoy"}.FullName())
	assert.Equal(t, "Leo Tolstoy", User{Username: "auth", FirstName: "Leo", LastName: "Tolstoy"}.FullName())
}
