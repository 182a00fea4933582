package server

import (
	"github.com/yatube-net/yatube/internal/entities"
	"github.com/yatube-net/yatube/internal/feed"
	"github.com/yatube-net/yatube/internal/service"
)

// Error ...
type Error struct {
	Error string `json:"error"`
}

// Page ...
type Page struct {
	Posts       []Post `json:"posts"`
	Number      int    `json:"number"`
	NumPages    int    `json:"num_pages"`
	Count       int    `json:"count"`
	HasNext     bool   `json:"has_next"`
	HasPrevious bool   `json:"has_previous"`
}

// ListPostsResponse ...
type ListPostsResponse struct {
	Page Page `json:"page"`
	// Groups dictionary where key is a group id and value is a group.
	Groups map[int64]Group `json:"groups"`
}

// GroupPostsResponse ...
type GroupPostsResponse struct {
	Group Group `json:"group"`
	ListPostsResponse
}

// ProfileResponse ...
type ProfileResponse struct {
	Author     User `json:"author"`
	PostsCount int  `json:"posts_count"`
	Following  bool `json:"following"`
	ListPostsResponse
}

// PostDetailResponse ...
type PostDetailResponse struct {
	Post             Post        `json:"post"`
	Group            *Group      `json:"group,omitempty"`
	Author           User        `json:"author"`
	AuthorPostsCount int         `json:"author_posts_count"`
	Comments         []Comment   `json:"comments"`
	Form             CommentForm `json:"form"`
}

// PostFormResponse is a context of post create and edit forms.
type PostFormResponse struct {
	Form   PostForm          `json:"form"`
	Errors map[string]string `json:"errors,omitempty"`
	IsEdit bool              `json:"is_edit"`
	Post   *Post             `json:"post,omitempty"`
	Groups []Group           `json:"groups"`
}

// PostForm ...
type PostForm struct {
	Text  string `json:"text"`
	Group *int64 `json:"group"`
}

// CommentForm ...
type CommentForm struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// LoginForm ...
type LoginForm struct {
	Username string `json:"username"`
	Next     string `json:"next"`
	Error    string `json:"error,omitempty"`
}

// SignUpForm ...
type SignUpForm struct {
	Username  string            `json:"username"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	Email     string            `json:"email"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// StaticPage ...
type StaticPage struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Post ...
type Post struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Author    string `json:"author"`
	GroupID   *int64 `json:"group_id"`
	Image     string `json:"image,omitempty"`
	CreatedAt uint64 `json:"created_at"`
}

// Group ...
type Group struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// User ...
type User struct {
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	RegisteredAt uint64 `json:"registered_at"`
}

// Comment ...
type Comment struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	CreatedAt uint64 `json:"created_at"`
}

func toAPIPage(p *feed.Page) Page {
	out := Page{
		Posts:       make([]Post, len(p.Posts)),
		Number:      p.Number,
		NumPages:    p.NumPages,
		Count:       p.Count,
		HasNext:     p.HasNext(),
		HasPrevious: p.HasPrevious(),
	}

	for i, v := range p.Posts {
		out.Posts[i] = *toAPIPost(v)
	}

	return out
}

func toAPIPost(p *entities.Post) *Post {
	if p == nil {
		return nil
	}

	return &Post{
		ID:        p.ID,
		Text:      p.Text,
		Author:    p.Author,
		GroupID:   p.GroupID,
		Image:     p.Image,
		CreatedAt: uint64(p.CreatedAt.Unix()),
	}
}

func toAPIGroup(g *entities.Group) *Group {
	if g == nil {
		return nil
	}

	return &Group{
		ID:          g.ID,
		Title:       g.Title,
		Slug:        g.Slug,
		Description: g.Description,
	}
}

func toAPIGroups(g []*entities.Group) []Group {
	out := make([]Group, len(g))
	for i, v := range g {
		out[i] = *toAPIGroup(v)
	}

	return out
}

func toAPIUser(u *entities.User) User {
	return User{
		Username:     u.Username,
		FullName:     u.FullName(),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		RegisteredAt: uint64(u.CreatedAt.Unix()),
	}
}

func toAPIComments(c []*entities.Comment) []Comment {
	out := make([]Comment, len(c))
	for i, v := range c {
		out[i] = Comment{
			ID:        v.ID,
			Author:    v.Author,
			Text:      v.Text,
			CreatedAt: uint64(v.CreatedAt.Unix()),
		}
	}

	return out
}

func toAPIPostForm(f service.PostForm) PostForm {
	return PostForm{
		Text:  f.Text,
		Group: f.GroupID,
	}
}

// extractGroupIDsFromPosts returns unique group ids of posts.
func extractGroupIDsFromPosts(p []*entities.Post) []int64 {
	out := make([]int64, 0, len(p))
	m := make(map[int64]struct{}, len(p))

	for _, v := range p {
		if v.GroupID == nil {
			continue
		}

		if _, ok := m[*v.GroupID]; !ok {
			out = append(out, *v.GroupID)
			m[*v.GroupID] = struct{}{}
		}
	}

	return out
}
