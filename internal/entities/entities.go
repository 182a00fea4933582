// Package entities contains main entities of service.
package entities

import (
	"fmt"
	"time"
)

// ExcerptLength is a count of characters used in short labels of posts and comments.
const ExcerptLength = 15

// Actor is a visitor who performs a request. Zero value is an anonymous visitor.
type Actor struct {
	Username string
}

// Anonymous ...
var Anonymous = Actor{}

// IsAuthenticated returns true if actor has identity.
func (a Actor) IsAuthenticated() bool {
	return a.Username != ""
}

// Is returns true if actor is authenticated as username.
func (a Actor) Is(username string) bool {
	return a.IsAuthenticated() && a.Username == username
}

// User ...
type User struct {
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// FullName returns first and last name or username when both are empty.
func (u User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Username
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	default:
		return u.FirstName + " " + u.LastName
	}
}

func (u User) String() string {
	return u.Username
}

// Group is a community posts can be published to.
type Group struct {
	ID          int64
	Title       string
	Slug        string
	Description string
}

func (g Group) String() string {
	return g.Title
}

// Post ...
type Post struct {
	ID        int64
	Text      string
	CreatedAt time.Time
	Author    string
	GroupID   *int64
	Image     string
}

// String returns excerpt of post's text.
func (p Post) String() string {
	return excerpt(p.Text)
}

// InGroup returns true if post belongs to group with id.
func (p Post) InGroup(id int64) bool {
	return p.GroupID != nil && *p.GroupID == id
}

// Comment ...
type Comment struct {
	ID        int64
	PostID    int64
	Author    string
	Text      string
	CreatedAt time.Time
}

// String returns excerpt of comment's text.
func (c Comment) String() string {
	return excerpt(c.Text)
}

// Follow is a directed edge: User follows Author.
type Follow struct {
	User   string
	Author string
}

func (f Follow) String() string {
	return fmt.Sprintf("%s follows %s", f.User, f.Author)
}

// BannedWord is a lower-cased substring which is forbidden in comments.
type BannedWord string

func (w BannedWord) String() string {
	return string(w)
}

func excerpt(s string) string {
	r := []rune(s)
	if len(r) <= ExcerptLength {
		return s
	}

	return string(r[:ExcerptLength])
}
