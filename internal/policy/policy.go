// Package policy decides who can create, edit and comment posts and who can follow authors.
package policy

import (
	"errors"

	"github.com/yatube-net/yatube/internal/entities"
)

// ErrUnauthenticated is returned when an action requires an authenticated actor.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrForbidden is returned when an authenticated actor is not allowed to perform an action.
var ErrForbidden = errors.New("forbidden")

// Decision is an outcome of authorization check.
type Decision int

const (
	// Allow ...
	Allow Decision = iota
	// RedirectToLogin means actor should log in and return to the requested path.
	RedirectToLogin
	// RedirectToDetail means actor should be silently sent to the post's detail page.
	RedirectToDetail
)

// Err converts decision to error. Allow converts to nil.
func (d Decision) Err() error {
	switch d {
	case RedirectToLogin:
		return ErrUnauthenticated
	case RedirectToDetail:
		return ErrForbidden
	default:
		return nil
	}
}

// CanCreatePost ...
func CanCreatePost(a entities.Actor) bool {
	return a.IsAuthenticated()
}

// CanEdit returns true if actor is the post's author.
func CanEdit(a entities.Actor, p *entities.Post) bool {
	return p != nil && a.Is(p.Author)
}

// CanComment ...
func CanComment(a entities.Actor) bool {
	return a.IsAuthenticated()
}

// CanFollow returns true if actor is authenticated and target is someone else.
func CanFollow(a entities.Actor, author string) bool {
	return a.IsAuthenticated() && a.Username != author
}

// CanViewFollowFeed ...
func CanViewFollowFeed(a entities.Actor) bool {
	return a.IsAuthenticated()
}

// Authenticated returns decision for actions which only require identity.
func Authenticated(a entities.Actor) Decision {
	if !a.IsAuthenticated() {
		return RedirectToLogin
	}

	return Allow
}

// Edit returns decision for editing the post.
func Edit(a entities.Actor, p *entities.Post) Decision {
	switch {
	case !a.IsAuthenticated():
		return RedirectToLogin
	case !CanEdit(a, p):
		return RedirectToDetail
	default:
		return Allow
	}
}
