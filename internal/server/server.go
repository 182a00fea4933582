// Package server Yatube
//
// The Yatube is a blog where users publish posts to groups, comment them and follow authors.
// Pages are served as JSON contexts; mutating forms answer with redirects.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/yatube-net/yatube/internal/auth"
	mm "github.com/yatube-net/yatube/internal/middleware"
	"github.com/yatube-net/yatube/internal/service"
)

// maxBodySize fits a post form with an image.
const maxBodySize = 10 << 20

// Options ...
type Options struct {
	Timeout time.Duration
	// IndexCacheTTL is a lifetime of cached index pages.
	IndexCacheTTL time.Duration
	// Media serves uploaded images under /media/. Nil disables the route.
	Media http.Handler
}

type server struct {
	s service.Service
	a *auth.Authenticator
}

// SetupRouter setups handlers to chi router.
func SetupRouter(s service.Service, a *auth.Authenticator, r chi.Router, opts Options) {
	r.Use(
		middleware.RequestID,
		mm.Logger,
		middleware.Recoverer,
		middleware.Timeout(opts.Timeout),
		mm.BodyLimiter(maxBodySize),
		a.Middleware,
	)

	srv := server{
		s: s,
		a: a,
	}

	r.NotFound(srv.notFound)

	r.Get("/", mm.Cached(opts.IndexCacheTTL, srv.index))
	r.Get("/group/{slug}/", srv.groupPosts)
	r.Get("/follow/", srv.followIndex)

	r.Route("/profile/{username}", func(r chi.Router) {
		r.Get("/", srv.profile)
		r.Get("/follow/", srv.follow)
		r.Post("/follow/", srv.follow)
		r.Get("/unfollow/", srv.unfollow)
		r.Post("/unfollow/", srv.unfollow)
	})

	r.Get("/create/", srv.getCreatePost)
	r.Post("/create/", srv.createPost)

	r.Route("/posts/{id}", func(r chi.Router) {
		r.Get("/", srv.postDetail)
		r.Get("/edit/", srv.getEditPost)
		r.Post("/edit/", srv.editPost)
		r.Post("/comment/", srv.addComment)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login/", srv.getLogin)
		r.Post("/login/", srv.login)
		r.Get("/signup/", srv.getSignUp)
		r.Post("/signup/", srv.signUp)
		r.Get("/logout/", srv.logout)
		r.Post("/logout/", srv.logout)
	})

	r.Get("/about/author/", srv.aboutAuthor)
	r.Get("/about/tech/", srv.aboutTech)

	if opts.Media != nil {
		r.Get("/media/*", http.StripPrefix("/media/", opts.Media).ServeHTTP)
	}
}
