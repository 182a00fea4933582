package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/yatube-net/yatube/internal/auth"
	"github.com/yatube-net/yatube/internal/service"
)

func (s server) getLogin(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, LoginForm{
		Next: r.URL.Query().Get("next"),
	})
}

func (s server) login(w http.ResponseWriter, r *http.Request) {
	username, password := r.PostFormValue("username"), r.PostFormValue("password")

	next := r.PostFormValue("next")
	if next == "" {
		next = r.URL.Query().Get("next")
	}

	u, err := s.a.Authenticate(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeOK(w, http.StatusBadRequest, LoginForm{
				Username: username,
				Next:     next,
				Error:    err.Error(),
			})
			return
		}
		writeInternalErrorf(r.Context(), w, "failed to authenticate: %s", err.Error())
		return
	}

	if err := s.a.Login(w, r, u.Username); err != nil {
		writeInternalErrorf(r.Context(), w, "failed to login: %s", err.Error())
		return
	}

	log.WithField("username", u.Username).Debug("logged in")

	http.Redirect(w, r, safeNext(next), http.StatusFound)
}

func (s server) getSignUp(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, SignUpForm{})
}

func (s server) signUp(w http.ResponseWriter, r *http.Request) {
	f := auth.SignUpForm{
		Username:  r.PostFormValue("username"),
		Password:  r.PostFormValue("password"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Email:     r.PostFormValue("email"),
	}

	u, err := s.a.SignUp(r.Context(), f)
	if err != nil {
		if service.IsValidationError(err) {
			writeOK(w, http.StatusBadRequest, SignUpForm{
				Username:  f.Username,
				FirstName: f.FirstName,
				LastName:  f.LastName,
				Email:     f.Email,
				Errors:    validationErrors(err),
			})
			return
		}
		writeInternalErrorf(r.Context(), w, "failed to sign up: %s", err.Error())
		return
	}

	if err := s.a.Login(w, r, u.Username); err != nil {
		writeInternalErrorf(r.Context(), w, "failed to login: %s", err.Error())
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.a.Logout(w, r); err != nil {
		writeInternalErrorf(r.Context(), w, "failed to logout: %s", err.Error())
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s server) aboutAuthor(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, StaticPage{
		Title: "About the author",
		Text:  "Yatube is written and maintained by its contributors.",
	})
}

func (s server) aboutTech(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, StaticPage{
		Title: "Technologies",
		Text:  "Go, chi, PostgreSQL and S3 compatible storage for images.",
	})
}

// safeNext returns next if it is a path on this site, otherwise the index.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}

	return next
}
