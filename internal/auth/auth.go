// Package auth identifies visitors by cookie session and manages accounts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/yatube-net/yatube/internal/entities"
	"github.com/yatube-net/yatube/internal/service"
	"github.com/yatube-net/yatube/internal/storage"
)

var log = logrus.WithField("layer", "auth").WithField("package", "auth")

// ErrInvalidCredentials is returned when username or password is wrong.
var ErrInvalidCredentials = errors.New("please enter a correct username and password")

const (
	sessionName = "yatube"
	usernameKey = "username"

	maxUsernameLength = 150
	minPasswordLength = 8
)

type ctxKey struct{}

// Options ...
type Options struct {
	Secret []byte
	// MaxAge of session cookie in seconds.
	MaxAge int
	Secure bool
}

// Authenticator ...
type Authenticator struct {
	s     storage.Storage
	store sessions.Store
}

// New creates new instance of Authenticator.
func New(s storage.Storage, opts Options) *Authenticator {
	store := sessions.NewCookieStore(opts.Secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   opts.MaxAge,
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Authenticator{
		s:     s,
		store: store,
	}
}

// SignUpForm ...
type SignUpForm struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
}

// SignUp creates a new account.
func (a *Authenticator) SignUp(ctx context.Context, f SignUpForm) (*entities.User, error) {
	username := strings.TrimSpace(f.Username)

	switch {
	case username == "":
		return nil, service.NewValidationError("username", "this field is required")
	case len(username) > maxUsernameLength || strings.ContainsAny(username, "/?#% \t"):
		return nil, service.NewValidationError("username", "enter a valid username")
	case len(f.Password) < minPasswordLength:
		return nil, service.NewValidationError("password", fmt.Sprintf("password must contain at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := entities.User{
		Username:     username,
		FirstName:    strings.TrimSpace(f.FirstName),
		LastName:     strings.TrimSpace(f.LastName),
		Email:        strings.TrimSpace(f.Email),
		PasswordHash: string(hash),
	}

	if err := a.s.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, service.NewValidationError("username", "a user with that username already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &u, nil
}

// Authenticate checks credentials.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*entities.User, error) {
	u, err := a.s.GetUser(ctx, username)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// Login binds the session to username.
func (a *Authenticator) Login(w http.ResponseWriter, r *http.Request, username string) error {
	// error means that existing cookie can not be decoded, new session is returned anyway
	session, _ := a.store.Get(r, sessionName)
	session.Values[usernameKey] = username

	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Logout drops the session.
func (a *Authenticator) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := a.store.Get(r, sessionName)
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1

	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Middleware puts actor of the request to context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := entities.Anonymous

		session, err := a.store.Get(r, sessionName)
		if err != nil {
			log.WithError(err).Debug("failed to decode session")
		} else if username, ok := session.Values[usernameKey].(string); ok {
			actor.Username = username
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// WithActor returns context with actor.
func WithActor(ctx context.Context, a entities.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// ActorFromContext returns actor from context or anonymous.
func ActorFromContext(ctx context.Context) entities.Actor {
	if a, ok := ctx.Value(ctxKey{}).(entities.Actor); ok {
		return a
	}

	return entities.Anonymous
}
