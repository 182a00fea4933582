package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/sirupsen/logrus"

	"github.com/yatube-net/yatube/internal/auth"
	"github.com/yatube-net/yatube/internal/feed"
	"github.com/yatube-net/yatube/internal/policy"
	"github.com/yatube-net/yatube/internal/service"
	"github.com/yatube-net/yatube/internal/storage"
)

var log = logrus.WithField("layer", "server").WithField("package", "server")

// maxMemory is a part of multipart form kept in memory, the rest goes to temporary files.
const maxMemory = 1 << 20

func (s server) index(w http.ResponseWriter, r *http.Request) {
	page, err := s.s.Index(r.Context(), pageNumber(r))
	if err != nil {
		writeInternalErrorf(r.Context(), w, "failed to get index: %s", err.Error())
		return
	}

	resp, err := s.newListPostsResponse(r.Context(), page)
	if err != nil {
		writeInternalErrorf(r.Context(), w, "%s", err.Error())
		return
	}

	writeOK(w, http.StatusOK, resp)
}

func (s server) groupPosts(w http.ResponseWriter, r *http.Request) {
	g, page, err := s.s.GroupPosts(r.Context(), chi.URLParam(r, "slug"), pageNumber(r))
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		writeInternalErrorf(r.Context(), w, "failed to get group posts: %s", err.Error())
		return
	}

	resp, err := s.newListPostsResponse(r.Context(), page)
	if err != nil {
		writeInternalErrorf(r.Context(), w, "%s", err.Error())
		return
	}

	writeOK(w, http.StatusOK, GroupPostsResponse{
		Group:             *toAPIGroup(g),
		ListPostsResponse: resp,
	})
}

func (s server) profile(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())

	p, err := s.s.Profile(r.Context(), actor, chi.URLParam(r, "username"), pageNumber(r))
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		writeInternalErrorf(r.Context(), w, "failed to get profile: %s", err.Error())
		return
	}

	resp, err := s.newListPostsResponse(r.Context(), p.Page)
	if err != nil {
		writeInternalErrorf(r.Context(), w, "%s", err.Error())
		return
	}

	writeOK(w, http.StatusOK, ProfileResponse{
		Author:            toAPIUser(p.Author),
		PostsCount:        p.Page.Count,
		Following:         p.Following,
		ListPostsResponse: resp,
	})
}

func (s server) followIndex(w http.ResponseWriter, r *http.Request) {
	page, err := s.s.FollowIndex(r.Context(), auth.ActorFromContext(r.Context()), pageNumber(r))
	if err != nil {
		if errors.Is(err, policy.ErrUnauthenticated) {
			redirectToLogin(w, r)
			return
		}
		writeInternalErrorf(r.Context(), w, "failed to get follow index: %s", err.Error())
		return
	}

	resp, err := s.newListPostsResponse(r.Context(), page)
	if err != nil {
		writeInternalErrorf(r.Context(), w, "%s", err.Error())
		return
	}

	writeOK(w, http.StatusOK, resp)
}

func (s server) postDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	d, err := s.s.GetPost(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeInternalErrorf(r.Context(), w, "failed to get post: %s", err.Error())
		return
	}

	resp := PostDetailResponse{
		Post:             *toAPIPost(d.Post),
		Group:            toAPIGroup(d.Group),
		Author:           toAPIUser(d.Author),
		AuthorPostsCount: d.AuthorPostsCount,
		Comments:         toAPIComments(d.Comments),
	}

	// a rejected comment comes back in the query
	if q := r.URL.Query(); q.Has("text") {
		resp.Form.Text = q.Get("text")

		if _, err := s.s.ValidateComment(r.Context(), resp.Form.Text); err != nil {
			var v *service.ValidationError
			if !errors.As(err, &v) {
				writeInternalErrorf(r.Context(), w, "failed to validate comment: %s", err.Error())
				return
			}
			resp.Form.Error = v.Message
		}
	}

	writeOK(w, http.StatusOK, resp)
}

func (s server) getCreatePost(w http.ResponseWriter, r *http.Request) {
	if !policy.CanCreatePost(auth.ActorFromContext(r.Context())) {
		redirectToLogin(w, r)
		return
	}

	s.writePostForm(w, r, http.StatusOK, PostFormResponse{})
}

func (s server) createPost(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if !policy.CanCreatePost(actor) {
		redirectToLogin(w, r)
		return
	}

	f, err := parsePostForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer closeUpload(f)

	p, err := s.s.CreatePost(r.Context(), actor, f)
	if err != nil {
		switch {
		case errors.Is(err, policy.ErrUnauthenticated):
			redirectToLogin(w, r)
		case service.IsValidationError(err):
			s.writePostForm(w, r, http.StatusBadRequest, PostFormResponse{
				Form:   toAPIPostForm(f),
				Errors: validationErrors(err),
			})
		default:
			writeInternalErrorf(r.Context(), w, "failed to create post: %s", err.Error())
		}
		return
	}

	http.Redirect(w, r, profileURL(p.Author), http.StatusFound)
}

func (s server) getEditPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	p, err := s.s.GetPostForEdit(r.Context(), auth.ActorFromContext(r.Context()), id)
	if err != nil {
		s.writePostError(w, r, id, err)
		return
	}

	s.writePostForm(w, r, http.StatusOK, PostFormResponse{
		Form:   PostForm{Text: p.Text, Group: p.GroupID},
		IsEdit: true,
		Post:   toAPIPost(p),
	})
}

func (s server) editPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	actor := auth.ActorFromContext(r.Context())

	// access is checked before the body is read
	p, err := s.s.GetPostForEdit(r.Context(), actor, id)
	if err != nil {
		s.writePostError(w, r, id, err)
		return
	}

	f, err := parsePostForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer closeUpload(f)

	if _, err := s.s.EditPost(r.Context(), actor, id, f); err != nil {
		if service.IsValidationError(err) {
			s.writePostForm(w, r, http.StatusBadRequest, PostFormResponse{
				Form:   toAPIPostForm(f),
				Errors: validationErrors(err),
				IsEdit: true,
				Post:   toAPIPost(p),
			})
			return
		}
		s.writePostError(w, r, id, err)
		return
	}

	http.Redirect(w, r, postURL(id), http.StatusFound)
}

func (s server) addComment(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	text := r.PostFormValue("text")

	if _, err := s.s.AddComment(r.Context(), auth.ActorFromContext(r.Context()), id, text); err != nil {
		switch {
		case errors.Is(err, policy.ErrUnauthenticated):
			redirectToLogin(w, r)
		case storage.IsNotFound(err):
			writeError(w, http.StatusNotFound, "post not found")
		case service.IsValidationError(err):
			http.Redirect(w, r, postURL(id)+"?"+url.Values{"text": {text}}.Encode(), http.StatusFound)
		default:
			writeInternalErrorf(r.Context(), w, "failed to add comment: %s", err.Error())
		}
		return
	}

	http.Redirect(w, r, postURL(id), http.StatusFound)
}

func (s server) follow(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := s.s.Follow(r.Context(), auth.ActorFromContext(r.Context()), username); err != nil {
		s.writeFollowError(w, r, err)
		return
	}

	http.Redirect(w, r, profileURL(username), http.StatusFound)
}

func (s server) unfollow(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := s.s.Unfollow(r.Context(), auth.ActorFromContext(r.Context()), username); err != nil {
		s.writeFollowError(w, r, err)
		return
	}

	http.Redirect(w, r, profileURL(username), http.StatusFound)
}

func (s server) notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "page not found")
}

func (s server) newListPostsResponse(ctx context.Context, p *feed.Page) (ListPostsResponse, error) {
	out := ListPostsResponse{
		Page:   toAPIPage(p),
		Groups: map[int64]Group{},
	}

	ids := extractGroupIDsFromPosts(p.Posts)
	if len(ids) == 0 {
		return out, nil
	}

	groups, err := s.s.Groups(ctx, ids...)
	if err != nil {
		return out, fmt.Errorf("failed to get groups: %w", err)
	}

	for _, v := range groups {
		out.Groups[v.ID] = *toAPIGroup(v)
	}

	return out, nil
}

func (s server) writePostForm(w http.ResponseWriter, r *http.Request, status int, resp PostFormResponse) {
	groups, err := s.s.Groups(r.Context())
	if err != nil {
		writeInternalErrorf(r.Context(), w, "failed to get groups: %s", err.Error())
		return
	}
	resp.Groups = toAPIGroups(groups)

	writeOK(w, status, resp)
}

func (s server) writePostError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	switch {
	case errors.Is(err, policy.ErrUnauthenticated):
		redirectToLogin(w, r)
	case errors.Is(err, policy.ErrForbidden):
		http.Redirect(w, r, postURL(id), http.StatusFound)
	case storage.IsNotFound(err):
		writeError(w, http.StatusNotFound, "post not found")
	default:
		writeInternalErrorf(r.Context(), w, "failed to edit post: %s", err.Error())
	}
}

func (s server) writeFollowError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, policy.ErrUnauthenticated):
		redirectToLogin(w, r)
	case storage.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeInternalErrorf(r.Context(), w, "failed to change follow: %s", err.Error())
	}
}

// parsePostForm reads both multipart and urlencoded forms.
func parsePostForm(r *http.Request) (service.PostForm, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return service.PostForm{}, fmt.Errorf("invalid form: %w", err)
	}

	f := service.PostForm{
		Text: r.PostFormValue("text"),
	}

	if v := r.PostFormValue("group"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return service.PostForm{}, errors.New("invalid group")
		}
		f.GroupID = &id
	}

	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["image"]; len(files) > 0 {
			file, err := files[0].Open()
			if err != nil {
				return service.PostForm{}, fmt.Errorf("failed to open image: %w", err)
			}
			f.Image = &service.Upload{
				Filename: files[0].Filename,
				Body:     file,
			}
		}
	}

	return f, nil
}

func closeUpload(f service.PostForm) {
	if f.Image == nil {
		return
	}

	if c, ok := f.Image.Body.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.WithError(err).Debug("failed to close upload")
		}
	}
}

func validationErrors(err error) map[string]string {
	var v *service.ValidationError
	if !errors.As(err, &v) {
		return nil
	}

	return map[string]string{v.Field: v.Message}
}

// pageNumber returns requested page, non-numeric values fall back to the first page.
func pageNumber(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}

	return n
}

func postID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func postURL(id int64) string {
	return fmt.Sprintf("/posts/%d/", id)
}

func profileURL(username string) string {
	return fmt.Sprintf("/profile/%s/", url.PathEscape(username))
}

// loginURL keeps slashes of next unescaped.
func loginURL(next string) string {
	return "/auth/login/?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, loginURL(r.URL.RequestURI()), http.StatusFound)
}

func writeOK(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Error("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(data); err != nil {
		log.WithError(err).Debug("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeOK(w, status, Error{Error: message})
}

func writeInternalErrorf(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	log.WithField("request_id", middleware.GetReqID(ctx)).Errorf(format, args...)

	writeError(w, http.StatusInternalServerError, "internal error")
}
