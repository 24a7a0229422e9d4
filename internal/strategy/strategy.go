// Package strategy decides, per operation, whether a client talks to the
// remote store or its local one. Remote is preferred; availability failures
// fall back to local. The two stores are never merged.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sujalbistaa/threadline/internal/logging"
	"github.com/sujalbistaa/threadline/internal/models"
	"github.com/sujalbistaa/threadline/internal/remote"
	"github.com/sujalbistaa/threadline/internal/store"
)

// Remote is the subset of the API client the strategy needs.
type Remote interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	CreatePost(ctx context.Context, title, body string) (models.Post, error)
	DeletePost(ctx context.Context, id string) (int, error)
	AddComment(ctx context.Context, postID, body, parentID, author string) (models.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID string) (int, error)
}

var _ Remote = (*remote.Client)(nil)

// Source says which store served a call.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Strategy routes operations between an optional remote and a local store.
type Strategy struct {
	remote Remote
	local  *store.PostStore
	logger *zap.Logger
}

// New builds a Strategy. A nil remote means every call goes to local.
func New(r Remote, local *store.PostStore, logger *zap.Logger) *Strategy {
	return &Strategy{remote: r, local: local, logger: logging.OrNop(logger)}
}

// RemoteConfigured reports whether calls attempt the remote first.
func (s *Strategy) RemoteConfigured() bool {
	return s.remote != nil
}

// ShouldFallback reports whether err from the remote should be absorbed by
// retrying against local. Rejected input and refused credentials are the
// caller's to fix and are returned as-is.
func ShouldFallback(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, remote.ErrBadRequest) || errors.Is(err, remote.ErrUnauthorized) {
		return false
	}
	return true
}

func (s *Strategy) ListPosts(ctx context.Context) ([]models.Post, Source) {
	if s.remote != nil {
		posts, err := s.remote.ListPosts(ctx)
		if err == nil {
			return posts, SourceRemote
		}
		s.logFallback("list posts", err)
	}
	return s.local.ListPosts(ctx), SourceLocal
}

func (s *Strategy) CreatePost(ctx context.Context, title, body string) (models.Post, Source, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return models.Post{}, "", fmt.Errorf("%w: title and message required", store.ErrValidation)
	}

	if s.remote != nil {
		post, err := s.remote.CreatePost(ctx, title, body)
		if err == nil {
			return post, SourceRemote, nil
		}
		if !ShouldFallback(err) {
			return models.Post{}, SourceRemote, err
		}
		s.logFallback("create post", err)
	}
	post, err := s.local.CreatePost(ctx, title, body)
	return post, SourceLocal, err
}

func (s *Strategy) DeletePost(ctx context.Context, id string) (int, Source, error) {
	if s.remote != nil {
		n, err := s.remote.DeletePost(ctx, id)
		if err == nil {
			return n, SourceRemote, nil
		}
		if !ShouldFallback(err) {
			return 0, SourceRemote, err
		}
		s.logFallback("delete post", err)
	}
	n, err := s.local.DeletePost(ctx, id)
	return n, SourceLocal, err
}

func (s *Strategy) AddComment(ctx context.Context, postID, body, parentID, author string) (models.Comment, Source, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return models.Comment{}, "", fmt.Errorf("%w: message required", store.ErrValidation)
	}

	if s.remote != nil {
		c, err := s.remote.AddComment(ctx, postID, body, parentID, author)
		if err == nil {
			return c, SourceRemote, nil
		}
		if !ShouldFallback(err) {
			return models.Comment{}, SourceRemote, err
		}
		s.logFallback("add comment", err)
	}
	c, err := s.local.AddComment(ctx, postID, body, parentID, author)
	return c, SourceLocal, err
}

func (s *Strategy) DeleteComment(ctx context.Context, postID, commentID string) (int, Source, error) {
	if s.remote != nil {
		n, err := s.remote.DeleteComment(ctx, postID, commentID)
		if err == nil {
			return n, SourceRemote, nil
		}
		if !ShouldFallback(err) {
			return 0, SourceRemote, err
		}
		s.logFallback("delete comment", err)
	}
	n, err := s.local.DeleteComment(ctx, postID, commentID)
	if errors.Is(err, store.ErrPostNotFound) {
		// deletes are idempotent from the caller's point of view
		return 0, SourceLocal, nil
	}
	return n, SourceLocal, err
}

// ClearAll empties the local store. The remote has no bulk delete, so this
// never leaves the machine.
func (s *Strategy) ClearAll(ctx context.Context) error {
	return s.local.Clear(ctx)
}

func (s *Strategy) logFallback(op string, err error) {
	s.logger.Warn("remote store failed, using local store", zap.String("op", op), zap.Error(err))
}
