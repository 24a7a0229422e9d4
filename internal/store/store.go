// Package store owns one backend's post collection. Every mutation loads the
// full document, applies a tree operation and writes the full document back.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sujalbistaa/threadline/internal/db"
	"github.com/sujalbistaa/threadline/internal/logging"
	"github.com/sujalbistaa/threadline/internal/models"
	"github.com/sujalbistaa/threadline/internal/tree"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrPostNotFound = errors.New("post not found")
)

// PostStore is the single source of truth for one document backend.
type PostStore struct {
	doc    db.Document
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	// serializes read-modify-write within this process
	mu sync.Mutex
}

type Option func(*PostStore)

// WithClock overrides the time source used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *PostStore) { s.now = now }
}

// WithIDGenerator overrides how post and comment ids are allocated.
func WithIDGenerator(newID func() string) Option {
	return func(s *PostStore) { s.newID = newID }
}

func New(doc db.Document, logger *zap.Logger, opts ...Option) *PostStore {
	s := &PostStore{
		doc:    doc,
		logger: logging.OrNop(logger),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListPosts returns a copy of every post in insertion order. A missing or
// unreadable document is reported as an empty collection.
func (s *PostStore) ListPosts(ctx context.Context) []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// GetPost returns a copy of the post with id.
func (s *PostStore) GetPost(ctx context.Context, id string) (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.load(ctx) {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}

func (s *PostStore) CreatePost(ctx context.Context, title, body string) (models.Post, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return models.Post{}, fmt.Errorf("%w: title and message required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.load(ctx)
	post := models.Post{
		ID:        s.newID(),
		CreatedAt: s.now().UnixMilli(),
		Title:     title,
		Body:      body,
		Comments:  []models.Comment{},
	}
	posts = append(posts, post)
	if err := s.persist(ctx, posts); err != nil {
		return models.Post{}, err
	}

	s.logger.Debug("post created", zap.String("post_id", post.ID))
	return post.Clone(), nil
}

// DeletePost removes the post with id and reports how many posts were
// removed. Deleting an unknown id is not an error.
func (s *PostStore) DeletePost(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.load(ctx)
	kept := posts[:0:0]
	for _, p := range posts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if err := s.persist(ctx, kept); err != nil {
		return 0, err
	}
	return len(posts) - len(kept), nil
}

// AddComment attaches a new comment to postID, under parentID or at the top
// level when parentID is empty. An unknown parentID is persisted as a no-op:
// the comment is returned but does not appear in the tree.
func (s *PostStore) AddComment(ctx context.Context, postID, body, parentID, author string) (models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return models.Comment{}, fmt.Errorf("%w: message required", ErrValidation)
	}
	author = strings.TrimSpace(author)
	if author == "" {
		author = models.AnonymousAuthor
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.load(ctx)
	post := findPost(posts, postID)
	if post == nil {
		return models.Comment{}, fmt.Errorf("%w: %s", ErrPostNotFound, postID)
	}

	comment := models.Comment{
		ID:        s.newID(),
		CreatedAt: s.now().UnixMilli(),
		Author:    author,
		Body:      body,
		Replies:   []models.Comment{},
	}
	if !tree.InsertUnder(&post.Comments, parentID, comment) {
		s.logger.Warn("parent comment not found, comment dropped",
			zap.String("post_id", postID), zap.String("parent_id", parentID))
	}
	if err := s.persist(ctx, posts); err != nil {
		return models.Comment{}, err
	}
	return comment.Clone(), nil
}

// DeleteComment removes a comment and its replies from postID. The count is
// 0 when either the post or the comment does not exist; a missing post is
// additionally reported as ErrPostNotFound.
func (s *PostStore) DeleteComment(ctx context.Context, postID, commentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.load(ctx)
	post := findPost(posts, postID)
	if post == nil {
		return 0, fmt.Errorf("%w: %s", ErrPostNotFound, postID)
	}

	deleted := 0
	if tree.Delete(&post.Comments, commentID) {
		deleted = 1
	}
	if err := s.persist(ctx, posts); err != nil {
		return 0, err
	}
	return deleted, nil
}

// Clear removes the whole collection.
func (s *PostStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.doc.Remove(ctx); err != nil {
		return fmt.Errorf("clear posts: %w", err)
	}
	return nil
}

func findPost(posts []models.Post, id string) *models.Post {
	for i := range posts {
		if posts[i].ID == id {
			return &posts[i]
		}
	}
	return nil
}

func (s *PostStore) load(ctx context.Context) []models.Post {
	data, err := s.doc.Load(ctx)
	if err != nil {
		if !errors.Is(err, db.ErrNoDocument) {
			s.logger.Warn("post document unreadable, treating as empty", zap.Error(err))
		}
		return []models.Post{}
	}

	var posts []models.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		s.logger.Warn("post document corrupt, treating as empty", zap.Error(err))
		return []models.Post{}
	}
	if posts == nil {
		posts = []models.Post{}
	}
	for i := range posts {
		posts[i].Normalize()
	}
	return posts
}

func (s *PostStore) persist(ctx context.Context, posts []models.Post) error {
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode posts: %w", err)
	}
	if err := s.doc.Save(ctx, data); err != nil {
		return fmt.Errorf("save posts: %w", err)
	}
	return nil
}
