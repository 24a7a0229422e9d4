package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalbistaa/threadline/internal/db"
	apphttp "github.com/sujalbistaa/threadline/internal/http"
	"github.com/sujalbistaa/threadline/internal/models"
	"github.com/sujalbistaa/threadline/internal/remote"
	"github.com/sujalbistaa/threadline/internal/store"
)

const adminToken = "s3cret"

func newLocal(t *testing.T) *store.PostStore {
	t.Helper()
	doc, err := db.NewFileDocument(filepath.Join(t.TempDir(), "local.json"))
	require.NoError(t, err)
	return store.New(doc, nil)
}

// newServer starts a real threadline API backed by its own store.
func newServer(t *testing.T) (*httptest.Server, *store.PostStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	doc, err := db.NewFileDocument(filepath.Join(t.TempDir(), "server.json"))
	require.NoError(t, err)
	serverStore := store.New(doc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	router := gin.New()
	apphttp.SetupRoutes(ctx, router, apphttp.Options{
		Store:          serverStore,
		AdminToken:     adminToken,
		CommentsPerMin: 1000,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, serverStore
}

func newRemote(t *testing.T, url, token string) *remote.Client {
	t.Helper()
	c, err := remote.NewClient(remote.Config{BaseURL: url, AdminToken: token, Timeout: time.Second}, nil)
	require.NoError(t, err)
	return c
}

// deadURL returns the address of a server that has already shut down.
func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()
	return url
}

func toMap(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestLocalOnlyWhenNoRemote(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	s := New(nil, local, nil)

	post, src, err := s.CreatePost(ctx, "Hello", "World")

	require.NoError(t, err)
	assert.Equal(t, SourceLocal, src)
	assert.False(t, s.RemoteConfigured())
	posts, src := s.ListPosts(ctx)
	assert.Equal(t, SourceLocal, src)
	require.Len(t, posts, 1)
	assert.Equal(t, post.ID, posts[0].ID)
}

func TestRemoteSuccessDoesNotTouchLocal(t *testing.T) {
	ctx := context.Background()
	srv, serverStore := newServer(t)
	local := newLocal(t)
	s := New(newRemote(t, srv.URL, adminToken), local, nil)

	post, src, err := s.CreatePost(ctx, "Hello", "World")
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, src)

	c, src, err := s.AddComment(ctx, post.ID, "Nice!", "", "")
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, src)
	_, _, err = s.AddComment(ctx, post.ID, "Thanks", c.ID, "")
	require.NoError(t, err)

	assert.Empty(t, local.ListPosts(ctx))
	onServer, ok := serverStore.GetPost(ctx, post.ID)
	require.True(t, ok)
	require.Len(t, onServer.Comments, 1)
	assert.Len(t, onServer.Comments[0].Replies, 1)

	posts, src := s.ListPosts(ctx)
	assert.Equal(t, SourceRemote, src)
	require.Len(t, posts, 1)
	assert.Equal(t, onServer, posts[0])

	n, src, err := s.DeleteComment(ctx, post.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, src)
	assert.Equal(t, 1, n)

	n, src, err = s.DeletePost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, src)
	assert.Equal(t, 1, n)
	assert.Empty(t, serverStore.ListPosts(ctx))
}

func TestUnreachableRemoteFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	s := New(newRemote(t, deadURL(t), adminToken), local, nil)

	post, src, err := s.CreatePost(ctx, "Hello", "World")
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, src)

	c, src, err := s.AddComment(ctx, post.ID, "Nice!", "", "")
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, src)

	reply, _, err := s.AddComment(ctx, post.ID, "Thanks", c.ID, "")
	require.NoError(t, err)

	posts, src := s.ListPosts(ctx)
	assert.Equal(t, SourceLocal, src)
	require.Len(t, posts, 1)
	require.Len(t, posts[0].Comments, 1)
	assert.Equal(t, reply.ID, posts[0].Comments[0].Replies[0].ID)

	n, src, err := s.DeleteComment(ctx, post.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, src)
	assert.Equal(t, 1, n)

	n, _, err = s.DeletePost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, local.ListPosts(ctx))
}

// The local fallback must hand back the same shape the server would.
func TestFallbackResultsMatchRemoteShape(t *testing.T) {
	ctx := context.Background()
	srv, _ := newServer(t)
	online := New(newRemote(t, srv.URL, adminToken), newLocal(t), nil)
	offline := New(newRemote(t, deadURL(t), adminToken), newLocal(t), nil)

	remotePost, _, err := online.CreatePost(ctx, "Hello", "World")
	require.NoError(t, err)
	localPost, _, err := offline.CreatePost(ctx, "Hello", "World")
	require.NoError(t, err)

	remoteComment, _, err := online.AddComment(ctx, remotePost.ID, "Nice!", "", "")
	require.NoError(t, err)
	localComment, _, err := offline.AddComment(ctx, localPost.ID, "Nice!", "", "")
	require.NoError(t, err)

	assert.Equal(t, keys(toMap(t, remotePost)), keys(toMap(t, localPost)))
	assert.Equal(t, keys(toMap(t, remoteComment)), keys(toMap(t, localComment)))

	remotePost.ID, localPost.ID = "", ""
	remotePost.CreatedAt, localPost.CreatedAt = 0, 0
	assert.Equal(t, remotePost, localPost)

	remoteComment.ID, localComment.ID = "", ""
	remoteComment.CreatedAt, localComment.CreatedAt = 0, 0
	assert.Equal(t, remoteComment, localComment)
}

func TestAuthorizationFailureIsNotDowngraded(t *testing.T) {
	ctx := context.Background()
	srv, _ := newServer(t)
	local := newLocal(t)
	s := New(newRemote(t, srv.URL, "wrong"), local, nil)

	_, src, err := s.CreatePost(ctx, "Hello", "World")

	assert.ErrorIs(t, err, remote.ErrUnauthorized)
	assert.Equal(t, SourceRemote, src)
	assert.Empty(t, local.ListPosts(ctx))

	_, _, err = s.DeletePost(ctx, "anything")
	assert.ErrorIs(t, err, remote.ErrUnauthorized)
}

func TestRemoteNotFoundFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	srv, _ := newServer(t)
	local := newLocal(t)
	localPost, err := local.CreatePost(ctx, "offline", "post")
	require.NoError(t, err)
	s := New(newRemote(t, srv.URL, adminToken), local, nil)

	c, src, err := s.AddComment(ctx, localPost.ID, "hi", "", "")

	require.NoError(t, err)
	assert.Equal(t, SourceLocal, src)
	got, _ := local.GetPost(ctx, localPost.ID)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, c.ID, got.Comments[0].ID)
}

func TestValidationHappensBeforeRemote(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRemote{}
	s := New(fake, newLocal(t), nil)

	_, _, err := s.CreatePost(ctx, " ", "body")
	assert.ErrorIs(t, err, store.ErrValidation)
	_, _, err = s.AddComment(ctx, "p", "", "", "")
	assert.ErrorIs(t, err, store.ErrValidation)

	assert.Zero(t, fake.calls)
}

func TestAddCommentToMissingPostEverywhere(t *testing.T) {
	ctx := context.Background()
	s := New(newRemote(t, deadURL(t), adminToken), newLocal(t), nil)

	_, _, err := s.AddComment(ctx, "nope", "hi", "", "")

	assert.ErrorIs(t, err, store.ErrPostNotFound)
}

func TestDeleteCommentOnMissingLocalPostIsNoop(t *testing.T) {
	s := New(nil, newLocal(t), nil)

	n, src, err := s.DeleteComment(context.Background(), "nope", "c")

	require.NoError(t, err)
	assert.Equal(t, SourceLocal, src)
	assert.Equal(t, 0, n)
}

func TestClearAllOnlyTouchesLocal(t *testing.T) {
	ctx := context.Background()
	srv, serverStore := newServer(t)
	_, err := serverStore.CreatePost(ctx, "server", "post")
	require.NoError(t, err)
	local := newLocal(t)
	_, err = local.CreatePost(ctx, "local", "post")
	require.NoError(t, err)
	s := New(newRemote(t, srv.URL, adminToken), local, nil)

	require.NoError(t, s.ClearAll(ctx))

	assert.Empty(t, local.ListPosts(ctx))
	assert.Len(t, serverStore.ListPosts(ctx), 1)
}

func TestShouldFallback(t *testing.T) {
	assert.False(t, ShouldFallback(nil))
	assert.False(t, ShouldFallback(fmt.Errorf("%w: x", remote.ErrBadRequest)))
	assert.False(t, ShouldFallback(fmt.Errorf("%w: x", remote.ErrUnauthorized)))
	assert.True(t, ShouldFallback(fmt.Errorf("%w: x", remote.ErrNotFound)))
	assert.True(t, ShouldFallback(fmt.Errorf("%w: x", remote.ErrUnavailable)))
}

type fakeRemote struct {
	calls int
}

func (f *fakeRemote) ListPosts(context.Context) ([]models.Post, error) {
	f.calls++
	return nil, remote.ErrUnavailable
}

func (f *fakeRemote) CreatePost(context.Context, string, string) (models.Post, error) {
	f.calls++
	return models.Post{}, remote.ErrUnavailable
}

func (f *fakeRemote) DeletePost(context.Context, string) (int, error) {
	f.calls++
	return 0, remote.ErrUnavailable
}

func (f *fakeRemote) AddComment(context.Context, string, string, string, string) (models.Comment, error) {
	f.calls++
	return models.Comment{}, remote.ErrUnavailable
}

func (f *fakeRemote) DeleteComment(context.Context, string, string) (int, error) {
	f.calls++
	return 0, remote.ErrUnavailable
}
