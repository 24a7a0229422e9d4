package cli

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalbistaa/threadline/internal/db"
	"github.com/sujalbistaa/threadline/internal/store"
	"github.com/sujalbistaa/threadline/internal/strategy"
)

func init() {
	color.NoColor = true
}

func localOpener(t *testing.T) (Opener, *store.PostStore) {
	t.Helper()
	doc, err := db.NewFileDocument(filepath.Join(t.TempDir(), "posts.json"))
	require.NoError(t, err)
	n := 0
	local := store.New(doc, nil, store.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}))
	open := func(context.Context) (*strategy.Strategy, func() error, error) {
		return strategy.New(nil, local, nil), nil, nil
	}
	return open, local
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd(open)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPostCommentReplyAndList(t *testing.T) {
	open, local := localOpener(t)

	out, err := run(t, open, "post", "Hello", "World")
	require.NoError(t, err)
	assert.Contains(t, out, "Created post id1 (local)")

	out, err = run(t, open, "comment", "id1", "Nice!")
	require.NoError(t, err)
	assert.Contains(t, out, "Added comment id2")

	_, err = run(t, open, "comment", "id1", "Thanks", "--parent", "id2", "--author", "ed")
	require.NoError(t, err)

	out, err = run(t, open, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "World")
	assert.Contains(t, out, "  Anon id2")
	assert.Contains(t, out, "    ed id3")
	assert.Contains(t, out, "2 comments")

	posts := local.ListPosts(context.Background())
	require.Len(t, posts, 1)
	require.Len(t, posts[0].Comments, 1)
	assert.Len(t, posts[0].Comments[0].Replies, 1)
}

func TestDeleteCommands(t *testing.T) {
	open, local := localOpener(t)
	_, err := run(t, open, "post", "Hello", "World")
	require.NoError(t, err)
	_, err = run(t, open, "comment", "id1", "Nice!")
	require.NoError(t, err)

	out, err := run(t, open, "rm-comment", "id1", "id2")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted comment")

	out, err = run(t, open, "rm-comment", "id1", "id2")
	require.NoError(t, err)
	assert.Contains(t, out, "No comment deleted")

	out, err = run(t, open, "rm", "id1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted post")
	assert.Empty(t, local.ListPosts(context.Background()))

	out, err = run(t, open, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No posts yet.")
}

func TestShowUnknownPost(t *testing.T) {
	open, _ := localOpener(t)

	_, err := run(t, open, "show", "nope")

	assert.Error(t, err)
}

func TestPostValidation(t *testing.T) {
	open, _ := localOpener(t)

	_, err := run(t, open, "post", " ", "World")

	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestClearRequiresConfirmation(t *testing.T) {
	open, local := localOpener(t)
	_, err := run(t, open, "post", "Hello", "World")
	require.NoError(t, err)

	_, err = run(t, open, "clear")
	require.Error(t, err)
	assert.Len(t, local.ListPosts(context.Background()), 1)

	_, err = run(t, open, "clear", "--yes")
	require.NoError(t, err)
	assert.Empty(t, local.ListPosts(context.Background()))
}
