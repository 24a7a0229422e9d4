package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sujalbistaa/threadline/internal/models"
	"github.com/sujalbistaa/threadline/internal/strategy"
	"github.com/sujalbistaa/threadline/internal/tree"
)

var (
	titleColor  = color.New(color.Bold)
	mutedColor  = color.New(color.FgHiBlack)
	authorColor = color.New(color.FgCyan, color.Bold)
	idColor     = color.New(color.FgYellow)
)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List posts with their comment trees, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, src := a.strategy.ListPosts(cmd.Context())
			if len(posts) == 0 {
				fmt.Fprintln(a.out, "No posts yet.")
				return nil
			}
			for i := len(posts) - 1; i >= 0; i-- {
				renderPost(a.out, posts[i])
			}
			mutedColor.Fprintf(a.out, "(%d posts from %s store)\n", len(posts), src)
			return nil
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <post-id>",
		Short: "Show a single post and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, _ := a.strategy.ListPosts(cmd.Context())
			for _, p := range posts {
				if p.ID == args[0] {
					renderPost(a.out, p)
					return nil
				}
			}
			return fmt.Errorf("post %s not found", args[0])
		},
	}
}

func (a *app) postCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post <title> <message>",
		Short: "Create a post",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, src, err := a.strategy.CreatePost(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created post %s (%s)\n", idColor.Sprint(post.ID), src)
			return nil
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <post-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a post and all its comments",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, src, err := a.strategy.DeletePost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			reportDelete(a.out, "post", n, src)
			return nil
		},
	}
}

func (a *app) commentCmd() *cobra.Command {
	var parentID, author string
	cmd := &cobra.Command{
		Use:   "comment <post-id> <message>",
		Short: "Comment on a post, or reply to a comment with --parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, src, err := a.strategy.AddComment(cmd.Context(), args[0], args[1], parentID, author)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added comment %s (%s)\n", idColor.Sprint(c.ID), src)
			return nil
		},
	}
	cmd.Flags().StringVarP(&parentID, "parent", "p", "", "id of the comment to reply to")
	cmd.Flags().StringVarP(&author, "author", "a", "", "author name (default \"Anon\")")
	return cmd
}

func (a *app) rmCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm-comment <post-id> <comment-id>",
		Short: "Delete a comment and all its replies",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, src, err := a.strategy.DeleteComment(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			reportDelete(a.out, "comment", n, src)
			return nil
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every post in the local cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			if err := a.strategy.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Local posts cleared.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm clearing all local posts")
	return cmd
}

func reportDelete(w io.Writer, what string, n int, src strategy.Source) {
	if n == 0 {
		fmt.Fprintf(w, "No %s deleted (%s)\n", what, src)
		return
	}
	fmt.Fprintf(w, "Deleted %s (%s)\n", what, src)
}

func renderPost(w io.Writer, p models.Post) {
	titleColor.Fprint(w, p.Title)
	fmt.Fprintf(w, "  %s %s\n", idColor.Sprint(p.ID), mutedColor.Sprint(formatTS(p.CreatedAt)))
	fmt.Fprintln(w, p.Body)
	tree.Walk(p.Comments, func(c models.Comment, depth int) {
		indent := strings.Repeat("  ", depth+1)
		fmt.Fprintf(w, "%s%s %s %s\n", indent,
			authorColor.Sprint(c.Author), idColor.Sprint(c.ID), mutedColor.Sprint(formatTS(c.CreatedAt)))
		for _, line := range strings.Split(c.Body, "\n") {
			fmt.Fprintf(w, "%s  %s\n", indent, line)
		}
	})
	if n := tree.Count(p.Comments); n > 0 {
		mutedColor.Fprintf(w, "  %d comments\n", n)
	}
	fmt.Fprintln(w)
}

func formatTS(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}
