// Package cli is the command line front end. Every command goes through the
// sync strategy, so it works against the remote server when one is
// configured and reachable, and against the local cache otherwise.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sujalbistaa/threadline/internal/config"
	"github.com/sujalbistaa/threadline/internal/db"
	"github.com/sujalbistaa/threadline/internal/logging"
	"github.com/sujalbistaa/threadline/internal/remote"
	"github.com/sujalbistaa/threadline/internal/store"
	"github.com/sujalbistaa/threadline/internal/strategy"
)

// Opener builds the strategy used by commands. The returned func releases
// whatever the strategy holds open.
type Opener func(ctx context.Context) (*strategy.Strategy, func() error, error)

type app struct {
	open     Opener
	strategy *strategy.Strategy
	closer   func() error
	out      io.Writer
}

// NewRootCmd returns the threadline command tree. A nil open uses the
// environment configuration.
func NewRootCmd(open Opener) *cobra.Command {
	if open == nil {
		open = OpenFromEnv
	}
	a := &app{open: open}

	root := &cobra.Command{
		Use:           "threadline",
		Short:         "Read and write posts and threaded comments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, closer, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			a.strategy, a.closer, a.out = s, closer, cmd.OutOrStdout()
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closer != nil {
				return a.closer()
			}
			return nil
		},
	}

	root.AddCommand(
		a.listCmd(),
		a.showCmd(),
		a.postCmd(),
		a.rmCmd(),
		a.commentCmd(),
		a.rmCommentCmd(),
		a.clearCmd(),
	)
	return root
}

// Execute runs the CLI with os.Args.
func Execute() {
	config.LoadDotEnv()
	root := NewRootCmd(nil)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// OpenFromEnv builds a strategy from config.LoadClient.
func OpenFromEnv(ctx context.Context) (*strategy.Strategy, func() error, error) {
	cfg := config.LoadClient()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Logging.Environment, cfg.Logging.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	doc, err := db.Open(cfg.LocalURL, config.ClientDocumentKey, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open local store: %w", err)
	}
	local := store.New(doc, logger.Named("local"))

	var r strategy.Remote
	if cfg.RemoteConfigured() {
		client, err := remote.NewClient(remote.Config{
			BaseURL:    cfg.RemoteURL,
			AdminToken: cfg.AdminToken,
			Timeout:    cfg.Timeout,
		}, logger.Named("remote"))
		if err != nil {
			doc.Close()
			return nil, nil, err
		}
		r = client
	}

	closer := func() error {
		_ = logger.Sync()
		return doc.Close()
	}
	logger.Debug("client ready", zap.Bool("remote", cfg.RemoteConfigured()))
	return strategy.New(r, local, logger.Named("strategy")), closer, nil
}
