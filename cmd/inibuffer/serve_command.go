package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sardine-ai/go-remote-ini/server"
	"github.com/sardine-ai/go-remote-ini/source"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const authKeyEnv = "INIBUFFER_AUTH_KEY"

type serveOptions struct {
	addr            string
	authKey         string
	refreshInterval time.Duration
}

func newServeCommand(ctx *commandContext) *cobra.Command {
	var repoFlags []string
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve repositories over HTTP",
		Long: "Serve one or more repositories over HTTP. Each --repo takes name=uri. " +
			"Without --repo the --source or --file configuration is served as \"config\".",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := ctx.repositories(repoFlags)
			if err != nil {
				return err
			}
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServe(signalCtx, repos, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&opts.authKey, "auth-key", os.Getenv(authKeyEnv), "API key required in X-API-KEY (default $"+authKeyEnv+")")
	cmd.Flags().DurationVar(&opts.refreshInterval, "refresh", 30*time.Second, "Refresh interval")
	cmd.Flags().StringArrayVar(&repoFlags, "repo", nil, "Repository to serve as name=uri (repeatable)")
	return cmd
}

// repositories builds the repositories named by name=uri flags, or a single
// "config" repository from --source or --file.
func (c *commandContext) repositories(flags []string) ([]source.Repository, error) {
	if len(flags) == 0 {
		uri := c.sourceURI()
		if uri == "" {
			uri = c.file()
		}
		repo, err := source.New("config", uri)
		if err != nil {
			return nil, err
		}
		return []source.Repository{repo}, nil
	}

	seen := make(map[string]bool, len(flags))
	repos := make([]source.Repository, 0, len(flags))
	for _, flag := range flags {
		name, uri, ok := strings.Cut(flag, "=")
		name, uri = strings.TrimSpace(name), strings.TrimSpace(uri)
		if !ok || name == "" || uri == "" {
			return nil, fmt.Errorf("invalid --repo %q (want name=uri)", flag)
		}
		if err := server.ValidateName(name); err != nil {
			return nil, fmt.Errorf("invalid --repo %q: %w", flag, err)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate repository name %q", name)
		}
		seen[name] = true
		repo, err := source.New(name, uri)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// runServe serves repos until ctx is canceled or the listener fails.
func runServe(ctx context.Context, repos []source.Repository, opts serveOptions) error {
	srv := server.NewServer(ctx, repos, opts.refreshInterval)
	srv.AuthKey = opts.authKey
	if !srv.IsReady() {
		logrus.Warn("some repositories failed to load; serving anyway")
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(opts.addr) }()

	select {
	case err := <-errc:
		srv.Stop()
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-errc
}
