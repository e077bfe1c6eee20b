package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/sirupsen/logrus"
)

// GitRepository is a struct that implements the Repository interface for
// handling configuration data stored in an INI file within a Git repository.
// The repository is cloned into memory on the first refresh and pulled on
// every refresh after that.
type GitRepository struct {
	store
	Name   string          // Name of the configuration source
	URL    *url.URL        // URL representing the Git repository URL
	Path   string          // Path to the INI file within the Git repository
	Branch string          // Branch to use when cloning the Git repository
	Auth   *http.BasicAuth // BasicAuth to use when cloning the Git repository

	gitMu         sync.Mutex       // Serializes clone and pull
	gitRepository *git.Repository  // Go-Git repository instance for the in-memory clone
	fs            billy.Filesystem // Filesystem to store the in-memory clone of the repository
}

// GetName returns the name of the configuration source.
func (g *GitRepository) GetName() string {
	return g.Name
}

// Refresh clones or pulls the Git repository and parses the INI file into the
// buffer.
func (g *GitRepository) Refresh(ctx context.Context) error {
	g.gitMu.Lock()
	defer g.gitMu.Unlock()

	if g.gitRepository == nil {
		if err := g.clone(ctx); err != nil {
			return err
		}
	} else if err := g.pull(ctx); err != nil {
		return err
	}

	file, err := g.fs.Open(g.Path)
	if err != nil {
		return fmt.Errorf("open %s in %s: %w", g.Path, g.URL.Redacted(), err)
	}
	defer func(file billy.File) {
		err := file.Close()
		if err != nil {
			logrus.WithError(err).Error("error closing file")
		}
	}(file)

	fileContent, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read %s in %s: %w", g.Path, g.URL.Redacted(), err)
	}

	if err := g.swap(fileContent); err != nil {
		logrus.Debug("error parsing file")
		return fmt.Errorf("%s in %s: %w", g.Path, g.URL.Redacted(), err)
	}
	return nil
}

func (g *GitRepository) clone(ctx context.Context) error {
	fs := memfs.New()
	logrus.Debugf("Cloning %s into memory", g.URL.Redacted())
	options := &git.CloneOptions{
		URL:  g.URL.String(),
		Auth: g.authMethod(),
	}
	if g.Branch != "" {
		options.ReferenceName = plumbing.NewBranchReferenceName(g.Branch)
		options.SingleBranch = true
	}
	r, err := git.CloneContext(ctx, memory.NewStorage(), fs, options)
	if err != nil {
		return fmt.Errorf("clone %s: %w", g.URL.Redacted(), err)
	}
	logrus.Debug("Cloned")
	g.fs = fs
	g.gitRepository = r
	return nil
}

func (g *GitRepository) pull(ctx context.Context) error {
	w, err := g.gitRepository.Worktree()
	if err != nil {
		return err
	}
	logrus.Debug("Pulling")

	pullOptions := &git.PullOptions{
		RemoteName: git.DefaultRemoteName,
		Auth:       g.authMethod(),
		Force:      true,
	}
	if g.Branch != "" {
		pullOptions.ReferenceName = plumbing.NewBranchReferenceName(g.Branch)
		pullOptions.SingleBranch = true
	}

	err = w.PullContext(ctx, pullOptions)
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		logrus.Debug("Already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("pull %s: %w", g.URL.Redacted(), err)
	}
	logrus.Debug("Pulled")
	return nil
}

// authMethod returns an untyped nil when no credentials are configured.
func (g *GitRepository) authMethod() transport.AuthMethod {
	if g.Auth == nil {
		return nil
	}
	return g.Auth
}
