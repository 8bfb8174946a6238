package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"retailmedia-hq/guardrail/pkg/rules"
)

// GitConfig configures a rules repository.
type GitConfig struct {
	// Repository is the clone URL or a local path.
	Repository string

	// Branch to track. Default: "main".
	Branch string

	// Path of the schema document inside the repository.
	// Default: "rules.json".
	Path string

	// LocalPath is the working copy directory. Default: a directory under os.TempDir().
	LocalPath string

	// Token enables HTTPS token authentication.
	Token string

	// SSHKeyPath enables SSH key authentication.
	SSHKeyPath    string
	SSHPassphrase string

	// Timeout bounds each clone or pull. Default: 30s.
	Timeout time.Duration
}

// GitSource loads the schema document from a Git repository. The first Load
// clones; later loads pull and re-read the document.
type GitSource struct {
	cfg  GitConfig
	mu   sync.Mutex
	repo *gogit.Repository
	head string
}

// NewGitSource validates cfg and creates the source. Nothing is fetched until Load.
func NewGitSource(cfg GitConfig) (*GitSource, error) {
	if cfg.Repository == "" {
		return nil, fmt.Errorf("repository URL cannot be empty")
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.Path == "" {
		cfg.Path = "rules.json"
	}
	if cfg.LocalPath == "" {
		cfg.LocalPath = filepath.Join(os.TempDir(), "guardrail-rules")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Token != "" && cfg.SSHKeyPath != "" {
		return nil, fmt.Errorf("token and ssh key authentication are mutually exclusive")
	}
	return &GitSource{cfg: cfg}, nil
}

// Load syncs the working copy and parses the schema document.
func (s *GitSource) Load(ctx context.Context) (*rules.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sync(ctx); err != nil {
		return nil, err
	}

	path := filepath.Join(s.cfg.LocalPath, s.cfg.Path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule schema %q at %s: %w", s.cfg.Path, shortSHA(s.head), err)
	}
	catalog, err := rules.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule schema at %s: %w", shortSHA(s.head), err)
	}
	return catalog, nil
}

// Head returns the commit the last Load read from.
func (s *GitSource) Head() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.head
}

// Describe implements Source.
func (s *GitSource) Describe() string {
	return fmt.Sprintf("git:%s@%s/%s", s.cfg.Repository, s.cfg.Branch, s.cfg.Path)
}

func (s *GitSource) sync(ctx context.Context) error {
	auth, err := s.auth()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if s.repo == nil {
		if err := s.openOrClone(ctx, auth); err != nil {
			return err
		}
	} else {
		worktree, err := s.repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree: %w", err)
		}
		err = worktree.PullContext(ctx, &gogit.PullOptions{
			RemoteName:    "origin",
			ReferenceName: plumbing.NewBranchReferenceName(s.cfg.Branch),
			Auth:          auth,
		})
		if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull rules repository: %w", err)
		}
	}

	ref, err := s.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD: %w", err)
	}
	s.head = ref.Hash().String()
	return nil
}

func (s *GitSource) openOrClone(ctx context.Context, auth transport.AuthMethod) error {
	if _, err := os.Stat(filepath.Join(s.cfg.LocalPath, ".git")); err == nil {
		repo, err := gogit.PlainOpen(s.cfg.LocalPath)
		if err != nil {
			return fmt.Errorf("failed to open existing rules repository: %w", err)
		}
		s.repo = repo
		return nil
	}

	if err := os.MkdirAll(s.cfg.LocalPath, 0o755); err != nil {
		return fmt.Errorf("failed to create repository directory: %w", err)
	}

	repo, err := gogit.PlainCloneContext(ctx, s.cfg.LocalPath, false, &gogit.CloneOptions{
		URL:           s.cfg.Repository,
		ReferenceName: plumbing.NewBranchReferenceName(s.cfg.Branch),
		SingleBranch:  true,
		Auth:          auth,
	})
	if err != nil {
		return fmt.Errorf("failed to clone rules repository: %w", err)
	}
	s.repo = repo
	return nil
}

func (s *GitSource) auth() (transport.AuthMethod, error) {
	switch {
	case s.cfg.Token != "":
		return &http.BasicAuth{Username: "git", Password: s.cfg.Token}, nil
	case s.cfg.SSHKeyPath != "":
		keys, err := ssh.NewPublicKeysFromFile("git", s.cfg.SSHKeyPath, s.cfg.SSHPassphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key: %w", err)
		}
		return keys, nil
	}
	return nil, nil
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
