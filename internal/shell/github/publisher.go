package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gh "github.com/google/go-github/v32/github"
	"golang.org/x/oauth2"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/deployment"
)

const (
	// DefaultGitURL is the browsable and git transport base.
	DefaultGitURL = "https://github.com"

	// CommitMessage is used for the single commit pushed per deployment.
	CommitMessage = "Initial commit"

	// Branch is the branch every workspace is published to.
	Branch = "main"

	// RemoteName is the remote configured in the workspace repository.
	RemoteName = "origin"
)

// =============================================================================
// Configuration
// =============================================================================

// Config holds publisher configuration.
type Config struct {
	APIURL string // REST API base; "" uses api.github.com
	GitURL string // Git base; "" uses DefaultGitURL
}

// PublishRequest describes one publication.
type PublishRequest struct {
	Dir      string // Workspace directory
	RepoName string
	Username string
	Token    string // Held in memory for the call only
	Private  bool
}

// =============================================================================
// Publisher
// =============================================================================

// Publisher creates a remote repository and pushes a workspace to it.
type Publisher struct {
	apiURL *url.URL
	gitURL string
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher creates a new publisher.
func NewPublisher(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Publisher{gitURL: cfg.GitURL, logger: logger, now: time.Now}
	if p.gitURL == "" {
		p.gitURL = DefaultGitURL
	}
	if cfg.APIURL != "" {
		u, err := url.Parse(cfg.APIURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url %q: %w", cfg.APIURL, err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		p.apiURL = u
	}
	return p, nil
}

// Publish creates the repository (an existing one is accepted), commits the
// workspace and pushes it. It returns the browsable repository address.
func (p *Publisher) Publish(ctx context.Context, req PublishRequest) (string, error) {
	repo := req.Username + "/" + req.RepoName

	if err := p.createRepository(ctx, req); err != nil {
		return "", err
	}
	if err := p.push(ctx, req); err != nil {
		return "", err
	}

	p.logger.Info("repository published", "repo", repo)
	return deployment.RepositoryURL(p.gitURL, req.Username, req.RepoName), nil
}

func (p *Publisher) createRepository(ctx context.Context, req PublishRequest) error {
	repo := req.Username + "/" + req.RepoName
	client := p.apiClient(ctx, req.Token)

	_, resp, err := client.Repositories.Create(ctx, "", &gh.Repository{
		Name:    gh.String(req.RepoName),
		Private: gh.Bool(req.Private),
	})
	if err == nil {
		p.logger.Debug("repository created", "repo", repo)
		return nil
	}

	// 422 means the repository already exists under this name
	if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
		p.logger.Debug("repository already exists", "repo", repo)
		return nil
	}

	msg := err.Error()
	var apiErr *gh.ErrorResponse
	if errors.As(err, &apiErr) && apiErr.Response != nil {
		msg = fmt.Sprintf("status %d: %s", apiErr.Response.StatusCode, apiErr.Message)
	}
	return newPublishError("CreateRepository", repo, msg, ErrRepoCreate, err)
}

func (p *Publisher) apiClient(ctx context.Context, token string) *gh.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := gh.NewClient(oauth2.NewClient(ctx, src))
	if p.apiURL != nil {
		client.BaseURL = p.apiURL
	}
	return client
}

// =============================================================================
// Git Operations
// =============================================================================

func (p *Publisher) push(ctx context.Context, req PublishRequest) error {
	repoName := req.Username + "/" + req.RepoName

	repo, err := p.commit(req)
	if err != nil {
		return newPublishError("Commit", repoName, err.Error(), ErrPush, err)
	}

	remoteURL := deployment.RemoteURL(p.gitURL, req.Username, req.RepoName)
	if err := setRemote(repo, remoteURL); err != nil {
		return newPublishError("ConfigureRemote", repoName, err.Error(), ErrPush, err)
	}

	// Not forced: a remote main with unrelated history is left intact
	refSpec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", Branch, Branch))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: RemoteName,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth: &githttp.BasicAuth{
			Username: req.Username,
			Password: req.Token,
		},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return newPublishError("Push", repoName, err.Error(), ErrPush, err)
	}
	return nil
}

// commit opens or initializes the repository on branch main, stages every
// file and records a single commit.
func (p *Publisher) commit(req PublishRequest) (*git.Repository, error) {
	repo, err := git.PlainInitWithOptions(req.Dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(Branch)},
	})
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		repo, err = git.PlainOpen(req.Dir)
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}

	// Equivalent of "branch -M main" for repositories created elsewhere
	head, err := repo.Head()
	if err == nil && head.Name() != plumbing.NewBranchReferenceName(Branch) {
		ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(Branch), head.Hash())
		if err := repo.Storer.SetReference(ref); err != nil {
			return nil, fmt.Errorf("rename branch: %w", err)
		}
		if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, ref.Name())); err != nil {
			return nil, fmt.Errorf("rename branch: %w", err)
		}
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return nil, fmt.Errorf("stage files: %w", err)
	}

	signature := &object.Signature{
		Name:  req.Username,
		Email: deployment.CommitterEmail(req.Username),
		When:  p.now(),
	}
	_, err = wt.Commit(CommitMessage, &git.CommitOptions{Author: signature, Committer: signature})
	if err != nil && !errors.Is(err, git.ErrEmptyCommit) {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return repo, nil
}

// setRemote points origin at remoteURL. The URL never carries credentials.
func setRemote(repo *git.Repository, remoteURL string) error {
	err := repo.DeleteRemote(RemoteName)
	if err != nil && !errors.Is(err, git.ErrRemoteNotFound) {
		return err
	}
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: RemoteName,
		URLs: []string{remoteURL},
	})
	return err
}
