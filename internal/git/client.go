package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/docsite/internal/config"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/observability"
	"git.home.luguber.info/inful/docsite/internal/retry"
)

// Client mirrors one repository into a local directory.
type Client struct {
	repo     config.RepositoryConfig
	dir      string
	recorder metrics.Recorder
	policy   retry.Policy
}

// Option configures a Client.
type Option func(*Client)

// WithRecorder records sync durations.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithRetryPolicy overrides the retry schedule built from repo.Retry.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// NewClient creates a client that checks repo out into dir.
func NewClient(dir string, repo config.RepositoryConfig, opts ...Option) *Client {
	maxRetries := -1
	if repo.Retry.MaxRetries != nil {
		maxRetries = *repo.Retry.MaxRetries
	}
	c := &Client{
		repo:     repo,
		dir:      dir,
		recorder: metrics.NoopRecorder{},
		policy:   retry.NewPolicy(retry.Backoff(repo.Retry.Backoff), repo.Retry.Initial, repo.Retry.Max, maxRetries),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ContentDir is the docs directory inside the checkout.
func (c *Client) ContentDir() string {
	return filepath.Join(c.dir, filepath.FromSlash(c.repo.Path))
}

// Result describes one sync.
type Result struct {
	Commit  string
	Cloned  bool
	Changed bool
}

// Sync clones the repository if the checkout is missing, otherwise fetches the
// configured branch and resets the checkout to it. Transient failures are
// retried according to the client's policy.
func (c *Client) Sync(ctx context.Context) (Result, error) {
	ctx = observability.WithRepository(observability.WithStage(ctx, "sync"), c.repo.URL)
	start := time.Now()

	var (
		res Result
		op  string
	)
	err := c.policy.Do(ctx, c.transient(&op), c.logRetry(ctx), func(ctx context.Context) error {
		var err error
		if _, statErr := os.Stat(filepath.Join(c.dir, ".git")); statErr == nil {
			op = "update"
			res, err = c.update(ctx)
		} else {
			op = "clone"
			res, err = c.clone(ctx)
		}
		return err
	})
	c.recorder.ObserveGitSyncDuration(c.repo.URL, time.Since(start), err == nil)
	if err != nil {
		return Result{}, ClassifyGitError(err, op, c.repo.URL)
	}
	return res, nil
}

// transient reports whether a failed attempt of *op may succeed when repeated.
func (c *Client) transient(op *string) func(error) bool {
	return func(err error) bool {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		classified, ok := ferrors.AsClassified(ClassifyGitError(err, *op, c.repo.URL))
		return ok && classified.CanRetry()
	}
}

func (c *Client) logRetry(ctx context.Context) func(int, time.Duration, error) {
	return func(n int, delay time.Duration, err error) {
		slog.WarnContext(ctx, "Retrying repository sync",
			slog.Int("attempt", n),
			logfields.Duration(delay),
			logfields.Error(err))
	}
}

func (c *Client) branch() string {
	if c.repo.Branch == "" {
		return "main"
	}
	return c.repo.Branch
}

func (c *Client) clone(ctx context.Context) (Result, error) {
	slog.DebugContext(ctx, "Cloning repository", logfields.URL(c.repo.URL), logfields.Branch(c.branch()), logfields.Path(c.dir))
	if err := os.MkdirAll(filepath.Dir(c.dir), 0o750); err != nil {
		return Result{}, fmt.Errorf("create checkout parent: %w", err)
	}
	repository, err := git.PlainCloneContext(ctx, c.dir, false, &git.CloneOptions{
		URL:           c.repo.URL,
		Auth:          authFor(c.repo),
		ReferenceName: plumbing.NewBranchReferenceName(c.branch()),
		SingleBranch:  true,
		Tags:          git.NoTags,
	})
	if err != nil {
		_ = os.RemoveAll(c.dir)
		return Result{}, err
	}
	head, err := repository.Head()
	if err != nil {
		return Result{}, fmt.Errorf("head: %w", err)
	}
	slog.InfoContext(ctx, "Repository cloned", logfields.URL(c.repo.URL), logfields.Commit(shortHash(head.Hash())))
	return Result{Commit: head.Hash().String(), Cloned: true, Changed: true}, nil
}

func (c *Client) update(ctx context.Context) (Result, error) {
	repository, err := git.PlainOpen(c.dir)
	if err != nil {
		return Result{}, fmt.Errorf("open repo: %w", err)
	}
	wt, err := repository.Worktree()
	if err != nil {
		return Result{}, fmt.Errorf("worktree: %w", err)
	}

	branch := c.branch()
	err = repository.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		Auth:       authFor(c.repo),
		Tags:       git.NoTags,
		RefSpecs:   []ggitcfg.RefSpec{ggitcfg.RefSpec(fmt.Sprintf("+refs/heads/%[1]s:refs/remotes/origin/%[1]s", branch))},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return Result{}, fmt.Errorf("fetch: %w", err)
	}

	remoteRef, err := repository.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return Result{}, fmt.Errorf("remote ref: %w", err)
	}
	var before plumbing.Hash
	if head, herr := repository.Head(); herr == nil {
		before = head.Hash()
	}

	if err := checkoutBranch(repository, wt, branch, remoteRef.Hash()); err != nil {
		return Result{}, err
	}
	if !before.IsZero() && before != remoteRef.Hash() {
		if ff, aerr := isAncestor(repository, before, remoteRef.Hash()); aerr == nil && !ff {
			slog.WarnContext(ctx, "Local checkout diverged from remote, resetting", logfields.Branch(branch))
		}
	}
	if err := wt.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
		return Result{}, fmt.Errorf("reset: %w", err)
	}

	res := Result{Commit: remoteRef.Hash().String(), Changed: before != remoteRef.Hash()}
	if res.Changed {
		slog.InfoContext(ctx, "Repository updated", logfields.Branch(branch), logfields.Commit(shortHash(remoteRef.Hash())))
	} else {
		slog.DebugContext(ctx, "Repository already up to date", logfields.Branch(branch))
	}
	return res, nil
}

// checkoutBranch makes branch the checked out local branch, creating it at
// hash when missing.
func checkoutBranch(repository *git.Repository, wt *git.Worktree, branch string, hash plumbing.Hash) error {
	local := plumbing.NewBranchReferenceName(branch)
	if _, err := repository.Reference(local, true); err != nil {
		if err := wt.Checkout(&git.CheckoutOptions{Branch: local, Hash: hash, Create: true, Force: true}); err != nil {
			return fmt.Errorf("checkout new branch: %w", err)
		}
		return nil
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: local, Force: true}); err != nil {
		return fmt.Errorf("checkout branch: %w", err)
	}
	return nil
}

func isAncestor(repo *git.Repository, a, b plumbing.Hash) (bool, error) {
	if a == b {
		return true, nil
	}
	seen := map[plumbing.Hash]struct{}{}
	queue := []plumbing.Hash{b}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if h == a {
			return true, nil
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		commit, err := repo.CommitObject(h)
		if err != nil {
			return false, err
		}
		queue = append(queue, commit.ParentHashes...)
	}
	return false, nil
}

func shortHash(h plumbing.Hash) string {
	return h.String()[:8]
}
