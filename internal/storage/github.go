package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"

	"github.com/deusflow/mainewire/internal/metrics"
	"github.com/deusflow/mainewire/internal/retry"
)

const (
	ModeGitHub = "prod"

	// contentsListingLimit is the most entries the contents API returns
	// for one directory; larger directories are read through the tree API.
	contentsListingLimit = 1000
)

// GitDataService is the subset of *github.GitService used for commits.
type GitDataService interface {
	GetRef(ctx context.Context, owner, repo, ref string) (*github.Reference, *github.Response, error)
	GetCommit(ctx context.Context, owner, repo, sha string) (*github.Commit, *github.Response, error)
	GetTree(ctx context.Context, owner, repo, sha string, recursive bool) (*github.Tree, *github.Response, error)
	CreateTree(ctx context.Context, owner, repo, baseTree string, entries []*github.TreeEntry) (*github.Tree, *github.Response, error)
	CreateCommit(ctx context.Context, owner, repo string, commit *github.Commit, opts *github.CreateCommitOptions) (*github.Commit, *github.Response, error)
	UpdateRef(ctx context.Context, owner, repo string, ref *github.Reference, force bool) (*github.Reference, *github.Response, error)
}

// ContentsService is the subset of *github.RepositoriesService used to list
// published files.
type ContentsService interface {
	GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error)
}

// Commit protocol steps.
const (
	StepGetRef       = 1
	StepGetCommit    = 2
	StepCreateTree   = 3
	StepCreateCommit = 4
	StepUpdateRef    = 5
)

var stepNames = map[int]string{
	StepGetRef:       "get ref",
	StepGetCommit:    "get commit",
	StepCreateTree:   "create tree",
	StepCreateCommit: "create commit",
	StepUpdateRef:    "update ref",
}

// StepError reports which step of the commit protocol failed. No step
// before StepUpdateRef changes what the branch points to.
type StepError struct {
	Step int
	Name string
	Err  error
}

func newStepError(step int, err error) *StepError {
	return &StepError{Step: step, Name: stepNames[step], Err: err}
}

func (e *StepError) Error() string {
	return fmt.Sprintf("commit step %d (%s) failed: %v", e.Step, e.Name, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// IsRefConflict reports whether err is a ref update rejected because the
// branch moved since it was read.
func IsRefConflict(err error) bool {
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != StepUpdateRef {
		return false
	}
	var ghErr *github.ErrorResponse
	if errors.As(stepErr.Err, &ghErr) && ghErr.Response != nil {
		code := ghErr.Response.StatusCode
		return code == http.StatusConflict || code == http.StatusUnprocessableEntity
	}
	return false
}

type GitHubOptions struct {
	Owner   string
	Repo    string
	Branch  string
	Layout  Layout
	Retries int
	Backoff time.Duration
}

// AtomicCommitPublisher publishes a whole batch as one commit on a branch.
// The non-forced ref update is the only write that becomes visible, so a
// failure at any step leaves the branch untouched.
type AtomicCommitPublisher struct {
	git      GitDataService
	contents ContentsService
	opts     GitHubOptions
}

func NewAtomicCommitPublisher(git GitDataService, contents ContentsService, opts GitHubOptions) *AtomicCommitPublisher {
	if opts.Branch == "" {
		opts.Branch = "main"
	}
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	if opts.Layout == (Layout{}) {
		opts.Layout = DefaultLayout()
	}
	return &AtomicCommitPublisher{git: git, contents: contents, opts: opts}
}

// NewGitHubPublisher builds a publisher backed by the real GitHub API.
func NewGitHubPublisher(token string, opts GitHubOptions) *AtomicCommitPublisher {
	client := github.NewClient(nil).WithAuthToken(token)
	return NewAtomicCommitPublisher(client.Git, client.Repositories, opts)
}

func (p *AtomicCommitPublisher) Mode() string { return ModeGitHub }

func (p *AtomicCommitPublisher) ExistingSlugs(ctx context.Context) (*SlugIndex, error) {
	index := NewSlugIndex()
	for _, kind := range []Kind{KindArticle, KindVideo} {
		names, err := p.listDir(ctx, p.opts.Layout.Dir(kind))
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", kind, err)
		}
		for _, name := range names {
			if slug, ok := strings.CutSuffix(name, ".md"); ok && slug != "" {
				index.Add(kind, slug)
			}
		}
		slog.Debug("Loaded existing slugs", "kind", kind, "count", index.Len(kind))
	}
	return index, nil
}

// listDir returns file names in dir. A missing directory is empty.
func (p *AtomicCommitPublisher) listDir(ctx context.Context, dir string) ([]string, error) {
	opts := &github.RepositoryContentGetOptions{Ref: p.opts.Branch}
	_, entries, resp, err := p.contents.GetContents(ctx, p.opts.Owner, p.opts.Repo, dir, opts)
	if err != nil {
		if isNotFound(resp, err) {
			return nil, nil
		}
		return nil, err
	}

	if len(entries) >= contentsListingLimit {
		return p.listLargeDir(ctx, dir)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.GetType() == "file" {
			names = append(names, e.GetName())
		}
	}
	return names, nil
}

// listLargeDir finds dir's tree SHA in its parent listing and reads the tree.
func (p *AtomicCommitPublisher) listLargeDir(ctx context.Context, dir string) ([]string, error) {
	parent, base := path.Split(dir)
	parent = strings.TrimSuffix(parent, "/")

	opts := &github.RepositoryContentGetOptions{Ref: p.opts.Branch}
	_, siblings, _, err := p.contents.GetContents(ctx, p.opts.Owner, p.opts.Repo, parent, opts)
	if err != nil {
		return nil, err
	}

	var treeSHA string
	for _, s := range siblings {
		if s.GetName() == base && s.GetType() == "dir" {
			treeSHA = s.GetSHA()
			break
		}
	}
	if treeSHA == "" {
		return nil, fmt.Errorf("directory %s not found in %q", base, parent)
	}

	tree, _, err := p.git.GetTree(ctx, p.opts.Owner, p.opts.Repo, treeSHA, false)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e.GetType() == "blob" {
			names = append(names, e.GetPath())
		}
	}
	return names, nil
}

func isNotFound(resp *github.Response, err error) bool {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return true
	}
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}

// Publish commits all records at once. When the ref update loses a race
// with another writer the whole protocol is re-run against the new head.
func (p *AtomicCommitPublisher) Publish(ctx context.Context, records []Record) (*PublishResult, error) {
	result := &PublishResult{}
	if len(records) == 0 {
		return result, nil
	}

	cfg := retry.RetryConfig{
		MaxAttempts: p.opts.Retries,
		Delay:       p.opts.Backoff,
		Backoff:     true,
		ShouldRetry: IsRefConflict,
	}

	err := retry.WithRetry(ctx, cfg, func() error {
		result.Attempts++
		metrics.CommitAttempts.Inc()

		sha, err := p.commitOnce(ctx, records)
		if err != nil {
			slog.Warn("Commit attempt failed", "attempt", result.Attempts, "error", err)
			return err
		}
		result.CommitSHA = sha
		return nil
	})
	if err != nil {
		step := "unknown"
		var stepErr *StepError
		if errors.As(err, &stepErr) {
			step = stepErr.Name
		}
		metrics.RecordPublishError(ModeGitHub, step)
		return result, err
	}

	countByKind(records, result)
	metrics.RecordPublish(ModeGitHub, len(records))
	slog.Info("Committed content", "files", len(records), "sha", result.CommitSHA, "attempts", result.Attempts)
	return result, nil
}

func CommitMessage(files int) string {
	return fmt.Sprintf("Automated content update: %d files [mainewire-bot]", files)
}

func (p *AtomicCommitPublisher) commitOnce(ctx context.Context, records []Record) (string, error) {
	owner, repo := p.opts.Owner, p.opts.Repo
	refName := "heads/" + p.opts.Branch

	// 1. Current head of the branch.
	ref, _, err := p.git.GetRef(ctx, owner, repo, refName)
	if err != nil {
		return "", newStepError(StepGetRef, err)
	}
	headSHA := ref.GetObject().GetSHA()
	if headSHA == "" {
		return "", newStepError(StepGetRef, errors.New("ref has no object sha"))
	}

	// 2. Its root tree.
	head, _, err := p.git.GetCommit(ctx, owner, repo, headSHA)
	if err != nil {
		return "", newStepError(StepGetCommit, err)
	}
	baseTree := head.GetTree().GetSHA()
	if baseTree == "" {
		return "", newStepError(StepGetCommit, errors.New("commit has no tree sha"))
	}

	// 3. New tree holding every file of the batch.
	entries := make([]*github.TreeEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, &github.TreeEntry{
			Path:    github.String(r.Path),
			Mode:    github.String("100644"),
			Type:    github.String("blob"),
			Content: github.String(r.Content),
		})
	}
	tree, _, err := p.git.CreateTree(ctx, owner, repo, baseTree, entries)
	if err != nil {
		return "", newStepError(StepCreateTree, err)
	}

	// 4. Commit on top of the head read in step 1.
	commit, _, err := p.git.CreateCommit(ctx, owner, repo, &github.Commit{
		Message: github.String(CommitMessage(len(records))),
		Tree:    &github.Tree{SHA: tree.SHA},
		Parents: []*github.Commit{{SHA: github.String(headSHA)}},
	}, nil)
	if err != nil {
		return "", newStepError(StepCreateCommit, err)
	}

	// 5. Move the branch; rejected if someone else moved it first.
	_, _, err = p.git.UpdateRef(ctx, owner, repo, &github.Reference{
		Ref:    github.String("refs/" + refName),
		Object: &github.GitObject{SHA: commit.SHA},
	}, false)
	if err != nil {
		return "", newStepError(StepUpdateRef, err)
	}

	return commit.GetSHA(), nil
}
