// internal/syncer/syncer.go
package syncer

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"showcase-sync/internal/apperrors"
	"showcase-sync/internal/model"
)

const (
	// Top contributors kept per repository.
	contributorLimit = 10
	// Enrichment calls for one repository are independent reads; a small
	// bound keeps rate-limit pressure predictable.
	enrichConcurrency = 4
)

// GitHubAPI is the slice of the API client the syncer needs. The methods
// without an error return are soft-fail by contract: they yield empty
// values on failure.
type GitHubAPI interface {
	ListOrgRepositories(ctx context.Context, org string) ([]model.RemoteRepository, error)
	GetRepository(ctx context.Context, org, name string) (*model.RemoteRepository, error)
	GetTopics(ctx context.Context, org, name string) []string
	GetReadmeRaw(ctx context.Context, org, name string) []byte
	GetLatestRelease(ctx context.Context, org, name string) *model.Release
	GetContributors(ctx context.Context, org, name string, limit int) []model.Contributor
	GetScreenshots(ctx context.Context, org, name string) []model.Screenshot
	GetComposerRequirements(ctx context.Context, org, name string) map[string]string
	GetPluginHeader(ctx context.Context, org, name string) map[string]string
}

// EntryStore is the reconciliation side of the catalog.
type EntryStore interface {
	Upsert(ctx context.Context, repo *model.RemoteRepository, readmeHTML string) (int64, error)
	SetLastSynced(ctx context.Context, t time.Time) error
}

// Renderer converts README markdown to HTML.
type Renderer interface {
	Render(ctx context.Context, text string) string
}

// Service orchestrates a sync run. It holds no internal run lock: callers
// must guarantee at most one concurrent sync (see RunLock).
type Service struct {
	gh     GitHubAPI
	store  EntryStore
	render Renderer
	logger *slog.Logger
	org    string
	policy Policy
}

// NewService creates a sync orchestrator for the given organization.
func NewService(gh GitHubAPI, store EntryStore, render Renderer, logger *slog.Logger, org string, policy Policy) *Service {
	return &Service{
		gh:     gh,
		store:  store,
		render: render,
		logger: logger,
		org:    org,
		policy: policy,
	}
}

// SyncAll lists the organization's repositories and reconciles each
// qualifying one into the catalog. A listing failure aborts the run; any
// per-repository failure is counted and the run continues. The last-sync
// timestamp is recorded even when some repositories failed.
func (s *Service) SyncAll(ctx context.Context) (*model.SyncResult, error) {
	if s.org == "" {
		return nil, &apperrors.ConfigError{Setting: "github organization"}
	}

	s.logger.Info("Starting sync run", "org", s.org)

	repos, err := s.gh.ListOrgRepositories(ctx, s.org)
	if err != nil {
		return nil, err
	}

	result := &model.SyncResult{Total: len(repos)}

	for i := range repos {
		repo := &repos[i]

		// Rejected repos are skipped before any enrichment call, to
		// conserve rate limit.
		if !ShouldImport(*repo, s.policy) {
			result.Skipped++
			continue
		}

		readmeHTML := s.enrich(ctx, repo)

		if _, err := s.store.Upsert(ctx, repo, readmeHTML); err != nil {
			s.logger.Error("Failed to sync repository", "repo", repo.FullName, "error", err)
			result.Failed++
			continue
		}
		result.Synced++
	}

	if err := s.store.SetLastSynced(ctx, time.Now()); err != nil {
		s.logger.Error("Failed to record last sync time", "error", err)
	}

	s.logger.Info("Sync run finished",
		"synced", result.Synced, "failed", result.Failed,
		"skipped", result.Skipped, "total", result.Total)

	return result, nil
}

// SyncOne runs the enrichment pipeline for a single named repository and
// upserts it. Explicit single-repo sync bypasses classification.
func (s *Service) SyncOne(ctx context.Context, name string) (int64, error) {
	if s.org == "" {
		return 0, &apperrors.ConfigError{Setting: "github organization"}
	}

	repo, err := s.gh.GetRepository(ctx, s.org, name)
	if err != nil {
		return 0, err
	}

	readmeHTML := s.enrich(ctx, repo)
	return s.store.Upsert(ctx, repo, readmeHTML)
}

// enrich attaches topics, readme, release, contributors, screenshots, and
// requirements to the repository. The calls are independent reads and run
// under a bounded group; each is soft-fail, so enrich never errors.
func (s *Service) enrich(ctx context.Context, repo *model.RemoteRepository) string {
	var (
		readmeHTML   string
		manifestReqs map[string]string
		headerReqs   map[string]string
	)

	g := new(errgroup.Group)
	g.SetLimit(enrichConcurrency)

	g.Go(func() error {
		repo.Topics = s.gh.GetTopics(ctx, s.org, repo.Name)
		return nil
	})
	g.Go(func() error {
		if raw := s.gh.GetReadmeRaw(ctx, s.org, repo.Name); len(raw) > 0 {
			readmeHTML = s.render.Render(ctx, string(raw))
		}
		return nil
	})
	g.Go(func() error {
		repo.LatestRelease = s.gh.GetLatestRelease(ctx, s.org, repo.Name)
		return nil
	})
	g.Go(func() error {
		repo.Contributors = s.gh.GetContributors(ctx, s.org, repo.Name, contributorLimit)
		return nil
	})
	g.Go(func() error {
		repo.Screenshots = s.gh.GetScreenshots(ctx, s.org, repo.Name)
		return nil
	})
	g.Go(func() error {
		manifestReqs = s.gh.GetComposerRequirements(ctx, s.org, repo.Name)
		return nil
	})
	g.Go(func() error {
		headerReqs = s.gh.GetPluginHeader(ctx, s.org, repo.Name)
		return nil
	})

	_ = g.Wait() // the goroutines never return errors

	repo.Requirements = mergeRequirements(manifestReqs, headerReqs)

	return readmeHTML
}

// mergeRequirements overlays manifest constraints on top of header
// constraints: on key conflict the manifest wins.
func mergeRequirements(manifest, header map[string]string) map[string]string {
	if len(manifest) == 0 && len(header) == 0 {
		return nil
	}

	merged := make(map[string]string, len(manifest)+len(header))
	for k, v := range header {
		merged[k] = v
	}
	for k, v := range manifest {
		merged[k] = v
	}
	return merged
}
