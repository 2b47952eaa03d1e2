package service

import (
	"context"
	"fmt"
	"sync"

	"blitz-tracker/internal/api"
	"blitz-tracker/internal/config"
	"blitz-tracker/internal/constants"
	"blitz-tracker/internal/domain"
	"blitz-tracker/internal/repository"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ReplayService orchestrates replay lookups, uploads and listing syncs over
// the rate-limited hosting-service client, persisting export views locally.
type ReplayService struct {
	client  *api.Client
	replays *repository.ReplayRepository
	cfg     *config.Config
	logger  zerolog.Logger
}

func NewReplayService(client *api.Client, replays *repository.ReplayRepository, cfg *config.Config, logger zerolog.Logger) *ReplayService {
	return &ReplayService{client: client, replays: replays, cfg: cfg, logger: logger}
}

// GetReplay returns a replay by id, serving from local storage when possible
// and falling back to a rate-limited remote fetch. An id unknown both locally
// and remotely yields (nil, nil).
func (s *ReplayService) GetReplay(ctx context.Context, id string) (*domain.Replay, error) {
	stored, err := s.replays.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		replay, err := domain.ParseReplay(stored.Export)
		if err != nil {
			// A stored document that no longer parses is refetched.
			s.logger.Warn().Err(err).Str("replay_id", id).Msg("stored replay unreadable, refetching")
		} else {
			return replay, nil
		}
	}

	replay := s.client.GetReplay(ctx, id)
	if replay == nil {
		return nil, nil
	}
	if err := s.replays.Upsert(ctx, replay); err != nil {
		s.logger.Error().Err(err).Str("replay_id", id).Msg("failed to store fetched replay")
	}
	return replay, nil
}

// UploadReplay posts raw replay bytes and stores the resulting record.
// Returns (nil, nil) when the upload could not be completed; the client has
// already logged the cause.
func (s *ReplayService) UploadReplay(ctx context.Context, filename, title string, private bool, data []byte) (*domain.Replay, error) {
	replay := s.client.PostReplay(ctx, data, api.PostOptions{
		Filename:  filename,
		Title:     title,
		AccountID: s.cfg.UploaderID,
		Private:   private,
	})
	if replay == nil {
		return nil, nil
	}
	if err := s.replays.Upsert(ctx, replay); err != nil {
		s.logger.Error().Err(err).Str("replay_id", replay.ReplayID()).Msg("failed to store uploaded replay")
	}
	return replay, nil
}

// Recent lists stored replays, newest battle first.
func (s *ReplayService) Recent(ctx context.Context) ([]repository.StoredReplay, error) {
	return s.replays.Recent(ctx, constants.RecentReplaysLimit)
}

// SyncResult summarizes one listing sync run.
type SyncResult struct {
	RunID   string `json:"run_id"`
	Pages   int    `json:"pages"`
	Found   int    `json:"found"`
	Fetched int    `json:"fetched"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// SyncListing scrapes the given number of listing pages for replay ids,
// diffs them against local storage and fetches the missing records. Fetches
// run on a small worker pool; actual throughput is serialized by the shared
// rate limiter.
func (s *ReplayService) SyncListing(ctx context.Context, pages int) (*SyncResult, error) {
	runID, err := gonanoid.New(8)
	if err != nil {
		return nil, fmt.Errorf("sync run id: %w", err)
	}
	log := s.logger.With().Str("sync_run", runID).Logger()

	found := make(map[string]struct{})
	for page := 0; page < pages; page++ {
		doc, err := s.client.GetReplayListing(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("sync run %s: %w", runID, err)
		}
		for id := range s.client.ParseReplayIDs(doc) {
			found[id] = struct{}{}
		}
	}
	log.Info().Int("pages", pages).Int("found", len(found)).Msg("listing pages scraped")

	known, err := s.replays.KnownIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync run %s: %w", runID, err)
	}

	result := &SyncResult{RunID: runID, Pages: pages, Found: len(found)}
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(constants.SyncFetchWorkers)
	for id := range found {
		if _, ok := known[id]; ok {
			result.Skipped++
			continue
		}
		g.Go(func() error {
			replay := s.client.GetReplay(gCtx, id)
			if replay == nil {
				mu.Lock()
				result.Failed++
				mu.Unlock()
				return nil
			}
			if err := s.replays.Upsert(gCtx, replay); err != nil {
				log.Error().Err(err).Str("replay_id", id).Msg("failed to store synced replay")
				mu.Lock()
				result.Failed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			result.Fetched++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sync run %s: %w", runID, err)
	}

	log.Info().
		Int("fetched", result.Fetched).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("listing sync completed")
	return result, nil
}
