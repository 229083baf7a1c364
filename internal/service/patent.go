package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/patlas/patlas/internal/model"
	"github.com/patlas/patlas/internal/platform"
	"github.com/patlas/patlas/internal/repository"
)

// ErrPatentNotFound indicates the patent exists neither in cache nor upstream.
var ErrPatentNotFound = errors.New("patent not found")

// PatentFetcher fetches a patent record from the upstream platform.
type PatentFetcher interface {
	FetchPatent(ctx context.Context, patentID string) (json.RawMessage, error)
}

// PatentService serves patent records through the Postgres cache.
type PatentService struct {
	repo     *repository.Repository
	upstream PatentFetcher
}

// NewPatentService creates a PatentService.
func NewPatentService(repo *repository.Repository, upstream PatentFetcher) *PatentService {
	return &PatentService{repo: repo, upstream: upstream}
}

// GetPatent returns a patent record, serving a cached copy when it is
// younger than the fixed TTL and refreshing the cache otherwise.
// A cache write failure does not fail the request: the fetched record
// is still returned and the next request retries the write.
func (s *PatentService) GetPatent(ctx context.Context, patentID string) (*model.CachedPatent, bool, error) {
	cached, err := s.repo.GetCachedPatent(ctx, patentID)
	if err == nil {
		return cached, true, nil
	}
	if !errors.Is(err, repository.ErrPatentNotCached) {
		return nil, false, err
	}

	payload, err := s.upstream.FetchPatent(ctx, patentID)
	if err != nil {
		if errors.Is(err, platform.ErrPatentNotFound) {
			return nil, false, ErrPatentNotFound
		}
		return nil, false, err
	}

	record := &model.CachedPatent{
		PatentID: patentID,
		Payload:  payload,
		CachedAt: time.Now().UTC(),
	}

	if err := s.repo.UpsertCachedPatent(ctx, record); err != nil {
		return record, false, nil
	}

	return record, false, nil
}
