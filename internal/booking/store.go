package booking

import (
	"context"
	"errors"
	"time"

	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

// DefaultDraftTTL bounds how long an untouched draft is kept.
const DefaultDraftTTL = 30 * time.Minute

type cacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DraftStore keeps drafts in the cache with a sliding TTL.
type DraftStore struct {
	cache cacheRepository
	ttl   time.Duration
}

// NewDraftStore builds a store over a Redis or in-memory cache repository.
func NewDraftStore(cache cacheRepository, ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &DraftStore{cache: cache, ttl: ttl}
}

func draftKey(id string) string {
	return "booking:draft:" + id
}

// Get loads a draft; expired or unknown drafts are ErrNotFound.
func (s *DraftStore) Get(ctx context.Context, id string) (*Draft, error) {
	var draft Draft
	if err := s.cache.Get(ctx, draftKey(id), &draft); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking draft not found or expired")
		}
		return nil, err
	}
	return &draft, nil
}

// Save stores the draft and restarts its TTL.
func (s *DraftStore) Save(ctx context.Context, draft *Draft) error {
	return s.cache.Set(ctx, draftKey(draft.ID), draft, s.ttl)
}

// Delete drops a draft.
func (s *DraftStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, draftKey(id))
}
