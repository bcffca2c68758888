// Package learner records which hub sub-steps a learner has viewed.
package learner

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/p-n-ai/clinicase/internal/platform/cache"
)

// DefaultViewTTL is how long an idle learner's view set is kept in Redis.
const DefaultViewTTL = 30 * 24 * time.Hour

// ViewStore keeps the set of viewed step ids per case and learner.
type ViewStore interface {
	Viewed(ctx context.Context, caseID, learnerID string) ([]string, error)
	MarkViewed(ctx context.Context, caseID, learnerID, stepID string) error
}

// MemoryViewStore is an in-memory ViewStore.
type MemoryViewStore struct {
	mu    sync.RWMutex
	views map[string]map[string]struct{}
}

func NewMemoryViewStore() *MemoryViewStore {
	return &MemoryViewStore{views: make(map[string]map[string]struct{})}
}

// Viewed returns the viewed step ids in sorted order.
func (s *MemoryViewStore) Viewed(_ context.Context, caseID, learnerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.views[viewKey(caseID, learnerID)]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out, nil
}

func (s *MemoryViewStore) MarkViewed(_ context.Context, caseID, learnerID, stepID string) error {
	if err := checkIDs(caseID, learnerID, stepID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := viewKey(caseID, learnerID)
	set, ok := s.views[key]
	if !ok {
		set = make(map[string]struct{})
		s.views[key] = set
	}
	set[stepID] = struct{}{}
	return nil
}

// RedisViewStore keeps each view set in a Redis set whose expiry is pushed
// back on every write.
type RedisViewStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewRedisViewStore uses DefaultViewTTL when ttl is not positive.
func NewRedisViewStore(c *cache.Cache, ttl time.Duration) *RedisViewStore {
	if ttl <= 0 {
		ttl = DefaultViewTTL
	}
	return &RedisViewStore{cache: c, ttl: ttl}
}

func (s *RedisViewStore) Viewed(ctx context.Context, caseID, learnerID string) ([]string, error) {
	ids, err := s.cache.SetMembers(ctx, viewKey(caseID, learnerID))
	if err != nil {
		return nil, fmt.Errorf("read viewed steps: %w", err)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *RedisViewStore) MarkViewed(ctx context.Context, caseID, learnerID, stepID string) error {
	if err := checkIDs(caseID, learnerID, stepID); err != nil {
		return err
	}
	if err := s.cache.AddToSet(ctx, viewKey(caseID, learnerID), s.ttl, stepID); err != nil {
		return fmt.Errorf("mark step viewed: %w", err)
	}
	return nil
}

func viewKey(caseID, learnerID string) string {
	return cache.Key("views", caseID, learnerID)
}

func checkIDs(caseID, learnerID, stepID string) error {
	switch {
	case caseID == "":
		return fmt.Errorf("case_id is required")
	case learnerID == "":
		return fmt.Errorf("learner_id is required")
	case stepID == "":
		return fmt.Errorf("step_id is required")
	}
	return nil
}
