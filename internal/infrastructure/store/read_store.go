package store

import (
	"context"
	"sort"
	"sync"
)

// DomainUsersReadStore is the projector's queryable listing of user ids per
// domain namespace. It is derived state, rebuildable from the log.
type DomainUsersReadStore interface {
	AddUser(ctx context.Context, domainNamespace, userID string) error
	RemoveUser(ctx context.Context, domainNamespace, userID string) error
	UserIDs(ctx context.Context, domainNamespace string) ([]string, error)
}

// MemoryReadStore is an in-memory DomainUsersReadStore
type MemoryReadStore struct {
	mu      sync.RWMutex
	domains map[string]map[string]bool // domainNamespace -> userID set
}

func NewMemoryReadStore() *MemoryReadStore {
	return &MemoryReadStore{domains: make(map[string]map[string]bool)}
}

func (rs *MemoryReadStore) AddUser(_ context.Context, domainNamespace, userID string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.domains[domainNamespace] == nil {
		rs.domains[domainNamespace] = make(map[string]bool)
	}
	rs.domains[domainNamespace][userID] = true
	return nil
}

func (rs *MemoryReadStore) RemoveUser(_ context.Context, domainNamespace, userID string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	delete(rs.domains[domainNamespace], userID)
	return nil
}

func (rs *MemoryReadStore) UserIDs(_ context.Context, domainNamespace string) ([]string, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	ids := make([]string, 0, len(rs.domains[domainNamespace]))
	for id := range rs.domains[domainNamespace] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
