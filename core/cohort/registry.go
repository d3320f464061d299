package cohort

import (
	"context"
	"sort"
	"sync"
)

// ClaimRegistry records which students are already in a group of a course.
// It is partitioned per course: claims on different courses never interact.
type ClaimRegistry interface {
	// Claim marks `studentID` as taken for `course`. It reports false if it already was.
	Claim(ctx context.Context, course string, studentID int) (bool, error)
	// Claimed returns the ids claimed for `course`, ascending.
	Claimed(ctx context.Context, course string) ([]int, error)
	// Reset forgets every claim, on every course.
	Reset(ctx context.Context) error
}

type memoryRegistry struct {
	mu     sync.RWMutex
	claims map[string]map[int]struct{}
}

var _ ClaimRegistry = (*memoryRegistry)(nil)

func NewMemoryRegistry() ClaimRegistry {
	return &memoryRegistry{claims: make(map[string]map[int]struct{})}
}

func (reg *memoryRegistry) Claim(_ context.Context, course string, studentID int) (bool, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	ids, ok := reg.claims[course]
	if !ok {
		ids = make(map[int]struct{})
		reg.claims[course] = ids
	}
	if _, taken := ids[studentID]; taken {
		return false, nil
	}
	ids[studentID] = struct{}{}
	return true, nil
}

func (reg *memoryRegistry) Claimed(_ context.Context, course string) ([]int, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	ids := make([]int, 0, len(reg.claims[course]))
	for id := range reg.claims[course] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (reg *memoryRegistry) Reset(_ context.Context) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.claims = make(map[string]map[int]struct{})
	return nil
}
