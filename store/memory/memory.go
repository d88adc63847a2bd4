// Package memory provides an in-memory collection.Store for tests and dev.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/comp-engine/collection"
	"github.com/warp/comp-engine/comp"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.Mutex
	records map[collection.CollectionID]collection.Collection
}

func New() *Memory {
	return &Memory{records: make(map[collection.CollectionID]collection.Collection)}
}

func (m *Memory) Create(_ context.Context, c collection.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[c.ID] = c
	return nil
}

func (m *Memory) Get(_ context.Context, id collection.CollectionID) (collection.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return collection.Collection{}, collection.ErrNotFound
	}
	return record, nil
}

func (m *Memory) ListByEmployee(_ context.Context, employeeID comp.EmployeeID) ([]collection.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []collection.Collection
	for _, r := range m.records {
		if r.EmployeeID == employeeID {
			result = append(result, r)
		}
	}
	sortByDueDate(result)
	return result, nil
}

func (m *Memory) ListPendingDueBefore(_ context.Context, cutoff time.Time) ([]collection.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []collection.Collection
	for _, r := range m.records {
		if r.State == collection.StatePending && r.DueDate.Before(cutoff) {
			result = append(result, r)
		}
	}
	sortByDueDate(result)
	return result, nil
}

// Resolve is the compare-and-set: the mutex serializes racers and the state
// check decides the winner. The loser gets (false, nil).
func (m *Memory) Resolve(_ context.Context, id collection.CollectionID, res collection.Resolution) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok {
		return false, collection.ErrNotFound
	}
	if record.State != collection.StatePending {
		return false, nil
	}

	record.State = res.State
	record.CollectionDate = res.CollectionDate
	record.ClawbackAmount = res.ClawbackAmount
	record.ResolvedBy = res.ResolvedBy
	resolvedAt := res.ResolvedAt
	record.ResolvedAt = &resolvedAt
	m.records[id] = record
	return true, nil
}

func sortByDueDate(records []collection.Collection) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].DueDate.Before(records[j].DueDate)
	})
}
