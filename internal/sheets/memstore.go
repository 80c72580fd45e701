package sheets

import (
	"context"
	"sync"

	"clinic-roster/internal/attendance"
)

// MemStore keeps groups in process memory (driver: memory, and tests).
type MemStore struct {
	mu     sync.Mutex
	groups map[string]*attendance.Group
	order  []string // 作成順
}

func NewMemStore() *MemStore {
	return &MemStore{groups: make(map[string]*attendance.Group)}
}

func (s *MemStore) SaveGroup(_ context.Context, g attendance.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := g.Clone()
	if _, ok := s.groups[g.ID]; ok {
		s.removeOrder(g.ID)
	}
	s.groups[g.ID] = &c
	s.order = append(s.order, g.ID)
	return nil
}

func (s *MemStore) removeOrder(id string) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

func (s *MemStore) GetGroup(_ context.Context, id string) (attendance.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return attendance.Group{}, ErrNoRows
	}
	return g.Clone(), nil
}

func (s *MemStore) FindLatest(_ context.Context, k attendance.Key) (attendance.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *attendance.Group
	for _, id := range s.order {
		g := s.groups[id]
		if !g.Contains(k) {
			continue
		}
		if best == nil || !g.CreatedAt.Before(best.CreatedAt) {
			best = g
		}
	}
	if best == nil {
		return attendance.Group{}, ErrNoRows
	}
	return best.Clone(), nil
}

func (s *MemStore) FindByRow(_ context.Context, rowID string) (attendance.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		if g := s.groups[id]; g.IndexOf(rowID) >= 0 {
			return g.Clone(), nil
		}
	}
	return attendance.Group{}, ErrNoRows
}

func (s *MemStore) ListGroups(_ context.Context) ([]attendance.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]attendance.Group, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.groups[id].Clone())
	}
	sortByCreated(out)
	return out, nil
}

func (s *MemStore) SetRecords(_ context.Context, groupID string, rs []attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return ErrNoRows
	}
	for _, r := range rs {
		if i := g.IndexOf(r.RowID); i >= 0 {
			g.Records[i] = r.Clone()
		}
	}
	return nil
}

func (s *MemStore) PushRecords(_ context.Context, groupID string, rs []attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return ErrNoRows
	}
	for _, r := range rs {
		g.Records = append(g.Records, r.Clone())
	}
	return nil
}

func (s *MemStore) PullRecords(_ context.Context, groupID string, rowIDs []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return 0, ErrNoRows
	}
	drop := make(map[string]bool, len(rowIDs))
	for _, id := range rowIDs {
		drop[id] = true
	}
	kept := g.Records[:0]
	n := 0
	for _, r := range g.Records {
		if drop[r.RowID] {
			n++
			continue
		}
		kept = append(kept, r)
	}
	g.Records = kept
	return n, nil
}

func (s *MemStore) AddColumn(_ context.Context, groupID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return ErrNoRows
	}
	if g.HasColumn(name) {
		return ErrDuplicateCol
	}
	g.Columns = append(g.Columns, name)
	for i := range g.Records {
		if g.Records[i].Extra == nil {
			g.Records[i].Extra = make(map[string]string)
		}
		if _, ok := g.Records[i].Extra[name]; !ok {
			g.Records[i].Extra[name] = ""
		}
	}
	return nil
}

func (s *MemStore) DeleteGroup(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return ErrNoRows
	}
	delete(s.groups, id)
	s.removeOrder(id)
	return nil
}
