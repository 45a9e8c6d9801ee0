// Package memory is a process-local model.Model backed by a map.  It is
// used by the `memory` resource store and by tests.  Ids are assigned from
// 1 upward and owned by the store: an `id` key in submitted fields is
// overwritten on Save.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/yanizio/nutshell/internal/model"
)

// IDField is the attribute that carries the record id.
const IDField = "id"

// Compile-time assertion.
var _ model.Model = (*Store)(nil)

// Store is safe for concurrent use.
type Store struct {
	name string

	mu     sync.RWMutex
	nextID int64
	rows   map[int64]map[string]any
}

// record is the model.Record handed out by Store.  It is a private copy;
// changes reach the store only through Save.
type record struct {
	id    int64
	attrs map[string]any
}

func (r *record) Attributes() map[string]any { return maps.Clone(r.attrs) }

// New returns an empty Store for the named model.
func New(name string) *Store {
	return &Store{name: name, rows: make(map[int64]map[string]any)}
}

func (s *Store) Name() string { return s.name }

// All returns every record ordered by id.
func (s *Store) All(_ context.Context) ([]model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]model.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, &record{id: id, attrs: maps.Clone(s.rows[id])})
	}
	return out, nil
}

func (s *Store) Find(_ context.Context, id int64) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attrs, ok := s.rows[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &record{id: id, attrs: maps.Clone(attrs)}, nil
}

func (s *Store) New() model.Record {
	return &record{attrs: map[string]any{}}
}

func (s *Store) Fill(rec model.Record, fields map[string]any) {
	r := rec.(*record)
	for k, v := range fields {
		r.attrs[k] = v
	}
}

// Save inserts a new record (assigning its id) or replaces an existing one.
func (s *Store) Save(_ context.Context, rec model.Record) error {
	r := rec.(*record)

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.id == 0 {
		s.nextID++
		r.id = s.nextID
	}
	r.attrs[IDField] = r.id
	s.rows[r.id] = maps.Clone(r.attrs)
	return nil
}

// Delete removes rec.  Deleting a record that is already gone returns
// model.ErrNotFound.
func (s *Store) Delete(_ context.Context, rec model.Record) error {
	r := rec.(*record)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[r.id]; !ok {
		return model.ErrNotFound
	}
	delete(s.rows, r.id)
	return nil
}

// Len reports how many records are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
