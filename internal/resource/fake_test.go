package resource

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"sort"
	"sync"

	"github.com/yanizio/nutshell/internal/model"
)

// fakeRecord / fakeModel: a minimal in-package Model that counts calls.

type fakeRecord struct {
	id    int64
	attrs map[string]any
}

func (r *fakeRecord) Attributes() map[string]any { return maps.Clone(r.attrs) }

type fakeModel struct {
	name string

	mu      sync.Mutex
	rows    map[int64]map[string]any
	next    int64
	calls   map[string]int
	failErr error // returned by every store method when set
	saveErr error // returned by Save only
}

func newFakeModel(name string) *fakeModel {
	return &fakeModel{name: name, rows: map[int64]map[string]any{}, calls: map[string]int{}}
}

func (m *fakeModel) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *fakeModel) touched() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *fakeModel) hit(op string) {
	m.mu.Lock()
	m.calls[op]++
	m.mu.Unlock()
}

func (m *fakeModel) Name() string { return m.name }

func (m *fakeModel) All(context.Context) ([]model.Record, error) {
	m.hit("All")
	if m.failErr != nil {
		return nil, m.failErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]model.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, &fakeRecord{id: id, attrs: maps.Clone(m.rows[id])})
	}
	return out, nil
}

func (m *fakeModel) Find(_ context.Context, id int64) (model.Record, error) {
	m.hit("Find")
	if m.failErr != nil {
		return nil, m.failErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	attrs, ok := m.rows[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &fakeRecord{id: id, attrs: maps.Clone(attrs)}, nil
}

func (m *fakeModel) New() model.Record {
	m.hit("New")
	return &fakeRecord{attrs: map[string]any{}}
}

func (m *fakeModel) Fill(rec model.Record, fields map[string]any) {
	m.hit("Fill")
	maps.Copy(rec.(*fakeRecord).attrs, fields)
}

func (m *fakeModel) Save(_ context.Context, rec model.Record) error {
	m.hit("Save")
	if m.failErr != nil {
		return m.failErr
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	r := rec.(*fakeRecord)
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.id == 0 {
		m.next++
		r.id = m.next
	}
	r.attrs["id"] = r.id
	m.rows[r.id] = maps.Clone(r.attrs)
	return nil
}

func (m *fakeModel) Delete(_ context.Context, rec model.Record) error {
	m.hit("Delete")
	if m.failErr != nil {
		return m.failErr
	}
	r := rec.(*fakeRecord)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[r.id]; !ok {
		return model.ErrNotFound
	}
	delete(m.rows, r.id)
	return nil
}

var errBoom = errors.New("boom")

// recordingRouter captures registrations without serving them.
type recordingRouter struct {
	routes []recorded
}

type recorded struct {
	method, pattern string
	h               http.HandlerFunc
}

func (r *recordingRouter) MethodFunc(method, pattern string, h http.HandlerFunc) {
	r.routes = append(r.routes, recorded{method, pattern, h})
}
