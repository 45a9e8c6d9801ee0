// internal/model/model.go
//
// Data-access contract consumed by the resource engine.
//
// Context
// -------
// A Model is one named data model (e.g. “Article”) together with the
// operations the engine needs to expose it over HTTP: list, find by id,
// instantiate, fill, persist, and delete.  Concrete stores live under
// internal/store; the engine never sees them directly.
//
// Notes
// -----
// • Find reports a missing row with ErrNotFound, never (nil, nil).
// • Fill is unfiltered; it copies every supplied key onto the record.
// • Implementations must be safe for concurrent use.
package model

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Find (and optionally Delete) when no record
// carries the requested id.
var ErrNotFound = errors.New("record not found")

// Record is one row of a Model.  Attributes returns its plain field map,
// which is what gets serialised to JSON.
type Record interface {
	Attributes() map[string]any
}

// Model is the capability set a data model must offer to be registered as
// a REST resource.
type Model interface {
	Name() string
	All(ctx context.Context) ([]Record, error)
	Find(ctx context.Context, id int64) (Record, error)
	New() Record
	Fill(rec Record, fields map[string]any)
	Save(ctx context.Context, rec Record) error
	Delete(ctx context.Context, rec Record) error
}
