// internal/resource/descriptor.go
//
// Resource descriptor: everything needed to expose one Model over HTTP.
//
// Context
// -------
// NewDescriptor fills every field with its default.  Engine.Register hands
// a pointer to the caller’s configure callback, which may override any
// field, and then snapshots the value.  Registered handlers close over that
// copy, so later mutation has no effect on live routes.
//
// Defaults
// --------
//   • Singular — lower-cased model name (“Article” → “article”).
//   • Plural   — Pluralize(Singular) (“article” → “articles”).
//   • Prefix   — “/{bundle}”, a chi wildcard for one enclosing segment.
//   • Allow*   — true.
//   • Fields   — nil, meaning every submitted field is assigned.
//
// Notes
// -----
// • The read-one route is gated by AllowList.  There is deliberately no
//   separate read flag.
// • No validation happens here.  An empty Prefix is legal and mounts the
//   resource at the root; a missing leading slash is supplied.
package resource

import (
	"net/http"
	"strings"

	"github.com/yanizio/nutshell/internal/model"
)

// DefaultPrefix matches any single enclosing path segment.
const DefaultPrefix = "/{bundle}"

// idParam is the numeric id placeholder appended to single-record paths.
const idParam = "{id:[0-9]+}"

// Descriptor maps a Model to its REST surface.
type Descriptor struct {
	Model    model.Model
	Singular string
	Plural   string
	Prefix   string

	AllowList   bool // also gates the read-one route
	AllowCreate bool
	AllowUpdate bool
	AllowDelete bool

	// Fields, when non-empty, restricts create/update to these keys.
	Fields []string
}

// NewDescriptor returns a Descriptor for m with all defaults applied.
func NewDescriptor(m model.Model) Descriptor {
	singular := strings.ToLower(m.Name())
	return Descriptor{
		Model:       m,
		Singular:    singular,
		Plural:      Pluralize(singular),
		Prefix:      DefaultPrefix,
		AllowList:   true,
		AllowCreate: true,
		AllowUpdate: true,
		AllowDelete: true,
	}
}

// Verb names one of the five handler slots.
type Verb string

const (
	VerbList   Verb = "list"
	VerbRead   Verb = "read"
	VerbCreate Verb = "create"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
)

// Verbs lists every slot in registration order.
var Verbs = []Verb{VerbList, VerbRead, VerbCreate, VerbUpdate, VerbDelete}

// Route is one method + path pair derived from a Descriptor.
type Route struct {
	Verb    Verb
	Method  string
	Pattern string
	Enabled bool
}

// Routes returns the five routes the descriptor produces, in Verbs order.
func (d Descriptor) Routes() []Route {
	plural := d.join(d.Plural)
	single := d.join(d.Singular)
	member := single + "/" + idParam

	return []Route{
		{VerbList, http.MethodGet, plural, d.AllowList},
		{VerbRead, http.MethodGet, member, d.AllowList},
		{VerbCreate, http.MethodPost, single, d.AllowCreate},
		{VerbUpdate, http.MethodPut, member, d.AllowUpdate},
		{VerbDelete, http.MethodDelete, member, d.AllowDelete},
	}
}

// join glues the prefix and a name with exactly one slash.  The result
// always starts with "/": "api", "/api/" and "/api" are equivalent, and an
// empty prefix mounts at the root.
func (d Descriptor) join(name string) string {
	p := strings.Trim(d.Prefix, "/")
	if p == "" {
		return "/" + name
	}
	return "/" + p + "/" + name
}

// label identifies the resource in metrics.  It is the create path, which
// is unique per prefix and singular name.
func (d Descriptor) label() string { return d.join(d.Singular) }

// allows reports whether field may be assigned from request input.
func (d Descriptor) allows(field string) bool {
	if len(d.Fields) == 0 {
		return true
	}
	for _, f := range d.Fields {
		if f == field {
			return true
		}
	}
	return false
}
