// internal/resource/engine.go
//
// Registration engine: turns a Model into five chi routes.
//
/*
Context
--------
Engine.Register is the only entry point.  For one Model it:

  1. Builds a Descriptor with defaults (NewDescriptor).
  2. Runs the optional configure callback against a pointer to it.
  3. Freezes a value copy and derives the five routes (Descriptor.Routes).
  4. Registers each route on the router: the real handler when its flag is
     on, a static 403 handler otherwise.

Register never fails.  Store failures surface per request: ErrNotFound
becomes 404, anything else goes to Engine.OnError (default: log and 500).

Instrumentation
---------------
  • INFO  span — one “resource registered” line per Register call.
  • ERROR span — every unhandled store error, with resource and verb.
  • Prometheus — request counter, latency histogram, and route gauge from
    internal/metrics.

Notes
-----
  • Patterns use chi syntax; the id segment is “{id:[0-9]+}”.
  • Engine is safe to call Register on from a single goroutine during
    startup.  Resources() may be called concurrently afterwards.
*/
package resource

import (
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/nutshell/internal/metrics"
	"github.com/yanizio/nutshell/internal/model"
)

// Router is the route table the engine writes to.  chi.Router satisfies it.
type Router interface {
	MethodFunc(method, pattern string, h http.HandlerFunc)
}

// ErrorHandler receives store failures the engine does not translate.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Engine registers resources against one Router.  Zero value is unusable;
// construct with NewEngine.
type Engine struct {
	router Router
	log    *zap.SugaredLogger

	// OnError handles unexpected store errors.  Nil means log and 500.
	OnError ErrorHandler

	mu         sync.RWMutex
	registered []Descriptor
}

// NewEngine returns an Engine writing to r.  A nil logger disables logging.
func NewEngine(r Router, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{router: r, log: log}
}

// Register exposes m as a REST resource.  configure may be nil.
func (e *Engine) Register(m model.Model, configure func(*Descriptor)) {
	d := NewDescriptor(m)
	if configure != nil {
		configure(&d)
	}
	d = settle(d, m)

	enabled, forbidden := 0, 0
	for _, rt := range d.Routes() {
		h := e.forbidden(d, rt.Verb)
		if rt.Enabled {
			h = e.handler(d, rt.Verb)
			enabled++
		} else {
			forbidden++
		}
		e.router.MethodFunc(rt.Method, rt.Pattern, e.instrument(d, rt.Verb, h))
	}

	metrics.Routes.WithLabelValues(d.label(), "enabled").Set(float64(enabled))
	metrics.Routes.WithLabelValues(d.label(), "forbidden").Set(float64(forbidden))

	e.mu.Lock()
	e.registered = append(e.registered, d)
	e.mu.Unlock()

	e.log.Infow("resource registered",
		"model", m.Name(),
		"singular", d.Singular,
		"plural", d.Plural,
		"prefix", d.Prefix,
		"enabled", enabled,
		"forbidden", forbidden,
	)
}

// Resources returns the frozen descriptors in registration order.
func (e *Engine) Resources() []Descriptor {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.registered)
}

// settle restores derived defaults the callback blanked out and detaches
// the Fields slice from the caller.
func settle(d Descriptor, m model.Model) Descriptor {
	if d.Model == nil {
		d.Model = m
	}
	def := NewDescriptor(d.Model)
	if d.Singular == "" {
		d.Singular = def.Singular
	}
	if d.Plural == "" {
		d.Plural = Pluralize(d.Singular)
	}
	d.Fields = slices.Clone(d.Fields)
	return d
}

// handler picks the live handler for a verb slot.
func (e *Engine) handler(d Descriptor, v Verb) http.HandlerFunc {
	switch v {
	case VerbList:
		return e.list(d)
	case VerbRead:
		return e.read(d)
	case VerbCreate:
		return e.create(d)
	case VerbUpdate:
		return e.update(d)
	default:
		return e.remove(d)
	}
}

// instrument records status and latency for every generated route.
func (e *Engine) instrument(d Descriptor, v Verb, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RequestsTotal.WithLabelValues(d.label(), string(v), strconv.Itoa(status)).Inc()
		metrics.RequestDuration.WithLabelValues(d.label(), string(v)).
			Observe(time.Since(start).Seconds())
	}
}

// fail routes an unexpected store error to OnError or the default.
func (e *Engine) fail(w http.ResponseWriter, r *http.Request, d Descriptor, v Verb, err error) {
	if e.OnError != nil {
		e.OnError(w, r, err)
		return
	}
	e.log.Errorw("resource handler failed",
		"resource", d.Singular,
		"verb", string(v),
		"path", r.URL.Path,
		"err", err,
	)
	writeError(w, http.StatusInternalServerError)
}
