// internal/resource/handlers.go
//
// The five generated handlers plus the static forbidden fallback.  Each
// factory closes over a frozen Descriptor; nothing is shared between
// requests.

package resource

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/nutshell/internal/model"
)

// deletedBody is the confirmation written after a successful delete.
const deletedBody = "deleted"

/*──────────────────────────── collection ──────────────────────────────────*/

func (e *Engine) list(d Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := d.Model.All(r.Context())
		if err != nil {
			e.fail(w, r, d, VerbList, err)
			return
		}
		writeJSON(w, attributes(recs))
	}
}

func (e *Engine) create(d Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := readInput(d, w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest)
			return
		}

		rec := d.Model.New()
		d.Model.Fill(rec, fields)
		if err := d.Model.Save(r.Context(), rec); err != nil {
			e.fail(w, r, d, VerbCreate, err)
			return
		}
		writeJSON(w, rec.Attributes())
	}
}

/*──────────────────────────── member ──────────────────────────────────────*/

func (e *Engine) read(d Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := e.find(w, r, d, VerbRead)
		if !ok {
			return
		}
		writeJSON(w, rec.Attributes())
	}
}

func (e *Engine) update(d Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := e.find(w, r, d, VerbUpdate)
		if !ok {
			return
		}

		fields, err := readInput(d, w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest)
			return
		}

		d.Model.Fill(rec, fields)
		err = d.Model.Save(r.Context(), rec)
		switch {
		case errors.Is(err, model.ErrNotFound): // deleted since find
			writeError(w, http.StatusNotFound)
			return
		case err != nil:
			e.fail(w, r, d, VerbUpdate, err)
			return
		}
		writeJSON(w, rec.Attributes())
	}
}

func (e *Engine) remove(d Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := e.find(w, r, d, VerbDelete)
		if !ok {
			return
		}

		err := d.Model.Delete(r.Context(), rec)
		switch {
		case errors.Is(err, model.ErrNotFound): // lost a race with another delete
			writeError(w, http.StatusNotFound)
		case err != nil:
			e.fail(w, r, d, VerbDelete, err)
		default:
			writeText(w, deletedBody, http.StatusOK)
		}
	}
}

// find loads the record named by the {id} parameter.  It writes the 404 or
// failure response itself and reports false when the caller should stop.
func (e *Engine) find(w http.ResponseWriter, r *http.Request, d Descriptor, v Verb) (model.Record, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound)
		return nil, false
	}

	rec, err := d.Model.Find(r.Context(), id)
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound)
		return nil, false
	case err != nil:
		e.fail(w, r, d, v, err)
		return nil, false
	}
	return rec, true
}

/*──────────────────────────── disabled ────────────────────────────────────*/

// forbidden answers 403 without touching the model.
func (e *Engine) forbidden(d Descriptor, v Verb) http.HandlerFunc {
	msg := fmt.Sprintf("%s is not allowed for resource %q", v, d.Singular)
	return func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, msg, http.StatusForbidden)
	}
}
