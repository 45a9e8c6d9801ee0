// internal/resource/input.go
//
// Request input collection for create and update.
//
// Context
// -------
// The create and update handlers copy the whole request input onto a record.
// “Input” means:
//
//   • a JSON object body when Content-Type is application/json, or
//   • the merged url.Values from ParseForm (query string plus urlencoded or
//     multipart body) for everything else.
//
// Single form values become strings, repeated keys become []string.  JSON
// numbers arrive as json.Number so integers beyond 2^53 survive unchanged;
// other JSON values keep the types encoding/json gives them.
//
// Notes
// -----
// • Every body, multipart included, is capped at maxBodyBytes.
// • Only the descriptor’s Fields allow-list, if any, filters keys.

package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

const (
	maxBodyBytes   = 1 << 20
	maxMemoryBytes = 8 << 20
)

// errBadInput marks malformed request bodies; handlers answer 400.
var errBadInput = errors.New("malformed request input")

// readInput returns the request’s key-value input, filtered by d.Fields.
func readInput(d Descriptor, w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var fields map[string]any
	var err error
	switch mt {
	case "application/json":
		fields, err = readJSON(r)
	case "multipart/form-data":
		if err = r.ParseMultipartForm(maxMemoryBytes); err == nil {
			fields = flatten(r.Form)
		}
	default:
		if err = r.ParseForm(); err == nil {
			fields = flatten(r.Form)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadInput, err)
	}

	for k := range fields {
		if !d.allows(k) {
			delete(fields, k)
		}
	}
	return fields, nil
}

func readJSON(r *http.Request) (map[string]any, error) {
	fields := map[string]any{}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if fields == nil { // body was the literal null
		fields = map[string]any{}
	}
	return fields, nil
}

func flatten(v map[string][]string) map[string]any {
	out := make(map[string]any, len(v))
	for k, vals := range v {
		switch len(vals) {
		case 0:
		case 1:
			out[k] = vals[0]
		default:
			out[k] = append([]string(nil), vals...)
		}
	}
	return out
}
