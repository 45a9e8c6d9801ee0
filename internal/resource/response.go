// internal/resource/response.go
//
// Response helpers used by the generated handlers.  JSON bodies are written
// with encoding/json; error and confirmation bodies are plain text.

package resource

import (
	"encoding/json"
	"net/http"

	"github.com/yanizio/nutshell/internal/model"
)

// writeJSON encodes v with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the status text for code.
func writeError(w http.ResponseWriter, code int) {
	http.Error(w, http.StatusText(code), code)
}

// writeText answers with a literal body.
func writeText(w http.ResponseWriter, body string, code int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}

// attributes reduces records to their plain field maps.  A nil slice
// becomes an empty array so list responses are always `[...]`.
func attributes(recs []model.Record) []map[string]any {
	out := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Attributes())
	}
	return out
}
