package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// ParseJSON decodes JSON from the request body into dest, capping the
// body size so oversized requests fail with 413 instead of exhausting
// memory.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

// QueryInt reads an integer query parameter, falling back to def when
// the parameter is absent or malformed.
func QueryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
