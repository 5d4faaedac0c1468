package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxRequestBody caps request bodies at 1 MiB; every payload this API
// accepts is far smaller.
const maxRequestBody = 1 << 20

// DecodeJSON parses the request body into dst, rejecting unknown fields
// and oversized bodies.
func DecodeJSON(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	return nil
}
