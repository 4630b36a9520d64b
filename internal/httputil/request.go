package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes bounds request bodies; manual code saves are the largest payload
const maxBodyBytes = 10 << 20

// ErrEmptyBody is returned when an endpoint that takes a JSON body gets none
var ErrEmptyBody = errors.New("request body is required")

// ParseJSON decodes exactly one JSON object from the request body into dest.
// Unknown fields and trailing data are rejected so a client typo never reads
// as an omitted field.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if decoder.More() {
		return errors.New("invalid JSON: unexpected data after the object")
	}

	return nil
}
