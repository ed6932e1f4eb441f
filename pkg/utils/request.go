package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

const maxBodyBytes = 1 << 20

// DecodeJSONBody decodes a single JSON object into dst, rejecting unknown
// fields. The returned status is what the handler should answer on error.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) (int, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return http.StatusUnsupportedMediaType, fmt.Errorf("Content-Type header is not application/json")
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return http.StatusBadRequest, errors.New("request body is empty")
		case errors.As(err, &tooLarge):
			return http.StatusRequestEntityTooLarge, fmt.Errorf("request body must not exceed %d bytes", maxBodyBytes)
		}
		return http.StatusBadRequest, err
	}

	if dec.More() {
		return http.StatusBadRequest, errors.New("request body must contain a single JSON object")
	}

	return http.StatusOK, nil
}
