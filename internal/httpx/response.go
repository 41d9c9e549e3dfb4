package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/asad/userstate/internal/origin"
)

// maxBodyBytes bounds call request bodies.
const maxBodyBytes = 1 << 16

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes an error response in a consistent format.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	_ = WriteJSON(w, statusCode, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// WriteBadOrigin writes the response for a call rejected by the signer check.
func WriteBadOrigin(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, origin.ErrBadOrigin.Error(), "call requires a signed origin")
}

// DecodeJSON decodes a request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
