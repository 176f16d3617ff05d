package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// Accepted request body media types.
const (
	mediaText = "text/plain"
	mediaJSON = "application/json"
)

// mediaType returns the request's media type without parameters. A
// missing Content-Type is treated as text/plain.
func mediaType(r *http.Request) (string, error) {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return mediaText, nil
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", fmt.Errorf("parsing content type: %w", err)
	}
	return mt, nil
}

// readBody reads the whole request body. On failure it writes the error
// response (413 for bodies over the limit) and returns false.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		writeBadRequest(w, "failed to read request body")
		return nil, false
	}
	return body, true
}

// requireText rejects anything but a text/plain body with 415.
func requireText(w http.ResponseWriter, r *http.Request) bool {
	mt, err := mediaType(r)
	if err != nil || mt != mediaText {
		writeError(w, http.StatusUnsupportedMediaType, ErrCodeUnsupportedMedia, "content type must be text/plain")
		return false
	}
	return true
}
