package binder

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxJSONSize caps JSON request bodies at 1 MB.
const MaxJSONSize = 1 << 20

// JSON decodes the request body into v. The content type must be
// application/json and unknown fields are rejected.
func JSON(r *http.Request, v any) error {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
	}
	mediaType, _, _ := strings.Cut(contentType, ";")
	if strings.TrimSpace(mediaType) != "application/json" {
		return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, mediaType)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxJSONSize+1))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
	}
	if len(body) > MaxJSONSize {
		return fmt.Errorf("%w: max %d bytes", ErrBodyTooLarge, MaxJSONSize)
	}

	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
	}
	return nil
}
