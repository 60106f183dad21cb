package cookie

import "errors"

var (
	ErrNoSecret          = errors.New("cookie: no signing secret provided")
	ErrSecretTooShort    = errors.New("cookie: signing secret too short")
	ErrCookieNotFound    = errors.New("cookie: not found")
	ErrSignatureMismatch = errors.New("cookie: signature mismatch")
	ErrMalformedValue    = errors.New("cookie: malformed value")
)
