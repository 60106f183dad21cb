package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

const minSecretLength = 32

// Config holds the manager's environment configuration. Secrets are
// comma-separated with the newest first so old cookies stay valid through a
// rotation.
type Config struct {
	Secrets  []string `env:"COOKIE_SECRETS,required"`
	Secure   bool     `env:"COOKIE_SECURE" envDefault:"true"`
	SameSite string   `env:"COOKIE_SAME_SITE" envDefault:"lax"`
}

// Manager signs cookie values with the first secret and verifies against
// all of them.
type Manager struct {
	secrets  []string
	defaults Options
}

// Options mirror the net/http cookie attributes the manager sets.
type Options struct {
	Path     string
	Domain   string
	MaxAge   int
	Secure   bool
	HttpOnly bool
	SameSite http.SameSite
}

// Option overrides one cookie attribute for a single Set call.
type Option func(*Options)

func WithPath(path string) Option         { return func(o *Options) { o.Path = path } }
func WithDomain(domain string) Option     { return func(o *Options) { o.Domain = domain } }
func WithMaxAge(seconds int) Option       { return func(o *Options) { o.MaxAge = seconds } }
func WithSecure(secure bool) Option       { return func(o *Options) { o.Secure = secure } }
func WithSameSite(s http.SameSite) Option { return func(o *Options) { o.SameSite = s } }

// New validates the secrets and builds a manager with Lax, HttpOnly
// defaults.
func New(secrets []string, opts ...Option) (*Manager, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}
	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d",
				ErrSecretTooShort, i, len(s), minSecretLength)
		}
	}

	defaults := Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(&defaults)
	}

	return &Manager{secrets: secrets, defaults: defaults}, nil
}

// NewFromConfig builds a manager from environment configuration.
func NewFromConfig(cfg Config) (*Manager, error) {
	sameSite := http.SameSiteLaxMode
	if strings.EqualFold(cfg.SameSite, "strict") {
		sameSite = http.SameSiteStrictMode
	}
	return New(cfg.Secrets, WithSecure(cfg.Secure), WithSameSite(sameSite))
}

// Set writes a signed cookie. The name is bound into the signature so a
// value cannot be replayed under a different cookie name.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) {
	o := m.defaults
	for _, opt := range opts {
		opt(&o)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    m.encode(name, value),
		Path:     o.Path,
		Domain:   o.Domain,
		MaxAge:   o.MaxAge,
		Secure:   o.Secure,
		HttpOnly: o.HttpOnly,
		SameSite: o.SameSite,
	})
}

// Get returns the verified value of a signed cookie.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", ErrCookieNotFound
	}
	return m.decode(name, c.Value)
}

// Delete expires the cookie immediately.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	o := m.defaults
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     o.Path,
		Domain:   o.Domain,
		MaxAge:   -1,
		Secure:   o.Secure,
		HttpOnly: o.HttpOnly,
		SameSite: o.SameSite,
	})
}

func (m *Manager) encode(name, value string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(value))
	return payload + "." + m.signature(m.secrets[0], name, payload)
}

func (m *Manager) decode(name, raw string) (string, error) {
	payload, sig, ok := strings.Cut(raw, ".")
	if !ok {
		return "", ErrMalformedValue
	}

	valid := false
	for _, secret := range m.secrets {
		expected := m.signature(secret, name, payload)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) == 1 {
			valid = true
			break
		}
	}
	if !valid {
		return "", ErrSignatureMismatch
	}

	value, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrMalformedValue
	}
	return string(value), nil
}

func (m *Manager) signature(secret, name, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(name))
	mac.Write([]byte{'|'})
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
