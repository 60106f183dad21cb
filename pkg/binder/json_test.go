package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildpass/guildpass/pkg/binder"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func jsonRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestJSON(t *testing.T) {
	t.Parallel()

	var p payload
	err := binder.JSON(jsonRequest(`{"name":"tier","count":3}`), &p)
	require.NoError(t, err)
	assert.Equal(t, "tier", p.Name)
	assert.Equal(t, 3, p.Count)
}

func TestJSON_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	var p payload
	err := binder.JSON(jsonRequest(`{"name":"tier","extra":true}`), &p)
	assert.ErrorIs(t, err, binder.ErrFailedToParseJSON)
}

func TestJSON_ContentType(t *testing.T) {
	t.Parallel()

	var p payload

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	assert.ErrorIs(t, binder.JSON(r, &p), binder.ErrMissingContentType)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "text/plain")
	assert.ErrorIs(t, binder.JSON(r, &p), binder.ErrUnsupportedMediaType)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	assert.NoError(t, binder.JSON(r, &p))
}

func TestJSON_BodyTooLarge(t *testing.T) {
	t.Parallel()

	var p payload
	big := `{"name":"` + strings.Repeat("x", binder.MaxJSONSize) + `"}`
	err := binder.JSON(jsonRequest(big), &p)
	assert.ErrorIs(t, err, binder.ErrBodyTooLarge)
}
