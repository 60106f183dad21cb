package discord_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildpass/guildpass/pkg/discord"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *discord.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return discord.NewClient(discord.Config{
		BotToken:       "bot-token",
		APIBaseURL:     srv.URL,
		RequestTimeout: 5 * time.Second,
	})
}

func TestClient_Guild(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/guilds/G1", r.URL.Path)
		assert.Equal(t, "Bot bot-token", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(discord.Guild{
			ID: "G1", Name: "Test Guild", Icon: "abc", OwnerID: "S1",
		})
	})

	g, err := client.Guild(t.Context(), "G1")
	require.NoError(t, err)
	assert.Equal(t, "Test Guild", g.Name)
	assert.Equal(t, "S1", g.OwnerID)
}

func TestClient_Guild_unknown(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Unknown Guild","code":10004}`))
	})

	_, err := client.Guild(t.Context(), "missing")
	assert.ErrorIs(t, err, discord.ErrUnknownGuild)
}

func TestClient_GuildRoles_filtersManaged(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]discord.Role{
			{ID: "R1", Name: "Subscriber"},
			{ID: "R2", Name: "Bot Role", Managed: true},
		})
	})

	roles, err := client.GuildRoles(t.Context(), "G1")
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "R1", roles[0].ID)
}

func TestClient_AddGuildMember(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/guilds/G1/members/C1", r.URL.Path)

		var body struct {
			AccessToken string   `json:"access_token"`
			Roles       []string `json:"roles"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user-token", body.AccessToken)
		assert.Equal(t, []string{"R1"}, body.Roles)

		// 204 means the user was already a member; still a success.
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.AddGuildMember(t.Context(), "G1", "C1", "user-token", []string{"R1"})
	require.NoError(t, err)
}

func TestClient_ModifyGuildMemberRoles(t *testing.T) {
	t.Parallel()

	t.Run("empty slice revokes all roles", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)

			var body map[string]json.RawMessage
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.JSONEq(t, `[]`, string(body["roles"]))

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"user":{"id":"C1"},"roles":[]}`))
		})

		require.NoError(t, client.ModifyGuildMemberRoles(t.Context(), "G1", "C1", nil))
	})

	t.Run("member left the guild", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Unknown Member","code":10007}`))
		})

		err := client.ModifyGuildMemberRoles(t.Context(), "G1", "C1", []string{"R1"})
		assert.ErrorIs(t, err, discord.ErrUnknownMember)
	})
}

func TestClient_UserGuilds(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]discord.Guild{
			{ID: "G1", Name: "Mine", Owner: true},
			{ID: "G2", Name: "Theirs", Owner: false},
		})
	})

	guilds, err := client.UserGuilds(t.Context(), "user-token")
	require.NoError(t, err)
	assert.Len(t, guilds, 2)
	assert.True(t, guilds[0].Owner)
}
