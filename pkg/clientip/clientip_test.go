package clientip_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guildpass/guildpass/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name: "cloudflare header wins",
			headers: map[string]string{
				"CF-Connecting-IP": "203.0.113.195",
				"X-Forwarded-For":  "192.168.1.1",
				"X-Real-IP":        "10.0.0.1",
			},
			remoteAddr: "172.16.0.1:54321",
			want:       "203.0.113.195",
		},
		{
			name: "first valid forwarded entry",
			headers: map[string]string{
				"X-Forwarded-For": "not-an-ip, 198.51.100.7, 10.0.0.1",
			},
			remoteAddr: "172.16.0.1:54321",
			want:       "198.51.100.7",
		},
		{
			name:       "real ip fallback",
			headers:    map[string]string{"X-Real-IP": "10.0.0.9"},
			remoteAddr: "172.16.0.1:54321",
			want:       "10.0.0.9",
		},
		{
			name:       "remote addr when no headers",
			remoteAddr: "172.16.0.1:54321",
			want:       "172.16.0.1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "172.16.0.1",
			want:       "172.16.0.1",
		},
		{
			name:       "ipv6 normalized",
			headers:    map[string]string{"X-Forwarded-For": "2001:0db8:0000:0000:0000:0000:0000:0001"},
			remoteAddr: "172.16.0.1:54321",
			want:       "2001:db8::1",
		},
		{
			name:       "invalid header falls through",
			headers:    map[string]string{"CF-Connecting-IP": "<script>"},
			remoteAddr: "172.16.0.1:54321",
			want:       "172.16.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.GetIP(r))
		})
	}
}
