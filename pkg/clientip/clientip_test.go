package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authkit/pkg/clientip"
)

type ipCase struct {
	name       string
	headers    map[string]string
	remoteAddr string
	want       string
}

func runIPCases(t *testing.T, fn func(*http.Request) string, tests []ipCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, fn(r))
		})
	}
}

func TestGetIP(t *testing.T) {
	t.Parallel()

	runIPCases(t, clientip.GetIP, []ipCase{
		{"remote addr", nil, "10.0.0.1:5050", "10.0.0.1"},
		{"remote addr without port", nil, "10.0.0.2", "10.0.0.2"},
		{"forwarded header ignored", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "10.0.0.1:1", "10.0.0.1"},
		{"real ip header ignored", map[string]string{"X-Real-IP": "198.51.100.3"}, "10.0.0.1:1", "10.0.0.1"},
		{"ipv6 normalized", nil, "[2001:DB8::1]:443", "2001:db8::1"},
		{"garbage", nil, "garbage", ""},
	})
}

func TestGetForwardedIP(t *testing.T) {
	t.Parallel()

	runIPCases(t, clientip.GetForwardedIP, []ipCase{
		{"remote addr fallback", nil, "10.0.0.1:5050", "10.0.0.1"},
		{"forwarded first valid", map[string]string{"X-Forwarded-For": "bogus, 203.0.113.7, 10.0.0.1"}, "10.0.0.1:1", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.3"}, "10.0.0.1:1", "198.51.100.3"},
		{"forwarded wins over real ip", map[string]string{"X-Forwarded-For": "203.0.113.9", "X-Real-IP": "198.51.100.3"}, "10.0.0.1:1", "203.0.113.9"},
		{"ipv6 normalized", map[string]string{"X-Real-IP": "2001:DB8::1"}, "", "2001:db8::1"},
		{"invalid everywhere", map[string]string{"X-Real-IP": "nope"}, "garbage", ""},
	})
}
