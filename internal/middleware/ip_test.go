package middleware

import (
	"net"
	"net/http"
	"testing"
)

func TestGetProxyClientIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{
			name:     "direct connection (no headers)",
			headers:  map[string]string{},
			remote:   "203.0.113.9:54321",
			expected: "203.0.113.9",
		},
		{
			name:     "cloudflare header wins",
			headers:  map[string]string{"CF-Connecting-IP": "198.51.100.7"},
			remote:   "203.0.113.9:54321",
			expected: "198.51.100.7",
		},
		{
			name: "header precedence over forwarded list",
			headers: map[string]string{
				"CF-Connecting-IP": "198.51.100.7",
				"X-Forwarded-For":  "192.0.2.1, 198.51.100.2",
			},
			remote:   "203.0.113.9:54321",
			expected: "198.51.100.7",
		},
		{
			name: "forwarded list takes first entry",
			headers: map[string]string{
				"X-Forwarded-For": "192.0.2.1, 198.51.100.2",
			},
			remote:   "203.0.113.9:54321",
			expected: "192.0.2.1",
		},
		{
			name: "malformed header falls through to next",
			headers: map[string]string{
				"CF-Connecting-IP": "garbage",
				"X-Real-IP":        "192.0.2.44",
			},
			remote:   "203.0.113.9:54321",
			expected: "192.0.2.44",
		},
		{
			name:     "private IP in header is a spoofing attempt",
			headers:  map[string]string{"CF-Connecting-IP": "10.1.2.3"},
			remote:   "203.0.113.9:54321",
			expected: "203.0.113.9",
		},
		{
			name:     "invalid remote addr",
			headers:  map[string]string{},
			remote:   "not-an-address",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req, _ := http.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote

			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := getProxyClientIP(req); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		ip      string
		private bool
	}{
		{"127.0.0.1", true},
		{"10.255.0.1", true},
		{"172.16.0.1", true},
		{"192.168.1.1", true},
		{"::1", true},
		{"fe80::1", true},
		{"8.8.8.8", false},
		{"203.0.113.9", false},
		{"2001:db8::1", false},
	}

	for _, tt := range tests {
		if got := isPrivateIP(net.ParseIP(tt.ip)); got != tt.private {
			t.Errorf("isPrivateIP(%s) = %v, want %v", tt.ip, got, tt.private)
		}
	}
}
