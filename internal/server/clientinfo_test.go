package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "forwarded-for first hop",
			headers:    map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1", "X-Real-IP": "198.51.100.2"},
			remoteAddr: "10.0.0.1:5000",
			want:       "203.0.113.7",
		},
		{
			name:       "real ip",
			headers:    map[string]string{"X-Real-IP": "198.51.100.2", "X-Forwarded": "192.0.2.9"},
			remoteAddr: "10.0.0.1:5000",
			want:       "198.51.100.2",
		},
		{
			name:       "forwarded first hop",
			headers:    map[string]string{"X-Forwarded": "192.0.2.9, 10.0.0.2"},
			remoteAddr: "10.0.0.1:5000",
			want:       "192.0.2.9",
		},
		{
			name:       "remote address",
			remoteAddr: "10.0.0.1:5000",
			want:       "10.0.0.1",
		},
		{
			name:       "remote address ipv6",
			remoteAddr: "[::1]:5000",
			want:       "::1",
		},
		{
			name:       "remote address without port",
			remoteAddr: "10.0.0.1",
			want:       "10.0.0.1",
		},
		{
			name: "unknown",
			want: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for name, value := range tt.headers {
				req.Header.Set(name, value)
			}

			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want UserAgentInfo
	}{
		{
			name: "chrome on windows",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			want: UserAgentInfo{Browser: "Chrome", OS: "Windows", Device: "Desktop"},
		},
		{
			name: "firefox on linux",
			ua:   "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			want: UserAgentInfo{Browser: "Firefox", OS: "Linux", Device: "Desktop"},
		},
		{
			name: "safari on iphone",
			ua:   "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Version/17.0 Mobile/15E148 Safari/604.1",
			want: UserAgentInfo{Browser: "Safari", OS: "macOS", Device: "Mobile"},
		},
		{
			name: "edge reports chrome",
			ua:   "Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 Chrome/120.0 Safari/537.36 Edg/120.0",
			want: UserAgentInfo{Browser: "Chrome", OS: "Windows", Device: "Desktop"},
		},
		{
			name: "android is linux and mobile",
			ua:   "Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 Chrome/120.0 Mobile Safari/537.36",
			want: UserAgentInfo{Browser: "Chrome", OS: "Linux", Device: "Mobile"},
		},
		{
			name: "tablet",
			ua:   "SomeReader/1.0 (Tablet)",
			want: UserAgentInfo{Browser: "Unknown", OS: "Unknown", Device: "Tablet"},
		},
		{
			name: "curl",
			ua:   "curl/8.4.0",
			want: UserAgentInfo{Browser: "Unknown", OS: "Unknown", Device: "Desktop"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseUserAgent(tt.ua); got != tt.want {
				t.Errorf("ParseUserAgent() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
