package server

import (
	"net"
	"net/http"
	"strings"
)

// UserAgentInfo is a coarse classification of a User-Agent string
type UserAgentInfo struct {
	Browser string `json:"browser"`
	OS      string `json:"os"`
	Device  string `json:"device"`
}

// ClientIP returns the caller's address. Proxy headers are trusted in order:
// X-Forwarded-For (first hop), X-Real-IP, X-Forwarded (first hop), then the
// connection's remote address.
func ClientIP(r *http.Request) string {
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		return firstHop(forwardedFor)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if forwarded := r.Header.Get("X-Forwarded"); forwarded != "" {
		return firstHop(forwarded)
	}
	if host, _ := splitRemoteAddr(r.RemoteAddr); host != "" {
		return host
	}
	return "unknown"
}

func firstHop(list string) string {
	first, _, _ := strings.Cut(list, ",")
	return strings.TrimSpace(first)
}

// splitRemoteAddr splits host:port, tolerating addresses without a port
func splitRemoteAddr(addr string) (host, port string) {
	if addr == "" {
		return "", ""
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, ""
	}
	return host, port
}

// ParseUserAgent classifies a User-Agent by case-insensitive substring checks.
// The first match wins in each category.
func ParseUserAgent(userAgent string) UserAgentInfo {
	ua := strings.ToLower(userAgent)
	info := UserAgentInfo{
		Browser: "Unknown",
		OS:      "Unknown",
	}

	switch {
	case strings.Contains(ua, "chrome"):
		info.Browser = "Chrome"
	case strings.Contains(ua, "firefox"):
		info.Browser = "Firefox"
	case strings.Contains(ua, "safari"):
		info.Browser = "Safari"
	case strings.Contains(ua, "edge"):
		info.Browser = "Edge"
	case strings.Contains(ua, "opera"):
		info.Browser = "Opera"
	}

	switch {
	case strings.Contains(ua, "windows"):
		info.OS = "Windows"
	case strings.Contains(ua, "mac"):
		info.OS = "macOS"
	case strings.Contains(ua, "linux"):
		info.OS = "Linux"
	case strings.Contains(ua, "android"):
		info.OS = "Android"
	case strings.Contains(ua, "ios"):
		info.OS = "iOS"
	}

	switch {
	case strings.Contains(ua, "mobile"), strings.Contains(ua, "android"), strings.Contains(ua, "iphone"):
		info.Device = "Mobile"
	case strings.Contains(ua, "tablet"), strings.Contains(ua, "ipad"):
		info.Device = "Tablet"
	default:
		info.Device = "Desktop"
	}

	return info
}

// flattenHeaders lowercases header names and joins repeated values
func flattenHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for name, values := range header {
		out[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	return out
}
