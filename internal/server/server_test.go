package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/username/holiday-api/internal/calendar"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}

	store := calendar.NewStore(calendar.NewEmbeddedSource(), zap.NewNop())
	srv := New(store, calendar.NewResolver(store), loc, zap.NewNop())
	srv.now = func() time.Time {
		return time.Date(2024, time.October, 1, 9, 30, 15, 123456000, loc)
	}
	return srv, srv.Handler()
}

func doRequest(handler http.Handler, method, target string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return out
}

func TestHolidayCheck(t *testing.T) {
	_, handler := newTestServer(t)

	tests := []struct {
		date        string
		wantHoliday bool
		wantName    string
		wantSource  string
	}{
		{"2024-10-01", true, "国庆节", "official"},
		{"2024-09-29", false, "国庆节调休", "official"},
		{"2024-12-28", true, "周末", "weekend"},
		{"2024-12-27", false, "", "weekend"},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			rec := doRequest(handler, http.MethodGet, "/holiday/check/"+tt.date, "", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}

			body := decodeBody(t, rec)
			if body["date"] != tt.date {
				t.Errorf("date = %v, want %s", body["date"], tt.date)
			}
			if body["isHoliday"] != tt.wantHoliday {
				t.Errorf("isHoliday = %v, want %v", body["isHoliday"], tt.wantHoliday)
			}
			if body["isWorkday"] == tt.wantHoliday {
				t.Errorf("isWorkday = %v, want %v", body["isWorkday"], !tt.wantHoliday)
			}
			name, _ := body["holidayName"].(string)
			if name != tt.wantName {
				t.Errorf("holidayName = %q, want %q", name, tt.wantName)
			}
			if body["source"] != tt.wantSource {
				t.Errorf("source = %v, want %s", body["source"], tt.wantSource)
			}
		})
	}
}

func TestBadDates(t *testing.T) {
	_, handler := newTestServer(t)

	for _, target := range []string{
		"/holiday/check/2024-13-01",
		"/holiday/check/20241001",
		"/holiday/next-workday/tomorrow",
		"/time/2024-02-30",
	} {
		t.Run(target, func(t *testing.T) {
			rec := doRequest(handler, http.MethodGet, target, "", nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if _, ok := decodeBody(t, rec)["error"]; !ok {
				t.Error("expected error field")
			}
		})
	}
}

func TestYearHolidays(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doRequest(handler, http.MethodGet, "/holiday/2024", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Year     int                    `json:"year"`
		Total    int                    `json:"total"`
		Holidays []calendar.ResolvedDay `json:"holidays"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Year != 2024 || body.Total != len(body.Holidays) || body.Total != 36 {
		t.Errorf("year = %d, total = %d, len = %d", body.Year, body.Total, len(body.Holidays))
	}
	if body.Holidays[0].Date != "2024-01-01" || body.Holidays[1].Date != "2024-02-04" {
		t.Errorf("holidays not in file order: %s, %s", body.Holidays[0].Date, body.Holidays[1].Date)
	}

	rec = doRequest(handler, http.MethodGet, "/holiday/1999", "", nil)
	if rec.Code != http.StatusOK || decodeBody(t, rec)["total"] != float64(0) {
		t.Errorf("year without data: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(handler, http.MethodGet, "/holiday/abc", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-integer year status = %d, want 400", rec.Code)
	}
}

func TestYears(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doRequest(handler, http.MethodGet, "/holiday/years", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"years":[2024,2025]}` {
		t.Errorf("body = %s", got)
	}
}

func TestNextDays(t *testing.T) {
	_, handler := newTestServer(t)

	tests := []struct {
		target string
		want   string
	}{
		{"/holiday/next-workday/2024-09-30", "2024-10-08"},
		{"/holiday/next-workday/2024-10-11", "2024-10-12"},
		{"/holiday/next-holiday/2024-09-29", "2024-10-01"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := doRequest(handler, http.MethodGet, tt.target, "", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if got := decodeBody(t, rec)["date"]; got != tt.want {
				t.Errorf("date = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestTime(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doRequest(handler, http.MethodGet, "/time", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := decodeBody(t, rec)
	want := map[string]any{
		"date":        "2024-10-01",
		"time":        "09:30:15",
		"timezone":    "Asia/Shanghai",
		"timestamp":   "2024-10-01T09:30:15.123456",
		"hour":        float64(9),
		"microsecond": float64(123456),
		"isHoliday":   true,
		"holidayName": "国庆节",
		"quarter":     float64(4),
		"season":      "autumn",
	}
	for key, value := range want {
		if body[key] != value {
			t.Errorf("%s = %v, want %v", key, body[key], value)
		}
	}

	rec = doRequest(handler, http.MethodGet, "/time/2024-12-28", "", nil)
	body = decodeBody(t, rec)
	if body["date"] != "2024-12-28" || body["hour"] != float64(0) || body["holidayName"] != "周末" {
		t.Errorf("snapshot for date = %v", body)
	}
}

func TestReload(t *testing.T) {
	srv, handler := newTestServer(t)

	doRequest(handler, http.MethodGet, "/holiday/check/2024-10-01", "", nil)
	if len(srv.store.CachedYears()) == 0 {
		t.Fatal("expected 2024 to be cached")
	}

	rec := doRequest(handler, http.MethodPost, "/holiday/reload", "", nil)
	if rec.Code != http.StatusOK || decodeBody(t, rec)["status"] != "ok" {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if cached := srv.store.CachedYears(); len(cached) != 0 {
		t.Errorf("CachedYears() = %v after reload, want empty", cached)
	}
}

func TestRequestReflection(t *testing.T) {
	_, handler := newTestServer(t)

	t.Run("ip", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/ip", "", map[string]string{
			"X-Forwarded-For": "203.0.113.7, 10.0.0.1",
			"X-Real-IP":       "198.51.100.2",
		})
		body := decodeBody(t, rec)
		if body["client_ip"] != "203.0.113.7" {
			t.Errorf("client_ip = %v", body["client_ip"])
		}
		if body["real_ip"] != "198.51.100.2" {
			t.Errorf("real_ip = %v", body["real_ip"])
		}
		if body["forwarded"] != nil {
			t.Errorf("forwarded = %v, want null", body["forwarded"])
		}
		if body["client_host"] != "192.0.2.1" {
			t.Errorf("client_host = %v", body["client_host"])
		}
	})

	t.Run("info", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/info?lang=zh&lang=en", "", map[string]string{
			"Cookie": "session=abc",
		})
		body := decodeBody(t, rec)
		if body["method"] != http.MethodGet || body["url"] != "http://example.com/info?lang=zh&lang=en" {
			t.Errorf("method = %v, url = %v", body["method"], body["url"])
		}
		if q := body["query_params"].(map[string]any); q["lang"] != "en" {
			t.Errorf("query_params = %v", q)
		}
		if cookies := body["cookies"].(map[string]any); cookies["session"] != "abc" {
			t.Errorf("cookies = %v", cookies)
		}
		if client := body["client"].(map[string]any); client["host"] != "192.0.2.1" || client["port"] != "1234" {
			t.Errorf("client = %v", client)
		}
	})

	t.Run("headers", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/headers", "", map[string]string{"X-Custom": "1"})
		body := decodeBody(t, rec)
		headers := body["headers"].(map[string]any)
		if headers["x-custom"] != "1" {
			t.Errorf("headers = %v", headers)
		}
		if body["total_headers"] != float64(len(headers)) {
			t.Errorf("total_headers = %v, want %d", body["total_headers"], len(headers))
		}
	})

	t.Run("user-agent", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/user-agent", "", nil)
		body := decodeBody(t, rec)
		if body["user_agent"] != "Unknown" {
			t.Errorf("user_agent = %v", body["user_agent"])
		}
		parsed := body["parsed_info"].(map[string]any)
		if parsed["browser"] != "Unknown" || parsed["device"] != "Desktop" {
			t.Errorf("parsed_info = %v", parsed)
		}
	})
}

func TestEcho(t *testing.T) {
	_, handler := newTestServer(t)

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantKey     string
	}{
		{"json", "application/json", `{"a":1}`, http.StatusOK, "json_data"},
		{"json with charset", "application/json; charset=utf-8", `[1,2]`, http.StatusOK, "json_data"},
		{"text", "text/plain", "hello", http.StatusOK, "raw_data"},
		{"invalid json", "application/json", `{"a":`, http.StatusBadRequest, ""},
		{"body at limit", "text/plain", strings.Repeat("a", maxEchoBody), http.StatusOK, "raw_data"},
		{"body over limit", "text/plain", strings.Repeat("a", maxEchoBody+100), http.StatusRequestEntityTooLarge, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(handler, http.MethodPost, "/echo", tt.body, map[string]string{"Content-Type": tt.contentType})
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantKey == "" {
				return
			}

			body := decodeBody(t, rec)
			if body["content_length"] != float64(len(tt.body)) {
				t.Errorf("content_length = %v, want %d", body["content_length"], len(tt.body))
			}
			if _, ok := body["data"].(map[string]any)[tt.wantKey]; !ok {
				t.Errorf("data = %v, want key %s", body["data"], tt.wantKey)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	_, handler := newTestServer(t)

	t.Run("request id generated", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/healthz", "", nil)
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("expected generated X-Request-ID")
		}
		if rec.Header().Get("Cache-Control") != "no-store" {
			t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
		}
	})

	t.Run("request id propagated", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/healthz", "", map[string]string{"X-Request-ID": "abc-123"})
		if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
			t.Errorf("X-Request-ID = %q", got)
		}
	})

	t.Run("cors preflight", func(t *testing.T) {
		rec := doRequest(handler, http.MethodOptions, "/echo", "", map[string]string{
			"Origin":                         "https://app.example",
			"Access-Control-Request-Method":  "POST",
			"Access-Control-Request-Headers": "Content-Type",
		})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example" {
			t.Errorf("Allow-Origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
		if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Error("expected credentials allowed")
		}
		if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "Content-Type") {
			t.Errorf("Allow-Headers = %q", rec.Header().Get("Access-Control-Allow-Headers"))
		}
		if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "POST") {
			t.Errorf("Allow-Methods = %q", rec.Header().Get("Access-Control-Allow-Methods"))
		}
	})

	t.Run("cors simple request", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/healthz", "", map[string]string{"Origin": "https://other.example"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "https://other.example" {
			t.Errorf("Allow-Origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
		if !strings.Contains(rec.Header().Get("Access-Control-Expose-Headers"), "X-Request-Id") &&
			!strings.Contains(rec.Header().Get("Access-Control-Expose-Headers"), "X-Request-ID") {
			t.Errorf("Expose-Headers = %q", rec.Header().Get("Access-Control-Expose-Headers"))
		}
	})

	t.Run("no cors headers without origin", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/healthz", "", nil)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want none", got)
		}
	})

	t.Run("index", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/", "", nil)
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/holiday/check") {
			t.Errorf("index status = %d", rec.Code)
		}
	})
}
