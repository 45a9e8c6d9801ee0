// internal/requestinfo/requestinfo_test.go
//
// Unit-tests for client IP extraction, request ids, and AccessLog.

package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestClientIP_Precedence(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	if got := clientIP(req).String(); got != "10.0.0.9" {
		t.Fatalf("remote addr: got %s", got)
	}

	req.Header.Set("X-Real-Ip", "198.51.100.7")
	if got := clientIP(req).String(); got != "198.51.100.7" {
		t.Fatalf("x-real-ip: got %s", got)
	}

	req.Header.Set("X-Forwarded-For", "garbage, 203.0.113.5, 10.0.0.1")
	if got := clientIP(req).String(); got != "203.0.113.5" {
		t.Fatalf("x-forwarded-for: got %s", got)
	}
}

func TestRequestID_KeepsInboundOrIssuesNew(t *testing.T) {
	if got := requestID("abc-123"); got != "abc-123" {
		t.Fatalf("inbound id dropped: %q", got)
	}
	if got := requestID(""); len(got) != 36 {
		t.Fatalf("fresh id %q is not a UUID", got)
	}
	if got := requestID("bad\r\nid"); got == "bad\r\nid" {
		t.Fatalf("header-splitting id accepted")
	}
}

func TestNilGeo(t *testing.T) {
	var g *Geo
	if got := g.Country(nil); got != "" {
		t.Fatalf("nil geo country = %q", got)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("nil geo close: %v", err)
	}
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core).Sugar()

	var seen *Info
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/articles", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36")
	rr := httptest.NewRecorder()

	AccessLog(log, nil)(next).ServeHTTP(rr, req)

	if seen == nil || seen.RequestID != "req-1" {
		t.Fatalf("info not in context: %+v", seen)
	}
	if got := rr.Header().Get(HeaderRequestID); got != "req-1" {
		t.Fatalf("response id = %q", got)
	}
	if logs.Len() != 1 {
		t.Fatalf("log lines = %d, want 1", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) {
		t.Fatalf("logged status = %v", fields["status"])
	}
	if fields["browser"] != "Chrome" {
		t.Fatalf("logged browser = %v", fields["browser"])
	}
}
