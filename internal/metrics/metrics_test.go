package metrics

import (
	"testing"
	"time"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://shop.example.com/path", "shop.example.com"},
		{"standard https", "https://Shop.Example.com/path", "shop.example.com"},
		{"no scheme", "shop.example.com/path", "shop.example.com"},
		{"just host", "shop.example.com", "shop.example.com"},
		{"host with port", "shop.example.com:8080", "shop.example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if pipelineRunsTotal == nil || fetchesTotal == nil ||
		httpRequestsTotal == nil || httpRequestDurationSeconds == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	// The observation helpers must not panic once initialized.
	ObserveFetch("https://shop.example.com", "", 1024)
	ObserveFetch("https://shop.example.com", "not_found", 0)
	ObservePipeline("success", 2*time.Second)
	IncActivePipelines()
	DecActivePipelines()
	ObserveHTTPRequest("POST", "/v1/insights", 200, 150*time.Millisecond)
}

func TestObserversTolerateZeroValues(t *testing.T) {
	ObserveFetch("", "", 0)
	ObservePipeline("", 0)
	ObserveHTTPRequest("", "", 0, 0)
}
