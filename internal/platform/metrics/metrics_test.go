package metrics

import (
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record("GET /api/v1/complaints", 200, 10*time.Millisecond)
	c.Record("GET /api/v1/complaints", 404, 20*time.Millisecond)
	c.Record("POST /api/v1/auth/login", 429, 0)
	c.Record("POST /api/v1/plans/{planID}/checkout", 500, 30*time.Millisecond)

	snap := c.Snapshot()
	if snap["requestsTotal"] != uint64(4) {
		t.Fatalf("expected 4 requests, got %v", snap["requestsTotal"])
	}
	if snap["clientErrorsTotal"] != uint64(2) || snap["serverErrorsTotal"] != uint64(1) || snap["rateLimitedTotal"] != uint64(1) {
		t.Fatalf("unexpected error counters: %+v", snap)
	}
	if snap["avgDurationMs"] != float64(15) {
		t.Fatalf("expected avg 15ms, got %v", snap["avgDurationMs"])
	}
	routes := snap["routes"].(map[string]uint64)
	if routes["GET /api/v1/complaints"] != 2 {
		t.Fatalf("expected route count 2, got %+v", routes)
	}
}

func TestNilCollectorIgnoresRecord(t *testing.T) {
	var c *Collector
	c.Record("GET /", 200, time.Millisecond)
}
