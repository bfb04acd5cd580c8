package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector(t *testing.T) {

	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatal(err)
	}

	c.ObserveRequest("GET", "/features", 404, 3*time.Millisecond)
	c.ObserveRequest("GET", "/features", 404, time.Millisecond)
	c.RepositoryError("not_found")

	if got := testutil.ToFloat64(c.Requests.WithLabelValues("GET", "/features", "404")); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(c.RepositoryErrors.WithLabelValues("not_found")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}

	if _, err := NewCollector(reg); err == nil {
		t.Fatal("registering twice on the same registry should fail")
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.ObserveRequest("GET", "/", 200, time.Millisecond)
	c.RepositoryError("store_unavailable")
	if c.Handler() == nil {
		t.Fatal("expected a handler")
	}
}
