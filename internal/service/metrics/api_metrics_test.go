package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEndpointCounters(t *testing.T) {
	e := Endpoint("calculate")
	e.Failed("ERR_GT")
	e.Failed("ERR_GT")
	e.Limited()
	e.Since(time.Now())

	if got := testutil.ToFloat64(failures.WithLabelValues("calculate", "ERR_GT")); got != 2 {
		t.Fatalf("failures = %v", got)
	}
	if got := testutil.ToFloat64(limited.WithLabelValues("calculate")); got != 1 {
		t.Fatalf("limited = %v", got)
	}
	if n := testutil.CollectAndCount(latency); n != 1 {
		t.Fatalf("latency series = %d", n)
	}
}
