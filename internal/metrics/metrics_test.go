package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder()

	r.Applied("checkout")
	r.Applied("checkout")
	r.Applied("return")
	r.Rejected("return", "station_full")
	r.FareCharged(460)
	r.FareCharged(100)

	if got := testutil.ToFloat64(r.applied.WithLabelValues("checkout")); got != 2 {
		t.Errorf("Expected 2 checkouts, got %v", got)
	}
	if got := testutil.ToFloat64(r.applied.WithLabelValues("return")); got != 1 {
		t.Errorf("Expected 1 return, got %v", got)
	}
	if got := testutil.ToFloat64(r.rejected.WithLabelValues("return", "station_full")); got != 1 {
		t.Errorf("Expected 1 rejection, got %v", got)
	}
	if got := testutil.ToFloat64(r.fareTotals); got != 560 {
		t.Errorf("Expected fare total 560, got %v", got)
	}
}

func TestRecorder_Histograms(t *testing.T) {
	r := NewRecorder()
	r.CriticalSection("checkout", 3*time.Millisecond)
	r.LockWait("checkout", time.Millisecond)

	if got := testutil.CollectAndCount(r.critical); got != 1 {
		t.Errorf("Expected 1 critical section series, got %d", got)
	}
	if got := testutil.CollectAndCount(r.lockWaits); got != 1 {
		t.Errorf("Expected 1 lock wait series, got %d", got)
	}
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.Applied("checkout")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if !strings.Contains(string(body), `bikeshare_ledger_transitions_total{kind="checkout"} 1`) {
		t.Errorf("Expected checkout counter in output, got:\n%s", body)
	}
}

func TestRecorder_OccupancyDrift(t *testing.T) {
	r := NewRecorder()
	r.OccupancyDrift(7, 2)
	r.OccupancyDrift(8, -1)
	r.AuditCompleted()

	if got := testutil.ToFloat64(r.drift.WithLabelValues("7")); got != 2 {
		t.Errorf("Expected drift 2, got %v", got)
	}
	if got := testutil.ToFloat64(r.audits); got != 1 {
		t.Errorf("Expected 1 audit, got %v", got)
	}

	r.OccupancyDrift(7, 0)
	if got := testutil.CollectAndCount(r.drift); got != 1 {
		t.Errorf("Expected 1 drift series after reconciling, got %d", got)
	}
}
