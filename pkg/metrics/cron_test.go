package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCronJobMetricsRecordsRunsAndPurges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveRun("anonymous_sessions-retention", 120*time.Millisecond, nil)
	m.ObserveRun("anonymous_sessions-retention", 80*time.Millisecond, errors.New("boom"))
	m.IncSkipped()
	m.AddPurged("anonymous_sessions", 42)
	m.AddPurged("anonymous_sessions", 0)

	if got := testutil.ToFloat64(m.runs.WithLabelValues("anonymous_sessions-retention", "success")); got != 1 {
		t.Fatalf("expected one success, got %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("anonymous_sessions-retention", "failure")); got != 1 {
		t.Fatalf("expected one failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.skipped); got != 1 {
		t.Fatalf("expected one skipped cycle, got %v", got)
	}
	if got := testutil.ToFloat64(m.purged.WithLabelValues("anonymous_sessions")); got != 42 {
		t.Fatalf("expected 42 purged rows, got %v", got)
	}

	expected := `
# HELP cron_cycles_skipped_total Cycles skipped because another replica held the lock.
# TYPE cron_cycles_skipped_total counter
cron_cycles_skipped_total 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "cron_cycles_skipped_total"); err != nil {
		t.Fatalf("gather: %v", err)
	}
}

func TestNilCronJobMetricsIsNoop(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveRun("job", time.Second, nil)
	m.IncSkipped()
	m.AddPurged("t", 1)

	NewCronJobMetrics(nil).ObserveRun("job", time.Second, nil)
}
