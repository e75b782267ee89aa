package provider

import (
	"testing"
	"time"
)

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record("gemini", ms, false)
	}
	stats.Record("openai", 50, true)

	snap := stats.Snapshot("gemini")
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
	if snap.Failures != 0 {
		t.Fatalf("expected no gemini failures, got %d", snap.Failures)
	}

	oa := stats.Snapshot("openai")
	if oa.Count != 1 || oa.Failures != 1 {
		t.Fatalf("expected openai count=1 failures=1, got %+v", oa)
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.Record("gemini", 100, false)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot("gemini"); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}
	if all := stats.SnapshotAll(); len(all) != 0 {
		t.Fatalf("expected no providers after prune, got %v", all)
	}

	stats.Record("gemini", 200, false)
	snap := stats.Snapshot("gemini")
	if snap.Count != 1 || snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected single fresh sample of 200, got %+v", snap)
	}
}

func TestStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record("anthropic", -10, false)
	snap := stats.Snapshot("anthropic")
	if snap.Count != 1 || snap.MinMs != 0 {
		t.Fatalf("expected clamped duration=0, got %+v", snap)
	}
}

func TestStatsNilIsNoop(t *testing.T) {
	var stats *Stats
	stats.Record("gemini", 10, false)
}
