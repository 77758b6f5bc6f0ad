package slo

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCycle(t *testing.T) {
	at := time.Date(2026, 10, 17, 0, 5, 0, 0, time.UTC)

	tests := []struct {
		name           string
		kind           string
		stored         int
		expected       int
		wantRatio      float64
		wantStampAtAll bool
	}{
		{"complete", "horoscope", 12, 12, 1, true},
		{"partial", "article", 3, 4, 0.75, false},
		{"nothing expected", "writerless", 0, 0, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			LastComplete.WithLabelValues(tt.kind).Set(0)

			RecordCycle(tt.kind, tt.stored, tt.expected, at)

			if got := testutil.ToFloat64(Completeness.WithLabelValues(tt.kind)); got != tt.wantRatio {
				t.Errorf("completeness = %v, want %v", got, tt.wantRatio)
			}
			stamp := testutil.ToFloat64(LastComplete.WithLabelValues(tt.kind))
			if tt.wantStampAtAll && stamp != float64(at.Unix()) {
				t.Errorf("last complete = %v, want %v", stamp, at.Unix())
			}
			if !tt.wantStampAtAll && stamp != 0 {
				t.Errorf("last complete = %v, want untouched", stamp)
			}
		})
	}
}

func TestStale(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	if !Stale(time.Time{}, now) {
		t.Error("zero time should be stale")
	}
	if Stale(now.Add(-25*time.Hour), now) {
		t.Error("25h old cycle should be fresh")
	}
	if !Stale(now.Add(-27*time.Hour), now) {
		t.Error("27h old cycle should be stale")
	}
}
