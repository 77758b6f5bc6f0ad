package metrics

import (
	"database/sql"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCycle(t *testing.T) {
	tests := []struct {
		name      string
		kind      string
		state     string
		generated int
		skipped   int
		failed    int
	}{
		{name: "all generated", kind: "test_full", state: "done", generated: 12},
		{name: "idempotent rerun", kind: "test_rerun", state: "done", skipped: 12},
		{name: "partial failure", kind: "test_partial", state: "done", generated: 11, failed: 1},
		{name: "aborted", kind: "test_aborted", state: "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordCycle(tt.kind, tt.state, tt.generated, tt.skipped, tt.failed, 2*time.Second)

			assert.Equal(t, 1.0, testutil.ToFloat64(GenerationCyclesTotal.WithLabelValues(tt.kind, tt.state)))
			assert.Equal(t, float64(tt.generated), testutil.ToFloat64(GenerationUnitsTotal.WithLabelValues(tt.kind, "generated")))
			assert.Equal(t, float64(tt.skipped), testutil.ToFloat64(GenerationUnitsTotal.WithLabelValues(tt.kind, "skipped")))
			assert.Equal(t, float64(tt.failed), testutil.ToFloat64(GenerationUnitsTotal.WithLabelValues(tt.kind, "failed")))
		})
	}
}

func TestRecordProviderRequest(t *testing.T) {
	RecordProviderRequest("test-provider", "success", 300*time.Millisecond)
	RecordProviderRequest("test-provider", "timeout", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("test-provider", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("test-provider", "timeout")))
}

func TestSetEntityCount(t *testing.T) {
	SetEntityCount("test_kind", 7)
	assert.Equal(t, 7.0, testutil.ToFloat64(EntitiesTotal.WithLabelValues("test_kind")))

	SetEntityCount("test_kind", 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(EntitiesTotal.WithLabelValues("test_kind")))
}

func TestRecordDBStats(t *testing.T) {
	RecordDBStats(sql.DBStats{InUse: 2, Idle: 1})
	assert.Equal(t, 2.0, testutil.ToFloat64(DBConnectionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(DBConnectionsIdle))
}

func TestRecordOperation(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordOperationDuration("writer", "get_by_key", 3*time.Millisecond)
		RecordHTTPRequest("GET", "/horoscopes", "200", 12*time.Millisecond)
	})

	RecordOperationError("test_kind", "upsert", "storage_unavailable")
	assert.Equal(t, 1.0, testutil.ToFloat64(DBErrorsTotal.WithLabelValues("test_kind", "upsert", "storage_unavailable")))
}
