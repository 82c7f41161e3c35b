package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStatusMutation(t *testing.T) {
	c := statusMutations.WithLabelValues("resync_pending")
	before := testutil.ToFloat64(c)

	RecordStatusMutation("resync_pending")

	if delta := testutil.ToFloat64(c) - before; delta != 1 {
		t.Errorf("delta: got %f, want 1", delta)
	}
}

func TestRecordCreated_AddsCount(t *testing.T) {
	c := entitiesCreated.WithLabelValues("date")
	before := testutil.ToFloat64(c)

	RecordCreated("date", 7)

	if delta := testutil.ToFloat64(c) - before; delta != 7 {
		t.Errorf("delta: got %f, want 7", delta)
	}
}

func TestRecordResyncAndNotify(t *testing.T) {
	r := resyncs.WithLabelValues("applied")
	n := notifyDeliveries.WithLabelValues("dates.added", "failed")
	rb, nb := testutil.ToFloat64(r), testutil.ToFloat64(n)

	RecordResync("applied")
	RecordNotifyDelivery("dates.added", "failed")

	if testutil.ToFloat64(r)-rb != 1 {
		t.Error("resyncs_total not incremented")
	}
	if testutil.ToFloat64(n)-nb != 1 {
		t.Error("notify_deliveries_total not incremented")
	}
}

func TestSetBreakerState(t *testing.T) {
	SetBreakerState("store", 1)
	if got := testutil.ToFloat64(breakerState.WithLabelValues("store")); got != 1 {
		t.Errorf("got %f, want 1", got)
	}
	SetBreakerState("store", 0)
	if got := testutil.ToFloat64(breakerState.WithLabelValues("store")); got != 0 {
		t.Errorf("got %f, want 0", got)
	}
}
