// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStateTransition(t *testing.T) {
	before := testutil.ToFloat64(FeedStateTransitions.WithLabelValues("connected", "degraded"))

	RecordStateTransition("connected", "degraded", 2)

	if got := testutil.ToFloat64(FeedConnectionState); got != 2 {
		t.Errorf("feed_connection_state = %v, want 2", got)
	}
	after := testutil.ToFloat64(FeedStateTransitions.WithLabelValues("connected", "degraded"))
	if after-before != 1 {
		t.Errorf("transition counter delta = %v, want 1", after-before)
	}
}

func TestRecordBackoff(t *testing.T) {
	before := testutil.ToFloat64(FeedReconnectAttempts)

	RecordBackoff(4 * time.Second)

	if got := testutil.ToFloat64(FeedBackoffSeconds); got != 4 {
		t.Errorf("feed_backoff_seconds = %v, want 4", got)
	}
	if got := testutil.ToFloat64(FeedReconnectAttempts) - before; got != 1 {
		t.Errorf("reconnect attempts delta = %v, want 1", got)
	}
}

func TestRecordNormalization(t *testing.T) {
	acceptedBefore := testutil.ToFloat64(NormalizeRecords.WithLabelValues("vessel", "accepted"))
	rejectedBefore := testutil.ToFloat64(NormalizeRecords.WithLabelValues("vessel", "rejected"))
	latBefore := testutil.ToFloat64(NormalizeRejections.WithLabelValues("vessel", "invalid_latitude"))

	RecordNormalization("vessel", 2, map[string]int{"invalid_latitude": 1, "missing_id": 2})

	if got := testutil.ToFloat64(NormalizeRecords.WithLabelValues("vessel", "accepted")) - acceptedBefore; got != 2 {
		t.Errorf("accepted delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(NormalizeRecords.WithLabelValues("vessel", "rejected")) - rejectedBefore; got != 3 {
		t.Errorf("rejected delta = %v, want 3", got)
	}
	if got := testutil.ToFloat64(NormalizeRejections.WithLabelValues("vessel", "invalid_latitude")) - latBefore; got != 1 {
		t.Errorf("invalid_latitude delta = %v, want 1", got)
	}
}

func TestUpdateStoreGauges(t *testing.T) {
	UpdateStoreGauges("port", 12, 3, 77)

	if got := testutil.ToFloat64(StoreEntities.WithLabelValues("port")); got != 12 {
		t.Errorf("store_entities = %v, want 12", got)
	}
	if got := testutil.ToFloat64(StoreStaleEntities.WithLabelValues("port")); got != 3 {
		t.Errorf("store_stale_entities = %v, want 3", got)
	}
	if got := testutil.ToFloat64(StoreVersion); got != 77 {
		t.Errorf("store_version = %v, want 77", got)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits.WithLabelValues("filter"))
	misses := testutil.ToFloat64(CacheMisses.WithLabelValues("filter"))

	RecordCacheLookup("filter", true)
	RecordCacheLookup("filter", false)
	RecordCacheLookup("filter", false)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("filter")) - hits; got != 1 {
		t.Errorf("hits delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("filter")) - misses; got != 2 {
		t.Errorf("misses delta = %v, want 2", got)
	}
}

func TestObserveStage(t *testing.T) {
	ObserveStage("heatmap", time.Now().Add(-time.Millisecond))

	if n := testutil.CollectAndCount(SpatialRecomputeDuration); n == 0 {
		t.Error("expected at least one heatmap observation series")
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)

	if got := testutil.ToFloat64(APIActiveRequests) - before; got != 1 {
		t.Errorf("in-flight delta = %v, want 1", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/snapshot", "200"))

	RecordAPIRequest("GET", "/api/v1/snapshot", "200", 3*time.Millisecond)

	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/snapshot", "200")) - before; got != 1 {
		t.Errorf("requests delta = %v, want 1", got)
	}
}
