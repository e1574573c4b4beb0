package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/{code}", "302"))

	RecordHTTPRequest("GET", "/{code}", "302", 3*time.Millisecond)
	RecordHTTPRequest("GET", "/{code}", "302", 4*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/{code}", "302"))
	if after-before != 2 {
		t.Errorf("expected 2 new requests, got %v", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPActiveRequests)

	done := TrackActiveRequest()
	if got := testutil.ToFloat64(HTTPActiveRequests); got != before+1 {
		t.Errorf("during request: got %v want %v", got, before+1)
	}
	done()
	if got := testutil.ToFloat64(HTTPActiveRequests); got != before {
		t.Errorf("after request: got %v want %v", got, before)
	}
}

func TestRecordLinkCreated(t *testing.T) {
	gen := testutil.ToFloat64(LinksCreated.WithLabelValues(KindGenerated))
	custom := testutil.ToFloat64(LinksCreated.WithLabelValues(KindCustom))

	RecordLinkCreated(false)
	RecordLinkCreated(true)
	RecordLinkCreated(true)

	if got := testutil.ToFloat64(LinksCreated.WithLabelValues(KindGenerated)) - gen; got != 1 {
		t.Errorf("generated: got %v want 1", got)
	}
	if got := testutil.ToFloat64(LinksCreated.WithLabelValues(KindCustom)) - custom; got != 2 {
		t.Errorf("custom: got %v want 2", got)
	}
}

func TestCountersAndGauges(t *testing.T) {
	failures := testutil.ToFloat64(ClickTrackFailures)
	collisions := testutil.ToFloat64(CodeCollisions)
	notFound := testutil.ToFloat64(Redirects.WithLabelValues(RedirectNotFound))

	RecordClickTrackFailure()
	RecordCodeCollision()
	RecordRedirect(RedirectNotFound)
	SetBreakerState(2)

	if testutil.ToFloat64(ClickTrackFailures)-failures != 1 {
		t.Error("click track failure not counted")
	}
	if testutil.ToFloat64(CodeCollisions)-collisions != 1 {
		t.Error("collision not counted")
	}
	if testutil.ToFloat64(Redirects.WithLabelValues(RedirectNotFound))-notFound != 1 {
		t.Error("redirect not counted")
	}
	if testutil.ToFloat64(StoreBreakerState) != 2 {
		t.Error("breaker state not set")
	}
	SetBreakerState(0)
}
