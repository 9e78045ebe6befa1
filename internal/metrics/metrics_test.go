package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/park285/cheese-gamecore/internal/pvpchess"
)

var _ pvpchess.Observer = (*Recorder)(nil)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()
	r.MoveAccepted()
	r.MoveAccepted()
	r.OperationRejected("move", "out_of_turn")
	r.GameFinished(pvpchess.TimeoutCause(pvpchess.Black))
	r.GameFinished(pvpchess.CauseCheckmate)
	r.RatingsFinalized(true)
	r.RatingsFinalized(false)
	r.RecordSweep(5*time.Millisecond, nil)
	r.RecordSweep(time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(r.moves); got != 2 {
		t.Fatalf("moves = %v", got)
	}
	if got := testutil.ToFloat64(r.rejections.WithLabelValues("move", "out_of_turn")); got != 1 {
		t.Fatalf("rejections = %v", got)
	}
	if got := testutil.ToFloat64(r.terminations.WithLabelValues("timeout")); got != 1 {
		t.Fatalf("timeout terminations = %v", got)
	}
	if got := testutil.ToFloat64(r.finalized.WithLabelValues("already_applied")); got != 1 {
		t.Fatalf("already applied = %v", got)
	}
	if got := testutil.ToFloat64(r.sweeps.WithLabelValues("error")); got != 1 {
		t.Fatalf("sweep errors = %v", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.MoveAccepted()
	r.OperationRejected("move", "x")
	r.GameFinished(pvpchess.CauseStalemate)
	r.RatingsFinalized(true)
	r.RecordSweep(time.Second, nil)
	r.RecordHTTPRequest("/games", 200)
}

func TestHandlerExposesCounters(t *testing.T) {
	r := NewRecorder()
	r.RecordHTTPRequest("/games/{id}/moves", 409)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `gamecore_http_requests_total{route="/games/{id}/moves",status="4xx"} 1`) {
		t.Fatalf("metrics body missing counter:\n%s", body)
	}
}
