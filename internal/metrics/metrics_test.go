package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestObserveRequest(t *testing.T) {
	ObserveRequest("/optimize/health", http.StatusOK, 3*time.Millisecond)
	ObserveRequest("", http.StatusNotFound, time.Millisecond)

	body := scrape(t)
	assert.Contains(t, body, `charge_optimizer_http_requests_total{code="200",route="/optimize/health"}`)
	assert.Contains(t, body, `charge_optimizer_http_requests_total{code="404",route="unmatched"}`)
	assert.Contains(t, body, "charge_optimizer_http_request_duration_seconds_bucket")
}

func TestObserveSolve(t *testing.T) {
	done := TrackSolve()
	ObserveSolve("Optimal", 10*time.Millisecond)
	done()

	body := scrape(t)
	assert.Contains(t, body, `charge_optimizer_solve_duration_seconds_count{status="Optimal"}`)
	assert.Contains(t, body, "charge_optimizer_solves_in_flight 0")
}
