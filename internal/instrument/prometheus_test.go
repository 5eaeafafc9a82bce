package instrument

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	return rec.Body.String()
}

func TestMetricsAreExposed(t *testing.T) {
	Iteration(time.Millisecond)
	EventDispatched("friend_message")
	EventDropped("friend_typing")
	OperationError("bootstrap")
	ContractViolation("friend_add")

	body := scrape(t)
	assert.Contains(t, body, "toxbind_iterations_total")
	assert.Contains(t, body, "toxbind_iterate_duration_seconds_bucket")
	assert.Contains(t, body, `toxbind_events_dispatched_total{event="friend_message"}`)
	assert.Contains(t, body, `toxbind_events_dropped_total{event="friend_typing"}`)
	assert.Contains(t, body, `toxbind_operation_errors_total{category="bootstrap"}`)
	assert.Contains(t, body, `toxbind_contract_violations_total{category="friend_add"}`)
}
