// AngelaMos | 2026
// metrics_test.go

package metrics

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
)

func TestObserve_LabelsOutcome(t *testing.T) {
	e := New("test")

	observe := func(err error) {
		defer e.Observe("transaction.open", time.Now(), &err)
	}

	observe(nil)
	observe(nil)
	observe(fmt.Errorf("open transaction: %w", core.ErrConflict))

	assert.InDelta(t, 2, testutil.ToFloat64(e.operations.WithLabelValues("transaction.open", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(e.operations.WithLabelValues("transaction.open", "conflict")), 0)
}

func TestTransitionAndPriceChange(t *testing.T) {
	e := New("test")

	e.Transition("pending", "confirmed")
	e.Transition("pending", "confirmed")
	e.PriceChanged()

	assert.InDelta(t, 2, testutil.ToFloat64(e.transitions.WithLabelValues("pending", "confirmed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(e.priceChange), 0)
}

func TestNilEngineIsNoop(t *testing.T) {
	var e *Engine
	var err error

	assert.NotPanics(t, func() {
		e.Observe("listing.create", time.Now(), &err)
		e.Transition("pending", "cancelled")
		e.PriceChanged()
	})
}

func TestHandler_ExposesCollectors(t *testing.T) {
	e := New("campus_market")
	e.PriceChanged()

	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "campus_market_price_changes_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
