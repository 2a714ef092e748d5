package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})

	err := prometheus.Register(StageTotal)
	var already prometheus.AlreadyRegisteredError
	require.ErrorAs(t, err, &already)
}

func TestObserveStage(t *testing.T) {
	before := testutil.ToFloat64(StageTotal.WithLabelValues("test_stage", ResultOK))
	ObserveStage("test_stage", ResultOK, time.Now().Add(-10*time.Millisecond))
	ObserveStage("test_stage", ResultOK, time.Now())
	assert.Equal(t, before+2, testutil.ToFloat64(StageTotal.WithLabelValues("test_stage", ResultOK)))

	before = testutil.ToFloat64(StageTotal.WithLabelValues("test_stage", ResultDisabled))
	ObserveStage("test_stage", ResultDisabled, time.Now())
	assert.Equal(t, before+1, testutil.ToFloat64(StageTotal.WithLabelValues("test_stage", ResultDisabled)))
}
