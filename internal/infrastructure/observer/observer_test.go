package observer_test

import (
	"errors"
	"testing"

	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/infrastructure/observer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestObserver(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	o, err := observer.NewObserver(reg)
	require.NoError(t, err)

	o.ReportDivergence(domain.Divergence{Operation: "SigHash", Expected: "aa", Actual: "bb"})
	o.ReportDivergence(domain.Divergence{Operation: "SigHash", Expected: "aa", Actual: "cc"})
	o.ReportError("Finalize", errors.New("boom"))

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := make(map[string]float64)
	for _, f := range families {
		for _, m := range f.GetMetric() {
			counts[f.GetName()+"/"+m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
		}
	}
	require.Equal(t, map[string]float64{
		"cosigner_shadow_divergences_total/SigHash": 2,
		"cosigner_shadow_errors_total/Finalize":     1,
	}, counts)

	// Registering twice on the same registry fails.
	_, err = observer.NewObserver(reg)
	require.Error(t, err)

	o, err = observer.NewObserver(nil)
	require.NoError(t, err)
	o.ReportError("Finalize", errors.New("boom"))
}
