package jobs

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestRegisterQueueDepthGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterQueueDepth(reg, nil)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Equal(t, "ledgerd_jobs_pending", families[0].GetName())
	require.Zero(t, families[0].GetMetric()[0].GetGauge().GetValue())
}
