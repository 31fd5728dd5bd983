package jobs

import (
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterQueueDepth exposes the default queue's pending count as a gauge on
// the given registerer. The inspector is polled on every scrape.
func RegisterQueueDepth(reg prometheus.Registerer, inspector *asynq.Inspector) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "ledgerd_jobs_pending",
		Help: "Pending tasks in the default queue.",
	}, func() float64 {
		if inspector == nil {
			return 0
		}
		info, err := inspector.GetQueueInfo(QueueDefault)
		if err != nil || info == nil {
			return 0
		}
		return float64(info.Pending)
	}))
}
