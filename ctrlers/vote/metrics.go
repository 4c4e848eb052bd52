package vote

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type voteMetrics struct {
	proposalsCreated   prometheus.Counter
	proposalsExecuted  prometheus.Counter
	executionsRejected prometheus.Counter
	proposalsOpen      prometheus.Gauge
	e3Requests         prometheus.Counter
	e3FeesPaid         prometheus.Counter
	tallyFailures      prometheus.Counter
}

func newVoteMetrics(registry prometheus.Registerer) *voteMetrics {
	promautoFactory := promauto.With(registry)
	return &voteMetrics{
		proposalsCreated: promautoFactory.NewCounter(prometheus.CounterOpts{
			Namespace: "crisp",
			Subsystem: "vote",
			Name:      "proposals_created_total",
			Help:      "proposals registered since process start",
		}),
		proposalsExecuted: promautoFactory.NewCounter(prometheus.CounterOpts{
			Namespace: "crisp",
			Subsystem: "vote",
			Name:      "proposals_executed_total",
			Help:      "proposals whose action batch ran",
		}),
		executionsRejected: promautoFactory.NewCounter(prometheus.CounterOpts{
			Namespace: "crisp",
			Subsystem: "vote",
			Name:      "executions_rejected_total",
			Help:      "execution attempts denied by tally or state",
		}),
		proposalsOpen: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Namespace: "crisp",
			Subsystem: "vote",
			Name:      "proposals_open",
			Help:      "registered proposals not yet executed",
		}),
		e3Requests: promautoFactory.NewCounter(prometheus.CounterOpts{
			Namespace: "crisp",
			Subsystem: "vote",
			Name:      "e3_requests_total",
			Help:      "computation requests sent to the enclave",
		}),
		e3FeesPaid: promautoFactory.NewCounter(prometheus.CounterOpts{
			Namespace: "crisp",
			Subsystem: "vote",
			Name:      "e3_fees_paid_total",
			Help:      "computation fees paid, in token base units",
		}),
		tallyFailures: promautoFactory.NewCounter(prometheus.CounterOpts{
			Namespace: "crisp",
			Subsystem: "vote",
			Name:      "tally_decode_failures_total",
			Help:      "published outputs that failed to decode",
		}),
	}
}

func (m *voteMetrics) observeFee(fee *uint256.Int) {
	if fee == nil {
		return
	}
	f, _ := new(big.Float).SetInt(fee.ToBig()).Float64()
	m.e3FeesPaid.Add(f)
}
