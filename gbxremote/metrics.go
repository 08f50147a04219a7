package gbxremote

import (
	"time"

	"github.com/armon/go-metrics"
)

// metricsSink bundles the counters/timers the dispatch engine emits,
// following the same []string{"scope", ...} key convention hashicorp/serf
// uses throughout its ping/coordinate code.
type metricsSink struct {
	labels []metrics.Label
}

func newMetricsSink(host string) *metricsSink {
	return &metricsSink{labels: []metrics.Label{{Name: "host", Value: host}}}
}

func (m *metricsSink) callStarted(method string) time.Time {
	metrics.IncrCounterWithLabels([]string{"gbxremote", "call", "count"}, 1, m.labels)
	return time.Now()
}

func (m *metricsSink) callFinished(method string, start time.Time) {
	metrics.MeasureSinceWithLabels([]string{"gbxremote", "call", "latency"}, start, m.labels)
}

func (m *metricsSink) fault() {
	metrics.IncrCounterWithLabels([]string{"gbxremote", "fault", "count"}, 1, m.labels)
}

func (m *metricsSink) timeout() {
	metrics.IncrCounterWithLabels([]string{"gbxremote", "timeout", "count"}, 1, m.labels)
}

func (m *metricsSink) callback() {
	metrics.IncrCounterWithLabels([]string{"gbxremote", "callback", "count"}, 1, m.labels)
}

func (m *metricsSink) reconnect() {
	metrics.IncrCounterWithLabels([]string{"gbxremote", "reconnect", "count"}, 1, m.labels)
}
