package metrics

import "context"

// Metric is a single measurement destined for the observability backend.
type Metric struct {
	Name       string
	Value      float64
	Unit       string
	Dimensions map[string]string
}

// Standard units accepted by the sink.
const (
	UnitCount        = "Count"
	UnitSeconds      = "Seconds"
	UnitBytes        = "Bytes"
	UnitPercent      = "Percent"
	UnitMilliseconds = "Milliseconds"
)

// Sink records measurements best-effort: implementations must never block
// the pipeline or surface failures to callers. Safe for concurrent use.
type Sink interface {
	Put(ctx context.Context, namespace string, ms []Metric)
}

// Noop discards all measurements.
type Noop struct{}

func (Noop) Put(context.Context, string, []Metric) {}

var _ Sink = Noop{}
