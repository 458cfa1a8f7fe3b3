package metrics

// NoopMetrics is a no-operation implementation of Recorder.
// All methods are empty, providing zero overhead when metrics are disabled.
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordLoginURLIssued(mode string)                  {}
func (n *NoopMetrics) RecordCallback(mode, result string)                {}
func (n *NoopMetrics) RecordTempTokenExchange(result string)             {}
func (n *NoopMetrics) RecordUnbind(success bool)                         {}
func (n *NoopMetrics) RecordWebhook(valid bool, events int)              {}
func (n *NoopMetrics) RecordTokenIssued(tokenType string)                {}
func (n *NoopMetrics) RecordLineMessage(direction string, success bool)  {}
func (n *NoopMetrics) SetLinkCounts(active, unbound int64)               {}
