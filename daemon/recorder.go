package daemon

// Recorder receives observability callbacks from the polling worker. It
// exists so the daemon package stays independent of any particular metrics
// backend; see the metrics package for a Prometheus-backed implementation.
type Recorder interface {
	PollSucceeded()
	PollFailed()
	ReconnectAttempted()
	BeatSkipped()
	// SetChannel records the last successfully read value of 1-indexed
	// channel ch.
	SetChannel(ch int, value uint32)
}

type noopRecorder struct{}

func (noopRecorder) PollSucceeded()         {}
func (noopRecorder) PollFailed()            {}
func (noopRecorder) ReconnectAttempted()    {}
func (noopRecorder) BeatSkipped()           {}
func (noopRecorder) SetChannel(int, uint32) {}
