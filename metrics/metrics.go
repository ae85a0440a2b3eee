// Package metrics is an optional Prometheus-backed implementation of the
// daemon package's Recorder interface, plus a /metrics HTTP listener. It is
// entirely observational: nothing in the daemon's control flow depends on
// it being wired in.
package metrics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements daemon.Recorder with Prometheus counters and a
// per-channel gauge of the last successfully read value.
type Recorder struct {
	pollsSucceeded    prometheus.Counter
	pollsFailed       prometheus.Counter
	reconnectAttempts prometheus.Counter
	beatsSkipped      prometheus.Counter
	lastChannelValue  *prometheus.GaugeVec
}

// New registers the daemon metrics against the default Prometheus registry.
// Call it at most once per process.
func New() *Recorder {
	return &Recorder{
		pollsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lm50client_polls_succeeded_total",
			Help: "Total polling beats that produced a sample.",
		}),
		pollsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lm50client_polls_failed_total",
			Help: "Total failed channel updates by the polling worker; a retry after a reconnect counts separately.",
		}),
		reconnectAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lm50client_reconnect_attempts_total",
			Help: "Total reconnect attempts made by the polling worker.",
		}),
		beatsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lm50client_beats_skipped_total",
			Help: "Total beats skipped because a previous poll step overran the period.",
		}),
		lastChannelValue: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lm50client_channel_value",
			Help: "Last successfully read value of a channel counter.",
		}, []string{"channel"}),
	}
}

func (r *Recorder) PollSucceeded()      { r.pollsSucceeded.Inc() }
func (r *Recorder) PollFailed()         { r.pollsFailed.Inc() }
func (r *Recorder) ReconnectAttempted() { r.reconnectAttempts.Inc() }
func (r *Recorder) BeatSkipped()        { r.beatsSkipped.Inc() }

// SetChannel records the last value read for 1-indexed channel ch.
func (r *Recorder) SetChannel(ch int, value uint32) {
	r.lastChannelValue.WithLabelValues(formatChannel(ch)).Set(float64(value))
}

func formatChannel(ch int) string {
	const digits = "0123456789"
	if ch < 10 {
		return "0" + string(digits[ch])
	}
	tens, ones := ch/10, ch%10
	return string(digits[tens]) + string(digits[ones])
}

// StartHTTP serves the Prometheus handler at /metrics on addr. The returned
// server is shut down automatically when ctx is cancelled; callers may also
// close it directly.
func StartHTTP(ctx context.Context, addr string, log *slog.Logger) *http.Server {
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Info("metrics listener starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics listener failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	return srv
}
