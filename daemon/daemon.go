// Package daemon implements the long-running polling scheduler: a
// drift-corrected beat loop that samples a device façade and records
// readings to a time-series sink, tolerating transport loss and terminating
// promptly on cancellation.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/oxalisiot/lm50client/modbus"
	"github.com/oxalisiot/lm50client/sink"
)

// deviceFacade is the subset of *device.Device the scheduler needs. Declared
// as an interface here so tests can drive the poll loop without a real
// transport; *device.Device satisfies it.
type deviceFacade interface {
	Connect(ctx context.Context) error
	Disconnect() error
	UpdateVolatile() error
	Channel(i int) (uint32, error)
	LastUpdate() time.Time
}

// Config parameterizes the polling worker.
type Config struct {
	// Period is the polling interval; must be >= 1 second (the beat
	// arithmetic operates on whole seconds).
	Period time.Duration
	// Channels is the sorted, de-duplicated set of 1-indexed channel
	// numbers to sample. Empty means all 50.
	Channels []int
}

// Daemon owns a device façade and samples it on a fixed period. The same
// Daemon is not meant to be reused across two Run calls.
type Daemon struct {
	dev      deviceFacade
	sink     sink.Sink
	log      *slog.Logger
	rec      Recorder
	period   time.Duration
	channels []int // 0-indexed, in sink column order

	mu        sync.Mutex // the device lock; held across a poll step's recovery sequence
	cancelled atomic.Bool
}

// New builds a Daemon. log and rec may be nil, in which case slog.Default()
// and a no-op recorder are used.
func New(dev deviceFacade, sk sink.Sink, cfg Config, log *slog.Logger, rec Recorder) *Daemon {
	if log == nil {
		log = slog.Default()
	}
	if rec == nil {
		rec = noopRecorder{}
	}
	numbers := cfg.Channels
	if len(numbers) == 0 {
		numbers = make([]int, 50)
		for i := range numbers {
			numbers[i] = i + 1
		}
	}
	indices := make([]int, len(numbers))
	for i, n := range numbers {
		indices[i] = n - 1
	}
	return &Daemon{
		dev:      dev,
		sink:     sk,
		log:      log,
		rec:      rec,
		period:   cfg.Period,
		channels: indices,
	}
}

// Run opens the device, runs the polling loop until ctx is cancelled, then
// stops the worker and closes the device. Run blocks until the worker has
// returned.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.dev.Connect(ctx); err != nil {
		return &FatalError{Err: err}
	}

	go func() {
		<-ctx.Done()
		d.cancelled.Store(true)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.pollLoop(ctx)
	}()
	<-done

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dev.Disconnect()
}

func (d *Daemon) pollLoop(ctx context.Context) {
	beat := nextBeat(time.Now(), d.period)
	for {
		if d.cancelled.Load() {
			return
		}
		if !d.sleepUntil(ctx, beat) {
			return
		}
		if d.cancelled.Load() {
			return
		}

		ts, values, ok := d.sampleLocked(ctx)
		if ok {
			if err := d.sink.Append(roundTimestamp(ts), values); err != nil {
				d.log.Warn("sink append failed", "error", err)
			}
		}

		beat = beat.Add(d.period)
		now := time.Now()
		for !beat.After(now) {
			d.log.Warn("update step too long for requested polling period, skipping beat", "beat", beat)
			d.rec.BeatSkipped()
			beat = beat.Add(d.period)
		}
	}
}

// sampleLocked holds the device lock across one poll step, including any
// reconnect recovery it triggers, matching the single-owning-call-site
// mutex discipline documented on the device façade.
func (d *Daemon) sampleLocked(ctx context.Context) (lastUpdate time.Time, values []uint32, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.dev.UpdateVolatile()
	if err != nil {
		if !isTransportError(err) {
			d.log.Warn("protocol error, skipping sample", "error", err)
			d.rec.PollFailed()
			return time.Time{}, nil, false
		}
		d.log.Warn("transport error, reconnecting", "error", err)
		d.rec.PollFailed()
		d.dev.Disconnect()
		if !d.reconnect(ctx) {
			return time.Time{}, nil, false
		}
		if err := d.dev.UpdateVolatile(); err != nil {
			d.log.Warn("update after reconnect failed, skipping sample", "error", err)
			d.rec.PollFailed()
			return time.Time{}, nil, false
		}
	}

	d.rec.PollSucceeded()
	out := make([]uint32, len(d.channels))
	for i, ch := range d.channels {
		v, err := d.dev.Channel(ch)
		if err != nil {
			d.log.Warn("channel read failed", "channel", ch+1, "error", err)
			continue
		}
		out[i] = v
		d.rec.SetChannel(ch+1, v)
	}
	return d.dev.LastUpdate(), out, true
}

// reconnect retries Connect with a capped exponential back-off until it
// succeeds or cancellation is observed. Cancellation is rechecked between
// every attempt, preserving the cancellation-latency contract of the
// historical busy-spin loop.
func (d *Daemon) reconnect(ctx context.Context) bool {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0

	for {
		if d.cancelled.Load() {
			return false
		}
		d.rec.ReconnectAttempted()
		if err := d.dev.Connect(ctx); err == nil {
			return true
		} else {
			d.log.Warn("reconnect attempt failed", "error", err)
		}

		delay := b.NextBackOff()
		if delay == backoff.Stop {
			delay = b.MaxInterval
		}
		if !d.sleepUntil(ctx, time.Now().Add(delay)) {
			return false
		}
	}
}

// sleepUntil blocks until wall-clock time reaches deadline, waking early and
// returning false if ctx is cancelled.
func (d *Daemon) sleepUntil(ctx context.Context, deadline time.Time) bool {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// nextBeat computes floor(now/period)*period + period, in whole seconds.
func nextBeat(now time.Time, period time.Duration) time.Time {
	periodSec := int64(period / time.Second)
	if periodSec <= 0 {
		periodSec = 1
	}
	nowSec := now.Unix()
	beatSec := (nowSec/periodSec)*periodSec + periodSec
	return time.Unix(beatSec, 0)
}

// roundTimestamp implements half-up-at-500ms rounding to whole seconds.
func roundTimestamp(t time.Time) int64 {
	sec := t.Unix()
	if t.Nanosecond() >= 500_000_000 {
		sec++
	}
	return sec
}

func isTransportError(err error) bool {
	if errors.Is(err, modbus.ErrTimeout) {
		return true
	}
	var ioErr *modbus.IOError
	return errors.As(err, &ioErr)
}
