// Package present renders device readings in the two one-shot output
// formats external tooling depends on bit-exactly: a human-readable report
// and a single-line collector format consumable by a monitoring poller.
package present

import (
	"fmt"
	"io"
)

// Reading is one sampled channel, carrying its error (if the read failed)
// so the collector format can substitute "nan" without aborting the whole
// line.
type Reading struct {
	Channel int // 1-indexed
	Value   uint32
	Err     error
}

// Human writes the full device report: host/port, version/serial, then one
// "Channel NN:" line per reading.
func Human(w io.Writer, host, port, revision string, serial uint32, readings []Reading) error {
	fmt.Fprintln(w, "===  LM-50TCP+ === ")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Host    :  %s\n", host)
	fmt.Fprintf(w, "Port    :  %s\n", port)
	fmt.Fprintf(w, "Version :  %s\n", revision)
	fmt.Fprintf(w, "Serial  :  %d\n", serial)
	for _, r := range readings {
		if r.Err != nil {
			fmt.Fprintf(w, "Channel %2d:   error: %v\n", r.Channel, r.Err)
			continue
		}
		fmt.Fprintf(w, "Channel %2d:   %d\n", r.Channel, r.Value)
	}
	return nil
}

// Collector renders readings as the single-write, bit-exact collector
// format: the bare decimal value for one channel, or
// "meterXX:V meterXX:V ..." for more than one, with "nan" substituted for
// any failed channel. The whole line is written with a single Write call.
func Collector(w io.Writer, readings []Reading) error {
	var out []byte
	if len(readings) == 1 {
		out = appendValue(out, readings[0])
	} else {
		for i, r := range readings {
			if i > 0 {
				out = append(out, ' ')
			}
			out = append(out, fmt.Sprintf("meter%02d:", r.Channel)...)
			out = appendValue(out, r)
		}
	}
	out = append(out, '\n')
	_, err := w.Write(out)
	return err
}

func appendValue(out []byte, r Reading) []byte {
	if r.Err != nil {
		return append(out, "nan"...)
	}
	return append(out, fmt.Sprintf("%d", r.Value)...)
}
