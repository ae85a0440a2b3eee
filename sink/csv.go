package sink

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// timeColumnWidth and valueColumnWidth mirror the fixed column widths the
// original RRD worker used: a 32-bit counter needs at most 10 digits, the
// quoted header caption brings the column to 12; the time column's inner
// (unquoted) content is padded to timeColumnWidth, so the quoted field is
// timeColumnWidth+2 characters wide — 31, matching every row.
const (
	timeColumnWidth  = 29
	valueColumnWidth = 12
)

// CSV is a semicolon-separated, fixed-width file sink: one header line
// naming the sampled channels, then one row per Append, flushed immediately
// so the file is always safe to tail.
type CSV struct {
	mu       sync.Mutex
	file     *os.File
	w        *bufio.Writer
	channels []int
}

// NewCSV opens (creating if necessary) the file at path and writes the
// header row naming channels (1-indexed channel numbers, in the order
// values will be appended).
func NewCSV(path string, channels []int) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sink: open %s: %w", path, err)
	}
	c := &CSV{
		file:     f,
		w:        bufio.NewWriter(f),
		channels: channels,
	}
	if err := c.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

func (c *CSV) writeHeader() error {
	var b strings.Builder
	fmt.Fprintf(&b, "\"%-*s\";", timeColumnWidth, "Time")
	for _, ch := range c.channels {
		fmt.Fprintf(&b, `"Channel %02d";`, ch)
	}
	b.WriteByte('\n')
	if _, err := c.w.WriteString(b.String()); err != nil {
		return fmt.Errorf("sink: write header: %w", err)
	}
	return c.w.Flush()
}

// Append writes one row: the timestamp rendered as a quoted, zero-padded
// UTC time string, followed by one right-justified field per value.
func (c *CSV) Append(timestamp int64, values []uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := time.Unix(timestamp, 0).UTC().Format("2006-01-02 15:04:05")
	var b strings.Builder
	fmt.Fprintf(&b, "\"%0*s\";", timeColumnWidth, ts)
	for _, v := range values {
		fmt.Fprintf(&b, "%*d;", valueColumnWidth, v)
	}
	b.WriteByte('\n')

	if _, err := c.w.WriteString(b.String()); err != nil {
		return fmt.Errorf("sink: append: %w", err)
	}
	return c.w.Flush()
}

// Close flushes and closes the underlying file.
func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.w.Flush(); err != nil {
		c.file.Close()
		return fmt.Errorf("sink: flush on close: %w", err)
	}
	return c.file.Close()
}
