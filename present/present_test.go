package present

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestCollectorSingleChannel(t *testing.T) {
	var buf bytes.Buffer
	if err := Collector(&buf, []Reading{{Channel: 1, Value: 4711}}); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimRight(buf.String(), "\n"); got != "4711" {
		t.Fatalf("got %q", got)
	}
}

func TestCollectorMultiChannel(t *testing.T) {
	var buf bytes.Buffer
	readings := []Reading{
		{Channel: 1, Value: 4711},
		{Channel: 2, Value: 42},
		{Channel: 3, Value: 815},
	}
	if err := Collector(&buf, readings); err != nil {
		t.Fatal(err)
	}
	got := strings.TrimRight(buf.String(), "\n")
	want := "meter01:4711 meter02:42 meter03:815"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCollectorSubstitutesNaN(t *testing.T) {
	var buf bytes.Buffer
	readings := []Reading{
		{Channel: 1, Value: 4711},
		{Channel: 2, Err: errors.New("timeout")},
	}
	if err := Collector(&buf, readings); err != nil {
		t.Fatal(err)
	}
	got := strings.TrimRight(buf.String(), "\n")
	want := "meter01:4711 meter02:nan"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCollectorIsSingleWrite(t *testing.T) {
	cw := &countingWriter{}
	readings := []Reading{{Channel: 1, Value: 1}, {Channel: 2, Value: 2}}
	if err := Collector(cw, readings); err != nil {
		t.Fatal(err)
	}
	if cw.writes != 1 {
		t.Fatalf("expected exactly 1 Write call, got %d", cw.writes)
	}
}

type countingWriter struct {
	writes int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.writes++
	return len(p), nil
}

func TestHumanIncludesVersionAndChannels(t *testing.T) {
	var buf bytes.Buffer
	readings := []Reading{{Channel: 1, Value: 100}}
	if err := Human(&buf, "10.0.0.1", "502", "3.2", 123456, readings); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"LM-50TCP+", "10.0.0.1", "502", "3.2", "123456", "Channel  1:   100"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %s", want, out)
		}
	}
}
