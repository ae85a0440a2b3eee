package config

import (
	"testing"
	"time"
)

func TestParseMinimalHuman(t *testing.T) {
	cfg, err := Parse([]string{"--host", "10.0.0.1", "--full"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Mode != ModeHuman {
		t.Fatalf("mode = %v", cfg.Mode)
	}
	if cfg.Service != "502" {
		t.Fatalf("default service = %q", cfg.Service)
	}
	if len(cfg.Channels) != 50 || cfg.Channels[0] != 1 || cfg.Channels[49] != 50 {
		t.Fatalf("expected all 50 channels by default, got %v", cfg.Channels)
	}
}

func TestParseRequiresHost(t *testing.T) {
	if _, err := Parse([]string{"--full"}); err == nil {
		t.Fatal("expected error when host is missing")
	}
}

func TestParseRequiresExactlyOneMode(t *testing.T) {
	if _, err := Parse([]string{"--host", "x"}); err == nil {
		t.Fatal("expected error when no mode is set")
	}
	if _, err := Parse([]string{"--host", "x", "--full", "--cacti"}); err == nil {
		t.Fatal("expected error when two modes are set")
	}
}

func TestParseChannelsSortedAndDeduplicated(t *testing.T) {
	cfg, err := Parse([]string{"--host", "x", "--cacti", "--channels", "6 11 9 6", "--channels", "11"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []int{6, 9, 11}
	if len(cfg.Channels) != len(want) {
		t.Fatalf("got %v, want %v", cfg.Channels, want)
	}
	for i, v := range want {
		if cfg.Channels[i] != v {
			t.Fatalf("got %v, want %v", cfg.Channels, want)
		}
	}
}

func TestParseChannelOutOfRange(t *testing.T) {
	if _, err := Parse([]string{"--host", "x", "--cacti", "--channels", "51"}); err == nil {
		t.Fatal("expected error for channel out of range")
	}
	if _, err := Parse([]string{"--host", "x", "--cacti", "--channels", "0"}); err == nil {
		t.Fatal("expected error for channel out of range")
	}
}

func TestParseVerboseImpliesForeground(t *testing.T) {
	cfg, err := Parse([]string{"--host", "x", "--daemon", "--verbose"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !cfg.Foreground {
		t.Fatal("expected verbose to imply foreground")
	}
}

func TestParseDaemonPollPeriodTooShort(t *testing.T) {
	if _, err := Parse([]string{"--host", "x", "--daemon", "--poll-period", "500ms"}); err == nil {
		t.Fatal("expected error for sub-second poll period")
	}
}

func TestParseInvalidLogFormat(t *testing.T) {
	if _, err := Parse([]string{"--host", "x", "--full", "--log-format", "xml"}); err == nil {
		t.Fatal("expected error for invalid log format")
	}
}

func TestParsePollPeriodDefault(t *testing.T) {
	cfg, err := Parse([]string{"--host", "x", "--daemon"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.PollPeriod != 30*time.Second {
		t.Fatalf("default poll period = %v", cfg.PollPeriod)
	}
}
