package metrics

import "testing"

func TestFormatChannel(t *testing.T) {
	cases := map[int]string{1: "01", 9: "09", 10: "10", 50: "50"}
	for ch, want := range cases {
		if got := formatChannel(ch); got != want {
			t.Fatalf("formatChannel(%d) = %q, want %q", ch, got, want)
		}
	}
}

func TestRecorderMethodsDoNotPanic(t *testing.T) {
	r := New()
	r.PollSucceeded()
	r.PollFailed()
	r.ReconnectAttempted()
	r.BeatSkipped()
	r.SetChannel(1, 42)
}
