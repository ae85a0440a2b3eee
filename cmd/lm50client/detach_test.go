package main

import (
	"os"
	"testing"

	"github.com/oxalisiot/lm50client/config"
)

func TestMaybeDetachSkipsWhenForeground(t *testing.T) {
	cfg := &config.Config{Foreground: true}
	done, err := maybeDetach(cfg)
	if err != nil {
		t.Fatalf("maybeDetach: %v", err)
	}
	if done {
		t.Fatal("expected no detach when Foreground is set")
	}
}

func TestMaybeDetachSkipsWhenAlreadyDetached(t *testing.T) {
	os.Setenv(detachedEnv, "1")
	defer os.Unsetenv(detachedEnv)

	cfg := &config.Config{Foreground: false}
	done, err := maybeDetach(cfg)
	if err != nil {
		t.Fatalf("maybeDetach: %v", err)
	}
	if done {
		t.Fatal("expected no re-exec when already the detached child")
	}
}
