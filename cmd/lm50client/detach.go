package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/oxalisiot/lm50client/config"
	"github.com/oxalisiot/lm50client/daemon"
)

// detachedEnv marks a re-exec'd process as already detached, so it runs the
// daemon in place instead of detaching again.
const detachedEnv = "LM50CLIENT_DETACHED"

// maybeDetach implements the daemon lifecycle's optional detach step: unless
// cfg.Foreground is set, it re-execs the binary with stdio wired to the null
// device and SysProcAttr.Setsid so the child becomes its own session leader,
// then the parent exits with success. maybeDetach reports whether the calling
// process is done (the parent, about to exit) or should continue running
// (foreground was requested, or this is the re-exec'd child).
func maybeDetach(cfg *config.Config) (done bool, err error) {
	if cfg.Foreground || os.Getenv(detachedEnv) == "1" {
		return false, nil
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return false, &daemon.FatalError{Err: fmt.Errorf("detach: open %s: %w", os.DevNull, err)}
	}
	defer devNull.Close()

	exe, err := os.Executable()
	if err != nil {
		return false, &daemon.FatalError{Err: fmt.Errorf("detach: locate executable: %w", err)}
	}

	child := exec.Command(exe, os.Args[1:]...)
	child.Env = append(os.Environ(), detachedEnv+"=1")
	child.Stdin = devNull
	child.Stdout = devNull
	child.Stderr = devNull
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := child.Start(); err != nil {
		return false, &daemon.FatalError{Err: fmt.Errorf("detach: start child: %w", err)}
	}
	return true, nil
}
