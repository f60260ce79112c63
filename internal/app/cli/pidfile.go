package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"invictus2obc/internal/app/errors"
)

// pidFilePath is the well-known location a running daemon records its PID,
// so a separately invoked `stop`/`status` can find it.
func pidFilePath() string {
	return filepath.Join(os.TempDir(), "invictus2obc.pid")
}

// WritePID records the current process's PID. Called once at daemon start.
func WritePID() error {
	return os.WriteFile(pidFilePath(), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// RemovePID deletes the PID file. Called on graceful daemon shutdown.
func RemovePID() error {
	err := os.Remove(pidFilePath())
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	return err
}

// readPID returns the PID recorded by a running daemon, if any.
func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.ErrInvalidPIDFile
	}

	return pid, nil
}

// running reports whether pid names a live process, via the signal-0 probe.
func running(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return proc.Signal(syscall.Signal(0)) == nil
}

// Stop sends SIGTERM to the daemon recorded in the PID file.
func Stop() (string, error) {
	pid, err := readPID()
	if err != nil {
		if os.IsNotExist(err) {
			return "not running", nil
		}

		return "", err
	}

	if !running(pid) {
		_ = RemovePID()
		return "not running", nil
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return "", err
	}

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return "", err
	}

	return fmt.Sprintf("sent SIGTERM to pid %d", pid), nil
}

// Status reports whether a daemon is currently running.
func Status() string {
	pid, err := readPID()
	if err != nil {
		return "not running"
	}

	if !running(pid) {
		return "not running (stale pid file)"
	}

	return fmt.Sprintf("running (pid %d)", pid)
}
