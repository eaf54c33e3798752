package engine

import (
	"os/exec"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// startPrioritized starts cmd from an OS thread that already runs with p.
// Nice and io priority are per thread on Linux and inherited on fork, so the
// engine and every helper it spawns start with p in effect. The thread is
// never unlocked and exits with its goroutine, since an unprivileged process
// cannot raise its priority back.
func startPrioritized(cmd *exec.Cmd, p Priority, warn func(error)) error {
	done := make(chan error, 1)

	go func() {
		runtime.LockOSThread()

		if err := p.apply(unix.Gettid()); err != nil {
			warn(err)
		}

		done <- cmd.Start()
	}()

	return <-done
}

// apply sets the scheduling priority and io class of thread tid.
func (p Priority) apply(tid int) error {
	if err := unix.Setpriority(unix.PRIO_PROCESS, tid, p.Nice); err != nil {
		return errors.Wrap(err, "Unable to set nice level")
	}

	_, _, errno := unix.Syscall(unix.SYS_IOPRIO_SET, ioprioWhoProcess, uintptr(tid), uintptr(p.ioprio()))
	if errno != 0 {
		return errors.Wrap(errno, "Unable to set io priority")
	}

	return nil
}
