// Package eventloop implements the poll-driven event loop every backend
// integration (terminal input, a file watcher, a child process pipe) waits
// on: file descriptors ready for reading and timers due to fire, serviced
// by a single poll(2) call per iteration.
package eventloop

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// FDWatcher runs Callback whenever Fd becomes readable. Constructed via
// Loop.Watch and torn down via Loop.Unwatch; holding a bare FDWatcher with
// no Loop does nothing.
type FDWatcher struct {
	fd       int
	callback func(*FDWatcher) error
}

// Fd returns the watched file descriptor.
func (w *FDWatcher) Fd() int { return w.fd }

// Timer runs Callback once, at or after Deadline. A Timer that should fire
// again must be re-added from inside its own callback, mirroring the
// original's Timer::run resetting its date to the far future before
// invoking the callback.
type Timer struct {
	deadline time.Time
	callback func(*Timer)
}

// Deadline returns the time at or after which this timer is due.
func (t *Timer) Deadline() time.Time { return t.deadline }

func (t *Timer) run() {
	t.deadline = maxTime
	t.callback(t)
}

var maxTime = time.Unix(1<<62, 0)

// Loop multiplexes any number of FDWatchers and Timers over a single
// poll(2) call per iteration, the Go counterpart of the original's
// EventManager. Unlike the original it carries no process-wide singleton:
// callers construct and own their own Loop.
type Loop struct {
	mu       sync.Mutex
	watchers []*FDWatcher
	timers   []*Timer
	forcedFD []int
}

// NewLoop returns an empty Loop.
func NewLoop() *Loop {
	return &Loop{}
}

// Watch registers a watcher that runs callback whenever fd has data (or an
// error condition) pending.
func (l *Loop) Watch(fd int, callback func(*FDWatcher) error) *FDWatcher {
	w := &FDWatcher{fd: fd, callback: callback}
	l.mu.Lock()
	l.watchers = append(l.watchers, w)
	l.mu.Unlock()
	return w
}

// Unwatch removes a watcher previously returned by Watch.
func (l *Loop) Unwatch(w *FDWatcher) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, existing := range l.watchers {
		if existing == w {
			l.watchers = append(l.watchers[:i], l.watchers[i+1:]...)
			return
		}
	}
}

// AddTimer registers a timer that fires callback at or after deadline.
func (l *Loop) AddTimer(deadline time.Time, callback func(*Timer)) *Timer {
	t := &Timer{deadline: deadline, callback: callback}
	l.mu.Lock()
	l.timers = append(l.timers, t)
	l.mu.Unlock()
	return t
}

// RemoveTimer cancels a timer previously returned by AddTimer.
func (l *Loop) RemoveTimer(t *Timer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, existing := range l.timers {
		if existing == t {
			l.timers = append(l.timers[:i], l.timers[i+1:]...)
			return
		}
	}
}

// ForceFD queues fd to be treated as readable on the next call to
// HandleNextEvents, even if poll(2) didn't report it, the counterpart of
// the original's force_signal: a signal handler (or any other goroutine)
// can use this to wake the loop for a condition poll can't see directly.
func (l *Loop) ForceFD(fd int) {
	l.mu.Lock()
	l.forcedFD = append(l.forcedFD, fd)
	l.mu.Unlock()
}

// HandleNextEvents blocks in poll(2) until a watched fd is ready, a timer's
// deadline passes, or maxWait elapses, then runs every watcher and timer
// the wait satisfied. It returns the number of watchers and timers that
// ran, and any error from poll(2) itself (interrupted system calls are not
// treated as errors).
func (l *Loop) HandleNextEvents(maxWait time.Duration) (int, error) {
	l.mu.Lock()
	watchers := append([]*FDWatcher{}, l.watchers...)
	timers := append([]*Timer{}, l.timers...)
	l.mu.Unlock()

	pollFDs := make([]unix.PollFd, len(watchers))
	for i, w := range watchers {
		pollFDs[i] = unix.PollFd{Fd: int32(w.fd), Events: unix.POLLIN | unix.POLLPRI}
	}

	timeout := maxWait
	now := time.Now()
	for _, t := range timers {
		if d := t.Deadline().Sub(now); d < timeout {
			timeout = d
		}
	}
	if timeout < 0 {
		timeout = 0
	}

	_, err := unix.Poll(pollFDs, int(timeout.Milliseconds()))
	if err != nil && err != unix.EINTR {
		return 0, fmt.Errorf("eventloop: poll: %w", err)
	}

	l.mu.Lock()
	forced := l.forcedFD
	l.forcedFD = nil
	l.mu.Unlock()

	ran := 0
	for i, w := range watchers {
		ready := pollFDs[i].Revents != 0
		if !ready {
			ready = containsFD(forced, w.fd)
		}
		if ready {
			if cbErr := w.callback(w); cbErr != nil {
				return ran, cbErr
			}
			ran++
		}
	}

	now = time.Now()
	for _, t := range timers {
		if !t.Deadline().After(now) {
			t.run()
			ran++
		}
	}

	return ran, nil
}

func containsFD(fds []int, fd int) bool {
	for _, f := range fds {
		if f == fd {
			return true
		}
	}
	return false
}

// Run repeatedly calls HandleNextEvents, each iteration waiting at most
// maxWait, until done is closed or a call returns an error.
func (l *Loop) Run(done <-chan struct{}, maxWait time.Duration) error {
	for {
		select {
		case <-done:
			return nil
		default:
		}
		if _, err := l.HandleNextEvents(maxWait); err != nil {
			return err
		}
	}
}
