// Package lock serializes runs that share an archive-cache directory.
//
// Locks are keyed by the cache path. Inside one process a per-key slot gives
// mutual exclusion; across processes an advisory flock on a sibling
// "<key>.lock" file does the same. The kernel drops the flock when the
// process dies, so a killed run never leaves a stale lock behind.
package lock

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/yurykabanov/dupjob/pkg/domain"
)

const DefaultRetryDelay = 250 * time.Millisecond

type Manager struct {
	dir        string
	retryDelay time.Duration

	mu    sync.Mutex
	slots map[string]chan struct{}
}

// New creates a manager. Lock files are placed in dir when it is set,
// otherwise next to the locked path.
func New(dir string) *Manager {
	return &Manager{
		dir:        dir,
		retryDelay: DefaultRetryDelay,
		slots:      make(map[string]chan struct{}),
	}
}

type Lock struct {
	key  string
	slot chan struct{}
	file *flock.Flock

	once sync.Once
	err  error
}

func (l *Lock) Key() string {
	return l.key
}

// Release frees the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	l.once.Do(func() {
		l.err = l.file.Unlock()
		<-l.slot
	})
	return l.err
}

// Acquire blocks until key is locked, timeout passes or ctx is done. A
// timeout is reported as *domain.LockTimeoutError; cancellation of ctx is
// returned as the context error.
func (m *Manager) Acquire(ctx context.Context, key string, timeout time.Duration) (*Lock, error) {
	key = filepath.Clean(key)
	slot := m.slot(key)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case slot <- struct{}{}:
	default:
		select {
		case slot <- struct{}{}:
		case <-waitCtx.Done():
			return nil, m.waitError(ctx, key, timeout)
		}
	}

	file, err := m.lockFile(waitCtx, key)
	if err != nil {
		<-slot
		if waitCtx.Err() != nil {
			return nil, m.waitError(ctx, key, timeout)
		}
		return nil, err
	}

	return &Lock{key: key, slot: slot, file: file}, nil
}

// With runs fn while holding the lock for key and releases it on every
// return path, including panics.
func (m *Manager) With(ctx context.Context, key string, timeout time.Duration, fn func(context.Context) error) (err error) {
	l, err := m.Acquire(ctx, key, timeout)
	if err != nil {
		return err
	}

	defer func() {
		if rerr := l.Release(); rerr != nil && err == nil {
			err = errors.Wrap(rerr, "Unable to release lock")
		}
	}()

	return fn(ctx)
}

func (m *Manager) slot(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		m.slots[key] = s
	}

	return s
}

func (m *Manager) lockFile(ctx context.Context, key string) (*flock.Flock, error) {
	path := m.lockPath(key)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "Unable to create lock directory")
	}

	f := flock.New(path)

	ok, err := f.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to lock %s", path)
	}
	if ok {
		return f, nil
	}

	ok, err = f.TryLockContext(ctx, m.retryDelay)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, context.DeadlineExceeded
	}

	return f, nil
}

func (m *Manager) lockPath(key string) string {
	if m.dir == "" {
		return key + ".lock"
	}

	name := strings.ReplaceAll(strings.Trim(filepath.ToSlash(key), "/"), "/", "_")

	return filepath.Join(m.dir, name+".lock")
}

func (m *Manager) waitError(ctx context.Context, key string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return &domain.LockTimeoutError{Key: key, Timeout: timeout}
}
