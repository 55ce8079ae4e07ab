package services

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"
)

// flights collapses identical submits into one execution. The shared work
// runs detached from any single caller and is cancelled only once every
// caller waiting on it has gone.
type flights struct {
	group singleflight.Group

	mu    sync.Mutex
	calls map[string]*flight
}

type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// do runs fn once per key among concurrent callers. ok is false when ctx
// ended while other callers still wait for the result; the caller then has
// nothing to report but its own cancellation.
func (f *flights) do(ctx context.Context, key string, fn func(context.Context) any) (v any, shared, ok bool) {
	fl := f.join(ctx, key)

	ch := f.group.DoChan(key, func() (any, error) {
		defer f.finish(key, fl)
		return fn(fl.ctx), nil
	})

	select {
	case r := <-ch:
		f.leave(key, fl)
		return r.Val, r.Shared, true
	case <-ctx.Done():
		if !f.leave(key, fl) {
			return nil, false, false
		}
		// Last one out cancelled the work; report what it actually did.
		r := <-ch
		return r.Val, r.Shared, true
	}
}

func (f *flights) join(ctx context.Context, key string) *flight {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.calls == nil {
		f.calls = make(map[string]*flight)
	}
	fl, found := f.calls[key]
	if !found {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		fl = &flight{ctx: fctx, cancel: cancel}
		f.calls[key] = fl
	}
	fl.waiters++
	return fl
}

// leave drops one waiter and reports whether it was the last.
func (f *flights) leave(key string, fl *flight) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	fl.waiters--
	if fl.waiters > 0 {
		return false
	}
	fl.cancel()
	if f.calls[key] == fl {
		delete(f.calls, key)
	}
	return true
}

func (f *flights) finish(key string, fl *flight) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.calls[key] == fl {
		delete(f.calls, key)
	}
}

// submitKey identifies a logical submit by every input it carries. The
// inputs are hashed so plaintext passwords never sit in the flight table.
func submitKey(action string, fields ...string) string {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%d:%s", len(action), action)
	for _, v := range fields {
		fmt.Fprintf(h, "%d:%s", len(v), v)
	}
	return hex.EncodeToString(h.Sum(nil))
}
