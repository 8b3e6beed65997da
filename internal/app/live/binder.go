package live

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type subscription struct {
	gen    uint64
	cancel context.CancelFunc
}

// Binder owns the live subscriptions and enforces the one-subscription-
// per-key invariant: binding a key that is already bound cancels the
// prior subscription before the new one starts. Keys are structured as
// "<owner>:<region>[:<param>]" so an owner's feeds can be torn down
// together when the identity behind them changes.
type Binder struct {
	watcher Watcher
	log     *zap.Logger

	mu      sync.Mutex
	nextGen uint64
	subs    map[string]subscription
}

// NewBinder creates a binder over the given watcher.
func NewBinder(watcher Watcher, logger *zap.Logger) *Binder {
	return &Binder{
		watcher: watcher,
		log:     logger,
		subs:    make(map[string]subscription),
	}
}

// Bind starts a subscription for key and returns its snapshot channel.
// An existing subscription under the same key is cancelled first, so
// re-binding (a changed limit, a re-rendered region) never leaks feeds.
// The channel closes when ctx ends, Release is called, or the feed fails.
func (b *Binder) Bind(ctx context.Context, key string, q Query) <-chan Snapshot {
	subCtx, cancel := context.WithCancel(ctx)

	b.mu.Lock()
	if prior, ok := b.subs[key]; ok {
		prior.cancel()
		b.log.Debug("live: re-bound feed", zap.String("key", key))
	}
	b.nextGen++
	gen := b.nextGen
	b.subs[key] = subscription{gen: gen, cancel: cancel}
	b.mu.Unlock()

	ch := b.watcher.Watch(subCtx, q)

	// Forward snapshots and drop the registration when the feed ends.
	out := make(chan Snapshot)
	go func() {
		defer close(out)
		defer b.endSub(key, gen, cancel)
		for s := range ch {
			select {
			case out <- s:
			case <-subCtx.Done():
				return
			}
		}
	}()
	return out
}

// Release cancels the subscription for key, if any.
func (b *Binder) Release(key string) {
	b.mu.Lock()
	sub, ok := b.subs[key]
	if ok {
		delete(b.subs, key)
	}
	b.mu.Unlock()
	if ok {
		sub.cancel()
	}
}

// ReleaseOwner cancels every subscription whose key starts with prefix.
// Used when the owning session signs out.
func (b *Binder) ReleaseOwner(prefix string) {
	b.mu.Lock()
	var cancels []context.CancelFunc
	for key, sub := range b.subs {
		if strings.HasPrefix(key, prefix) {
			cancels = append(cancels, sub.cancel)
			delete(b.subs, key)
		}
	}
	b.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// Close cancels every subscription.
func (b *Binder) Close() {
	b.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(b.subs))
	for _, sub := range b.subs {
		cancels = append(cancels, sub.cancel)
	}
	b.subs = make(map[string]subscription)
	b.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// Active returns the number of live subscriptions.
func (b *Binder) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// endSub drops the registration only if it still belongs to this
// subscription; a re-bind may have replaced it under the same key.
func (b *Binder) endSub(key string, gen uint64, cancel context.CancelFunc) {
	b.mu.Lock()
	if current, ok := b.subs[key]; ok && current.gen == gen {
		delete(b.subs, key)
	}
	b.mu.Unlock()
	cancel()
}
