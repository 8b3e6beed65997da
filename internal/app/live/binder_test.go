package live

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// fakeWatcher emits one snapshot per Watch call and then holds the
// channel open until the context ends.
type fakeWatcher struct {
	mu      sync.Mutex
	watches int
	active  int
}

func (f *fakeWatcher) Watch(ctx context.Context, q Query) <-chan Snapshot {
	f.mu.Lock()
	f.watches++
	f.active++
	f.mu.Unlock()

	out := make(chan Snapshot, 1)
	out <- Snapshot{Docs: []bson.Raw{}}
	go func() {
		<-ctx.Done()
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
		close(out)
	}()
	return out
}

func (f *fakeWatcher) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestBinder_ForwardsSnapshots(t *testing.T) {
	fw := &fakeWatcher{}
	b := NewBinder(fw, zap.NewNop())
	defer b.Close()

	ch := b.Bind(context.Background(), "u1:feed:5", Query{Collection: "posts"})
	select {
	case s := <-ch:
		if s.Err != nil {
			t.Fatalf("unexpected error snapshot: %v", s.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot received")
	}
}

func TestBinder_RebindCancelsPrior(t *testing.T) {
	fw := &fakeWatcher{}
	b := NewBinder(fw, zap.NewNop())
	defer b.Close()

	first := b.Bind(context.Background(), "u1:feed:5", Query{Collection: "posts"})
	<-first

	// Same key with a new limit: exactly one subscription survives.
	second := b.Bind(context.Background(), "u1:feed:5", Query{Collection: "posts", Limit: 10})
	<-second

	waitFor(t, func() bool { return fw.activeCount() == 1 })
	if b.Active() != 1 {
		t.Errorf("Active: got %d, want 1", b.Active())
	}

	// The first channel must close once its subscription is cancelled.
	select {
	case _, open := <-first:
		if open {
			t.Error("expected first channel to be closed or drained")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first channel never closed")
	}
}

func TestBinder_Release(t *testing.T) {
	fw := &fakeWatcher{}
	b := NewBinder(fw, zap.NewNop())
	defer b.Close()

	ch := b.Bind(context.Background(), "u1:rsvps:e1", Query{Collection: "rsvps"})
	<-ch

	b.Release("u1:rsvps:e1")
	waitFor(t, func() bool { return fw.activeCount() == 0 })
	if b.Active() != 0 {
		t.Errorf("Active: got %d, want 0", b.Active())
	}
}

func TestBinder_ReleaseOwner(t *testing.T) {
	fw := &fakeWatcher{}
	b := NewBinder(fw, zap.NewNop())
	defer b.Close()

	<-b.Bind(context.Background(), "u1:feed:5", Query{Collection: "posts"})
	<-b.Bind(context.Background(), "u1:comments:p1", Query{Collection: "comments"})
	<-b.Bind(context.Background(), "u2:feed:5", Query{Collection: "posts"})

	b.ReleaseOwner("u1:")
	waitFor(t, func() bool { return fw.activeCount() == 1 })
	if b.Active() != 1 {
		t.Errorf("Active after ReleaseOwner: got %d, want 1", b.Active())
	}
}

func TestBinder_ContextCancelEndsSubscription(t *testing.T) {
	fw := &fakeWatcher{}
	b := NewBinder(fw, zap.NewNop())
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Bind(ctx, "u1:feed:5", Query{Collection: "posts"})
	<-ch
	cancel()

	waitFor(t, func() bool { return b.Active() == 0 })
}

func TestCache_PaintHint(t *testing.T) {
	c := NewCache()
	if _, ok := c.Get("k"); ok {
		t.Error("empty cache should miss")
	}
	c.Put("k", "<div>hei</div>")
	if f, ok := c.Get("k"); !ok || f != "<div>hei</div>" {
		t.Errorf("Get: got %q, %v", f, ok)
	}
	c.Drop("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after Drop")
	}
}

func TestServeRegion_ReplaysCacheAndStreams(t *testing.T) {
	fw := &fakeWatcher{}
	b := NewBinder(fw, zap.NewNop())
	defer b.Close()

	cache := NewCache()
	cache.Put("u1:feed:5", "<div>cached</div>")

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/medlem/live/feed", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ServeRegion(rec, req, b, cache, zap.NewNop(), "u1:feed:5", Query{Collection: "posts"},
			func(s Snapshot) (string, error) { return "<div>live</div>", nil })
	}()

	// The cache update signals that the live snapshot has been written.
	waitFor(t, func() bool {
		f, _ := cache.Get("u1:feed:5")
		return f == "<div>live</div>"
	})
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "data: <div>cached</div>") {
		t.Error("expected cached fragment replayed first")
	}
	if !strings.Contains(body, "data: <div>live</div>") {
		t.Error("expected live fragment streamed")
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type: got %q", got)
	}
}
