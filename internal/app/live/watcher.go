package live

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Watcher turns a Query into a stream of snapshots. The first snapshot
// arrives promptly; later ones follow writes to the collection. The
// channel closes when ctx is cancelled or the feed fails; a failed feed
// sends a final Snapshot with Err set before closing.
type Watcher interface {
	Watch(ctx context.Context, q Query) <-chan Snapshot
}

// MongoWatcher implements Watcher over MongoDB change streams. Every
// relevant change event re-runs the query and emits the full ordered
// snapshot, so consumers never reorder or dedup on their own. Bursts of
// events between two re-queries collapse into one snapshot.
type MongoWatcher struct {
	db  *mongo.Database
	log *zap.Logger

	// coalesce window after a change event before re-querying
	debounce time.Duration
}

// NewMongoWatcher creates a watcher over the given database.
func NewMongoWatcher(db *mongo.Database, logger *zap.Logger) *MongoWatcher {
	return &MongoWatcher{db: db, log: logger, debounce: 50 * time.Millisecond}
}

// Watch implements Watcher.
func (w *MongoWatcher) Watch(ctx context.Context, q Query) <-chan Snapshot {
	out := make(chan Snapshot, 1)
	go w.run(ctx, q, out)
	return out
}

func (w *MongoWatcher) run(parent context.Context, q Query, out chan<- Snapshot) {
	defer close(out)

	// The derived context lets one dying stream take the whole feed down:
	// a region silently missing one of its collections would look healthy
	// while showing stale data.
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// One change stream per collection the feed depends on. A write to any
	// of them re-runs the same query.
	collections := append([]string{q.Collection}, q.Also...)
	streams := make([]*mongo.ChangeStream, 0, len(collections))
	for _, name := range collections {
		stream, err := w.db.Collection(name).Watch(ctx, mongo.Pipeline{})
		if err != nil {
			w.log.Error("live: change stream open failed",
				zap.String("collection", name), zap.Error(err))
			for _, s := range streams {
				s.Close(context.Background())
			}
			w.emit(ctx, out, Snapshot{Err: err})
			return
		}
		streams = append(streams, stream)
	}
	defer func() {
		for _, s := range streams {
			s.Close(context.Background())
		}
	}()

	if !w.requery(ctx, q, out) {
		return
	}

	// Change events arrive on their own goroutines so the main loop can
	// coalesce bursts, across collections, into a single re-query.
	events := make(chan struct{}, 1)
	errs := make(chan error, len(streams))
	var wg sync.WaitGroup
	for i, stream := range streams {
		wg.Add(1)
		go func(name string, stream *mongo.ChangeStream) {
			defer wg.Done()
			for stream.Next(ctx) {
				var ev bson.M
				if err := stream.Decode(&ev); err != nil {
					continue
				}
				select {
				case events <- struct{}{}:
				default:
				}
			}
			if err := stream.Err(); err != nil && ctx.Err() == nil {
				w.log.Warn("live: change stream ended",
					zap.String("collection", name), zap.Error(err))
				select {
				case errs <- err:
				default:
				}
			}
			cancel()
		}(collections[i], stream)
	}
	go func() {
		wg.Wait()
		close(events)
	}()

	for {
		select {
		case <-ctx.Done():
			w.flushStreamErr(parent, out, errs)
			return
		case _, ok := <-events:
			if !ok {
				w.flushStreamErr(parent, out, errs)
				return
			}
			// Let a write burst settle before the re-query.
			timer := time.NewTimer(w.debounce)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			if !w.requery(ctx, q, out) {
				return
			}
		}
	}
}

// flushStreamErr forwards the first stream failure, if any, as the final
// snapshot. Stream goroutines queue the error before cancelling, so it is
// already buffered here by the time the run loop observes the shutdown. A
// plain parent cancellation has no queued error and emits nothing.
func (w *MongoWatcher) flushStreamErr(parent context.Context, out chan<- Snapshot, errs <-chan error) {
	select {
	case err := <-errs:
		w.emit(parent, out, Snapshot{Err: err})
	default:
	}
}

// requery runs the query and emits the snapshot. Returns false when the
// feed should end.
func (w *MongoWatcher) requery(ctx context.Context, q Query, out chan<- Snapshot) bool {
	docs, err := runQuery(ctx, w.db, q)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		w.log.Error("live: snapshot query failed",
			zap.String("collection", q.Collection), zap.Error(err))
		w.emit(ctx, out, Snapshot{Err: err})
		return false
	}
	return w.emit(ctx, out, Snapshot{Docs: docs})
}

func (w *MongoWatcher) emit(ctx context.Context, out chan<- Snapshot, s Snapshot) bool {
	select {
	case out <- s:
		return true
	case <-ctx.Done():
		return false
	}
}
