// Package live implements the realtime region machinery: a logical feed
// is a Mongo query, a watcher turns it into a stream of full ordered
// snapshots, and the binder guarantees at most one active subscription
// per feed key. SSE handlers consume the snapshots and stream rendered
// fragments to the browser.
package live

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Query describes a logical feed: one collection, one filter, one order.
// Also names sibling collections whose writes must repaint the region even
// though the query itself reads only Collection. The feed region is the
// canonical case: the snapshot lists posts, but the rendered fragment
// carries like counts and comments, so writes to those collections have to
// trigger a re-query too.
type Query struct {
	Collection string
	Filter     bson.M
	Sort       bson.D
	Limit      int64
	Also       []string
}

// Snapshot is one full, ordered result set for a feed. Consumers render
// the whole region from it; there is no incremental patching.
type Snapshot struct {
	Docs []bson.Raw
	Err  error
}

// runQuery executes the query and returns the full ordered result.
func runQuery(ctx context.Context, db *mongo.Database, q Query) ([]bson.Raw, error) {
	filter := q.Filter
	if filter == nil {
		filter = bson.M{}
	}

	opts := options.Find()
	if len(q.Sort) > 0 {
		opts.SetSort(q.Sort)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cur, err := db.Collection(q.Collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []bson.Raw
	for cur.Next(ctx) {
		raw := make(bson.Raw, len(cur.Current))
		copy(raw, cur.Current)
		docs = append(docs, raw)
	}
	return docs, cur.Err()
}
