package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Request is one statement of a batch.
type Request struct {
	Query   string
	Bind    map[string]any
	Options QueryOptions
}

// QueryMany runs independent statements concurrently, at most
// traversal.concurrency at a time. Results keep the order of reqs. The
// first error cancels the remaining statements.
func (e *Engine) QueryMany(ctx context.Context, reqs []Request) ([][]any, error) {
	out := make([][]any, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	limit := e.config.Traversal.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, req := range reqs {
		g.Go(func() (err error) {
			defer e.recoverPanic(gctx, &err)
			cur, err := e.Query(gctx, req.Query, req.Bind, req.Options)
			if err != nil {
				return err
			}
			defer cur.Close()
			rows, err := cur.All(gctx)
			if err != nil {
				return err
			}
			out[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
