package chain

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lexgraph/chainbench/internal/model"
)

// Sink receives one finished run result. Calls are serialized by RunAll, so
// implementations need no locking of their own.
type Sink func(*model.RunResult) error

// RunAll executes the chain over a set of instances with bounded
// concurrency, streaming each finished result to the sink. Instance order in
// the sink follows completion, not input, order.
func (e *Executor) RunAll(ctx context.Context, instances []*model.Instance, workers int, sink Sink) error {
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	for _, inst := range instances {
		g.Go(func() error {
			run, err := e.Execute(ctx, inst)
			if err != nil {
				return eris.Wrapf(err, "chain: instance %s", inst.ID)
			}

			zap.L().Debug("chain: instance complete",
				zap.String("instance", inst.ID),
				zap.Bool("voided", run.Voided),
				zap.Float64("duration_ms", run.DurationMS))

			mu.Lock()
			defer mu.Unlock()
			return sink(run)
		})
	}
	return g.Wait()
}
