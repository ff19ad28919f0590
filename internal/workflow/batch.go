package workflow

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome for one batch input. Exactly one of Annotated and
// Err is set.
type BatchItem struct {
	Input     string
	Annotated *Annotated
	Err       error
}

// AnnotateBatch runs AnnotateAndSave over inputs with at most workers files
// in flight (workers <= 0 means one per CPU). Per-file failures are recorded
// in the returned items and do not stop the batch; cancelling ctx does, and
// its error is returned. Items keep input order.
//
// Inputs whose output path collides with an earlier input are not processed.
func (r *Runner) AnnotateBatch(ctx context.Context, inputs []string, workers int) ([]BatchItem, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	items := make([]BatchItem, len(inputs))
	seen := make(map[string]string, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, input := range inputs {
		items[i].Input = input

		out := r.OutputPath(input)
		if prev, ok := seen[out]; ok {
			items[i].Err = errors.Errorf("output %s already produced by %s", out, prev)
			continue
		}
		seen[out] = input

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				items[i].Err = err
				return err
			}
			annotated, err := r.AnnotateAndSave(input)
			if err != nil {
				r.log.WithFields(logrus.Fields{"input": input}).WithError(err).Warn("batch item failed")
				items[i].Err = err
				return nil
			}
			items[i].Annotated = annotated
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return items, err
	}
	return items, nil
}
