package regions

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"go.viam.com/framemask/logging"
	"go.viam.com/framemask/rimage"
	"go.viam.com/framemask/rimage/videosource"
)

// FrameStream is the part of a videosource.Stream the pipeline reads from.
type FrameStream interface {
	Next(ctx context.Context) (*rimage.Frame, error)
	Index() int
}

// PipelineConfig sizes the pipeline. Zero values pick the defaults.
type PipelineConfig struct {
	// Workers is the number of classifying goroutines, 1 by default.
	Workers int
	// QueueSize bounds the decoded frames waiting for a worker, 2 by default.
	QueueSize int
}

// PipelineStats counts what a pipeline run did.
type PipelineStats struct {
	Decoded    int64
	Classified int64
	Skipped    int64
}

// MaskSink receives the masks of a pipeline in source order, with the source index of the frame
// and the frame itself. Neither may be kept after the call returns.
type MaskSink func(index int, frame *rimage.Frame, mask *image.Gray) error

type pipelineJob struct {
	seq   int
	index int
	frame *rimage.Frame
}

type pipelineResult struct {
	pipelineJob
	mask *image.Gray
}

// RunPipeline decodes src on one goroutine and classifies the frames on cfg.Workers others.
// Masks reach sink one at a time and in the order of the frames, no matter which worker finished
// first. Frames the classifier rejects as invalid are logged and skipped. The first error from
// src, the classifier or sink stops the pipeline and is returned. src is not closed.
func RunPipeline(
	ctx context.Context,
	src FrameStream,
	c *Classifier,
	cfg PipelineConfig,
	sink MaskSink,
	logger logging.Logger,
) (PipelineStats, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 2
	}

	var decoded, classified, skipped atomic.Int64
	jobs := make(chan pipelineJob, queueSize)
	results := make(chan pipelineResult, queueSize)
	// frames between decode and delivery; keeps a slow worker from letting the reorder buffer grow
	inflight := make(chan struct{}, queueSize+workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for seq := 0; ; seq++ {
			select {
			case inflight <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			frame, err := src.Next(gctx)
			if errors.Is(err, videosource.ErrEndOfStream) {
				return nil
			}
			if err != nil {
				return err
			}
			decoded.Inc()
			select {
			case jobs <- pipelineJob{seq: seq, index: src.Index(), frame: frame}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	var workersWG sync.WaitGroup
	workersWG.Add(workers)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			defer workersWG.Done()
			for job := range jobs {
				mask, err := c.Classify(job.frame)
				if err != nil {
					if !IsInvalidFrame(err) {
						return errors.Wrapf(err, "classifying frame %d", job.index)
					}
					logger.Warnw("skipping frame", "frame", job.index, "error", err)
					skipped.Inc()
				} else {
					classified.Inc()
				}
				select {
				case results <- pipelineResult{pipelineJob: job, mask: mask}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		workersWG.Wait()
		close(results)
		return nil
	})

	g.Go(func() error {
		pending := map[int]pipelineResult{}
		next := 0
		for result := range results {
			pending[result.seq] = result
			for {
				ready, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				<-inflight
				if ready.mask == nil {
					continue
				}
				if err := sink(ready.index, ready.frame, ready.mask); err != nil {
					return err
				}
			}
		}
		return nil
	})

	err := g.Wait()
	stats := PipelineStats{Decoded: decoded.Load(), Classified: classified.Load(), Skipped: skipped.Load()}
	logger.Debugw("pipeline finished", "decoded", stats.Decoded, "classified", stats.Classified,
		"skipped", stats.Skipped, "error", err)
	return stats, err
}
