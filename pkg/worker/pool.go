// Package worker runs ground-model block parsing across a fixed pool of
// goroutines. Blocks are independent records, so a large report splits
// cleanly into per-block jobs.
package worker

import (
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kacperjurak/goswprep"
	"github.com/kacperjurak/goswprep/pkg/models"
)

// ProcessorFunc turns one job into a result.
type ProcessorFunc func(job models.ParseJob) models.ParseResult

// Options configures a new pool.
type Options struct {
	Workers   int
	Processor ProcessorFunc
}

// Pool manages the job and result channels and the worker goroutines.
type Pool struct {
	jobs      chan models.ParseJob
	results   chan models.ParseResult
	workers   int
	shutdown  chan struct{}
	wg        sync.WaitGroup
	processor ProcessorFunc
}

// New builds and starts a pool. Zero workers defaults to the CPU count and
// a nil processor to the standard block parser. Channels are buffered at
// twice the worker count so submission does not block on a busy pool.
func New(opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Processor == nil {
		opts.Processor = parseProcessor
	}
	p := &Pool{
		jobs:      make(chan models.ParseJob, opts.Workers*2),
		results:   make(chan models.ParseResult, opts.Workers*2),
		workers:   opts.Workers,
		shutdown:  make(chan struct{}),
		processor: opts.Processor,
	}
	p.start()
	return p
}

func (p *Pool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	log.Debug().Int("workers", p.workers).Msg("worker pool started")
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobs:
			p.results <- p.processor(job)
		case <-p.shutdown:
			return
		}
	}
}

// parseProcessor is the default job handler: parse the block's quad rows
// into a ground model.
func parseProcessor(job models.ParseJob) models.ParseResult {
	start := time.Now()
	gm, err := swprep.ParseGroundModelData(job.Data, job.Identifier, job.Misfit)
	return models.ParseResult{
		ID:             job.ID,
		Model:          gm,
		ProcessingTime: time.Since(start),
		Err:            err,
	}
}

// Submit queues a job, blocking when the buffer is full.
func (p *Pool) Submit(job models.ParseJob) {
	select {
	case p.jobs <- job:
	default:
		log.Debug().Int("id", job.ID).Msg("jobs channel full, submission will block")
		p.jobs <- job
	}
}

// Results exposes the result channel for collection loops.
func (p *Pool) Results() <-chan models.ParseResult { return p.results }

// Shutdown stops the workers and waits for them to exit.
func (p *Pool) Shutdown() {
	close(p.shutdown)
	p.wg.Wait()
	log.Debug().Msg("worker pool shutdown complete")
}

// ParseGroundModels parses up to nmodels blocks of a geopsy report across
// workers goroutines, returning the models in report order.
func ParseGroundModels(text string, nmodels, workers int) ([]*swprep.GroundModel, error) {
	blocks, err := swprep.ScanGroundModelBlocks(text)
	if err != nil {
		return nil, err
	}
	if nmodels != swprep.All && nmodels < len(blocks) {
		blocks = blocks[:nmodels]
	}

	pool := New(Options{Workers: workers})
	defer pool.Shutdown()

	go func() {
		for i, b := range blocks {
			pool.Submit(models.ParseJob{
				ID:         i,
				Identifier: b.Identifier,
				Misfit:     b.Misfit,
				Data:       b.Data,
			})
		}
	}()

	// Every submitted job must be drained even after a failure: returning
	// early would leave workers blocked on the results channel and the
	// deferred Shutdown waiting on them forever.
	out := make([]*swprep.GroundModel, len(blocks))
	var firstErr error
	for range blocks {
		res := <-pool.Results()
		if res.Err != nil {
			if firstErr == nil {
				firstErr = res.Err
			}
			continue
		}
		out[res.ID] = res.Model
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
