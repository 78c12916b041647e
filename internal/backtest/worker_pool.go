package backtest

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/leminhbao/stock-rule-bot/internal/config"
	"github.com/leminhbao/stock-rule-bot/internal/logger"
	"github.com/leminhbao/stock-rule-bot/internal/monitoring"
	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// WorkerPool runs independent backtests in parallel for parameter
// sweeps. Each job gets its own engine, panels and portfolio; workers
// share nothing but the input bar slices, which are read-only.
type WorkerPool struct {
	workerCount int
	jobs        chan Job
	results     chan JobResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	metrics     *monitoring.Metrics
}

// Job is one sweep variant: a complete config plus the bars for every
// configured symbol.
type Job struct {
	ID     string
	Config *config.Config
	Bars   map[string][]types.OHLCV
}

// JobResult pairs a finished job with its results or failure.
type JobResult struct {
	ID       string
	Config   *config.Config
	Results  *Results
	Duration time.Duration
	Err      error
}

// NewWorkerPool sizes the pool; workerCount <= 0 uses all CPUs.
func NewWorkerPool(workerCount, jobBuffer int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		workerCount: workerCount,
		jobs:        make(chan Job, jobBuffer),
		results:     make(chan JobResult, jobBuffer),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetMetrics attaches sweep counters to the pool.
func (wp *WorkerPool) SetMetrics(m *monitoring.Metrics) { wp.metrics = m }

// Start launches the workers.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop drains remaining jobs and closes the result channel. Call after
// the last Submit.
func (wp *WorkerPool) Stop() {
	close(wp.jobs)
	wp.wg.Wait()
	close(wp.results)
	wp.cancel()
}

// Abort cancels in-flight work between bars.
func (wp *WorkerPool) Abort() { wp.cancel() }

// Submit queues one job. Blocks when the buffer is full.
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobs <- job:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// Results returns the completion channel.
func (wp *WorkerPool) Results() <-chan JobResult {
	return wp.results
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for {
		select {
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			result := wp.process(job)
			select {
			case wp.results <- result:
			case <-wp.ctx.Done():
				return
			}
		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) process(job Job) JobResult {
	started := time.Now()
	result := JobResult{ID: job.ID, Config: job.Config}

	panels := make(map[string]*types.Panel, len(job.Bars))
	for symbol, bars := range job.Bars {
		panels[symbol] = types.NewPanel(symbol, bars)
	}

	engine, err := NewEngine(job.Config, panels, logger.NewDiscardLogger())
	if err != nil {
		result.Err = err
		result.Duration = time.Since(started)
		wp.observe(result)
		return result
	}

	result.Results, result.Err = engine.Run(wp.ctx)
	result.Duration = time.Since(started)
	wp.observe(result)
	return result
}

func (wp *WorkerPool) observe(result JobResult) {
	if wp.metrics != nil {
		wp.metrics.ObserveSweepJob(result.Err != nil)
	}
}
