package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrQueueFull        = errors.New("notification queue is full")
	ErrDispatcherClosed = errors.New("notification dispatcher is shut down")
)

// MailJob is one message waiting for delivery.
type MailJob struct {
	To      string
	Subject string
	Body    string
}

type Worker struct {
	ID         int
	WorkerPool chan chan MailJob
	JobChannel chan MailJob
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan MailJob, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan MailJob),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(MailJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				w.Logger.Debug("mail worker shutting down", "worker_id", w.ID)
				return
			}

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("mail worker processing job", "worker_id", w.ID, "to", job.To)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("mail worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type DispatcherConfig struct {
	MaxWorkers   int
	JobQueueSize int
	SendTimeout  time.Duration
}

// Dispatcher hands mail jobs to a fixed pool of workers. Each job is tried
// once; failures are logged and dropped.
type Dispatcher struct {
	mailer      Mailer
	logger      *slog.Logger
	sendTimeout time.Duration

	jobQueue   chan MailJob
	workerPool chan chan MailJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(cfg DispatcherConfig, mailer Mailer, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	jobQueueSize := cfg.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}
	sendTimeout := cfg.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	d := &Dispatcher{
		mailer:      mailer,
		logger:      logger,
		sendTimeout: sendTimeout,
		maxWorkers:  maxWorkers,
		jobQueue:    make(chan MailJob, jobQueueSize),
		workerPool:  make(chan chan MailJob, maxWorkers),
		ctx:         ctx,
		cancel:      cancel,
	}
	d.start()
	return d
}

func (d *Dispatcher) start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			worker := NewWorker(i, d.workerPool, d.logger)
			worker.Start(d.ctx, &d.wg, d.process)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("mail dispatcher started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

// dispatch feeds workers until the queue is closed and empty, then stops the
// idle workers. A forced stop drops whatever is still queued.
func (d *Dispatcher) dispatch() {
	defer d.wg.Done()
	defer d.cancel()

	for job := range d.jobQueue {
		select {
		case jobChannel := <-d.workerPool:
			select {
			case jobChannel <- job:
				continue
			case <-d.ctx.Done():
			}
		case <-d.ctx.Done():
		}

		d.logger.Warn("mail dispatcher stopped before the queue drained",
			"dropped", len(d.jobQueue)+1)
		return
	}
	d.logger.Info("mail queue drained")
}

// process sends with its own deadline so a shutdown never cuts a message off
// halfway.
func (d *Dispatcher) process(job MailJob) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	if err := d.mailer.Send(ctx, job.To, job.Subject, job.Body); err != nil {
		d.logger.Error("mail delivery failed", "error", err, "to", job.To, "subject", job.Subject)
	}
}

// Enqueue never blocks: when the queue is full the job is dropped.
func (d *Dispatcher) Enqueue(job MailJob) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.jobQueue <- job:
		return nil
	default:
		d.logger.Warn("mail queue full, dropping message", "to", job.To, "subject", job.Subject)
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for the queued ones to be sent.
// When ctx ends first the remaining jobs are dropped and ctx.Err is returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobQueue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("mail dispatcher shutdown complete")
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}
