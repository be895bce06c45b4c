// Package dispatch serializes work per key while letting distinct keys
// proceed concurrently. The webhook handler enqueues each inbound message
// under its sender ID, so a sender's messages are processed strictly in
// arrival order and one slow conversation never blocks another.
package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/citamedica/evolution-bridge/pkg/logging"
)

const defaultMaxPending = 32

var (
	// ErrClosed is returned by Enqueue after Shutdown has been called.
	ErrClosed = errors.New("dispatch: dispatcher is closed")
	// ErrQueueFull is returned when a key already has the maximum number
	// of pending tasks.
	ErrQueueFull = errors.New("dispatch: queue full for key")
)

// Task is a unit of work executed on a dispatcher goroutine.
type Task func(ctx context.Context)

type keyQueue struct {
	pending []Task
	running bool
}

// Dispatcher runs tasks FIFO per key. Each key with pending work owns one
// goroutine, so tasks for the same key never overlap while tasks for
// different keys run in parallel.
type Dispatcher struct {
	mu         sync.Mutex
	queues     map[string]*keyQueue
	closed     bool
	maxPending int
	logger     *logging.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option customizes dispatcher behavior.
type Option func(*Dispatcher)

// WithMaxPending bounds how many tasks a single key may have queued.
func WithMaxPending(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxPending = n
		}
	}
}

// WithLogger sets the logger used for panic reports.
func WithLogger(logger *logging.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Dispatcher ready to accept tasks.
func New(opts ...Option) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		queues:     make(map[string]*keyQueue),
		maxPending: defaultMaxPending,
		logger:     logging.Default(),
		baseCtx:    ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue schedules task under key. Tasks sharing a key execute in the
// order they were enqueued.
func (d *Dispatcher) Enqueue(key string, task Task) error {
	if task == nil {
		return errors.New("dispatch: task cannot be nil")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	kq, ok := d.queues[key]
	if !ok {
		kq = &keyQueue{}
		d.queues[key] = kq
	}
	if len(kq.pending) >= d.maxPending {
		return ErrQueueFull
	}
	kq.pending = append(kq.pending, task)

	if !kq.running {
		kq.running = true
		d.wg.Add(1)
		go d.drain(key, kq)
	}
	return nil
}

// drain runs tasks for one key until its queue empties, then retires the
// key. A later Enqueue for the same key starts a fresh goroutine.
func (d *Dispatcher) drain(key string, kq *keyQueue) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		if len(kq.pending) == 0 {
			kq.running = false
			delete(d.queues, key)
			d.mu.Unlock()
			return
		}
		task := kq.pending[0]
		kq.pending = kq.pending[1:]
		d.mu.Unlock()

		d.invoke(key, task)
	}
}

func (d *Dispatcher) invoke(key string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch task panicked", "key", key, "panic", r)
		}
	}()
	task(d.baseCtx)
}

// Shutdown stops accepting tasks and waits for in-flight work to finish,
// or until ctx expires.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}
