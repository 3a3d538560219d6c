package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const sendTimeout = 30 * time.Second

var emailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "membership_api",
	Subsystem: "mailer",
	Name:      "emails_total",
	Help:      "The total number of emails by template and outcome",
}, []string{"template", "status"})

// Dispatcher queues messages and delivers them from a pool of workers.
type Dispatcher struct {
	sender  Sender
	log     *log.Logger
	queue   chan Message
	workers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. Call Start before enqueuing.
func NewDispatcher(sender Sender, logger *log.Logger, queueSize, workers int) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		sender:  sender,
		log:     logger,
		queue:   make(chan Message, queueSize),
		workers: workers,
	}
}

// Start launches the workers. Deliveries in flight outlive ctx cancellation
// so that Close can drain the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for msg := range d.queue {
				d.deliver(ctx, msg)
			}
		}()
	}
}

// Run starts the workers, blocks until ctx is done and then drains the queue.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.Start(ctx)
	<-ctx.Done()
	d.Close()
	return nil
}

// Enqueue schedules msg for delivery without blocking. It reports false when
// the message was dropped because the queue is full or closed.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn("mailer closed, dropping email", "to", msg.ToAddress, "template", msg.Template)
		emailsTotal.WithLabelValues(msg.Template, "dropped").Inc()
		return false
	}

	select {
	case d.queue <- msg:
		emailsTotal.WithLabelValues(msg.Template, "queued").Inc()
		return true
	default:
		d.log.Warn("mailer queue full, dropping email", "to", msg.ToAddress, "template", msg.Template)
		emailsTotal.WithLabelValues(msg.Template, "dropped").Inc()
		return false
	}
}

// Close stops accepting messages and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := d.sender.SendEmailWithTemplate(ctx, msg); err != nil {
		d.log.Error("failed to send email", "to", msg.ToAddress, "template", msg.Template, "err", err)
		emailsTotal.WithLabelValues(msg.Template, "failed").Inc()
		return
	}
	d.log.Debug("email sent", "to", msg.ToAddress, "template", msg.Template)
	emailsTotal.WithLabelValues(msg.Template, "sent").Inc()
}
