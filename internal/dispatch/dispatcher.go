package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/notifyd/internal/config"
	"github.com/phrazzld/notifyd/internal/delivery"
	"github.com/phrazzld/notifyd/internal/domain"
	"github.com/phrazzld/notifyd/internal/platform/logger"
	"github.com/phrazzld/notifyd/internal/store"
)

// DefaultPacing is the pause between two processed records when the
// configuration leaves it unset.
const DefaultPacing = 100 * time.Millisecond

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// WithMetrics makes the dispatcher report to m instead of unregistered collectors.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// Dispatcher queues notifications and delivers them one at a time in
// priority order.
type Dispatcher struct {
	recipients    store.RecipientStore
	notifications store.NotificationStore
	channels      delivery.Set
	pacing        time.Duration
	logger        *slog.Logger
	metrics       *Metrics
	now           func() time.Time
	errHandler    func(n *domain.Notification, err error)

	mu      sync.Mutex
	pending []*domain.Notification
	// inflight holds every record this dispatcher owns until its terminal
	// status has been written, including the one being delivered.
	inflight map[uuid.UUID]struct{}
	draining bool
	closed   bool

	// wg counts in-flight Enqueue/Recover calls and the active drain.
	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Dispatcher. Pass a negative cfg.Pacing to disable pacing;
// zero selects DefaultPacing.
func New(
	recipients store.RecipientStore,
	notifications store.NotificationStore,
	channels delivery.Set,
	cfg config.DispatcherConfig,
	log *slog.Logger,
	opts ...Option,
) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	pacing := cfg.Pacing
	if pacing == 0 {
		pacing = DefaultPacing
	}

	d := &Dispatcher{
		recipients:    recipients,
		notifications: notifications,
		channels:      channels,
		pacing:        pacing,
		logger:        log.With("component", "dispatcher"),
		now:           time.Now,
		inflight:      make(map[uuid.UUID]struct{}),
		stop:          make(chan struct{}),
	}
	d.errHandler = func(n *domain.Notification, err error) {
		d.logger.Error("notification drain fault",
			"notification_id", n.ID,
			"channel", n.Channel,
			"error", err)
	}

	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = NewMetrics(nil)
	}

	return d
}

// SetErrorHandler replaces the hook invoked for every infrastructural fault
// raised while draining: channel faults, recipient lookup faults and
// persistence failures. The default handler logs at error level.
func (d *Dispatcher) SetErrorHandler(handler func(n *domain.Notification, err error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errHandler = handler
}

// Enqueue validates a delivery request, persists it as queued and schedules
// it for delivery.
//
// Returns domain.ErrInvalidChannel or domain.ErrInvalidPriority for values
// outside their sets, store.ErrRecipientNotFound when the recipient does not
// exist and ErrDispatcherClosed after Shutdown. None of these leave a record
// behind. An empty priority means normal.
func (d *Dispatcher) Enqueue(
	ctx context.Context,
	recipientID uuid.UUID,
	message string,
	channel domain.Channel,
	priority domain.Priority,
) (*domain.Notification, error) {
	if err := d.acquire(); err != nil {
		return nil, err
	}
	defer d.wg.Done()

	channel, err := domain.ParseChannel(string(channel))
	if err != nil {
		return nil, err
	}
	priority, err = domain.ParsePriority(string(priority))
	if err != nil {
		return nil, err
	}

	if _, err := d.recipients.FindByID(ctx, recipientID); err != nil {
		if errors.Is(err, store.ErrRecipientNotFound) {
			return nil, fmt.Errorf("recipient %s: %w", recipientID, err)
		}
		return nil, fmt.Errorf("failed to look up recipient: %w", err)
	}

	n, err := domain.NewNotification(recipientID, message, channel, priority, d.now())
	if err != nil {
		return nil, err
	}

	// Claimed before Insert so a concurrent Recover never sees it unowned.
	d.mu.Lock()
	d.inflight[n.ID] = struct{}{}
	d.mu.Unlock()

	if err := d.notifications.Insert(ctx, n); err != nil {
		d.release(n.ID)
		return nil, fmt.Errorf("failed to save notification: %w", err)
	}

	// The caller gets its own copy; the queued record belongs to the drain.
	result := n.Clone()

	d.mu.Lock()
	d.pending = append(d.pending, n)
	d.metrics.Pending.Set(float64(len(d.pending)))
	d.startDrainLocked()
	d.mu.Unlock()

	d.metrics.Enqueued.WithLabelValues(string(channel), string(priority)).Inc()
	logger.FromContextOrDefault(ctx, d.logger).Debug("notification queued",
		"notification_id", n.ID,
		"recipient_id", recipientID,
		"channel", channel,
		"priority", priority)

	return result, nil
}

// Get returns the current state of a notification.
// Returns store.ErrNotificationNotFound for unknown IDs.
func (d *Dispatcher) Get(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	return d.notifications.GetByID(ctx, id)
}

// Pending returns the number of records waiting to be drained.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Recover re-queues records a previous process left in queued state, oldest
// first, and starts a drain. Records this dispatcher already owns, pending or
// mid-delivery, are skipped. It returns the number of records added.
func (d *Dispatcher) Recover(ctx context.Context) (int, error) {
	if err := d.acquire(); err != nil {
		return 0, err
	}
	defer d.wg.Done()

	queued, err := d.notifications.ListByStatus(ctx, domain.StatusQueued)
	if err != nil {
		return 0, fmt.Errorf("failed to list queued notifications: %w", err)
	}

	d.mu.Lock()
	added := 0
	for _, n := range queued {
		if _, owned := d.inflight[n.ID]; owned {
			continue
		}
		d.inflight[n.ID] = struct{}{}
		d.pending = append(d.pending, n)
		added++
	}
	d.metrics.Pending.Set(float64(len(d.pending)))
	if added > 0 {
		d.startDrainLocked()
	}
	d.mu.Unlock()

	logger.FromContextOrDefault(ctx, d.logger).Info("recovered queued notifications", "count", added)
	return added, nil
}

// Shutdown stops accepting new work and waits for the pending queue to be
// flushed. If ctx expires first the drain stops after its current record,
// the remaining records stay queued in the store and ctx.Err() is returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	remaining := len(d.pending)
	d.mu.Unlock()

	d.logger.Info("dispatcher shutting down", "pending", remaining)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		d.stopOnce.Do(func() { close(d.stop) })
		return ctx.Err()
	}
}

// acquire registers an in-flight call unless the dispatcher is closed.
func (d *Dispatcher) acquire() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	return nil
}

// startDrainLocked starts the drain goroutine if none is active.
// Callers must hold d.mu.
func (d *Dispatcher) startDrainLocked() {
	if d.draining {
		return
	}
	d.draining = true
	d.wg.Add(1)
	go d.drain()
}

func (d *Dispatcher) drain() {
	defer d.wg.Done()

	for {
		n, ok := d.next()
		if !ok {
			return
		}

		d.process(n)

		if !d.pause() {
			d.mu.Lock()
			d.draining = false
			d.mu.Unlock()
			return
		}
	}
}

// next removes the highest priority record from the queue. It clears the
// draining flag and reports false once the queue is empty or stopped.
func (d *Dispatcher) next() (*domain.Notification, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pending) == 0 || d.stopped() {
		d.draining = false
		return nil, false
	}

	sort.SliceStable(d.pending, func(i, j int) bool {
		return d.pending[i].Priority.Rank() < d.pending[j].Priority.Rank()
	})

	n := d.pending[0]
	d.pending[0] = nil
	d.pending = d.pending[1:]
	d.metrics.Pending.Set(float64(len(d.pending)))
	return n, true
}

// process drives one record to a terminal status and persists it.
func (d *Dispatcher) process(n *domain.Notification) {
	ctx := logger.WithContext(context.Background(), d.logger.With("notification_id", n.ID))

	recipient, err := d.recipients.FindByID(ctx, n.RecipientID)
	switch {
	case errors.Is(err, store.ErrRecipientNotFound):
		d.fail(n, fmt.Sprintf("recipient not found: %s", n.RecipientID))
	case err != nil:
		d.fault(n, fmt.Errorf("failed to resolve recipient: %w", err))
		d.fail(n, err.Error())
	default:
		d.deliver(ctx, n, recipient)
	}

	d.metrics.Completed.WithLabelValues(string(n.Channel), string(n.Status)).Inc()

	// On a failed write the record stays owned: the stored copy is still
	// queued, but only a later process may re-deliver it.
	if _, err := d.notifications.Update(ctx, n.ID, n); err != nil {
		d.fault(n, fmt.Errorf("failed to persist notification status: %w", err))
		return
	}
	d.release(n.ID)
}

// release drops id from the set of owned records.
func (d *Dispatcher) release(id uuid.UUID) {
	d.mu.Lock()
	delete(d.inflight, id)
	d.mu.Unlock()
}

func (d *Dispatcher) deliver(ctx context.Context, n *domain.Notification, recipient *domain.Recipient) {
	log := logger.FromContext(ctx)

	ch, err := d.channels.For(n.Channel)
	if err != nil {
		d.fault(n, err)
		d.fail(n, err.Error())
		return
	}

	start := time.Now()
	receipt, err := ch.Send(ctx, recipient, n.Message)
	d.metrics.DeliveryDuration.WithLabelValues(string(n.Channel)).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		d.fault(n, fmt.Errorf("%s delivery fault: %w", n.Channel, err))
		d.fail(n, err.Error())
	case !receipt.Delivered:
		log.Warn("notification not delivered", "channel", n.Channel, "reason", receipt.Reason)
		d.fail(n, receipt.Reason)
	default:
		if err := n.MarkSent(d.now()); err != nil {
			d.fault(n, err)
			return
		}
		log.Info("notification sent", "channel", n.Channel)
	}
}

func (d *Dispatcher) fail(n *domain.Notification, reason string) {
	if err := n.MarkFailed(reason, d.now()); err != nil {
		d.fault(n, err)
	}
}

func (d *Dispatcher) fault(n *domain.Notification, err error) {
	d.metrics.Faults.Inc()

	d.mu.Lock()
	handler := d.errHandler
	d.mu.Unlock()

	if handler != nil {
		handler(n.Clone(), err)
	}
}

// pause waits out the pacing delay. It reports false when the dispatcher
// was stopped meanwhile.
func (d *Dispatcher) pause() bool {
	if d.pacing <= 0 {
		return !d.stopped()
	}

	timer := time.NewTimer(d.pacing)
	defer timer.Stop()

	select {
	case <-d.stop:
		return false
	case <-timer.C:
		return true
	}
}

func (d *Dispatcher) stopped() bool {
	select {
	case <-d.stop:
		return true
	default:
		return false
	}
}
