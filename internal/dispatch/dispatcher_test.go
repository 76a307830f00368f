package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/notifyd/internal/config"
	"github.com/phrazzld/notifyd/internal/delivery"
	"github.com/phrazzld/notifyd/internal/domain"
	"github.com/phrazzld/notifyd/internal/platform/logger"
	"github.com/phrazzld/notifyd/internal/platform/memory"
	"github.com/phrazzld/notifyd/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noPacing disables the pause between records.
var noPacing = config.DispatcherConfig{Pacing: -1}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingChannel records every send and replies with Fn if set.
type recordingChannel struct {
	mu   sync.Mutex
	sent []string
	Fn   func(ctx context.Context, r *domain.Recipient, message string) (delivery.Receipt, error)
}

func (c *recordingChannel) Send(ctx context.Context, r *domain.Recipient, message string) (delivery.Receipt, error) {
	c.mu.Lock()
	c.sent = append(c.sent, message)
	fn := c.Fn
	c.mu.Unlock()

	if fn != nil {
		return fn(ctx, r, message)
	}
	return delivery.Delivered(), nil
}

func (c *recordingChannel) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

// countingNotificationStore wraps the memory store, counting inserts and
// allowing Update to be overridden.
type countingNotificationStore struct {
	*memory.NotificationStore
	inserts  atomic.Int32
	InsertFn func(ctx context.Context, n *domain.Notification) error
	UpdateFn func(ctx context.Context, id uuid.UUID, n *domain.Notification) (*domain.Notification, error)
}

func (s *countingNotificationStore) Insert(ctx context.Context, n *domain.Notification) error {
	s.inserts.Add(1)
	if s.InsertFn != nil {
		return s.InsertFn(ctx, n)
	}
	return s.NotificationStore.Insert(ctx, n)
}

func (s *countingNotificationStore) Update(
	ctx context.Context,
	id uuid.UUID,
	n *domain.Notification,
) (*domain.Notification, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, id, n)
	}
	return s.NotificationStore.Update(ctx, id, n)
}

type fixture struct {
	recipients    *memory.RecipientStore
	notifications *countingNotificationStore
	channel       *recordingChannel
	dispatcher    *Dispatcher
	recipient     *domain.Recipient
}

func newFixture(t *testing.T, cfg config.DispatcherConfig, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		recipients:    memory.NewRecipientStore(),
		notifications: &countingNotificationStore{NotificationStore: memory.NewNotificationStore()},
		channel:       &recordingChannel{},
	}

	r, err := domain.NewRecipient("Ada", "ada@example.com", "+15550100")
	require.NoError(t, err)
	require.NoError(t, f.recipients.Create(context.Background(), r))
	f.recipient = r

	set := delivery.Set{Email: f.channel, SMS: f.channel, Push: f.channel}
	f.dispatcher = New(f.recipients, f.notifications, set, cfg, discardLogger(), opts...)
	return f
}

// flush shuts the dispatcher down and waits for the queue to drain.
func (f *fixture) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.dispatcher.Shutdown(ctx))
}

func (f *fixture) get(t *testing.T, id uuid.UUID) *domain.Notification {
	t.Helper()
	n, err := f.dispatcher.Get(context.Background(), id)
	require.NoError(t, err)
	return n
}

func TestEnqueueReturnsQueuedRecord(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := newFixture(t, noPacing, WithClock(func() time.Time { return created }))

	n, err := f.dispatcher.Enqueue(context.Background(), f.recipient.ID, "hello", domain.ChannelEmail, "")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, n.ID)
	assert.Equal(t, f.recipient.ID, n.RecipientID)
	assert.Equal(t, "hello", n.Message)
	assert.Equal(t, domain.ChannelEmail, n.Channel)
	assert.Equal(t, domain.PriorityNormal, n.Priority, "empty priority defaults to normal")
	assert.Equal(t, domain.StatusQueued, n.Status)
	assert.Equal(t, created, n.CreatedAt)
	assert.Nil(t, n.SentAt)

	f.flush(t)

	stored := f.get(t, n.ID)
	assert.Equal(t, domain.StatusSent, stored.Status)
	require.NotNil(t, stored.SentAt)
	assert.Equal(t, created, *stored.SentAt)
	assert.Empty(t, stored.Error)
	assert.Equal(t, domain.StatusQueued, n.Status, "returned record is a copy")
}

func TestEnqueueNormalisesChannelAndPriority(t *testing.T) {
	t.Parallel()

	f := newFixture(t, noPacing)
	n, err := f.dispatcher.Enqueue(context.Background(), f.recipient.ID, "hi", "SMS", "High")
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelSMS, n.Channel)
	assert.Equal(t, domain.PriorityHigh, n.Priority)
	f.flush(t)
}

func TestEnqueueRejectsInvalidInputBeforePersistence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		channel  domain.Channel
		priority domain.Priority
		wantErr  error
	}{
		{"unknown channel", "fax", domain.PriorityNormal, domain.ErrInvalidChannel},
		{"empty channel", "", domain.PriorityNormal, domain.ErrInvalidChannel},
		{"unknown priority", domain.ChannelEmail, "urgent", domain.ErrInvalidPriority},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, noPacing)
			n, err := f.dispatcher.Enqueue(context.Background(), f.recipient.ID, "hi", tt.channel, tt.priority)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, n)
			assert.Equal(t, int32(0), f.notifications.inserts.Load())
			assert.Equal(t, 0, f.notifications.Len())
			assert.Equal(t, 0, f.dispatcher.Pending())
		})
	}
}

func TestEnqueueUnknownRecipient(t *testing.T) {
	t.Parallel()

	f := newFixture(t, noPacing)
	n, err := f.dispatcher.Enqueue(context.Background(), uuid.New(), "hi", domain.ChannelEmail, domain.PriorityNormal)

	assert.ErrorIs(t, err, store.ErrRecipientNotFound)
	assert.True(t, store.IsNotFoundError(err))
	assert.Nil(t, n)
	assert.Equal(t, int32(0), f.notifications.inserts.Load())
	assert.Equal(t, 0, f.dispatcher.Pending())
	assert.Empty(t, f.channel.Messages())
}

func TestDrainOrdersByPriority(t *testing.T) {
	t.Parallel()

	f := newFixture(t, noPacing)

	// Hold the drain on a first record so the next three are pending together.
	release := make(chan struct{})
	started := make(chan struct{})
	f.channel.Fn = func(_ context.Context, _ *domain.Recipient, message string) (delivery.Receipt, error) {
		if message == "gate" {
			close(started)
			<-release
		}
		return delivery.Delivered(), nil
	}

	ctx := context.Background()
	_, err := f.dispatcher.Enqueue(ctx, f.recipient.ID, "gate", domain.ChannelPush, domain.PriorityLow)
	require.NoError(t, err)
	<-started

	for _, tc := range []struct {
		msg string
		p   domain.Priority
	}{
		{"low", domain.PriorityLow},
		{"high", domain.PriorityHigh},
		{"normal", domain.PriorityNormal},
	} {
		_, err := f.dispatcher.Enqueue(ctx, f.recipient.ID, tc.msg, domain.ChannelEmail, tc.p)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.dispatcher.Pending())

	close(release)
	f.flush(t)

	assert.Equal(t, []string{"gate", "high", "normal", "low"}, f.channel.Messages())
}

func TestDrainKeepsEnqueueOrderWithinPriority(t *testing.T) {
	t.Parallel()

	f := newFixture(t, noPacing)

	release := make(chan struct{})
	started := make(chan struct{})
	f.channel.Fn = func(_ context.Context, _ *domain.Recipient, message string) (delivery.Receipt, error) {
		if message == "gate" {
			close(started)
			<-release
		}
		return delivery.Delivered(), nil
	}

	ctx := context.Background()
	_, err := f.dispatcher.Enqueue(ctx, f.recipient.ID, "gate", domain.ChannelPush, domain.PriorityHigh)
	require.NoError(t, err)
	<-started

	for _, msg := range []string{"n1", "h1", "n2", "h2", "n3"} {
		p := domain.PriorityNormal
		if msg[0] == 'h' {
			p = domain.PriorityHigh
		}
		_, err := f.dispatcher.Enqueue(ctx, f.recipient.ID, msg, domain.ChannelPush, p)
		require.NoError(t, err)
	}

	close(release)
	f.flush(t)

	assert.Equal(t, []string{"gate", "h1", "h2", "n1", "n2", "n3"}, f.channel.Messages())
}

func TestDrainFailsWhenRecipientDeleted(t *testing.T) {
	t.Parallel()

	f := newFixture(t, noPacing)

	release := make(chan struct{})
	started := make(chan struct{})
	f.channel.Fn = func(_ context.Context, _ *domain.Recipient, message string) (delivery.Receipt, error) {
		if message == "gate" {
			close(started)
			<-release
		}
		return delivery.Delivered(), nil
	}

	other, err := domain.NewRecipient("Grace", "grace@example.com", "")
	require.NoError(t, err)
	require.NoError(t, f.recipients.Create(context.Background(), other))

	ctx := context.Background()
	_, err = f.dispatcher.Enqueue(ctx, f.recipient.ID, "gate", domain.ChannelPush, domain.PriorityNormal)
	require.NoError(t, err)
	<-started

	n, err := f.dispatcher.Enqueue(ctx, other.ID, "orphan", domain.ChannelEmail, domain.PriorityNormal)
	require.NoError(t, err)
	require.NoError(t, f.recipients.Delete(ctx, other.ID))

	close(release)
	f.flush(t)

	stored := f.get(t, n.ID)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.Equal(t, "recipient not found: "+other.ID.String(), stored.Error)
	assert.Nil(t, stored.SentAt)
	assert.Equal(t, []string{"gate"}, f.channel.Messages(), "channel must not be invoked")
}

func TestDrainRecordsUndeliveredReason(t *testing.T) {
	t.Parallel()

	f := newFixture(t, noPacing)
	f.channel.Fn = func(context.Context, *domain.Recipient, string) (delivery.Receipt, error) {
		return delivery.Undelivered("mailbox full"), nil
	}

	var faults atomic.Int32
	f.dispatcher.SetErrorHandler(func(*domain.Notification, error) { faults.Add(1) })

	n, err := f.dispatcher.Enqueue(context.Background(), f.recipient.ID, "hi", domain.ChannelEmail, "")
	require.NoError(t, err)
	f.flush(t)

	stored := f.get(t, n.ID)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.Equal(t, "mailbox full", stored.Error)
	assert.Nil(t, stored.SentAt)
	assert.Equal(t, int32(0), faults.Load(), "an undelivered receipt is not a fault")
}

func TestDrainRecordsChannelFault(t *testing.T) {
	t.Parallel()

	f := newFixture(t, noPacing)
	f.channel.Fn = func(context.Context, *domain.Recipient, string) (delivery.Receipt, error) {
		return delivery.Receipt{}, errors.New("provider unreachable")
	}

	var mu sync.Mutex
	var reported []error
	f.dispatcher.SetErrorHandler(func(_ *domain.Notification, err error) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, err)
	})

	n, err := f.dispatcher.Enqueue(context.Background(), f.recipient.ID, "hi", domain.ChannelSMS, "")
	require.NoError(t, err)
	f.flush(t)

	stored := f.get(t, n.ID)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.Equal(t, "provider unreachable", stored.Error)
	assert.Nil(t, stored.SentAt)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reported, 1)
	assert.ErrorContains(t, reported[0], "provider unreachable")
}

func TestDrainContinuesAfterPersistenceFault(t *testing.T) {
	t.Parallel()

	f := newFixture(t, noPacing)

	var calls atomic.Int32
	f.notifications.UpdateFn = func(ctx context.Context, id uuid.UUID, n *domain.Notification) (*domain.Notification, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("disk full")
		}
		return f.notifications.NotificationStore.Update(ctx, id, n)
	}

	var faults atomic.Int32
	f.dispatcher.SetErrorHandler(func(n *domain.Notification, err error) {
		assert.Equal(t, domain.StatusSent, n.Status, "in-memory status is kept")
		assert.ErrorContains(t, err, "disk full")
		faults.Add(1)
	})

	ctx := context.Background()
	first, err := f.dispatcher.Enqueue(ctx, f.recipient.ID, "first", domain.ChannelPush, "")
	require.NoError(t, err)
	second, err := f.dispatcher.Enqueue(ctx, f.recipient.ID, "second", domain.ChannelPush, "")
	require.NoError(t, err)
	f.flush(t)

	assert.Equal(t, int32(1), faults.Load())
	assert.Equal(t, domain.StatusQueued, f.get(t, first.ID).Status, "failed write leaves the stored record untouched")
	assert.Equal(t, domain.StatusSent, f.get(t, second.ID).Status)
}

func TestDrainRecipientLookupFault(t *testing.T) {
	t.Parallel()

	f := newFixture(t, noPacing)
	lookups := &flakyRecipients{RecipientStore: f.recipients}
	f.dispatcher.recipients = lookups

	var faults atomic.Int32
	f.dispatcher.SetErrorHandler(func(*domain.Notification, error) { faults.Add(1) })

	n, err := f.dispatcher.Enqueue(context.Background(), f.recipient.ID, "hi", domain.ChannelEmail, "")
	require.NoError(t, err)
	f.flush(t)

	stored := f.get(t, n.ID)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.Equal(t, "connection reset", stored.Error)
	assert.Equal(t, int32(1), faults.Load())
	assert.Empty(t, f.channel.Messages())
}

// flakyRecipients succeeds on the first lookup and faults afterwards.
type flakyRecipients struct {
	*memory.RecipientStore
	calls atomic.Int32
}

func (s *flakyRecipients) FindByID(ctx context.Context, id uuid.UUID) (*domain.Recipient, error) {
	if s.calls.Add(1) > 1 {
		return nil, errors.New("connection reset")
	}
	return s.RecipientStore.FindByID(ctx, id)
}

func TestConcurrentEnqueueDuringDrain(t *testing.T) {
	t.Parallel()

	f := newFixture(t, config.DispatcherConfig{Pacing: time.Millisecond})

	const callers = 8
	const perCaller = 10

	var wg sync.WaitGroup
	ids := make(chan uuid.UUID, callers*perCaller)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perCaller; j++ {
				p := []domain.Priority{domain.PriorityHigh, domain.PriorityNormal, domain.PriorityLow}[j%3]
				n, err := f.dispatcher.Enqueue(context.Background(), f.recipient.ID, "m", domain.ChannelPush, p)
				if assert.NoError(t, err) {
					ids <- n.ID
				}
			}
		}()
	}
	wg.Wait()
	close(ids)
	f.flush(t)

	seen := make(map[uuid.UUID]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		assert.Equal(t, domain.StatusSent, f.get(t, id).Status)
	}
	assert.Len(t, seen, callers*perCaller)
	assert.Len(t, f.channel.Messages(), callers*perCaller)
	assert.Equal(t, 0, f.dispatcher.Pending())
}

func TestSingleDrainAtATime(t *testing.T) {
	t.Parallel()

	f := newFixture(t, noPacing)

	var active, maxActive atomic.Int32
	f.channel.Fn = func(context.Context, *domain.Recipient, string) (delivery.Receipt, error) {
		cur := active.Add(1)
		for {
			prev := maxActive.Load()
			if cur <= prev || maxActive.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		active.Add(-1)
		return delivery.Delivered(), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.dispatcher.Enqueue(context.Background(), f.recipient.ID, "m", domain.ChannelPush, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	f.flush(t)

	assert.Equal(t, int32(1), maxActive.Load())
}

func TestGetIsIdempotentForTerminalRecords(t *testing.T) {
	t.Parallel()

	f := newFixture(t, noPacing)
	f.channel.Fn = func(context.Context, *domain.Recipient, string) (delivery.Receipt, error) {
		return delivery.Undelivered("rejected"), nil
	}

	n, err := f.dispatcher.Enqueue(context.Background(), f.recipient.ID, "hi", domain.ChannelEmail, "")
	require.NoError(t, err)
	f.flush(t)

	first := f.get(t, n.ID)
	second := f.get(t, n.ID)
	assert.Equal(t, first, second)

	_, err = f.dispatcher.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotificationNotFound)
}

func TestShutdownRejectsNewWork(t *testing.T) {
	t.Parallel()

	f := newFixture(t, noPacing)
	f.flush(t)

	_, err := f.dispatcher.Enqueue(context.Background(), f.recipient.ID, "late", domain.ChannelEmail, "")
	assert.ErrorIs(t, err, ErrDispatcherClosed)

	_, err = f.dispatcher.Recover(context.Background())
	assert.ErrorIs(t, err, ErrDispatcherClosed)
}

func TestShutdownTimeoutLeavesRecordsQueued(t *testing.T) {
	t.Parallel()

	f := newFixture(t, config.DispatcherConfig{Pacing: time.Hour})

	ctx := context.Background()
	first, err := f.dispatcher.Enqueue(ctx, f.recipient.ID, "first", domain.ChannelPush, "")
	require.NoError(t, err)
	second, err := f.dispatcher.Enqueue(ctx, f.recipient.ID, "second", domain.ChannelPush, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return f.get(t, first.ID).Status == domain.StatusSent
	}, time.Second, 5*time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.dispatcher.Shutdown(shutdownCtx), context.DeadlineExceeded)

	assert.Equal(t, domain.StatusQueued, f.get(t, second.ID).Status)
}

func TestRecoverRequeuesStoredRecords(t *testing.T) {
	t.Parallel()

	f := newFixture(t, noPacing)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i, p := range []domain.Priority{domain.PriorityLow, domain.PriorityNormal, domain.PriorityLow} {
		n, err := domain.NewNotification(f.recipient.ID, []string{"a", "b", "c"}[i], domain.ChannelPush, p,
			base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, f.notifications.NotificationStore.Insert(ctx, n))
		ids = append(ids, n.ID)
	}

	done, err := domain.NewNotification(f.recipient.ID, "done", domain.ChannelPush, domain.PriorityHigh, base)
	require.NoError(t, err)
	require.NoError(t, done.MarkSent(base))
	require.NoError(t, f.notifications.NotificationStore.Insert(ctx, done))

	count, err := f.dispatcher.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	f.flush(t)

	assert.Equal(t, []string{"b", "a", "c"}, f.channel.Messages())
	for _, id := range ids {
		assert.Equal(t, domain.StatusSent, f.get(t, id).Status)
	}
}

func TestRecoverSkipsRecordsAlreadyOwned(t *testing.T) {
	t.Parallel()

	f := newFixture(t, noPacing)

	release := make(chan struct{})
	started := make(chan struct{})
	f.channel.Fn = func(_ context.Context, _ *domain.Recipient, message string) (delivery.Receipt, error) {
		if message == "gate" {
			close(started)
			<-release
		}
		return delivery.Delivered(), nil
	}

	ctx := context.Background()
	gate, err := f.dispatcher.Enqueue(ctx, f.recipient.ID, "gate", domain.ChannelPush, "")
	require.NoError(t, err)
	<-started

	waiting, err := f.dispatcher.Enqueue(ctx, f.recipient.ID, "waiting", domain.ChannelPush, "")
	require.NoError(t, err)

	// Both records are still queued in the store: one mid-send, one pending.
	count, err := f.dispatcher.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 1, f.dispatcher.Pending())

	close(release)
	f.flush(t)

	assert.Equal(t, []string{"gate", "waiting"}, f.channel.Messages())
	assert.Equal(t, domain.StatusSent, f.get(t, gate.ID).Status)
	assert.Equal(t, domain.StatusSent, f.get(t, waiting.ID).Status)
}

func TestRecoverSkipsRecordWithFailedStatusWrite(t *testing.T) {
	t.Parallel()

	f := newFixture(t, noPacing)
	f.notifications.UpdateFn = func(context.Context, uuid.UUID, *domain.Notification) (*domain.Notification, error) {
		return nil, errors.New("disk full")
	}
	f.dispatcher.SetErrorHandler(func(*domain.Notification, error) {})

	ctx := context.Background()
	n, err := f.dispatcher.Enqueue(ctx, f.recipient.ID, "once", domain.ChannelPush, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(f.channel.Messages()) == 1 && f.dispatcher.Pending() == 0
	}, time.Second, 5*time.Millisecond)

	count, err := f.dispatcher.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	f.flush(t)

	assert.Equal(t, []string{"once"}, f.channel.Messages())
	assert.Equal(t, domain.StatusQueued, f.get(t, n.ID).Status, "stored copy is left for the next process")
}

func TestOwnershipReleased(t *testing.T) {
	t.Parallel()

	f := newFixture(t, noPacing)
	ctx := context.Background()

	n, err := f.dispatcher.Enqueue(ctx, f.recipient.ID, "first", domain.ChannelPush, "")
	require.NoError(t, err)

	f.notifications.InsertFn = func(context.Context, *domain.Notification) error {
		return errors.New("connection refused")
	}
	_, err = f.dispatcher.Enqueue(ctx, f.recipient.ID, "lost", domain.ChannelPush, "")
	require.ErrorContains(t, err, "failed to save notification")

	f.flush(t)

	f.dispatcher.mu.Lock()
	defer f.dispatcher.mu.Unlock()
	assert.NotContains(t, f.dispatcher.inflight, n.ID, "terminal records are released")
	assert.Empty(t, f.dispatcher.inflight, "failed inserts are released")
}

func TestMetricsTrackDispatch(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	f := newFixture(t, noPacing, WithMetrics(m))
	f.channel.Fn = func(_ context.Context, _ *domain.Recipient, message string) (delivery.Receipt, error) {
		if message == "bad" {
			return delivery.Undelivered("nope"), nil
		}
		return delivery.Delivered(), nil
	}

	ctx := context.Background()
	_, err := f.dispatcher.Enqueue(ctx, f.recipient.ID, "ok", domain.ChannelEmail, domain.PriorityHigh)
	require.NoError(t, err)
	_, err = f.dispatcher.Enqueue(ctx, f.recipient.ID, "bad", domain.ChannelEmail, domain.PriorityHigh)
	require.NoError(t, err)
	f.flush(t)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Enqueued.WithLabelValues("email", "high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Completed.WithLabelValues("email", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Completed.WithLabelValues("email", "failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Pending))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Faults))
}

func TestLogsUseDispatcherLoggerWithoutRequestLogger(t *testing.T) {
	t.Parallel()

	log, buf := logger.NewTestLogger(t)
	recipients := memory.NewRecipientStore()
	r, err := domain.NewRecipient("Ada", "ada@example.com", "")
	require.NoError(t, err)
	require.NoError(t, recipients.Create(context.Background(), r))

	ch := &recordingChannel{}
	d := New(recipients, memory.NewNotificationStore(), delivery.Set{Email: ch, SMS: ch, Push: ch},
		noPacing, log)

	ctx := context.Background()
	_, err = d.Enqueue(ctx, r.ID, "hi", domain.ChannelPush, "")
	require.NoError(t, err)
	_, err = d.Recover(ctx)
	require.NoError(t, err)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(shutdownCtx))

	entries, err := buf.Entries()
	require.NoError(t, err)

	found := map[string]bool{}
	for _, e := range entries {
		msg, _ := e["msg"].(string)
		if msg == "notification queued" || msg == "recovered queued notifications" {
			assert.Equal(t, "dispatcher", e["component"], "entry %q", msg)
			found[msg] = true
		}
	}
	assert.True(t, found["notification queued"])
	assert.True(t, found["recovered queued notifications"])
}
