// Package eventlog implements the bounded, ordered, subscribable store of
// captured records.
// Package eventlog 实现有界、有序、可订阅的捕获记录存储。
package eventlog

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/livp123/axtext/internal/metrics"
	"github.com/livp123/axtext/internal/utils/logger"
	"github.com/livp123/axtext/pkg/record"
)

// DefaultCapacity is the number of records kept before the oldest is evicted.
// DefaultCapacity 是淘汰最旧记录之前保留的记录数。
const DefaultCapacity = 1000

const (
	defaultAsyncBuffer  = 1024
	defaultDrainTimeout = 5 * time.Second
)

// Delivery selects how subscribers are notified of appended records.
// Delivery 选择如何向订阅者通知追加的记录。
type Delivery string

const (
	// DeliverySync invokes subscribers on the appending goroutine before Append returns.
	// DeliverySync 在 Append 返回之前于追加的 goroutine 上调用订阅者。
	DeliverySync Delivery = "sync"
	// DeliveryAsync hands records to a dispatcher goroutine; delivery is FIFO per subscriber.
	// DeliveryAsync 将记录交给分发 goroutine；对每个订阅者按 FIFO 交付。
	DeliveryAsync Delivery = "async"
)

// Options configures a Log.
type Options struct {
	Capacity    int
	Delivery    Delivery
	AsyncBuffer int
	// DrainTimeout bounds how long Close waits for queued notifications.
	DrainTimeout time.Duration
	Logger       logger.Logger
}

// Subscriber receives every appended record.
type Subscriber func(record.Record)

// Subscription is the handle returned by Subscribe. It identifies the
// registration, so the same function may be subscribed more than once.
// Subscription 是 Subscribe 返回的句柄，用于标识一次注册。
type Subscription struct {
	id string
	fn Subscriber
}

// ID returns the unique identifier of the subscription.
func (s *Subscription) ID() string {
	return s.id
}

type notification struct {
	rec  record.Record
	subs []*Subscription
}

// Log is a fixed-capacity sliding window of records guarded by a single mutex.
// Subscribers are never invoked while the mutex is held.
// Log 是由单个互斥锁保护的固定容量滑动窗口；持有锁时从不调用订阅者。
type Log struct {
	mu   sync.Mutex
	buf  []record.Record
	head int
	size int

	// subs is replaced, never mutated in place, so a copy of the slice header
	// taken under mu stays stable after unlock.
	subs       []*Subscription
	clearHooks []func()

	delivery Delivery
	// pending holds async notifications in append order; wake signals the
	// dispatcher without blocking the appender.
	pending []notification
	wake    chan struct{}
	done    chan struct{}
	closed  bool

	drainTimeout time.Duration

	logger logger.Logger
}

// New creates a Log. Zero-valued options fall back to DefaultCapacity and
// synchronous delivery.
// New 创建 Log；零值选项回退为默认容量和同步交付。
func New(opts Options) *Log {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Delivery == "" {
		opts.Delivery = DeliverySync
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = defaultDrainTimeout
	}

	l := &Log{
		buf:          make([]record.Record, opts.Capacity),
		delivery:     opts.Delivery,
		drainTimeout: opts.DrainTimeout,
		logger:       opts.Logger,
	}

	if l.delivery == DeliveryAsync {
		size := opts.AsyncBuffer
		if size <= 0 {
			size = defaultAsyncBuffer
		}
		l.pending = make([]notification, 0, size)
		l.wake = make(chan struct{}, 1)
		l.done = make(chan struct{})
		go l.dispatch()
	}
	return l
}

// Append stores r as the newest record, evicting the oldest one when the log
// is full, then notifies every subscriber registered at that moment in
// registration order.
// Append 将 r 存为最新记录，满时淘汰最旧记录，然后按注册顺序通知订阅者。
func (l *Log) Append(r record.Record) {
	l.mu.Lock()
	evicted := l.insert(r)
	metrics.LogSize.Set(float64(l.size))
	subs := l.subs
	closed := l.closed
	if l.delivery == DeliveryAsync && !closed && len(subs) > 0 {
		// Enqueue under the lock so the dispatcher sees records in insertion order.
		l.pending = append(l.pending, notification{rec: r, subs: subs})
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
	l.mu.Unlock()

	metrics.RecordsAppended.Inc()
	if evicted {
		metrics.RecordsEvicted.Inc()
	}

	if l.delivery == DeliverySync && !closed {
		l.notify(r, subs)
	}
}

func (l *Log) insert(r record.Record) bool {
	capacity := len(l.buf)
	if l.size < capacity {
		l.buf[(l.head+l.size)%capacity] = r
		l.size++
		return false
	}
	l.buf[l.head] = r
	l.head = (l.head + 1) % capacity
	return true
}

func (l *Log) notify(r record.Record, subs []*Subscription) {
	for _, s := range subs {
		l.invoke(s, r)
	}
}

func (l *Log) invoke(s *Subscription, r record.Record) {
	defer func() {
		if p := recover(); p != nil {
			metrics.SubscriberFailures.Inc()
			l.logger.Errorf("❌ Subscriber %s panicked on record from %s: %v", s.id, r.SourceApp, p)
		}
	}()
	s.fn(r)
}

func (l *Log) dispatch() {
	defer close(l.done)
	for range l.wake {
		l.drain()
	}
	l.drain()
}

// drain delivers queued notifications until none are left. Subscribers run
// without the lock, so they may call back into the log.
func (l *Log) drain() {
	for {
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, n := range batch {
			l.notify(n.rec, n.subs)
		}
	}
}

// Snapshot returns an independent copy of the log contents, oldest first.
// Snapshot 返回日志内容的独立副本，按从旧到新排列。
func (l *Log) Snapshot() []record.Record {
	return l.collect(func(record.Record) bool { return true })
}

// SnapshotFiltered is Snapshot restricted to records from sourceApp.
// SnapshotFiltered 是仅包含来自 sourceApp 的记录的 Snapshot。
func (l *Log) SnapshotFiltered(sourceApp string) []record.Record {
	return l.collect(func(r record.Record) bool { return r.SourceApp == sourceApp })
}

func (l *Log) collect(keep func(record.Record) bool) []record.Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]record.Record, 0, l.size)
	capacity := len(l.buf)
	for i := 0; i < l.size; i++ {
		r := l.buf[(l.head+i)%capacity]
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Clear empties the log without notifying subscribers. Hooks registered with
// OnClear run afterwards, outside the lock.
// Clear 清空日志且不通知订阅者；之后在锁外运行通过 OnClear 注册的钩子。
func (l *Log) Clear() {
	l.mu.Lock()
	for i := range l.buf {
		l.buf[i] = record.Record{}
	}
	l.head = 0
	l.size = 0
	metrics.LogSize.Set(0)
	hooks := l.clearHooks
	l.mu.Unlock()

	for _, h := range hooks {
		h()
	}
}

// OnClear registers fn to run after every Clear.
func (l *Log) OnClear(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	hooks := make([]func(), len(l.clearHooks), len(l.clearHooks)+1)
	copy(hooks, l.clearHooks)
	l.clearHooks = append(hooks, fn)
}

// Len returns the number of records currently held.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Cap returns the maximum number of records the log holds.
func (l *Log) Cap() int {
	return len(l.buf)
}

// Subscribe registers fn and returns its handle.
// Subscribe 注册 fn 并返回其句柄。
func (l *Log) Subscribe(fn Subscriber) *Subscription {
	s := &Subscription{id: uuid.NewString(), fn: fn}

	l.mu.Lock()
	subs := make([]*Subscription, len(l.subs), len(l.subs)+1)
	copy(subs, l.subs)
	l.subs = append(subs, s)
	n := len(l.subs)
	l.mu.Unlock()

	metrics.Subscribers.Set(float64(n))
	l.logger.Debugf("Subscriber %s registered", s.id)
	return s
}

// Unsubscribe removes s. Unknown or nil handles are ignored.
// Unsubscribe 移除 s；未知或 nil 句柄将被忽略。
func (l *Log) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}

	l.mu.Lock()
	subs := make([]*Subscription, 0, len(l.subs))
	for _, existing := range l.subs {
		if existing != s {
			subs = append(subs, existing)
		}
	}
	removed := len(subs) != len(l.subs)
	l.subs = subs
	n := len(subs)
	l.mu.Unlock()

	if removed {
		metrics.Subscribers.Set(float64(n))
		l.logger.Debugf("Subscriber %s removed", s.id)
	}
}

// Close stops notification delivery. With asynchronous delivery it waits up to
// DrainTimeout for queued notifications to drain. A subscriber that calls Close
// cannot wait for its own delivery, so it returns once the timeout expires.
// Records appended afterwards are still stored.
// Close 停止通知交付；异步模式下最多等待 DrainTimeout 让队列中的通知交付完毕。
func (l *Log) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	if l.wake != nil {
		close(l.wake)
	}
	l.mu.Unlock()

	if l.done == nil {
		return
	}
	select {
	case <-l.done:
	case <-time.After(l.drainTimeout):
		l.logger.Warnf("⚠️  Event log drain timed out after %s", l.drainTimeout)
	}
}
