package service

import (
	"context"
	"sync"
	"time"

	"home-panel/internal/dashboard/engine"

	"github.com/charmbracelet/log"
)

// ============================================================
// Save Outcome
// ============================================================

type Outcome uint8

const (
	OutcomeSuccess Outcome = iota + 1
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	}
	return "none"
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Signal сообщает о результате сохранения и быстро истекает.
type Signal struct {
	Seq       uint64    `json:"seq"`
	Outcome   Outcome   `json:"outcome"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

const (
	DefaultSignalTTL   = 2 * time.Second
	defaultSaveTimeout = 10 * time.Second
)

// Saver пишет раскладки во внешнее хранилище.
type Saver interface {
	SaveLayout(ctx context.Context, userID string, rec engine.Record) error
}

// ============================================================
// Persistence Bridge
// ============================================================

type saveJob struct {
	seq uint64
	rec engine.Record
}

// Bridge сохраняет раскладки одного пользователя в фоне.
// Сохранения выполняются одной горутиной строго в порядке Commit,
// поэтому последняя начатая запись всегда оказывается последней в хранилище.
type Bridge struct {
	userID   string
	saver    Saver
	logger   *log.Logger
	ttl      time.Duration
	timeout  time.Duration
	coalesce bool
	now      func() time.Time

	mu      sync.Mutex
	queue   []saveJob
	seq     uint64
	done    uint64
	signal  Signal
	closed  bool
	changed chan struct{}

	wake    chan struct{}
	stopped chan struct{}
}

type BridgeOption func(*Bridge)

func WithSignalTTL(ttl time.Duration) BridgeOption {
	return func(b *Bridge) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithCoalescing заменяет ещё не начатое сохранение более новым.
func WithCoalescing(enabled bool) BridgeOption {
	return func(b *Bridge) {
		b.coalesce = enabled
	}
}

func WithBridgeLogger(l *log.Logger) BridgeOption {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

func withClock(now func() time.Time) BridgeOption {
	return func(b *Bridge) {
		b.now = now
	}
}

func NewBridge(userID string, saver Saver, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		userID:  userID,
		saver:   saver,
		logger:  log.Default().WithPrefix("BRIDGE"),
		ttl:     DefaultSignalTTL,
		timeout: defaultSaveTimeout,
		now:     time.Now,
		changed: make(chan struct{}),
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.run()
	return b
}

// Commit ставит раскладку в очередь на сохранение и сразу возвращается.
func (b *Bridge) Commit(rec engine.Record) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.logger.Warn("commit after close dropped", "user", b.userID)
		return
	}
	b.seq++
	job := saveJob{seq: b.seq, rec: rec}
	if b.coalesce && len(b.queue) > 0 {
		b.logger.Debug("coalescing pending saves", "user", b.userID, "dropped", len(b.queue))
		b.queue = b.queue[:0]
	}
	b.queue = append(b.queue, job)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Signal возвращает последнее неистёкшее уведомление.
func (b *Bridge) Signal() (Signal, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.signal.Seq == 0 || !b.now().Before(b.signal.ExpiresAt) {
		return Signal{}, false
	}
	return b.signal, true
}

// Pending возвращает число коммитов, ещё не дошедших до хранилища.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int(b.seq - b.done)
}

// Flush ждёт завершения всех сохранений, поставленных до вызова.
func (b *Bridge) Flush(ctx context.Context) error {
	b.mu.Lock()
	target := b.seq
	b.mu.Unlock()

	for {
		b.mu.Lock()
		if b.done >= target {
			b.mu.Unlock()
			return nil
		}
		ch := b.changed
		b.mu.Unlock()

		select {
		case <-ch:
		case <-b.stopped:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close дожидается сохранения очереди и останавливает горутину записи.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.stopped
		return
	}
	b.closed = true
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
	<-b.stopped
}

func (b *Bridge) run() {
	defer close(b.stopped)

	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			closed := b.closed
			b.mu.Unlock()
			if closed {
				return
			}
			<-b.wake
			continue
		}
		job := b.queue[0]
		b.queue = b.queue[1:]
		b.mu.Unlock()

		b.save(job)
	}
}

func (b *Bridge) save(job saveJob) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	err := b.saver.SaveLayout(ctx, b.userID, job.rec)
	cancel()

	sig := Signal{Seq: job.seq, Outcome: OutcomeSuccess, Message: "layout saved"}
	if err != nil {
		b.logger.Error("save layout failed", "user", b.userID, "seq", job.seq, "err", err)
		sig.Outcome = OutcomeFailure
		sig.Message = "layout could not be saved"
	} else {
		b.logger.Debug("layout saved", "user", b.userID, "seq", job.seq, "widgets", len(job.rec))
	}

	b.mu.Lock()
	sig.ExpiresAt = b.now().Add(b.ttl)
	b.signal = sig
	b.done = job.seq
	close(b.changed)
	b.changed = make(chan struct{})
	b.mu.Unlock()
}
