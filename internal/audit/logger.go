package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Inserter persists a single audit entry.
type Inserter interface {
	Insert(ctx context.Context, entry Entry) error
}

// DroppedCounter observes entries that could not be written even after
// the retry. Wired to a Prometheus counter in production.
type DroppedCounter interface {
	IncAuditDropped()
}

const (
	queueCapacity = 1024
	writeTimeout  = 5 * time.Second
)

// Logger appends entries asynchronously. A decision path calls Enqueue
// and moves on: a slow or failing audit write never delays or fails the
// guarded action. Every entry is attempted at least once, with a single
// retry; entries that still fail are reported on the process log (the
// secondary channel) and swallowed.
type Logger struct {
	inserter Inserter
	log      *slog.Logger
	dropped  DroppedCounter
	queue    chan Entry
	wg       sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

// NewLogger constructs the async audit logger. dropped may be nil.
func NewLogger(inserter Inserter, log *slog.Logger, dropped DroppedCounter) *Logger {
	return &Logger{
		inserter: inserter,
		log:      log,
		dropped:  dropped,
		queue:    make(chan Entry, queueCapacity),
		done:     make(chan struct{}),
	}
}

// Start launches the background writer.
func (l *Logger) Start() {
	l.startOnce.Do(func() {
		l.wg.Add(1)
		go l.run()
	})
}

// Close drains the queue and stops the writer.
func (l *Logger) Close() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
	l.wg.Wait()
}

// Enqueue schedules one entry for persistence. It never returns an
// error and never blocks the caller: when the queue is saturated the
// write is attempted from a spawned goroutine instead of being dropped.
func (l *Logger) Enqueue(entry Entry) {
	entry = l.prepare(entry)
	select {
	case <-l.done:
		go l.write(entry)
		return
	default:
	}
	select {
	case l.queue <- entry:
	default:
		go l.write(entry)
	}
}

func (l *Logger) prepare(entry Entry) Entry {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	return entry
}

func (l *Logger) run() {
	defer l.wg.Done()
	for {
		select {
		case entry := <-l.queue:
			l.write(entry)
		case <-l.done:
			// Drain whatever is still queued before stopping.
			for {
				select {
				case entry := <-l.queue:
					l.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) write(entry Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	err := l.inserter.Insert(ctx, entry)
	if err == nil {
		return
	}
	// One retry before giving the entry up to the secondary channel.
	if retryErr := l.inserter.Insert(ctx, entry); retryErr == nil {
		return
	}
	if l.dropped != nil {
		l.dropped.IncAuditDropped()
	}
	if l.log != nil {
		l.log.Error("audit write failed",
			slog.String("action", entry.Action),
			slog.String("tenant_id", entry.TenantID.String()),
			slog.Any("error", err),
		)
	}
}
