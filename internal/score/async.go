package score

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/annel0/maze-chase/internal/logging"
	"github.com/annel0/maze-chase/internal/observability"
)

// RecorderStats счётчики асинхронной записи
type RecorderStats struct {
	Saved   uint64
	Failed  uint64
	Dropped uint64
}

// AsyncRecorder принимает итоговые счета без блокировки и пишет их в Store из фоновой горутины.
// Реализует game.ScoreSink.
type AsyncRecorder struct {
	store   Store
	queue   chan Entry
	timeout time.Duration
	log     *logging.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	saved   atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

// NewAsyncRecorder запускает воркер записи
func NewAsyncRecorder(store Store, queueSize int, timeout time.Duration) *AsyncRecorder {
	if queueSize <= 0 {
		queueSize = 64
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	r := &AsyncRecorder{
		store:   store,
		queue:   make(chan Entry, queueSize),
		timeout: timeout,
		log:     logging.GetScoreLogger(),
	}

	r.wg.Add(1)
	go r.worker()
	return r
}

// RecordScore ставит счёт в очередь. При переполненной очереди счёт отбрасывается.
func (r *AsyncRecorder) RecordScore(name string, score int) {
	name = NormalizeName(name)
	if err := Validate(name, score); err != nil {
		r.dropped.Add(1)
		r.log.Warn("⚠️ Счёт не записан: %v", err)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}

	select {
	case r.queue <- Entry{Name: name, Score: score, RecordedAt: time.Now().UTC()}:
	default:
		r.dropped.Add(1)
		r.log.Warn("⚠️ Очередь рекордов переполнена, счёт %s=%d отброшен", name, score)
	}
}

func (r *AsyncRecorder) worker() {
	defer r.wg.Done()
	tracer := observability.Tracer("score")

	for e := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		ctx, span := tracer.Start(ctx, "score.save")
		span.SetAttributes(
			attribute.String("score.name", e.Name),
			attribute.Int("score.value", e.Score),
		)

		if err := r.store.Save(ctx, e.Name, e.Score); err != nil {
			r.failed.Add(1)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.log.Error("❌ Ошибка записи рекорда %s=%d: %v", e.Name, e.Score, err)
		} else {
			r.saved.Add(1)
			r.log.Debug("💾 Рекорд %s=%d записан", e.Name, e.Score)
		}

		span.End()
		cancel()
	}
}

// Stats возвращает счётчики
func (r *AsyncRecorder) Stats() RecorderStats {
	return RecorderStats{
		Saved:   r.saved.Load(),
		Failed:  r.failed.Load(),
		Dropped: r.dropped.Load(),
	}
}

// Close дожидается записи всех счетов из очереди. Store не закрывается.
func (r *AsyncRecorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
	return nil
}
