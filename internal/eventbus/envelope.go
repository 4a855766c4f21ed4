package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/maze-chase/internal/game"
)

// PayloadVersion текущая схема полезной нагрузки игровых событий
const PayloadVersion = 1

// NewEnvelope упаковывает payload в JSON и выдаёт новый UUID
func NewEnvelope(source, eventType string, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   PayloadVersion,
		Payload:   data,
	}, nil
}

// DecodeGameEvent разбирает полезную нагрузку игрового события
func DecodeGameEvent(ev *Envelope) (game.Event, error) {
	var out game.Event
	if err := json.Unmarshal(ev.Payload, &out); err != nil {
		return game.Event{}, fmt.Errorf("decode %s: %w", ev.EventType, err)
	}
	return out, nil
}

// priorityOf конец сессии важнее остальных событий
func priorityOf(t game.EventType) int {
	if t == game.EventSessionOver {
		return 5
	}
	return 1
}

// PublisherStats счётчики асинхронной публикации
type PublisherStats struct {
	Published uint64
	Failed    uint64
	Dropped   uint64
}

// GamePublisher реализует game.EventPublisher поверх шины.
// PublishEvent только ставит событие в очередь, в шину пишет фоновая горутина,
// поэтому медленный брокер не задерживает тик.
type GamePublisher struct {
	bus     EventBus
	source  string
	queue   chan game.Event
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	published atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewGamePublisher создаёт адаптер и запускает воркер. bus == nil означает глобальную шину.
func NewGamePublisher(bus EventBus, source string) *GamePublisher {
	return newGamePublisher(bus, source, 256)
}

func newGamePublisher(bus EventBus, source string, queueSize int) *GamePublisher {
	p := &GamePublisher{
		bus:     bus,
		source:  source,
		queue:   make(chan game.Event, queueSize),
		timeout: 2 * time.Second,
	}
	p.wg.Add(1)
	go p.worker()
	return p
}

// PublishEvent реализует game.EventPublisher. При переполненной очереди событие отбрасывается.
func (p *GamePublisher) PublishEvent(ev game.Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		return
	}

	select {
	case p.queue <- ev:
	default:
		p.dropped.Add(1)
		busLog().Warn("⚠️ Очередь событий переполнена, %s отброшено", ev.Type)
	}
}

func (p *GamePublisher) worker() {
	defer p.wg.Done()
	for ev := range p.queue {
		if err := p.send(ev); err != nil {
			p.failed.Add(1)
			busLog().Warn("⚠️ Событие %s не опубликовано: %v", ev.Type, err)
			continue
		}
		p.published.Add(1)
	}
}

func (p *GamePublisher) send(ev game.Event) error {
	env, err := NewEnvelope(p.source, string(ev.Type), ev)
	if err != nil {
		return err
	}
	env.CorrelationID = ev.SessionID
	env.Priority = priorityOf(ev.Type)

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if p.bus != nil {
		return p.bus.Publish(ctx, env)
	}
	return Publish(ctx, env)
}

// Stats возвращает счётчики публикации
func (p *GamePublisher) Stats() PublisherStats {
	return PublisherStats{
		Published: p.published.Load(),
		Failed:    p.failed.Load(),
		Dropped:   p.dropped.Load(),
	}
}

// Close дожидается отправки событий из очереди. Шина не закрывается.
func (p *GamePublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}
