package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSInvalidator реализует Invalidator используя NATS Pub/Sub.
// Несколько процессов с одной таблицей рекордов сбрасывают свои кеши,
// когда любой из них записывает новый счёт.
//
// Особенности:
// - Собственные сообщения узла игнорируются
// - Дедупликация повторных уведомлений в пределах окна
type NATSInvalidator struct {
	conn    *nats.Conn
	subject string
	nodeID  string
	window  time.Duration

	mu           sync.Mutex
	subscription *nats.Subscription
	recentKeys   map[string]time.Time

	publishedCount int64
	receivedCount  int64
	errorsCount    int64
}

// InvalidationMessage представляет сообщение об инвалидации кеша.
type InvalidationMessage struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id"`
}

// NewNATSInvalidator подключается к NATS.
//
// Параметры:
//
//	url - адрес NATS
//	subject - subject уведомлений, по умолчанию "maze.cache.invalidate"
//	nodeID - уникальный идентификатор узла
func NewNATSInvalidator(url, subject, nodeID string) (*NATSInvalidator, error) {
	if subject == "" {
		subject = "maze.cache.invalidate"
	}

	opts := []nats.Option{
		nats.Name("mazechase-cache"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			cacheLog().Warn("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			cacheLog().Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	cacheLog().Info("NATS invalidator initialized: %s (subject: %s)", url, subject)
	return &NATSInvalidator{
		conn:       conn,
		subject:    subject,
		nodeID:     nodeID,
		window:     time.Second,
		recentKeys: make(map[string]time.Time),
	}, nil
}

// PublishInvalidation отправляет уведомление об инвалидации ключа.
func (n *NATSInvalidator) PublishInvalidation(ctx context.Context, key string) error {
	data, err := json.Marshal(InvalidationMessage{Key: key, Timestamp: time.Now().UTC(), NodeID: n.nodeID})
	if err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return err
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}
	atomic.AddInt64(&n.publishedCount, 1)

	if deadline, ok := ctx.Deadline(); ok {
		return n.conn.FlushTimeout(time.Until(deadline))
	}
	return nil
}

// SubscribeInvalidations подписывается на уведомления других узлов.
func (n *NATSInvalidator) SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subscription != nil {
		return fmt.Errorf("already subscribed to %s", n.subject)
	}

	sub, err := n.conn.Subscribe(n.subject, func(msg *nats.Msg) {
		n.handleMessage(msg, handler)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to invalidations: %w", err)
	}
	n.subscription = sub

	go func() {
		<-ctx.Done()
		n.unsubscribe()
	}()
	return nil
}

// Close отписывается и закрывает соединение.
func (n *NATSInvalidator) Close() error {
	n.unsubscribe()
	return n.conn.Drain()
}

// handleMessage обрабатывает входящие сообщения об инвалидации.
func (n *NATSInvalidator) handleMessage(msg *nats.Msg, handler InvalidationHandler) {
	atomic.AddInt64(&n.receivedCount, 1)

	var m InvalidationMessage
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		cacheLog().Error("Failed to unmarshal invalidation message: %v", err)
		return
	}
	if m.NodeID == n.nodeID || n.seenRecently(m.Key) {
		return
	}

	if err := handler(m.Key); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		cacheLog().Error("Invalidation handler failed for key %s: %v", m.Key, err)
	}
}

// seenRecently отмечает ключ и сообщает, встречался ли он в пределах окна
func (n *NATSInvalidator) seenRecently(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now()
	for k, ts := range n.recentKeys {
		if now.Sub(ts) > n.window {
			delete(n.recentKeys, k)
		}
	}
	if _, ok := n.recentKeys[key]; ok {
		return true
	}
	n.recentKeys[key] = now
	return false
}

func (n *NATSInvalidator) unsubscribe() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subscription != nil {
		if err := n.subscription.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
			cacheLog().Error("Failed to unsubscribe from invalidations: %v", err)
		}
		n.subscription = nil
	}
}
