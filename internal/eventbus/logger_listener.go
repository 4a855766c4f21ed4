package eventbus

import (
	"context"
)

// StartLoggingListener подписывается на все события и пишет их в лог шины.
// Функция неблокирующая.
func StartLoggingListener(bus EventBus) (Subscription, error) {
	log := busLog()
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		gev, err := DecodeGameEvent(ev)
		if err != nil {
			log.Debug("[EventBus] %s %s src=%s prio=%d size=%dB", ev.ID, ev.EventType, ev.Source, ev.Priority, len(ev.Payload))
			return
		}
		log.Debug("[EventBus] %s %s session=%s frame=%d score=%d lives=%d",
			ev.ID, ev.EventType, gev.SessionID, gev.Frame, gev.Score, gev.Lives)
	})
	if err != nil {
		return nil, err
	}
	log.Info("🪵 LoggingListener: подписка на все события активирована")
	return sub, nil
}
