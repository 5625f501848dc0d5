package notifier

import (
	"context"

	domcart "github.com/freshmart/cart-service/internal/domain/cart"
	domoutbox "github.com/freshmart/cart-service/internal/domain/outbox"
	"github.com/freshmart/cart-service/internal/observability"
	"github.com/freshmart/cart-service/internal/observability/logctx"
	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel carrying cart-changed signals. The
// message is the owning user ID and nothing else; front ends re-fetch the
// cart through the view endpoint when they see it.
const Channel = "cart.changed"

// Worker relays cart-changed domain events from the in-process bus to Redis
// pub/sub so that both front ends (conversational agent and UI) can refresh.
type Worker struct {
	subscriber domoutbox.Subscriber
	client     *redis.Client
	log        observability.Logger
	counter    observability.Counter
}

func New(subscriber domoutbox.Subscriber, client *redis.Client, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Worker{
		subscriber: subscriber,
		client:     client,
		log:        tel.Logger().With(observability.F("component", "cart_notifier")),
		counter:    tel.Metrics().Counter(observability.MCartChangedEvents),
	}
}

func (w *Worker) Start() {
	w.subscriber.Subscribe(domcart.ChangedEvent{}.EventName(), w.handleCartChanged)
}

func (w *Worker) handleCartChanged(ctx context.Context, e domoutbox.Event) error {
	logger := logctx.FromOr(ctx, w.log)
	evt, ok := e.(domcart.ChangedEvent)
	if !ok {
		return nil
	}

	if err := w.client.Publish(ctx, Channel, evt.UserID).Err(); err != nil {
		w.counter.Add(1, observability.L("outcome", "error"))
		logger.Warn("cart_changed_publish_failed",
			observability.F("user_id", evt.UserID),
			observability.F("error", err),
		)
		return err
	}

	w.counter.Add(1, observability.L("outcome", "success"))
	logger.Debug("cart_changed_published", observability.F("user_id", evt.UserID))
	return nil
}
