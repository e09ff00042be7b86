package worker

import (
	"context"
	"log"

	"voice-order-service/internal/broker"
	"voice-order-service/internal/hub"
	"voice-order-service/internal/models"
	"voice-order-service/internal/orders"
)

// KitchenWorker consumes kitchen-side order events and applies them to the
// order lifecycle, pushing updated state to any connected room.
type KitchenWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewKitchenWorker creates a kitchen worker. The hub may be nil when no
// websocket rooms exist, e.g. in a pure background deployment.
func NewKitchenWorker(consumer *broker.Consumer, orderSvc *orders.Service, h *hub.Hub) *KitchenWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnOrderCompleted(func(ctx context.Context, event *models.OrderCompletedEvent) error {
		if err := orderSvc.Complete(ctx, event.Room, event.OrderID); err != nil {
			return err
		}
		if h != nil {
			if sess := h.Session(event.Room); sess != nil {
				sess.RefreshOrder(ctx)
			}
		}
		return nil
	})

	return &KitchenWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *KitchenWorker) Start(ctx context.Context) error {
	log.Println("Starting kitchen worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *KitchenWorker) Stop() error {
	log.Println("Stopping kitchen worker...")
	return w.consumer.Close()
}
