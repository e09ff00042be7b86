// Package orders owns the order lifecycle: a confirmed checkout becomes a
// persisted OrderRecord, which may be cancelled inside a fixed window or
// completed by the kitchen, and is discarded when a new order starts.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voice-order-service/internal/models"
	"voice-order-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrEmptyCart rejects a checkout with nothing in the cart.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrNoActiveOrder rejects an operation that needs a live order.
	ErrNoActiveOrder = errors.New("no active order")

	// ErrNotCancellable rejects cancellation of an order that already left
	// the in_progress state.
	ErrNotCancellable = errors.New("order is not cancellable")

	// ErrCancelWindowExpired rejects a cancellation attempted after the
	// window has closed. Surfaced to the customer rather than swallowed.
	ErrCancelWindowExpired = errors.New("cancellation window has expired")

	// ErrCorruptRecord marks a persisted order record that no longer
	// parses; the caller discards it and starts clean.
	ErrCorruptRecord = errors.New("corrupt order record")
)

// RecordStore persists the live per-room order record and the transient
// checkout cart snapshot.
type RecordStore interface {
	SaveCurrentOrder(ctx context.Context, room string, rec *models.OrderRecord) error
	LoadCurrentOrder(ctx context.Context, room string) (*models.OrderRecord, error)
	DeleteCurrentOrder(ctx context.Context, room string) error
	DeletePendingCart(ctx context.Context, room string) error
}

// History archives confirmed orders durably.
type History interface {
	InsertOrderRecord(ctx context.Context, room string, rec *models.OrderRecord) error
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
}

// Publisher emits order lifecycle events to the kitchen side.
type Publisher interface {
	PublishOrderConfirmed(ctx context.Context, event *models.OrderConfirmedEvent) error
	PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error
}

// Service handles order lifecycle business logic. History and events may be
// nil; the live record store is the source of truth.
type Service struct {
	records      RecordStore
	history      History
	events       Publisher
	cancelWindow time.Duration
	logger       *zap.Logger
}

// NewService creates a new order lifecycle service
func NewService(records RecordStore, history History, events Publisher, cancelWindow time.Duration) *Service {
	return &Service{
		records:      records,
		history:      history,
		events:       events,
		cancelWindow: cancelWindow,
		logger:       util.GetLogger(),
	}
}

// Restore loads the persisted order for a room at session start. A record
// that fails to parse is deleted and the session starts clean.
func (s *Service) Restore(ctx context.Context, room string) (*models.OrderRecord, error) {
	rec, err := s.records.LoadCurrentOrder(ctx, room)
	if errors.Is(err, ErrCorruptRecord) {
		s.logger.Warn("Discarding corrupt order record", zap.String("room", room), zap.Error(err))
		if delErr := s.records.DeleteCurrentOrder(ctx, room); delErr != nil {
			s.logger.Error("Failed to delete corrupt order record", zap.Error(delErr))
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to restore order: %w", err)
	}
	return rec, nil
}

// Confirm mints an OrderRecord from the checkout cart, persists it, clears
// the transient cart snapshot and announces the order.
func (s *Service) Confirm(ctx context.Context, room string, items []models.LineItem, total float64) (*models.OrderRecord, error) {
	ctx, span := util.StartSpan(ctx, "orders.Confirm")
	defer span.End()

	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	rec := &models.OrderRecord{
		OrderID:   models.NewOrderID(),
		Status:    models.OrderStatusInProgress,
		Items:     items,
		Total:     total,
		Timestamp: time.Now(),
	}

	if err := s.records.SaveCurrentOrder(ctx, room, rec); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	if err := s.records.DeletePendingCart(ctx, room); err != nil {
		s.logger.Error("Failed to clear pending cart", zap.String("room", room), zap.Error(err))
	}

	if s.history != nil {
		if err := s.history.InsertOrderRecord(ctx, room, rec); err != nil {
			s.logger.Error("Failed to archive order", zap.String("order_id", rec.OrderID), zap.Error(err))
		}
	}

	util.OrdersConfirmedTotal.Inc()
	s.logger.Info("Order confirmed",
		zap.String("order_id", rec.OrderID),
		zap.String("room", room),
		zap.Float64("total", rec.Total))

	if s.events != nil {
		event := &models.OrderConfirmedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderConfirmed,
				Timestamp: time.Now(),
			},
			OrderID: rec.OrderID,
			Room:    room,
			Total:   rec.Total,
			Items:   rec.Items,
		}
		if err := s.events.PublishOrderConfirmed(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderConfirmed event", zap.Error(err))
		}
	}

	return rec, nil
}

// Cancel transitions an in_progress order to cancelled when the elapsed
// time since confirmation is inside the window; otherwise the attempt is
// rejected with ErrCancelWindowExpired and the record is left untouched.
func (s *Service) Cancel(ctx context.Context, room string, rec *models.OrderRecord) error {
	ctx, span := util.StartSpan(ctx, "orders.Cancel")
	defer span.End()

	if rec == nil {
		return ErrNoActiveOrder
	}
	if rec.Status != models.OrderStatusInProgress {
		return fmt.Errorf("%w: status is %s", ErrNotCancellable, rec.Status)
	}

	elapsed := time.Since(rec.Timestamp)
	if elapsed > s.cancelWindow {
		util.OrderCancelRejectedTotal.Inc()
		s.logger.Info("Cancellation rejected outside window",
			zap.String("order_id", rec.OrderID),
			zap.Duration("elapsed", elapsed))
		return ErrCancelWindowExpired
	}

	rec.Status = models.OrderStatusCancelled
	if err := s.records.SaveCurrentOrder(ctx, room, rec); err != nil {
		rec.Status = models.OrderStatusInProgress
		return fmt.Errorf("failed to persist cancellation: %w", err)
	}

	if s.history != nil {
		if err := s.history.UpdateOrderStatus(ctx, rec.OrderID, models.OrderStatusCancelled); err != nil {
			s.logger.Error("Failed to update archived order", zap.String("order_id", rec.OrderID), zap.Error(err))
		}
	}

	util.OrdersCancelledTotal.Inc()
	s.logger.Info("Order cancelled", zap.String("order_id", rec.OrderID), zap.String("room", room))

	if s.events != nil {
		event := &models.OrderCancelledEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderCancelled,
				Timestamp: time.Now(),
			},
			OrderID: rec.OrderID,
			Room:    room,
			Reason:  "customer_cancelled",
		}
		if err := s.events.PublishOrderCancelled(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
		}
	}

	return nil
}

// PlaceNew discards the active order so the customer can start over.
func (s *Service) PlaceNew(ctx context.Context, room string) error {
	if err := s.records.DeleteCurrentOrder(ctx, room); err != nil {
		return fmt.Errorf("failed to discard order: %w", err)
	}
	if err := s.records.DeletePendingCart(ctx, room); err != nil {
		s.logger.Error("Failed to clear pending cart", zap.String("room", room), zap.Error(err))
	}
	return nil
}

// Complete marks the room's active order completed. Driven by the kitchen
// event stream, never by the storefront itself.
func (s *Service) Complete(ctx context.Context, room, orderID string) error {
	rec, err := s.records.LoadCurrentOrder(ctx, room)
	if err != nil && !errors.Is(err, ErrCorruptRecord) {
		return fmt.Errorf("failed to load order: %w", err)
	}

	if rec != nil && rec.OrderID == orderID && rec.Status == models.OrderStatusInProgress {
		rec.Status = models.OrderStatusCompleted
		if err := s.records.SaveCurrentOrder(ctx, room, rec); err != nil {
			return fmt.Errorf("failed to persist completion: %w", err)
		}
	}

	if s.history != nil {
		if err := s.history.UpdateOrderStatus(ctx, orderID, models.OrderStatusCompleted); err != nil {
			s.logger.Error("Failed to update archived order", zap.String("order_id", orderID), zap.Error(err))
		}
	}

	util.OrdersCompletedTotal.Inc()
	s.logger.Info("Order completed", zap.String("order_id", orderID), zap.String("room", room))
	return nil
}

// CancelWindow reports the configured cancellation window.
func (s *Service) CancelWindow() time.Duration {
	return s.cancelWindow
}
