package session

import (
	"context"
	"errors"
	"fmt"

	"voice-order-service/internal/cart"
	"voice-order-service/internal/models"
	"voice-order-service/internal/orders"
	"voice-order-service/internal/util"

	"go.uber.org/zap"
)

// Dispatch decodes one inbound data-channel payload and applies it to the
// session. Only messages on the animation topic are considered; malformed
// payloads and unknown command types are logged and dropped so a bad message
// never stalls the ones behind it.
func (s *Session) Dispatch(ctx context.Context, topic string, payload []byte) {
	if topic != models.TopicAnimation {
		return
	}

	cmd, err := models.DecodeCommand(payload)
	if err != nil {
		var unknown *models.ErrUnknownCommand
		if errors.As(err, &unknown) {
			util.CommandsDroppedTotal.WithLabelValues("unknown_type").Inc()
			s.logger.Warn("Dropping unknown command",
				zap.String("room", s.room),
				zap.String("type", unknown.Type))
		} else {
			util.CommandsDroppedTotal.WithLabelValues("malformed").Inc()
			s.logger.Warn("Dropping malformed command",
				zap.String("room", s.room),
				zap.Error(err))
		}
		return
	}

	util.CommandsProcessedTotal.WithLabelValues(cmd.CommandType()).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	switch c := cmd.(type) {
	case models.ShowItemCommand:
		s.showPreviewLocked(Preview{ImagePath: c.ImagePath, ItemName: c.ItemName})
		util.PlatePreviewsTotal.Inc()
		s.publishLocked()

	case models.AddToCartCommand:
		s.cartItems = cart.Add(s.cartItems, c.Item)
		s.publishLocked()

	case models.RemoveFromCartCommand:
		s.cartItems = cart.Remove(s.cartItems, c.ItemName)
		s.publishLocked()

	case models.UpdateCartCommand:
		s.cartItems = cart.Replace(c.Items)
		s.publishLocked()

	case models.ClearCartCommand:
		s.cartItems = cart.Clear()
		s.publishLocked()

	case models.OpenCartCommand:
		s.cartOpen = true
		s.publishLocked()

	case models.NavigateToPaymentCommand:
		s.navigateToPaymentLocked(ctx)

	case models.NavigateToMenuCommand:
		s.view = ViewMenu
		s.publishLocked()

	case models.CancelPaymentCommand:
		if s.view == ViewPayment {
			s.view = ViewMenu
			s.publishLocked()
		}

	case models.CancelOrderCommand:
		s.cancelOrderLocked(ctx)
	}
}

// navigateToPaymentLocked snapshots the cart and moves to the payment view.
// An empty cart blocks the navigation and leaves the stored snapshot alone.
func (s *Session) navigateToPaymentLocked(ctx context.Context) {
	if len(s.cartItems) == 0 {
		util.CommandsDroppedTotal.WithLabelValues("empty_cart").Inc()
		s.logger.Info("Blocking checkout with empty cart", zap.String("room", s.room))
		s.noticeLocked(NoticeEmptyCart, "Your cart is empty. Add items before checking out.")
		return
	}

	items := make([]models.LineItem, len(s.cartItems))
	copy(items, s.cartItems)
	if err := s.snapshots.SavePendingCart(ctx, s.room, items); err != nil {
		s.logger.Error("Failed to snapshot pending cart",
			zap.String("room", s.room),
			zap.Error(err))
		return
	}

	s.view = ViewPayment
	s.publishLocked()
}

func (s *Session) cancelOrderLocked(ctx context.Context) {
	err := s.orders.Cancel(ctx, s.room, s.order)
	switch {
	case err == nil:
		s.publishLocked()

	case errors.Is(err, orders.ErrCancelWindowExpired):
		s.noticeLocked(NoticeCancelRejected, fmt.Sprintf(
			"Orders can only be cancelled within %.0f minutes of placement. Please contact the restaurant directly.",
			s.orders.CancelWindow().Minutes()))

	case errors.Is(err, orders.ErrNoActiveOrder), errors.Is(err, orders.ErrNotCancellable):
		s.logger.Info("Ignoring cancel with no cancellable order", zap.String("room", s.room))

	default:
		s.logger.Error("Failed to cancel order", zap.String("room", s.room), zap.Error(err))
	}
}
