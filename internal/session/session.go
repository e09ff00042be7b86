// Package session holds the per-room ordering state the storefront renders:
// the cart, the active view, the plate preview and the confirmed order. All
// mutation flows through the command dispatcher or the two explicit checkout
// actions; presentation clients only ever see read-only snapshots.
package session

import (
	"context"
	"sync"
	"time"

	"voice-order-service/internal/cart"
	"voice-order-service/internal/models"
	"voice-order-service/internal/orders"
	"voice-order-service/internal/util"

	"go.uber.org/zap"
)

// View identifies which storefront screen the room is on.
type View string

const (
	ViewMenu         View = "menu"
	ViewPayment      View = "payment"
	ViewConfirmation View = "confirmation"
)

// Preview is the plate image currently shown to the customer.
type Preview struct {
	ImagePath string `json:"imagePath"`
	ItemName  string `json:"itemName,omitempty"`
}

// State is the renderable snapshot broadcast to room clients after every
// mutation.
type State struct {
	View     View                `json:"view"`
	CartOpen bool                `json:"cartOpen"`
	Cart     []models.LineItem   `json:"cart"`
	Totals   cart.Totals         `json:"totals"`
	Preview  *Preview            `json:"preview,omitempty"`
	Order    *models.OrderRecord `json:"order,omitempty"`
}

// Notice is a user-facing message, e.g. a rejected cancellation.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Notice kinds.
const (
	NoticeEmptyCart      = "empty_cart"
	NoticeCancelRejected = "cancel_rejected"
)

// Publisher delivers state snapshots and notices to the room's clients.
type Publisher interface {
	PublishState(state State)
	PublishNotice(notice Notice)
}

// SnapshotStore persists the checkout cart snapshot carried across the
// navigation boundary into the payment view.
type SnapshotStore interface {
	SavePendingCart(ctx context.Context, room string, items []models.LineItem) error
	LoadPendingCart(ctx context.Context, room string) ([]models.LineItem, error)
}

// Session owns the ordering state for one room.
type Session struct {
	room       string
	orders     *orders.Service
	snapshots  SnapshotStore
	previewTTL time.Duration
	logger     *zap.Logger

	mu         sync.Mutex
	view       View
	cartItems  []models.LineItem
	cartOpen   bool
	preview    *Preview
	previewSeq uint64
	timer      *time.Timer
	order      *models.OrderRecord
	closed     bool
	publisher  Publisher
}

// New creates a session for a room.
func New(room string, orderSvc *orders.Service, snapshots SnapshotStore, previewTTL time.Duration) *Session {
	return &Session{
		room:       room,
		orders:     orderSvc,
		snapshots:  snapshots,
		previewTTL: previewTTL,
		view:       ViewMenu,
		cartItems:  cart.Clear(),
		logger:     util.GetLogger(),
	}
}

// Start restores any persisted order for the room. A live in_progress or
// completed order lands the customer on the confirmation view; with no order,
// a pending checkout snapshot resumes the payment view with the cart intact.
func (s *Session) Start(ctx context.Context) {
	rec, err := s.orders.Restore(ctx, s.room)
	if err != nil {
		s.logger.Error("Failed to restore order", zap.String("room", s.room), zap.Error(err))
		return
	}
	if rec != nil {
		s.mu.Lock()
		s.order = rec
		s.view = ViewConfirmation
		s.mu.Unlock()
		return
	}

	items, err := s.snapshots.LoadPendingCart(ctx, s.room)
	if err != nil {
		s.logger.Error("Failed to load pending cart", zap.String("room", s.room), zap.Error(err))
		return
	}
	if len(items) == 0 {
		return
	}

	s.mu.Lock()
	s.cartItems = items
	s.view = ViewPayment
	s.mu.Unlock()
}

// SetPublisher attaches the room broadcaster.
func (s *Session) SetPublisher(p Publisher) {
	s.mu.Lock()
	s.publisher = p
	s.mu.Unlock()
}

// Room returns the room name.
func (s *Session) Room() string {
	return s.room
}

// State returns a read-only snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	items := make([]models.LineItem, len(s.cartItems))
	copy(items, s.cartItems)

	st := State{
		View:     s.view,
		CartOpen: s.cartOpen,
		Cart:     items,
		Totals:   cart.Calculate(items),
	}
	if s.preview != nil {
		p := *s.preview
		st.Preview = &p
	}
	if s.order != nil {
		o := *s.order
		st.Order = &o
	}
	return st
}

// ConfirmCheckout completes the mock payment flow: the cart becomes a
// persisted order and the room moves to the confirmation view.
func (s *Session) ConfirmCheckout(ctx context.Context) (*models.OrderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.LineItem, len(s.cartItems))
	copy(items, s.cartItems)
	totals := cart.Calculate(items)

	rec, err := s.orders.Confirm(ctx, s.room, items, totals.Total)
	if err != nil {
		return nil, err
	}

	s.order = rec
	s.cartItems = cart.Clear()
	s.cartOpen = false
	s.view = ViewConfirmation
	s.publishLocked()
	return rec, nil
}

// PlaceNewOrder discards the active order and resets the room for a fresh
// cart.
func (s *Session) PlaceNewOrder(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.orders.PlaceNew(ctx, s.room); err != nil {
		return err
	}

	s.order = nil
	s.cartItems = cart.Clear()
	s.cartOpen = false
	s.view = ViewMenu
	s.publishLocked()
	return nil
}

// RefreshOrder reloads the persisted record, picking up transitions made by
// the kitchen worker.
func (s *Session) RefreshOrder(ctx context.Context) {
	rec, err := s.orders.Restore(ctx, s.room)
	if err != nil {
		s.logger.Error("Failed to refresh order", zap.String("room", s.room), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.order = rec
	s.publishLocked()
	s.mu.Unlock()
}

// DismissPreview hides the plate preview ahead of the auto-dismiss timer.
func (s *Session) DismissPreview() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearPreviewLocked()
	s.publishLocked()
}

// Close tears the session down, cancelling any pending preview dismiss so a
// stale timer can never fire afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.preview = nil
	s.publisher = nil
}

func (s *Session) showPreviewLocked(p Preview) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.preview = &p
	s.previewSeq++
	seq := s.previewSeq

	s.timer = time.AfterFunc(s.previewTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// A newer preview or a closed session wins over this timer.
		if s.closed || seq != s.previewSeq {
			return
		}
		s.clearPreviewLocked()
		s.publishLocked()
	})
}

func (s *Session) clearPreviewLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.preview = nil
	s.previewSeq++
}

func (s *Session) publishLocked() {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishState(s.stateLocked())
}

func (s *Session) noticeLocked(kind, message string) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishNotice(Notice{Kind: kind, Message: message})
}
