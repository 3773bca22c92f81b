// Package order owns the order history and the checkout transaction.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront-service/internal/cart"
	"storefront-service/internal/kvstore"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrEmptyCart is returned when checkout runs against an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// ErrInvalidStatus is returned for a status outside the known set.
var ErrInvalidStatus = errors.New("invalid order status")

// InvalidAddressError carries the field-level validation messages that
// blocked order creation.
type InvalidAddressError struct {
	Fields map[string]string
}

func (e *InvalidAddressError) Error() string {
	return "invalid shipping address"
}

// EventPublisher publishes order lifecycle events. A nil publisher
// disables publishing.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// Service owns the order list, most-recent-first.
type Service struct {
	mu        sync.Mutex
	orders    []models.Order
	kv        *kvstore.Store
	cart      *cart.Service
	publisher EventPublisher
	logger    *zap.Logger
}

// NewService restores the order history from the persistent store.
// publisher may be nil.
func NewService(ctx context.Context, kv *kvstore.Store, cartSvc *cart.Service, publisher EventPublisher) (*Service, error) {
	s := &Service{
		kv:        kv,
		cart:      cartSvc,
		publisher: publisher,
		logger:    util.GetLogger(),
	}

	if _, err := kv.ReadJSON(ctx, kvstore.KeyOrders, &s.orders); err != nil {
		return nil, err
	}

	return s, nil
}

// PlaceOrderRequest is the checkout payload.
type PlaceOrderRequest struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress" binding:"required"`
	ShippingMethod  string                 `json:"shippingMethod,omitempty"`
	Discount        decimal.Decimal        `json:"discount,omitempty"`
	Status          string                 `json:"status,omitempty"`
}

// PlaceOrder snapshots the current cart into a new order and clears the
// cart. The order-list write and the cart-key removal are committed in
// one atomic pipeline so an interruption can never leave a placed order
// alongside a stale cart.
func (s *Service) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	if errs := ValidateShippingAddress(req.ShippingAddress); len(errs) > 0 {
		util.OrdersFailedTotal.WithLabelValues("invalid_address").Inc()
		return nil, &InvalidAddressError{Fields: errs}
	}

	status := req.Status
	if status == "" {
		status = models.OrderStatusPending
	}
	if !models.ValidOrderStatus(status) {
		util.OrdersFailedTotal.WithLabelValues("invalid_status").Inc()
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}

	items := s.cart.Items()
	if len(items) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, ErrEmptyCart
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	shipping := ShippingCharge(req.ShippingMethod, subtotal)
	discount := req.Discount
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	total := subtotal.Add(shipping).Sub(discount)

	now := time.Now()
	newOrder := models.Order{
		ID:              newOrderID(now),
		Number:          newOrderNumber(now),
		Items:           items,
		Subtotal:        subtotal,
		Shipping:        shipping,
		Discount:        discount,
		Total:           total,
		ShippingAddress: req.ShippingAddress,
		ShippingMethod:  req.ShippingMethod,
		Status:          status,
		CreatedAt:       now,
	}

	s.mu.Lock()

	updated := make([]models.Order, 0, len(s.orders)+1)
	updated = append(updated, newOrder)
	updated = append(updated, s.orders...)

	tx := &kvstore.Tx{}
	if err := tx.Write(kvstore.KeyOrders, updated); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	tx.Remove(kvstore.KeyCart)

	if err := s.kv.Commit(ctx, tx); err != nil {
		s.mu.Unlock()
		util.OrdersFailedTotal.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	s.orders = updated
	s.mu.Unlock()

	s.cart.Reset()

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.String("order_id", newOrder.ID),
		zap.String("order_number", newOrder.Number),
		zap.String("total", newOrder.Total.String()))

	// publish outside the lock; a slow broker must not block order reads
	s.publishPlaced(ctx, &newOrder)

	return &newOrder, nil
}

// UpdateStatus mutates the status of the matching order in place. An
// absent id is a silent no-op.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) error {
	if !models.ValidOrderStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()

	ord := s.findLocked(id)
	if ord == nil {
		s.mu.Unlock()
		return nil
	}

	ord.Status = status
	if err := s.persistLocked(ctx); err != nil {
		s.mu.Unlock()
		return err
	}

	snapshot := *ord
	s.mu.Unlock()

	s.publishStatusChanged(ctx, &snapshot)
	return nil
}

// UpdateTracking sets tracking fields on the matching order, overwriting
// only the fields supplied. An absent id is a silent no-op.
func (s *Service) UpdateTracking(ctx context.Context, id string, trackingNumber, estimatedDelivery *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ord := s.findLocked(id)
	if ord == nil {
		return nil
	}

	if trackingNumber != nil {
		ord.TrackingNumber = *trackingNumber
	}
	if estimatedDelivery != nil {
		ord.EstimatedDelivery = *estimatedDelivery
	}

	return s.persistLocked(ctx)
}

// Clear empties the order history and removes the persisted key.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = nil
	return s.kv.Remove(ctx, kvstore.KeyOrders)
}

// Orders returns a copy of the history, most-recent-first.
func (s *Service) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// OrderByID looks up a single order.
func (s *Service) OrderByID(id string) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ord := s.findLocked(id); ord != nil {
		return *ord, true
	}
	return models.Order{}, false
}

// OrdersByStatus filters the history by status, preserving order.
func (s *Service) OrdersByStatus(status string) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, ord := range s.orders {
		if ord.Status == status {
			out = append(out, ord)
		}
	}
	return out
}

func (s *Service) findLocked(id string) *models.Order {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return &s.orders[i]
		}
	}
	return nil
}

func (s *Service) persistLocked(ctx context.Context) error {
	return s.kv.Write(ctx, kvstore.KeyOrders, s.orders)
}

func (s *Service) publishPlaced(ctx context.Context, ord *models.Order) {
	if s.publisher == nil {
		return
	}

	lines := make([]models.OrderLine, 0, len(ord.Items))
	for _, item := range ord.Items {
		lines = append(lines, models.OrderLine{
			ProductID: item.ID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:     ord.ID,
		OrderNumber: ord.Number,
		Total:       ord.Total,
		Items:       lines,
	}

	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish order placed event",
			zap.String("order_id", ord.ID),
			zap.Error(err))
	}
}

func (s *Service) publishStatusChanged(ctx context.Context, ord *models.Order) {
	if s.publisher == nil {
		return
	}

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: time.Now(),
		},
		OrderID:           ord.ID,
		Status:            ord.Status,
		TrackingNumber:    ord.TrackingNumber,
		EstimatedDelivery: ord.EstimatedDelivery,
	}

	if err := s.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish status change event",
			zap.String("order_id", ord.ID),
			zap.Error(err))
	}
}

// newOrderID is time-prefixed for natural sorting; the uuid fragment
// keeps ids distinct within the same millisecond.
func newOrderID(t time.Time) string {
	return fmt.Sprintf("%d-%s", t.UnixMilli(), uuid.New().String()[:8])
}

func newOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", t.Format("20060102"), suffix)
}
