// Package worker runs the fulfillment pipeline: placed orders get
// confirmed, assigned a tracking number and an estimated delivery date,
// then marked shipped.
package worker

import (
	"context"
	"strings"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/order"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const estimatedDeliveryDays = 5

// FulfillmentWorker consumes OrderPlaced events and advances each order
// through the fulfillment statuses.
type FulfillmentWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	orders       *order.Service
	logger       *zap.Logger
}

// NewFulfillmentWorker creates a new fulfillment worker.
func NewFulfillmentWorker(consumer *broker.Consumer, orders *order.Service) *FulfillmentWorker {
	w := &FulfillmentWorker{
		consumer: consumer,
		orders:   orders,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker. It blocks until ctx is cancelled.
func (w *FulfillmentWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting fulfillment worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker.
func (w *FulfillmentWorker) Stop() error {
	w.logger.Info("Stopping fulfillment worker")
	return w.consumer.Close()
}

func (w *FulfillmentWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	w.logger.Info("Fulfilling order",
		zap.String("order_id", event.OrderID),
		zap.String("order_number", event.OrderNumber))

	if err := w.orders.UpdateStatus(ctx, event.OrderID, models.OrderStatusConfirmed); err != nil {
		return err
	}

	tracking := newTrackingNumber()
	eta := time.Now().AddDate(0, 0, estimatedDeliveryDays).Format("2006-01-02")
	if err := w.orders.UpdateTracking(ctx, event.OrderID, &tracking, &eta); err != nil {
		return err
	}

	return w.orders.UpdateStatus(ctx, event.OrderID, models.OrderStatusShipped)
}

func newTrackingNumber() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "TRK-" + strings.ToUpper(raw[:12])
}
