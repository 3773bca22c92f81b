package worker

import (
	"context"
	"strings"
	"testing"

	"storefront-service/internal/cart"
	"storefront-service/internal/kvstore"
	"storefront-service/internal/models"
	"storefront-service/internal/order"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWorker(t *testing.T) (*FulfillmentWorker, *order.Service, *cart.Service) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	kv := kvstore.NewStoreWithClient(client)

	cartSvc, err := cart.NewService(ctx, kv)
	require.NoError(t, err)

	orderSvc, err := order.NewService(ctx, kv, cartSvc, nil)
	require.NoError(t, err)

	return NewFulfillmentWorker(nil, orderSvc), orderSvc, cartSvc
}

func placeOrder(t *testing.T, orders *order.Service, cartSvc *cart.Service) *models.Order {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, cartSvc.AddToCart(ctx, models.Product{
		ID: 1, Title: "thing", Price: decimal.RequireFromString("60.00"),
	}))

	ord, err := orders.PlaceOrder(ctx, &order.PlaceOrderRequest{
		ShippingAddress: models.ShippingAddress{
			Name:    "Jane Doe",
			Address: "1 Main Street",
			City:    "Springfield",
			State:   "Illinois",
			ZipCode: "62704",
			Country: "United States",
			Contact: "+1 555 000 1234",
		},
	})
	require.NoError(t, err)
	return ord
}

func TestHandleOrderPlacedShipsOrder(t *testing.T) {
	w, orders, cartSvc := setupWorker(t)
	ctx := context.Background()

	ord := placeOrder(t, orders, cartSvc)

	err := w.handleOrderPlaced(ctx, &models.OrderPlacedEvent{
		OrderID:     ord.ID,
		OrderNumber: ord.Number,
	})
	require.NoError(t, err)

	shipped, ok := orders.OrderByID(ord.ID)
	require.True(t, ok)
	assert.Equal(t, models.OrderStatusShipped, shipped.Status)
	assert.True(t, strings.HasPrefix(shipped.TrackingNumber, "TRK-"))
	assert.Len(t, shipped.TrackingNumber, 16)
	assert.NotEmpty(t, shipped.EstimatedDelivery)
}

func TestHandleOrderPlacedUnknownOrder(t *testing.T) {
	w, _, _ := setupWorker(t)

	// unknown ids are silent no-ops in the order slice
	err := w.handleOrderPlaced(context.Background(), &models.OrderPlacedEvent{OrderID: "missing"})
	assert.NoError(t, err)
}

func TestNewTrackingNumberFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		tn := newTrackingNumber()
		assert.Len(t, tn, 16)
		assert.Equal(t, strings.ToUpper(tn), tn)
		assert.False(t, seen[tn])
		seen[tn] = true
	}
}
