package order

import (
	"context"
	"testing"
	"time"

	"storefront-service/internal/cart"
	"storefront-service/internal/kvstore"
	"storefront-service/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	orders *Service
	cart   *cart.Service
	kv     *kvstore.Store
	mr     *miniredis.Miniredis
}

func setupTestOrders(t *testing.T) *fixture {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	kv := kvstore.NewStoreWithClient(client)

	cartSvc, err := cart.NewService(ctx, kv)
	require.NoError(t, err)

	orderSvc, err := NewService(ctx, kv, cartSvc, nil)
	require.NoError(t, err)

	return &fixture{orders: orderSvc, cart: cartSvc, kv: kv, mr: mr}
}

func (f *fixture) fillCart(t *testing.T, id int64, price string, quantity int) {
	t.Helper()
	ctx := context.Background()
	p := models.Product{ID: id, Title: "thing", Price: decimal.RequireFromString(price)}
	require.NoError(t, f.cart.AddToCart(ctx, p))
	if quantity > 1 {
		require.NoError(t, f.cart.UpdateQuantity(ctx, id, quantity))
	}
}

func TestPlaceOrderCheckoutScenario(t *testing.T) {
	f := setupTestOrders(t)
	ctx := context.Background()

	f.fillCart(t, 1, "10.00", 2)

	ord, err := f.orders.PlaceOrder(ctx, &PlaceOrderRequest{
		ShippingAddress: validAddress(),
	})
	require.NoError(t, err)

	assert.True(t, ord.Subtotal.Equal(decimal.NewFromInt(20)), "subtotal %s", ord.Subtotal)
	assert.True(t, ord.Shipping.IsZero())
	assert.True(t, ord.Total.Equal(decimal.NewFromInt(20)), "total %s", ord.Total)
	assert.Equal(t, models.OrderStatusPending, ord.Status)
	assert.NotEmpty(t, ord.Number)

	// cart is cleared and the order sits at the front of the history
	assert.Empty(t, f.cart.Items())
	assert.False(t, f.mr.Exists(kvstore.KeyCart))
	history := f.orders.Orders()
	require.Len(t, history, 1)
	assert.Equal(t, ord.ID, history[0].ID)
	assert.True(t, f.mr.Exists(kvstore.KeyOrders))
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := setupTestOrders(t)

	_, err := f.orders.PlaceOrder(context.Background(), &PlaceOrderRequest{
		ShippingAddress: validAddress(),
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrderInvalidAddress(t *testing.T) {
	f := setupTestOrders(t)
	f.fillCart(t, 1, "10.00", 1)

	addr := validAddress()
	addr.Contact = "abc"

	_, err := f.orders.PlaceOrder(context.Background(), &PlaceOrderRequest{
		ShippingAddress: addr,
	})

	var invalid *InvalidAddressError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Fields, "contact")

	// nothing was committed
	assert.Empty(t, f.orders.Orders())
	assert.Len(t, f.cart.Items(), 1)
}

func TestOrderIDsDistinctWithinOneTick(t *testing.T) {
	f := setupTestOrders(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		f.fillCart(t, int64(i+1), "1.00", 1)
		ord, err := f.orders.PlaceOrder(ctx, &PlaceOrderRequest{ShippingAddress: validAddress()})
		require.NoError(t, err)
		assert.False(t, seen[ord.ID], "duplicate order id %s", ord.ID)
		seen[ord.ID] = true
	}
}

func TestPlaceOrderShippingCharge(t *testing.T) {
	f := setupTestOrders(t)
	ctx := context.Background()

	f.fillCart(t, 1, "10.00", 1)
	ord, err := f.orders.PlaceOrder(ctx, &PlaceOrderRequest{
		ShippingAddress: validAddress(),
		ShippingMethod:  ShippingExpress,
	})
	require.NoError(t, err)

	assert.True(t, ord.Shipping.Equal(decimal.RequireFromString("12.99")))
	assert.True(t, ord.Total.Equal(decimal.RequireFromString("22.99")), "total %s", ord.Total)
}

func TestUpdateStatus(t *testing.T) {
	f := setupTestOrders(t)
	ctx := context.Background()

	f.fillCart(t, 1, "10.00", 1)
	ord, err := f.orders.PlaceOrder(ctx, &PlaceOrderRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)

	require.NoError(t, f.orders.UpdateStatus(ctx, ord.ID, models.OrderStatusShipped))
	got, ok := f.orders.OrderByID(ord.ID)
	require.True(t, ok)
	assert.Equal(t, models.OrderStatusShipped, got.Status)

	// snapshot fields stay untouched
	assert.True(t, got.Total.Equal(ord.Total))
	assert.Equal(t, ord.Items, got.Items)

	assert.ErrorIs(t, f.orders.UpdateStatus(ctx, ord.ID, "lost"), ErrInvalidStatus)
	assert.NoError(t, f.orders.UpdateStatus(ctx, "missing", models.OrderStatusShipped))
}

func TestUpdateTrackingOnlySuppliedFields(t *testing.T) {
	f := setupTestOrders(t)
	ctx := context.Background()

	f.fillCart(t, 1, "10.00", 1)
	ord, err := f.orders.PlaceOrder(ctx, &PlaceOrderRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)

	tracking := "TRK-ABC123"
	require.NoError(t, f.orders.UpdateTracking(ctx, ord.ID, &tracking, nil))

	got, _ := f.orders.OrderByID(ord.ID)
	assert.Equal(t, "TRK-ABC123", got.TrackingNumber)
	assert.Empty(t, got.EstimatedDelivery)

	eta := "2026-09-02"
	require.NoError(t, f.orders.UpdateTracking(ctx, ord.ID, nil, &eta))
	got, _ = f.orders.OrderByID(ord.ID)
	assert.Equal(t, "TRK-ABC123", got.TrackingNumber)
	assert.Equal(t, "2026-09-02", got.EstimatedDelivery)
}

func TestOrdersByStatusAndClear(t *testing.T) {
	f := setupTestOrders(t)
	ctx := context.Background()

	f.fillCart(t, 1, "10.00", 1)
	first, err := f.orders.PlaceOrder(ctx, &PlaceOrderRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)

	f.fillCart(t, 2, "5.00", 1)
	_, err = f.orders.PlaceOrder(ctx, &PlaceOrderRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)

	require.NoError(t, f.orders.UpdateStatus(ctx, first.ID, models.OrderStatusCancelled))

	cancelled := f.orders.OrdersByStatus(models.OrderStatusCancelled)
	require.Len(t, cancelled, 1)
	assert.Equal(t, first.ID, cancelled[0].ID)

	require.NoError(t, f.orders.Clear(ctx))
	assert.Empty(t, f.orders.Orders())
	assert.False(t, f.mr.Exists(kvstore.KeyOrders))
}

func TestHistorySurvivesRestart(t *testing.T) {
	f := setupTestOrders(t)
	ctx := context.Background()

	f.fillCart(t, 1, "10.00", 1)
	ord, err := f.orders.PlaceOrder(ctx, &PlaceOrderRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)

	restored, err := NewService(ctx, f.kv, f.cart, nil)
	require.NoError(t, err)
	got, ok := restored.OrderByID(ord.ID)
	require.True(t, ok)
	assert.True(t, got.Total.Equal(ord.Total))
}

type blockingPublisher struct {
	placedStarted chan struct{}
	statusStarted chan struct{}
	release       chan struct{}
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{
		placedStarted: make(chan struct{}),
		statusStarted: make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (p *blockingPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	close(p.placedStarted)
	<-p.release
	return nil
}

func (p *blockingPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	close(p.statusStarted)
	<-p.release
	return nil
}

func TestReadsDoNotBlockBehindSlowPublisher(t *testing.T) {
	f := setupTestOrders(t)
	ctx := context.Background()

	pub := newBlockingPublisher()
	orders, err := NewService(ctx, f.kv, f.cart, pub)
	require.NoError(t, err)
	defer close(pub.release)

	f.fillCart(t, 1, "10.00", 1)

	placed := make(chan *models.Order, 1)
	go func() {
		ord, err := orders.PlaceOrder(ctx, &PlaceOrderRequest{ShippingAddress: validAddress()})
		require.NoError(t, err)
		placed <- ord
	}()

	<-pub.placedStarted

	// the order is persisted and readable while the publish is in flight
	read := make(chan []models.Order, 1)
	go func() { read <- orders.Orders() }()
	select {
	case history := <-read:
		require.Len(t, history, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("Orders() blocked behind an in-flight publish")
	}

	pub.release <- struct{}{}
	ord := <-placed

	statusDone := make(chan error, 1)
	go func() { statusDone <- orders.UpdateStatus(ctx, ord.ID, models.OrderStatusConfirmed) }()
	<-pub.statusStarted

	lookup := make(chan bool, 1)
	go func() {
		_, ok := orders.OrderByID(ord.ID)
		lookup <- ok
	}()
	select {
	case ok := <-lookup:
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("OrderByID blocked behind an in-flight publish")
	}

	pub.release <- struct{}{}
	require.NoError(t, <-statusDone)
}
