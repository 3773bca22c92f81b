package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestShippingChargeNoMethodIsFree(t *testing.T) {
	charge := ShippingCharge("", decimal.NewFromInt(20))
	assert.True(t, charge.IsZero())
}

func TestStandardShippingFreeAboveThreshold(t *testing.T) {
	below := ShippingCharge(ShippingStandard, decimal.RequireFromString("49.99"))
	assert.True(t, below.Equal(decimal.RequireFromString("5.99")), "got %s", below)

	at := ShippingCharge(ShippingStandard, decimal.NewFromInt(50))
	assert.True(t, at.IsZero())
}

func TestExpressAlwaysCharged(t *testing.T) {
	charge := ShippingCharge(ShippingExpress, decimal.NewFromInt(500))
	assert.True(t, charge.Equal(decimal.RequireFromString("12.99")))
}

func TestUnknownMethodFallsBackToStandard(t *testing.T) {
	charge := ShippingCharge("teleport", decimal.NewFromInt(10))
	assert.True(t, charge.Equal(decimal.RequireFromString("5.99")))
}

func TestShippingMethodsListing(t *testing.T) {
	methods := ShippingMethods()
	assert.Len(t, methods, 4)
	assert.Equal(t, ShippingStandard, methods[0].Method)
	assert.Equal(t, "Standard Shipping", methods[0].Label)
	assert.Equal(t, "5-7 business days", methods[0].DeliveryTime)
}
