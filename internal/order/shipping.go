package order

import "github.com/shopspring/decimal"

// Shipping methods
const (
	ShippingStandard  = "standard"
	ShippingExpress   = "express"
	ShippingOvernight = "overnight"
	ShippingFree      = "free"
)

// FreeShippingThreshold is the subtotal above which standard shipping
// costs nothing.
var FreeShippingThreshold = decimal.NewFromInt(50)

var shippingCosts = map[string]decimal.Decimal{
	ShippingStandard:  decimal.RequireFromString("5.99"),
	ShippingExpress:   decimal.RequireFromString("12.99"),
	ShippingOvernight: decimal.RequireFromString("24.99"),
	ShippingFree:      decimal.Zero,
}

var shippingLabels = map[string]string{
	ShippingStandard:  "Standard Shipping",
	ShippingExpress:   "Express Shipping",
	ShippingOvernight: "Overnight Shipping",
	ShippingFree:      "Free Shipping",
}

var deliveryWindows = map[string]string{
	ShippingStandard:  "5-7 business days",
	ShippingExpress:   "2-3 business days",
	ShippingOvernight: "1 business day",
	ShippingFree:      "7-10 business days",
}

// ShippingCharge returns the cost for a method given the order subtotal.
// An empty method means no shipping was selected and costs nothing;
// standard shipping is free above the threshold; unknown methods charge
// the standard rate.
func ShippingCharge(method string, subtotal decimal.Decimal) decimal.Decimal {
	if method == "" {
		return decimal.Zero
	}
	if method == ShippingStandard && subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	if cost, ok := shippingCosts[method]; ok {
		return cost
	}
	return shippingCosts[ShippingStandard]
}

// MethodDetails describes a shipping method for the checkout view.
type MethodDetails struct {
	Method       string          `json:"method"`
	Label        string          `json:"label"`
	Cost         decimal.Decimal `json:"cost"`
	DeliveryTime string          `json:"deliveryTime"`
}

// ShippingMethods lists the selectable methods in display order.
func ShippingMethods() []MethodDetails {
	methods := []string{ShippingStandard, ShippingExpress, ShippingOvernight, ShippingFree}
	out := make([]MethodDetails, 0, len(methods))
	for _, m := range methods {
		out = append(out, MethodDetails{
			Method:       m,
			Label:        shippingLabels[m],
			Cost:         shippingCosts[m],
			DeliveryTime: deliveryWindows[m],
		})
	}
	return out
}
