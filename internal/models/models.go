package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as served by the remote API. The service
// never writes products back; they are snapshotted into carts, wishlists
// and orders as-is.
type Product struct {
	ID                   int64           `json:"id"`
	Title                string          `json:"title"`
	Description          string          `json:"description,omitempty"`
	Category             string          `json:"category,omitempty"`
	Brand                string          `json:"brand,omitempty"`
	SKU                  string          `json:"sku,omitempty"`
	Price                decimal.Decimal `json:"price"`
	DiscountPercentage   float64         `json:"discountPercentage,omitempty"`
	Stock                int             `json:"stock"`
	Rating               float64         `json:"rating,omitempty"`
	Thumbnail            string          `json:"thumbnail,omitempty"`
	Images               []string        `json:"images,omitempty"`
	Tags                 []string        `json:"tags,omitempty"`
	Weight               float64         `json:"weight,omitempty"`
	Dimensions           *Dimensions     `json:"dimensions,omitempty"`
	AvailabilityStatus   string          `json:"availabilityStatus,omitempty"`
	MinimumOrderQuantity int             `json:"minimumOrderQuantity,omitempty"`
	ShippingInformation  string          `json:"shippingInformation,omitempty"`
	WarrantyInformation  string          `json:"warrantyInformation,omitempty"`
	ReturnPolicy         string          `json:"returnPolicy,omitempty"`
}

type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// CartItem is a product snapshot plus a quantity. At most one CartItem
// per product id exists in a cart; quantity is always >= 1.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// LineTotal returns price multiplied by quantity.
func (ci CartItem) LineTotal() decimal.Decimal {
	return ci.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

// ShippingAddress is the destination captured at checkout.
type ShippingAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
	Contact string `json:"contact"`
}

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusCancelled = "cancelled"
)

// ValidOrderStatus reports whether s is one of the known order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusConfirmed,
		OrderStatusShipped, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is an immutable snapshot of a cart at checkout time. Only the
// status and tracking fields change after creation.
type Order struct {
	ID                string          `json:"id"`
	Number            string          `json:"orderNumber"`
	Items             []CartItem      `json:"items"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Shipping          decimal.Decimal `json:"shipping"`
	Discount          decimal.Decimal `json:"discount"`
	Total             decimal.Decimal `json:"total"`
	ShippingAddress   ShippingAddress `json:"shippingAddress"`
	ShippingMethod    string          `json:"shippingMethod,omitempty"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	TrackingNumber    string          `json:"trackingNumber,omitempty"`
	EstimatedDelivery string          `json:"estimatedDelivery,omitempty"`
}

// Review lives only in the local store; the remote API has no review
// storage.
type Review struct {
	Rating        float64   `json:"rating"`
	Comment       string    `json:"comment"`
	ReviewerName  string    `json:"reviewerName"`
	ReviewerEmail string    `json:"reviewerEmail,omitempty"`
	Date          time.Time `json:"date"`
}

// ProductReviews is the per-product review list with its derived
// aggregate. Rating is the arithmetic mean of all review ratings.
type ProductReviews struct {
	Reviews []Review `json:"reviews"`
	Total   int      `json:"total"`
	Rating  float64  `json:"rating"`
}

// User is the profile returned by the remote login endpoint.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Image     string `json:"image,omitempty"`
}

// Sort options for the product list projection
const (
	SortDefault   = "default"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortNameAsc   = "name-asc"
	SortNameDesc  = "name-desc"
)
