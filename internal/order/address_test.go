package order

import (
	"strings"
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func validAddress() models.ShippingAddress {
	return models.ShippingAddress{
		Name:    "John Doe",
		Address: "123 Main Street",
		City:    "New York",
		State:   "NY",
		ZipCode: "10001",
		Country: "United States",
		Contact: "+1 234 567 8900",
	}
}

func TestValidAddressHasNoErrors(t *testing.T) {
	assert.Empty(t, ValidateShippingAddress(validAddress()))
}

func TestMissingFieldsAreRequired(t *testing.T) {
	errs := ValidateShippingAddress(models.ShippingAddress{})
	assert.Len(t, errs, 7)
	assert.Equal(t, "Full Name is required", errs["name"])
	assert.Equal(t, "Contact Number is required", errs["contact"])
}

func TestContactFormat(t *testing.T) {
	addr := validAddress()

	// no digits and too short
	addr.Contact = "abc"
	errs := ValidateShippingAddress(addr)
	assert.Contains(t, errs, "contact")

	addr.Contact = "+1 234 567 8900"
	assert.NotContains(t, ValidateShippingAddress(addr), "contact")

	// letters in a phone number
	addr.Contact = "12345abcde67890"
	errs = ValidateShippingAddress(addr)
	assert.Equal(t, "Contact Number format is invalid", errs["contact"])
}

func TestLengthBounds(t *testing.T) {
	addr := validAddress()

	addr.Name = "J"
	errs := ValidateShippingAddress(addr)
	assert.Equal(t, "Full Name must be at least 2 characters", errs["name"])

	addr.Name = strings.Repeat("a", 101)
	errs = ValidateShippingAddress(addr)
	assert.Equal(t, "Full Name must be no more than 100 characters", errs["name"])
}

func TestNamePattern(t *testing.T) {
	addr := validAddress()

	addr.Name = "John O'Brien-Smith"
	assert.NotContains(t, ValidateShippingAddress(addr), "name")

	addr.Name = "John123"
	errs := ValidateShippingAddress(addr)
	assert.Equal(t, "Full Name format is invalid", errs["name"])
}

func TestZipCodeAcceptsAlphanumerics(t *testing.T) {
	addr := validAddress()

	addr.ZipCode = "SW1A 1AA"
	assert.NotContains(t, ValidateShippingAddress(addr), "zipCode")

	addr.ZipCode = "123"
	errs := ValidateShippingAddress(addr)
	assert.Equal(t, "Zip Code must be at least 4 characters", errs["zipCode"])
}
