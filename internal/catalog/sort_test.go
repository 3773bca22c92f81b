package catalog

import (
	"testing"

	"storefront-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func sortFixture() []models.Product {
	return []models.Product{
		{ID: 1, Title: "Mascara", Price: decimal.NewFromFloat(9.99)},
		{ID: 2, Title: "Laptop", Price: decimal.NewFromFloat(1499.00)},
		{ID: 3, Title: "Chair", Price: decimal.NewFromFloat(89.50)},
	}
}

func titles(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Title)
	}
	return out
}

func TestSortProductsPriceLow(t *testing.T) {
	sorted := SortProducts(sortFixture(), models.SortPriceLow)

	assert.Equal(t, []string{"Mascara", "Chair", "Laptop"}, titles(sorted))
}

func TestSortProductsPriceHigh(t *testing.T) {
	sorted := SortProducts(sortFixture(), models.SortPriceHigh)

	assert.Equal(t, []string{"Laptop", "Chair", "Mascara"}, titles(sorted))
}

func TestSortProductsName(t *testing.T) {
	asc := SortProducts(sortFixture(), models.SortNameAsc)
	desc := SortProducts(sortFixture(), models.SortNameDesc)

	assert.Equal(t, []string{"Chair", "Laptop", "Mascara"}, titles(asc))
	assert.Equal(t, []string{"Mascara", "Laptop", "Chair"}, titles(desc))
}

func TestSortProductsDefaultKeepsAPIOrder(t *testing.T) {
	assert.Equal(t, []string{"Mascara", "Laptop", "Chair"}, titles(SortProducts(sortFixture(), models.SortDefault)))
	assert.Equal(t, []string{"Mascara", "Laptop", "Chair"}, titles(SortProducts(sortFixture(), "bogus")))
}

func TestSortProductsDoesNotMutateInput(t *testing.T) {
	in := sortFixture()

	SortProducts(in, models.SortNameAsc)

	assert.Equal(t, []string{"Mascara", "Laptop", "Chair"}, titles(in))
}
