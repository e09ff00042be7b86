package cart

import (
	"testing"

	"voice-order-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAddMergesSameVariant(t *testing.T) {
	item := models.LineItem{Name: "Margherita", Size: "M", Price: 300, Quantity: 1}

	items := Add(nil, item)
	items = Add(items, item)

	assert.Len(t, items, 1)
	assert.Equal(t, "Margherita", items[0].Name)
	assert.Equal(t, "M", items[0].Size)
	assert.Equal(t, 300.0, items[0].Price)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAddSumsQuantitiesForSameKey(t *testing.T) {
	var items []models.LineItem
	quantities := []int{1, 3, 2}
	for _, q := range quantities {
		items = Add(items, models.LineItem{Name: "Farmhouse", Size: "L", Price: 450, Quantity: q})
	}

	assert.Len(t, items, 1)
	assert.Equal(t, 6, items[0].Quantity)
}

func TestAddDefaultsQuantityToOne(t *testing.T) {
	items := Add(nil, models.LineItem{Name: "Garlic Bread", Price: 120})

	assert.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestAddKeepsDistinctSizesSeparate(t *testing.T) {
	items := Add(nil, models.LineItem{Name: "Margherita", Size: "M", Price: 300, Quantity: 1})
	items = Add(items, models.LineItem{Name: "Margherita", Size: "L", Price: 450, Quantity: 1})
	items = Add(items, models.LineItem{Name: "Margherita", Price: 250, Quantity: 1})

	assert.Len(t, items, 3)
}

func TestAddFirstSeenPriceAndAddonsWin(t *testing.T) {
	items := Add(nil, models.LineItem{Name: "Margherita", Size: "M", Price: 300, Quantity: 1, Addons: []string{"olives"}})
	items = Add(items, models.LineItem{Name: "Margherita", Size: "M", Price: 999, Quantity: 1, Addons: []string{"jalapenos"}})

	assert.Len(t, items, 1)
	assert.Equal(t, 300.0, items[0].Price)
	assert.Equal(t, []string{"olives"}, items[0].Addons)
}

func TestAddPreservesEntryPosition(t *testing.T) {
	items := Add(nil, models.LineItem{Name: "Margherita", Size: "M", Price: 300, Quantity: 1})
	items = Add(items, models.LineItem{Name: "Coke", Price: 60, Quantity: 1})
	items = Add(items, models.LineItem{Name: "Margherita", Size: "M", Price: 300, Quantity: 1})

	assert.Len(t, items, 2)
	assert.Equal(t, "Margherita", items[0].Name)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "Coke", items[1].Name)
}

func TestAddDoesNotMutateInput(t *testing.T) {
	original := Add(nil, models.LineItem{Name: "Margherita", Size: "M", Price: 300, Quantity: 1})

	_ = Add(original, models.LineItem{Name: "Margherita", Size: "M", Price: 300, Quantity: 5})

	assert.Equal(t, 1, original[0].Quantity)
}

func TestRemoveMatchesByNameAcrossSizes(t *testing.T) {
	items := []models.LineItem{
		{Name: "Margherita", Size: "M", Price: 300, Quantity: 1},
		{Name: "Margherita", Size: "L", Price: 450, Quantity: 2},
		{Name: "Coke", Price: 60, Quantity: 1},
	}

	items = Remove(items, "Margherita")

	assert.Len(t, items, 1)
	assert.Equal(t, "Coke", items[0].Name)
}

func TestRemoveUnknownNameIsNoop(t *testing.T) {
	items := []models.LineItem{{Name: "Coke", Price: 60, Quantity: 1}}

	items = Remove(items, "Pepsi")

	assert.Len(t, items, 1)
}

func TestReplaceDiscardsPriorContents(t *testing.T) {
	items := []models.LineItem{
		{Name: "Margherita", Size: "M", Price: 300, Quantity: 2},
		{Name: "Coke", Price: 60, Quantity: 1},
	}

	items = Replace([]models.LineItem{{Name: "Farmhouse", Size: "L", Price: 450, Quantity: 1}})

	assert.Len(t, items, 1)
	assert.Equal(t, "Farmhouse", items[0].Name)
}

func TestReplaceDropsNonPositiveQuantities(t *testing.T) {
	items := Replace([]models.LineItem{
		{Name: "Margherita", Size: "M", Price: 300, Quantity: 2},
		{Name: "Coke", Price: 60, Quantity: 0},
		{Name: "Garlic Bread", Price: 120, Quantity: -1},
	})

	assert.Len(t, items, 1)
	assert.Equal(t, "Margherita", items[0].Name)
}

func TestClear(t *testing.T) {
	items := Clear()
	assert.Empty(t, items)
}

func TestItemCount(t *testing.T) {
	items := []models.LineItem{
		{Name: "Margherita", Size: "M", Price: 300, Quantity: 2},
		{Name: "Coke", Price: 60, Quantity: 3},
	}
	assert.Equal(t, 5, ItemCount(items))
}

func TestCalculateTotals(t *testing.T) {
	items := []models.LineItem{
		{Name: "Margherita", Price: 300, Quantity: 2},
		{Name: "Garlic Bread", Price: 150, Quantity: 1},
	}

	totals := Calculate(items)

	assert.Equal(t, 750.0, totals.Subtotal)
	assert.Equal(t, 37.5, totals.Tax)
	assert.Equal(t, 787.5, totals.Total)
}

func TestCalculateEmptyCart(t *testing.T) {
	totals := Calculate(nil)

	assert.Equal(t, 0.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.Tax)
	assert.Equal(t, 0.0, totals.Total)
}
