// Package cart implements the order cart reducer: a small set of total,
// synchronous operations over an ordered list of line items. Entries are
// keyed by (name, size) for merge purposes and never carry a quantity
// below one.
package cart

import "voice-order-service/internal/models"

// Add merges an item into the cart. An existing (name, size) entry gains the
// incoming quantity in place, keeping its position, price and addons; a new
// variant is appended at the end. A quantity below one counts as one.
func Add(items []models.LineItem, item models.LineItem) []models.LineItem {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	next := snapshot(items)
	for i := range next {
		if next[i].SameVariant(item) {
			next[i].Quantity += item.Quantity
			return next
		}
	}
	return append(next, item)
}

// Remove deletes every entry with the given name, regardless of size.
func Remove(items []models.LineItem, name string) []models.LineItem {
	next := make([]models.LineItem, 0, len(items))
	for _, it := range items {
		if it.Name != name {
			next = append(next, it)
		}
	}
	return next
}

// Replace swaps the entire cart for the supplied list, no merging. Entries
// with a non-positive quantity are dropped to hold the quantity invariant.
func Replace(items []models.LineItem) []models.LineItem {
	next := make([]models.LineItem, 0, len(items))
	for _, it := range items {
		if it.Quantity >= 1 {
			next = append(next, it)
		}
	}
	return next
}

// Clear empties the cart.
func Clear() []models.LineItem {
	return []models.LineItem{}
}

// ItemCount returns the total quantity across all entries.
func ItemCount(items []models.LineItem) int {
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	return count
}

func snapshot(items []models.LineItem) []models.LineItem {
	next := make([]models.LineItem, len(items))
	copy(next, items)
	return next
}
