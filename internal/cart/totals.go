package cart

import "voice-order-service/internal/models"

// TaxRate is the flat GST applied to every order.
const TaxRate = 0.05

// Totals holds the derived money amounts for a cart. No rounding is applied
// here; display truncation is the client's concern.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Calculate derives subtotal, tax and total from the cart. Pure; an empty
// cart yields exactly zero for all three.
func Calculate(items []models.LineItem) Totals {
	var subtotal float64
	for _, it := range items {
		subtotal += it.Price * float64(it.Quantity)
	}
	tax := subtotal * TaxRate
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}
