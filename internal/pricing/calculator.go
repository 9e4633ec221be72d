package pricing

// LineItem is one cart line at checkout. Only included lines count toward
// the subtotal.
type LineItem struct {
	ItemID   string `json:"item_id"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
	Included bool   `json:"included"`
}

// OrderTotal is the derived breakdown shown (and submitted) at checkout.
// FinalTotal is never clamped here; the order service recomputes
// authoritatively before accepting an order.
type OrderTotal struct {
	Subtotal    int `json:"subtotal"`
	ShippingFee int `json:"shipping_fee"`
	Discount    int `json:"discount"`
	FinalTotal  int `json:"final_total"`
}

// Subtotal sums price*quantity over included lines only.
func Subtotal(lines []LineItem) int {
	var total int
	for _, line := range lines {
		if !line.Included {
			continue
		}
		total += line.Price * line.Quantity
	}
	return total
}

// ComputeDiscount returns the discount amount for a promotion applied to an
// order with the given subtotal and shipping fee.
//
//   - nil promotion: 0
//   - FIXED: the flat amount, uncapped
//   - SHIPPING: capped at the shipping fee (shipping never goes negative)
//   - PERCENTAGE: subtotal * discount / 100, capped at MaxDiscount when set
func ComputeDiscount(subtotal, shippingFee int, p *Promotion) int {
	if p == nil {
		return 0
	}
	switch p.Type {
	case TypeFixed:
		return p.Discount
	case TypeShipping:
		if p.Discount > shippingFee {
			return shippingFee
		}
		return p.Discount
	case TypePercentage:
		discount := subtotal * p.Discount / 100
		if p.MaxDiscount != nil && discount > *p.MaxDiscount {
			discount = *p.MaxDiscount
		}
		return discount
	}
	return 0
}

// ComputeTotal builds the full order breakdown for a subtotal, shipping fee
// and optional promotion.
func ComputeTotal(subtotal, shippingFee int, p *Promotion) OrderTotal {
	discount := ComputeDiscount(subtotal, shippingFee, p)
	return OrderTotal{
		Subtotal:    subtotal,
		ShippingFee: shippingFee,
		Discount:    discount,
		FinalTotal:  subtotal + shippingFee - discount,
	}
}
