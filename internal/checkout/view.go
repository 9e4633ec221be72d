package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront-view/internal/events"
	"github.com/example/storefront-view/internal/pricing"
	"github.com/example/storefront-view/internal/upstream"
)

var (
	ErrUnknownLine      = errors.New("no such line in the cart")
	ErrNoLinesSelected  = errors.New("no lines selected for checkout")
	ErrMissingShipping  = errors.New("shipping address is incomplete")
	ErrMissingPayment   = errors.New("payment method is required")
	ErrUnknownPromotion = errors.New("unknown promotion code")
)

// Snapshot is the checkout view handed to the presentation layer.
type Snapshot struct {
	Lines     []pricing.LineItem  `json:"lines"`
	Available []pricing.Promotion `json:"available_promotions"`
	Applied   *pricing.Promotion  `json:"applied_promotion,omitempty"`
	Totals    pricing.OrderTotal  `json:"totals"`
}

// View is one checkout surface: the line selection, the applied promotion
// and the derived totals. All totals here are a preview; the order service
// recomputes authoritatively before accepting the order.
type View struct {
	mu        sync.Mutex
	source    upstream.Commerce
	publisher events.Publisher

	shippingFee int
	lines       []pricing.LineItem
	available   []pricing.Promotion
	applied     *pricing.Promotion
	address     upstream.ShippingAddress
	payment     string
}

func NewView(source upstream.Commerce, publisher events.Publisher, shippingFee int) *View {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &View{
		source:      source,
		publisher:   publisher,
		shippingFee: shippingFee,
	}
}

// SetLines replaces the checkout lines. A fresh line set starts fully
// included; the applied promotion is re-gated against the new subtotal.
func (v *View) SetLines(lines []pricing.LineItem) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.lines = append([]pricing.LineItem(nil), lines...)
	v.dropPromotionIfIneligible()
}

// ToggleLine includes or excludes one line from the order. If the applied
// promotion falls below its minimum after the toggle it is dropped, so the
// displayed totals never rely on an ineligible promotion.
func (v *View) ToggleLine(itemID string, included bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range v.lines {
		if v.lines[i].ItemID == itemID {
			v.lines[i].Included = included
			v.dropPromotionIfIneligible()
			return nil
		}
	}
	return ErrUnknownLine
}

// LoadPromotions refreshes the available promotions. A failed fetch
// degrades to none available; no retry.
func (v *View) LoadPromotions(ctx context.Context) {
	promotions, err := v.source.ListPromotions(ctx)
	if err != nil {
		log.Printf("[Checkout] promotion fetch failed: %v", err)
		promotions = nil
	}

	v.mu.Lock()
	v.available = promotions
	v.mu.Unlock()
}

// ApplyPromotion selects a promotion by code. Expired or ineligible
// promotions are rejected without touching the current selection; an
// ineligibility error carries the shortfall so the UI can report
// "add N more to qualify".
func (v *View) ApplyPromotion(code string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	var promo *pricing.Promotion
	for i := range v.available {
		if v.available[i].Code == code {
			promo = &v.available[i]
			break
		}
	}
	if promo == nil {
		return ErrUnknownPromotion
	}
	if pricing.IsExpired(promo, time.Now()) {
		return pricing.ErrPromotionExpired
	}
	if err := pricing.CheckEligibility(pricing.Subtotal(v.lines), promo); err != nil {
		return err
	}

	selected := *promo
	v.applied = &selected
	return nil
}

// RemovePromotion clears the applied promotion.
func (v *View) RemovePromotion() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.applied = nil
}

// SetShippingAddress stages the delivery address.
func (v *View) SetShippingAddress(addr upstream.ShippingAddress) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.address = addr
}

// SetPaymentMethod stages the payment method.
func (v *View) SetPaymentMethod(method string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.payment = method
}

// Totals returns the current preview breakdown.
func (v *View) Totals() pricing.OrderTotal {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.totals()
}

// Snapshot returns a copy of the checkout view.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	snap := Snapshot{
		Lines:     append([]pricing.LineItem(nil), v.lines...),
		Available: append([]pricing.Promotion(nil), v.available...),
		Totals:    v.totals(),
	}
	if v.applied != nil {
		applied := *v.applied
		snap.Applied = &applied
	}
	return snap
}

// Submit validates locally, then posts the order. Validation failures
// never reach the network; a failed submission leaves the view untouched
// so the shopper can fix the problem and resubmit.
func (v *View) Submit(ctx context.Context, userID string) (string, error) {
	v.mu.Lock()

	items := make([]upstream.OrderItem, 0, len(v.lines))
	for _, line := range v.lines {
		if line.Included {
			items = append(items, upstream.OrderItem{
				ItemID:   line.ItemID,
				Quantity: line.Quantity,
				Price:    line.Price,
			})
		}
	}

	if len(items) == 0 {
		v.mu.Unlock()
		return "", ErrNoLinesSelected
	}
	if v.address.FullName == "" || v.address.Phone == "" || v.address.Street == "" || v.address.City == "" {
		v.mu.Unlock()
		return "", ErrMissingShipping
	}
	if v.payment == "" {
		v.mu.Unlock()
		return "", ErrMissingPayment
	}

	req := upstream.OrderRequest{
		IdempotencyKey:  uuid.New().String(),
		ShippingAddress: v.address,
		PaymentMethod:   v.payment,
		Items:           items,
	}
	if v.applied != nil {
		req.PromotionCode = v.applied.Code
	}
	totals := v.totals()
	v.mu.Unlock()

	orderID, err := v.source.SubmitOrder(ctx, req)
	if err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}

	event := events.OrderSubmitted{
		OrderID:       orderID,
		UserID:        userID,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		FinalTotal:    totals.FinalTotal,
		PromotionCode: req.PromotionCode,
		At:            time.Now(),
	}
	if err := v.publisher.Publish(ctx, orderID, event); err != nil {
		log.Printf("[Checkout] order event publish failed: %v", err)
	}

	return orderID, nil
}

// totals computes the preview breakdown. Callers hold the lock.
func (v *View) totals() pricing.OrderTotal {
	return pricing.ComputeTotal(pricing.Subtotal(v.lines), v.shippingFee, v.applied)
}

// dropPromotionIfIneligible enforces the eligibility invariant after any
// subtotal change. Callers hold the lock.
func (v *View) dropPromotionIfIneligible() {
	if v.applied == nil {
		return
	}
	if !pricing.Eligible(pricing.Subtotal(v.lines), v.applied) {
		log.Printf("[Checkout] dropping promotion %s: order fell below its minimum", v.applied.Code)
		v.applied = nil
	}
}
