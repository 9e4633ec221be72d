package pricing

import (
	"errors"
	"fmt"
	"time"
)

// PromotionType determines how a promotion's discount amount is computed.
type PromotionType string

const (
	TypeFixed      PromotionType = "FIXED"
	TypePercentage PromotionType = "PERCENTAGE"
	TypeShipping   PromotionType = "SHIPPING"
)

var ErrPromotionExpired = errors.New("promotion has expired")

// Promotion is a server-defined discount rule. Amounts are in minor units.
type Promotion struct {
	Code        string        `json:"code"`
	Type        PromotionType `json:"type"`
	Discount    int           `json:"discount"`
	MaxDiscount *int          `json:"max_discount,omitempty"`
	MinOrder    int           `json:"min_order"`
	Expiry      time.Time     `json:"expiry"`
}

// IneligibleError reports an order subtotal below a promotion's minimum,
// carrying the shortfall so the caller can say "add N more to qualify".
type IneligibleError struct {
	Code      string
	MinOrder  int
	Subtotal  int
	Shortfall int
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("promotion %s requires a minimum order of %d (add %d more to qualify)",
		e.Code, e.MinOrder, e.Shortfall)
}

// Eligible reports whether the promotion may be applied to an order with
// the given subtotal.
func Eligible(subtotal int, p *Promotion) bool {
	return p != nil && subtotal >= p.MinOrder
}

// CheckEligibility returns nil when the promotion applies, or an
// *IneligibleError carrying the shortfall amount.
func CheckEligibility(subtotal int, p *Promotion) error {
	if p == nil {
		return nil
	}
	if subtotal < p.MinOrder {
		return &IneligibleError{
			Code:      p.Code,
			MinOrder:  p.MinOrder,
			Subtotal:  subtotal,
			Shortfall: p.MinOrder - subtotal,
		}
	}
	return nil
}

// IsExpired reports whether the promotion's expiry has passed at the given
// instant. A zero expiry means the promotion does not expire.
func IsExpired(p *Promotion, now time.Time) bool {
	if p == nil || p.Expiry.IsZero() {
		return false
	}
	return now.After(p.Expiry)
}
