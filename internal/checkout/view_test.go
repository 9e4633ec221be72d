package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront-view/internal/events"
	"github.com/example/storefront-view/internal/pricing"
	"github.com/example/storefront-view/internal/upstream"
	"github.com/example/storefront-view/internal/upstream/fakes"
)

func intPtr(v int) *int { return &v }

func testLines() []pricing.LineItem {
	return []pricing.LineItem{
		{ItemID: "v-1", Price: 300000, Quantity: 1, Included: true},
		{ItemID: "v-2", Price: 100000, Quantity: 2, Included: true},
	}
}

func validAddress() upstream.ShippingAddress {
	return upstream.ShippingAddress{FullName: "A Shopper", Phone: "0900000000", Street: "1 Main St", City: "Springfield"}
}

func newTestView() (*View, *fakes.FakeCommerce) {
	fake := fakes.NewFakeCommerce()
	return NewView(fake, nil, 50000), fake
}

// recordingPublisher records published events for assertions.
type recordingPublisher struct {
	keys   []string
	events []any
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, event any) error {
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

var _ events.Publisher = (*recordingPublisher)(nil)

// ============================================
// Line Selection Tests
// ============================================

func TestView_Totals_IncludedLinesOnly(t *testing.T) {
	view, _ := newTestView()
	view.SetLines(testLines())

	require.NoError(t, view.ToggleLine("v-2", false))

	totals := view.Totals()
	assert.Equal(t, 300000, totals.Subtotal)
	assert.Equal(t, 350000, totals.FinalTotal)
}

func TestView_ToggleLine_Unknown(t *testing.T) {
	view, _ := newTestView()
	view.SetLines(testLines())

	assert.ErrorIs(t, view.ToggleLine("v-404", false), ErrUnknownLine)
}

func TestView_ToggleLine_DropsIneligiblePromotion(t *testing.T) {
	view, fake := newTestView()
	view.SetLines(testLines()) // subtotal 500000
	fake.PromotionResult = []pricing.Promotion{
		{Code: "MIN400", Type: pricing.TypeFixed, Discount: 30000, MinOrder: 400000},
	}
	view.LoadPromotions(context.Background())
	require.NoError(t, view.ApplyPromotion("MIN400"))

	// Subtotal falls to 300000, below the 400000 minimum
	require.NoError(t, view.ToggleLine("v-2", false))

	snap := view.Snapshot()
	assert.Nil(t, snap.Applied)
	assert.Equal(t, 0, snap.Totals.Discount)
}

// ============================================
// Promotion Tests
// ============================================

func TestView_LoadPromotions_FailureDegradesToNone(t *testing.T) {
	view, fake := newTestView()
	fake.PromotionErr = assert.AnError

	view.LoadPromotions(context.Background())

	assert.Empty(t, view.Snapshot().Available)
	assert.Equal(t, 1, fake.PromotionCalls)
}

func TestView_ApplyPromotion_Eligible(t *testing.T) {
	view, fake := newTestView()
	view.SetLines(testLines()) // subtotal 500000
	fake.PromotionResult = []pricing.Promotion{
		{Code: "SAVE10", Type: pricing.TypePercentage, Discount: 10, MaxDiscount: intPtr(80000), MinOrder: 200000},
	}
	view.LoadPromotions(context.Background())

	require.NoError(t, view.ApplyPromotion("SAVE10"))

	snap := view.Snapshot()
	require.NotNil(t, snap.Applied)
	assert.Equal(t, "SAVE10", snap.Applied.Code)
	assert.Equal(t, 50000, snap.Totals.Discount)
	assert.Equal(t, 500000, snap.Totals.FinalTotal)
}

func TestView_ApplyPromotion_IneligibleReportsShortfall(t *testing.T) {
	view, fake := newTestView()
	view.SetLines([]pricing.LineItem{{ItemID: "v-1", Price: 199000, Quantity: 1, Included: true}})
	fake.PromotionResult = []pricing.Promotion{
		{Code: "MIN200", Type: pricing.TypeFixed, Discount: 20000, MinOrder: 200000},
	}
	view.LoadPromotions(context.Background())

	err := view.ApplyPromotion("MIN200")

	var ineligible *pricing.IneligibleError
	require.ErrorAs(t, err, &ineligible)
	assert.Equal(t, 1000, ineligible.Shortfall)
	// Rejection leaves the selection unchanged
	assert.Nil(t, view.Snapshot().Applied)
	assert.Equal(t, 0, view.Totals().Discount)
}

func TestView_ApplyPromotion_UnknownCode(t *testing.T) {
	view, _ := newTestView()
	view.SetLines(testLines())

	assert.ErrorIs(t, view.ApplyPromotion("NOPE"), ErrUnknownPromotion)
}

func TestView_ApplyPromotion_Expired(t *testing.T) {
	view, fake := newTestView()
	view.SetLines(testLines())
	fake.PromotionResult = []pricing.Promotion{
		{Code: "OLD", Type: pricing.TypeFixed, Discount: 10000, Expiry: time.Now().Add(-time.Hour)},
	}
	view.LoadPromotions(context.Background())

	err := view.ApplyPromotion("OLD")

	assert.ErrorIs(t, err, pricing.ErrPromotionExpired)
	assert.Nil(t, view.Snapshot().Applied)
}

func TestView_RemovePromotion(t *testing.T) {
	view, fake := newTestView()
	view.SetLines(testLines())
	fake.PromotionResult = []pricing.Promotion{
		{Code: "SAVE10", Type: pricing.TypePercentage, Discount: 10},
	}
	view.LoadPromotions(context.Background())
	require.NoError(t, view.ApplyPromotion("SAVE10"))

	view.RemovePromotion()

	assert.Nil(t, view.Snapshot().Applied)
	assert.Equal(t, 0, view.Totals().Discount)
}

// ============================================
// Submit Tests
// ============================================

func TestView_Submit_Success(t *testing.T) {
	fake := fakes.NewFakeCommerce()
	publisher := &recordingPublisher{}
	view := NewView(fake, publisher, 50000)
	view.SetLines(testLines())
	view.SetShippingAddress(validAddress())
	view.SetPaymentMethod("cod")
	fake.PromotionResult = []pricing.Promotion{
		{Code: "FREESHIP", Type: pricing.TypeShipping, Discount: 50000},
	}
	view.LoadPromotions(context.Background())
	require.NoError(t, view.ApplyPromotion("FREESHIP"))
	fake.OrderID = "ord-42"

	orderID, err := view.Submit(context.Background(), "user-123")

	require.NoError(t, err)
	assert.Equal(t, "ord-42", orderID)

	require.Len(t, fake.OrderCalls, 1)
	req := fake.OrderCalls[0]
	assert.NotEmpty(t, req.IdempotencyKey)
	assert.Equal(t, "FREESHIP", req.PromotionCode)
	assert.Equal(t, "cod", req.PaymentMethod)
	require.Len(t, req.Items, 2)
	assert.Equal(t, "v-1", req.Items[0].ItemID)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0].(events.OrderSubmitted)
	assert.Equal(t, "ord-42", event.OrderID)
	assert.Equal(t, "user-123", event.UserID)
	assert.Equal(t, 500000, event.Subtotal)
	assert.Equal(t, 50000, event.Discount)
	assert.Equal(t, 500000, event.FinalTotal)
}

func TestView_Submit_ValidationPrecedesNetwork(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(v *View)
		expected error
	}{
		{
			"no lines selected",
			func(v *View) {
				lines := testLines()
				v.SetLines(lines)
				v.ToggleLine("v-1", false)
				v.ToggleLine("v-2", false)
				v.SetShippingAddress(validAddress())
				v.SetPaymentMethod("cod")
			},
			ErrNoLinesSelected,
		},
		{
			"missing shipping address",
			func(v *View) {
				v.SetLines(testLines())
				v.SetPaymentMethod("cod")
			},
			ErrMissingShipping,
		},
		{
			"partial shipping address",
			func(v *View) {
				v.SetLines(testLines())
				v.SetShippingAddress(upstream.ShippingAddress{FullName: "A", Phone: "1"})
				v.SetPaymentMethod("cod")
			},
			ErrMissingShipping,
		},
		{
			"missing payment method",
			func(v *View) {
				v.SetLines(testLines())
				v.SetShippingAddress(validAddress())
			},
			ErrMissingPayment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, fake := newTestView()
			tt.setup(view)

			_, err := view.Submit(context.Background(), "user-123")

			assert.ErrorIs(t, err, tt.expected)
			// Validation failures never reach the order service
			assert.Empty(t, fake.OrderCalls)
		})
	}
}

func TestView_Submit_UpstreamFailureKeepsState(t *testing.T) {
	view, fake := newTestView()
	view.SetLines(testLines())
	view.SetShippingAddress(validAddress())
	view.SetPaymentMethod("cod")
	fake.OrderErr = assert.AnError

	_, err := view.Submit(context.Background(), "user-123")
	require.Error(t, err)

	// State survives so the shopper can resubmit
	snap := view.Snapshot()
	assert.Len(t, snap.Lines, 2)
	assert.Equal(t, 550000, snap.Totals.FinalTotal)

	fake.OrderErr = nil
	fake.OrderID = "ord-43"
	orderID, err := view.Submit(context.Background(), "user-123")
	require.NoError(t, err)
	assert.Equal(t, "ord-43", orderID)
}

func TestView_Submit_PublishFailureDoesNotFailOrder(t *testing.T) {
	fake := fakes.NewFakeCommerce()
	publisher := &recordingPublisher{err: assert.AnError}
	view := NewView(fake, publisher, 0)
	view.SetLines(testLines())
	view.SetShippingAddress(validAddress())
	view.SetPaymentMethod("cod")
	fake.OrderID = "ord-44"

	orderID, err := view.Submit(context.Background(), "user-123")

	require.NoError(t, err)
	assert.Equal(t, "ord-44", orderID)
}
