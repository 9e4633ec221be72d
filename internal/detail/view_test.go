package detail

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront-view/internal/upstream"
	"github.com/example/storefront-view/internal/upstream/fakes"
)

func pricePtr(v int) *int { return &v }

func variantProduct() *upstream.ProductDetail {
	return &upstream.ProductDetail{
		ID:     "p-1",
		Name:   "Phone A",
		Price:  500000,
		Images: []string{"front.jpg", "back.jpg", "side.jpg"},
		Colors: []upstream.Variant{
			{ID: "v-black", Name: "Black", Price: pricePtr(520000), Stock: 3, Image: "black.jpg"},
			{ID: "v-silver", Name: "Silver", Price: pricePtr(540000), Stock: 1, Image: "silver.jpg"},
		},
		ProductModelID: "m-1",
	}
}

func simpleProduct() *upstream.ProductDetail {
	return &upstream.ProductDetail{
		ID:     "p-2",
		Name:   "Charger",
		Price:  150000,
		Images: []string{"charger.jpg"},
	}
}

func newLoadedView(t *testing.T, product *upstream.ProductDetail) (*View, *fakes.FakeCommerce) {
	t.Helper()
	fake := fakes.NewFakeCommerce()
	fake.ProductResult = product
	view := NewView(fake)
	require.NoError(t, view.Load(context.Background(), product.ID))
	return view, fake
}

// ============================================
// Load Tests
// ============================================

func TestView_Load_VariantBearingSelectsFirstVariant(t *testing.T) {
	view, _ := newLoadedView(t, variantProduct())

	snap := view.Snapshot()
	assert.Equal(t, 0, snap.Selection.SelectedVariant)
	assert.Equal(t, 0, snap.Selection.SelectedImage)
	require.NotNil(t, snap.Selection.EffectivePrice)
	assert.Equal(t, 520000, *snap.Selection.EffectivePrice)
	assert.Equal(t, "black.jpg", snap.Selection.EffectiveImage)
	assert.Equal(t, "v-black", snap.Selection.PurchaseID)
}

func TestView_Load_SimpleProductFallsBackToOwnPrice(t *testing.T) {
	view, _ := newLoadedView(t, simpleProduct())

	snap := view.Snapshot()
	assert.Equal(t, -1, snap.Selection.SelectedVariant)
	require.NotNil(t, snap.Selection.EffectivePrice)
	assert.Equal(t, 150000, *snap.Selection.EffectivePrice)
	assert.Equal(t, "charger.jpg", snap.Selection.EffectiveImage)
	// Simple product purchases by product id
	assert.Equal(t, "p-2", snap.Selection.PurchaseID)
}

func TestView_Load_FetchesSiblingsAndMarksCurrentByID(t *testing.T) {
	fake := fakes.NewFakeCommerce()
	fake.ProductResult = variantProduct()
	fake.SiblingResult = []upstream.SiblingConfiguration{
		{ID: "p-0", ConfigurationSummary: "8GB / 128GB"},
		{ID: "p-1", ConfigurationSummary: "8GB / 256GB"},
		{ID: "p-3", ConfigurationSummary: "16GB / 512GB"},
	}
	view := NewView(fake)

	require.NoError(t, view.Load(context.Background(), "p-1"))

	assert.Equal(t, []string{"m-1"}, fake.SiblingCalls)
	snap := view.Snapshot()
	require.Len(t, snap.Siblings, 3)
	assert.False(t, snap.Siblings[0].IsCurrent)
	assert.True(t, snap.Siblings[1].IsCurrent)
	assert.False(t, snap.Siblings[2].IsCurrent)
}

func TestView_Load_NoModelIDSkipsSiblingFetch(t *testing.T) {
	view, fake := newLoadedView(t, simpleProduct())

	assert.Empty(t, fake.SiblingCalls)
	assert.Empty(t, view.Snapshot().Siblings)
}

func TestView_Load_SiblingFailureDegradesToNone(t *testing.T) {
	fake := fakes.NewFakeCommerce()
	fake.ProductResult = variantProduct()
	fake.SiblingErr = assert.AnError
	view := NewView(fake)

	require.NoError(t, view.Load(context.Background(), "p-1"))

	assert.Empty(t, view.Snapshot().Siblings)
}

func TestView_Load_FailureResetsView(t *testing.T) {
	view, fake := newLoadedView(t, variantProduct())
	fake.ProductResult = nil
	fake.ProductErr = assert.AnError

	err := view.Load(context.Background(), "p-404")

	require.Error(t, err)
	snap := view.Snapshot()
	assert.Nil(t, snap.Product)
	assert.Nil(t, snap.Selection.EffectivePrice)
	assert.Empty(t, snap.Selection.PurchaseID)
}

func TestView_Load_SiblingNavigationReinitializes(t *testing.T) {
	view, fake := newLoadedView(t, variantProduct())
	_, err := view.SelectVariant(1)
	require.NoError(t, err)

	sibling := &upstream.ProductDetail{
		ID:     "p-3",
		Name:   "Phone A 16GB",
		Price:  800000,
		Images: []string{"a.jpg"},
		Colors: []upstream.Variant{
			{ID: "v-gold", Name: "Gold", Price: pricePtr(820000), Image: "gold.jpg"},
		},
		ProductModelID: "m-1",
	}
	fake.ProductResult = sibling

	require.NoError(t, view.Load(context.Background(), "p-3"))

	// No stale derived fields from the previous product survive
	snap := view.Snapshot()
	assert.Equal(t, "p-3", snap.Product.ID)
	assert.Equal(t, 0, snap.Selection.SelectedVariant)
	require.NotNil(t, snap.Selection.EffectivePrice)
	assert.Equal(t, 820000, *snap.Selection.EffectivePrice)
	assert.Equal(t, "v-gold", snap.Selection.PurchaseID)
}

// ============================================
// SelectVariant Tests
// ============================================

func TestView_SelectVariant_DerivesAllFields(t *testing.T) {
	view, _ := newLoadedView(t, variantProduct())
	_, err := view.SelectThumbnail(2)
	require.NoError(t, err)

	sel, err := view.SelectVariant(1)

	require.NoError(t, err)
	assert.Equal(t, 1, sel.SelectedVariant)
	require.NotNil(t, sel.EffectivePrice)
	assert.Equal(t, 540000, *sel.EffectivePrice)
	assert.Equal(t, "silver.jpg", sel.EffectiveImage)
	assert.Equal(t, "v-silver", sel.PurchaseID)
	// Thumbnail selection resets with the variant
	assert.Equal(t, 0, sel.SelectedImage)
}

func TestView_SelectVariant_EveryValidIndexMatchesVariantPrice(t *testing.T) {
	product := variantProduct()
	view, _ := newLoadedView(t, product)

	for i, variant := range product.Colors {
		sel, err := view.SelectVariant(i)
		require.NoError(t, err)
		require.NotNil(t, sel.EffectivePrice)
		assert.Equal(t, *variant.Price, *sel.EffectivePrice)
	}
}

func TestView_SelectVariant_Idempotent(t *testing.T) {
	view, _ := newLoadedView(t, variantProduct())

	first, err := view.SelectVariant(1)
	require.NoError(t, err)
	second, err := view.SelectVariant(1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestView_SelectVariant_OutOfRange(t *testing.T) {
	view, _ := newLoadedView(t, variantProduct())

	_, err := view.SelectVariant(2)
	assert.ErrorIs(t, err, ErrVariantOutOfRange)

	_, err = view.SelectVariant(-1)
	assert.ErrorIs(t, err, ErrVariantOutOfRange)

	// Failed transition leaves the selection alone
	assert.Equal(t, 0, view.Snapshot().Selection.SelectedVariant)
}

func TestView_SelectVariant_SimpleProduct(t *testing.T) {
	view, _ := newLoadedView(t, simpleProduct())

	_, err := view.SelectVariant(0)

	assert.ErrorIs(t, err, ErrNoVariants)
}

func TestView_SelectVariant_NothingLoaded(t *testing.T) {
	view := NewView(fakes.NewFakeCommerce())

	_, err := view.SelectVariant(0)

	assert.ErrorIs(t, err, ErrNoProduct)
}

func TestView_SelectVariant_MissingPriceIsUnavailableNotZero(t *testing.T) {
	product := variantProduct()
	product.Colors[1].Price = nil
	view, _ := newLoadedView(t, product)

	sel, err := view.SelectVariant(1)

	require.NoError(t, err)
	assert.Nil(t, sel.EffectivePrice)
	assert.Equal(t, "v-silver", sel.PurchaseID)
}

func TestView_RapidVariantClicks_LastClickWins(t *testing.T) {
	product := variantProduct()
	view, _ := newLoadedView(t, product)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			view.SelectVariant(i % 2)
		}(i)
	}
	wg.Wait()

	// Whatever landed last, the derived fields agree with exactly one variant
	snap := view.Snapshot()
	variant := product.Colors[snap.Selection.SelectedVariant]
	require.NotNil(t, snap.Selection.EffectivePrice)
	assert.Equal(t, *variant.Price, *snap.Selection.EffectivePrice)
	assert.Equal(t, variant.ID, snap.Selection.PurchaseID)
	assert.Equal(t, variant.Image, snap.Selection.EffectiveImage)
}

// ============================================
// SelectThumbnail Tests
// ============================================

func TestView_SelectThumbnail_OverridesVariantImage(t *testing.T) {
	view, _ := newLoadedView(t, variantProduct())

	sel, err := view.SelectThumbnail(1)

	require.NoError(t, err)
	assert.Equal(t, 1, sel.SelectedImage)
	assert.Equal(t, "back.jpg", sel.EffectiveImage)
	// Variant choice and price survive a thumbnail pick
	assert.Equal(t, 0, sel.SelectedVariant)
	require.NotNil(t, sel.EffectivePrice)
	assert.Equal(t, 520000, *sel.EffectivePrice)
}

func TestView_SelectThumbnail_SimpleProduct(t *testing.T) {
	view, _ := newLoadedView(t, simpleProduct())

	sel, err := view.SelectThumbnail(0)

	require.NoError(t, err)
	assert.Equal(t, "charger.jpg", sel.EffectiveImage)
}

func TestView_SelectThumbnail_OutOfRange(t *testing.T) {
	view, _ := newLoadedView(t, variantProduct())

	_, err := view.SelectThumbnail(3)
	assert.ErrorIs(t, err, ErrImageOutOfRange)

	_, err = view.SelectThumbnail(-1)
	assert.ErrorIs(t, err, ErrImageOutOfRange)
}

func TestView_SelectThumbnail_NoImages(t *testing.T) {
	product := simpleProduct()
	product.Images = nil
	view, _ := newLoadedView(t, product)

	_, err := view.SelectThumbnail(0)

	assert.ErrorIs(t, err, ErrNoImages)
}
